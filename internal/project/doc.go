// Package project locates and summarizes a project tree: resolving wrapper
// directories left by archive extraction, listing files, and collecting a
// bounded set of text samples for prompts that want raw source alongside
// packed context.
package project
