// Package scanner walks a source tree and reads files tolerantly.
//
// Scan keeps only files whose extension belongs to a fixed cross-language
// set and is the input to graph construction. ScanAll keeps everything except
// binary-like extensions and feeds the full-text chunk corpus. Both walks
// honor a root .gitignore when present, skip unreadable files silently, and
// drop invalid UTF-8 bytes instead of failing. A scan that finds nothing
// returns ErrNoSources so callers can report "nothing to analyze" rather than
// an opaque failure.
package scanner
