// Package providers implements the Generator interface for each supported
// LLM provider.
//
// Supported providers: Anthropic (Claude), OpenAI (GPT), Yandex (YandexGPT
// foundation models), and Ollama / LMStudio for local models.
//
// All providers share a common retry helper with exponential back-off.
// Rate limits and upstream 5xx responses are retried; authentication
// failures are surfaced immediately and can be detected with IsAuthError.
//
// Use New to obtain a Generator by provider name and model string.
package providers
