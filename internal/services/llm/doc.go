// Package llm provides an OpenRouter-compatible chat client that returns JSON
// payloads. The paraphrase adapter uses it to rewrite narrative lines and the
// doctor command uses HealthCheck to verify credentials.
//
// The client retries HTTP 408/429/5xx responses, empty completions, and
// network timeouts with exponential backoff (base 1s, max 10s, 5 attempts by
// default). Context cancellation aborts retries immediately.
package llm
