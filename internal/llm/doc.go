// Package llm talks to hosted language models for the spending assistant.
// Providers share one Client interface; GuardedClient adds rate limiting,
// response caching and retries on top of any provider.
package llm
