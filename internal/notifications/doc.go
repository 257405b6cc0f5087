// Package notifications publishes run outcomes to an ntfy topic.
//
// NewService returns a no-op notifier when no topic is configured, so callers
// never branch on whether notifications are enabled.
package notifications
