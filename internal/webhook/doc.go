// Package webhook keeps the set of registered webhooks and delivers content
// lifecycle events to them. Each event is posted to every enabled webhook
// subscribed to it, concurrently, with bounded retries.
package webhook
