// Package notifications delivers push notifications for deck lifecycle events
// via ntfy. When no topic is configured every notification is a silent no-op.
package notifications
