// Package notifications delivers download events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when no topic is set. Each event type
// can be switched off individually so a long playlist does not flood the
// phone with one push per video.
//
// Workflow code depends only on the Service interface.
package notifications
