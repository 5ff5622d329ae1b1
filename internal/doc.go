// Package internal contains the implementation packages for the contactbook
// server and CLI.
//
// # Package Organization
//
//   - contact: Contact model, name/number validation and ID generation
//   - form: Add-contact form logic and its HTML view
//   - list: Contact list view and delete handling
//   - notify: Toast notifications with auto-close
//   - store: In-memory contact store and YAML seed files
//   - server: HTTP handlers, page rendering and security middleware
//   - websocket: Hub that pushes toasts and list changes to open pages
//   - config: Viper-backed configuration and its validation
//   - errors: Typed errors with codes and per-entry collection
//   - logging: Structured logging over log/slog
//   - version: Build information
//
// # Ownership
//
// The store owns the contact collection. The form and list never mutate it
// directly: they report adds and deletes through callbacks that the server
// routes to the store. Store and toast changes are fanned out to WebSocket
// clients by the hub.
package internal
