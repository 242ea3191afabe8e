// Package history persists what the display has seen: a catalogue of
// every MediaRenderer discovered on the network and a log of the tracks
// played on the selected one.
//
// Both live in the SQLite database opened by infrastructure/database and
// migrated from the top-level migrations package. Timestamps are stored
// as RFC 3339 text in UTC.
//
// Tracker keeps the catalogue current by observing the controller
// registry. It talks to SQLite, so it must be wrapped in
// controller.NewAsyncObserver before being handed to the registry.
package history
