// Package nowplaying carries what the display shows to places other than
// the screen.
//
// Every type here except PresencePublisher is a display.Subscriber fed by
// the sampler:
//
//   - MQTTPublisher keeps a retained now-playing message on the broker
//   - HistoryRecorder writes playback and track-change points to InfluxDB
//   - PlayLog appends a row to the SQLite play log on every track change
//
// PresencePublisher is a controller.Observer that announces renderers
// coming and going.
//
// The sampler calls its subscribers inline on its tick, so anything that
// does I/O is wrapped in NewAsyncSubscriber (or controller.NewAsyncObserver
// for presence) before it is registered.
package nowplaying
