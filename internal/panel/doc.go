// Package panel serves the browser now-playing page as an embedded asset.
//
// The page mirrors the two-line display: it loads the current sample from
// /api/v1/nowplaying and then follows the nowplaying.changed WebSocket
// channel. The assets are embedded into the binary with go:embed; a
// directory on disk can be served instead while working on the page.
//
// Unknown paths fall back to index.html. Cache-control is set to no-cache
// because the assets are not content-hashed.
package panel
