// Package upnp is the control point transport of the display daemon.
//
// It covers the parts of the UPnP Device Architecture the daemon needs:
//
//   - SSDP discovery: a multicast NOTIFY listener plus periodic M-SEARCH
//     for MediaRenderer devices, with search replies treated as alive
//   - Device descriptions: download and parse, including embedded devices,
//     with URLBase or location-derived base URL resolution
//   - GENA eventing: SUBSCRIBE, renewal at 90% of the granted timeout,
//     UNSUBSCRIBE, and a NOTIFY callback server
//   - SOAP control: AVTransport GetPositionInfo
//
// # Architecture
//
//	SSDP multicast ──► listenNotify ─┐
//	M-SEARCH replies ─► search ──────┼──► Handler.OnDiscoveryAlive / Byebye
//	                                 │
//	device NOTIFY ──► chi router ──► dispatch ──► Handler.OnEvent
//	                                 │    │
//	                                 │    └─► parked (SID not yet known)
//	renewal timer ──► SUBSCRIBE(SID) ┴──► Handler.OnSubscriptionRenewalFailed
//
// A device may send the initial event before the SUBSCRIBE response has
// been processed. Such events are parked for up to ten seconds and
// replayed shortly after Subscribe returns the SID.
//
// The callback path carries a random token generated per process, so
// NOTIFYs for subscriptions made by an earlier run get 404.
//
// XML is decoded with golang.org/x/net/html/charset so descriptions in
// ISO-8859-1 or other declared encodings parse correctly.
package upnp
