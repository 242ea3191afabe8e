// Package controller keeps the set of known MediaRenderers.
//
// The Registry receives transport callbacks (alive, byebye, renewal
// failure, event) and owns one renderer.Renderer per device UUID:
//
//	OnDiscoveryAlive ──► insert ──► InitDescription ──► SubscribeToServices
//	                                                          │ Bind(sid, uuid)
//	                                                          ▼
//	                                   Observer.AddRenderer (if still registered)
//
//	OnDiscoveryByebye / OnSubscriptionRenewalFailed
//	    ──► Observer.RemoveRenderer ──► drop sid mappings and record ──► Unsubscribe
//
//	OnEvent(sid) ──► bySID ──► byUUID ──► Renderer.ApplyEvent
//
// Two maps are kept under a single mutex: byUUID owns the records and
// bySID routes events. A record is in bySID only while it is in byUUID.
//
// PositionPoller optionally queries the selected renderer's AVTransport
// for its position, for devices that do not event it.
package controller
