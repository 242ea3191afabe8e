// Package renderer holds the control point's per-device state.
//
// A Renderer is created when a MediaRenderer is first announced. It loads
// the device description once, subscribes to the AVTransport and
// RenderingControl services, and applies GENA events to a VariableStore:
//
//	GENA NOTIFY body
//	  └─ propertyset
//	       ├─ LastChange ──► Event/InstanceID[0]/* ──► Name (or Name_Channel) = val
//	       │                    └─ CurrentTrackMetaData ──► DIDL-Lite ──► Meta_*
//	       └─ other property ──► Name = text
//
// Readers (the display sampler, publishers) use the View interface and
// never see partially applied events: one event is one SetMany.
package renderer
