package renderer

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/nerrad567/upnp-display/internal/upnp"
)

// propertySet is a GENA event body.
type propertySet struct {
	XMLName    xml.Name   `xml:"propertyset"`
	Properties []property `xml:"property"`
}

type property struct {
	Vars []propertyVar `xml:",any"`
}

type propertyVar struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
	Inner   string `xml:",innerxml"`
}

// value returns the property text. Some renderers embed LastChange as
// unescaped child elements instead of text.
func (v propertyVar) value() string {
	if strings.TrimSpace(v.Text) == "" && strings.Contains(v.Inner, "<") {
		return v.Inner
	}
	return v.Text
}

// lastChangeEvent is the AVTransport/RenderingControl LastChange document.
type lastChangeEvent struct {
	XMLName   xml.Name   `xml:"Event"`
	Instances []instance `xml:"InstanceID"`
}

type instance struct {
	Val  string     `xml:"val,attr"`
	Vars []stateVar `xml:",any"`
}

type stateVar struct {
	XMLName xml.Name
	Val     string `xml:"val,attr"`
	Channel string `xml:"channel,attr"`
}

// ApplyEvent applies a GENA event payload to the variable store. It
// returns false if the payload could not be parsed, leaving state as it
// was.
func (r *Renderer) ApplyEvent(payload []byte) bool {
	updates, err := parseEvent(payload)
	if err != nil {
		r.logger.Debug("ignoring event", "uuid", r.uuid, "error", err)
		return false
	}

	if didl, ok := updates[VarCurrentTrackMetaData]; ok {
		for k, v := range decodeMetadata(didl) {
			updates[k] = v
		}
	}

	r.vars.SetMany(updates)
	return true
}

// parseEvent extracts variable updates from a property set. A bare
// LastChange Event document is accepted as well.
func parseEvent(payload []byte) (map[string]string, error) {
	var ps propertySet
	if err := upnp.UnmarshalXML(payload, &ps); err != nil {
		if updates, lcErr := parseLastChange(string(payload)); lcErr == nil {
			return updates, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	updates := make(map[string]string)
	for _, p := range ps.Properties {
		for _, v := range p.Vars {
			if v.XMLName.Local != VarLastChange {
				updates[v.XMLName.Local] = v.value()
				continue
			}
			changes, err := parseLastChange(v.value())
			if err != nil {
				return nil, err
			}
			for name, value := range changes {
				updates[name] = value
			}
		}
	}
	return updates, nil
}

// parseLastChange returns the variables of the first InstanceID.
// Channel-qualified values other than Master are stored as Name_Channel.
func parseLastChange(doc string) (map[string]string, error) {
	var ev lastChangeEvent
	if err := upnp.UnmarshalXML([]byte(stripProlog(doc)), &ev); err != nil {
		return nil, fmt.Errorf("%w: LastChange: %v", ErrMalformedEvent, err)
	}
	if len(ev.Instances) == 0 {
		return nil, fmt.Errorf("%w: LastChange without InstanceID", ErrMalformedEvent)
	}

	updates := make(map[string]string, len(ev.Instances[0].Vars))
	for _, v := range ev.Instances[0].Vars {
		name := v.XMLName.Local
		if v.Channel != "" && v.Channel != "Master" {
			name += "_" + v.Channel
		}
		updates[name] = v.Val
	}
	return updates, nil
}

// stripProlog drops an XML declaration from a document that was already
// decoded to UTF-8 as text, so a stale encoding label is not re-applied.
func stripProlog(doc string) string {
	trimmed := strings.TrimSpace(doc)
	if !strings.HasPrefix(trimmed, "<?xml") {
		return doc
	}
	if end := strings.Index(trimmed, "?>"); end >= 0 {
		return trimmed[end+2:]
	}
	return doc
}
