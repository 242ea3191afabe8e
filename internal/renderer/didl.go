package renderer

import (
	"encoding/xml"

	"github.com/nerrad567/upnp-display/internal/upnp"
)

const (
	nsDC   = "http://purl.org/dc/elements/1.1/"
	nsUPnP = "urn:schemas-upnp-org:metadata-1-0/upnp/"
)

type didlDocument struct {
	XMLName xml.Name   `xml:"DIDL-Lite"`
	Items   []didlItem `xml:"item"`
}

type didlItem struct {
	Fields []didlField `xml:",any"`
}

type didlField struct {
	XMLName xml.Name
	Role    string `xml:"role,attr"`
	Value   string `xml:",chardata"`
}

// is matches a namespace URI or, for renderers that omit xmlns
// declarations, the bare prefix.
func (f didlField) is(namespace, prefix, local string) bool {
	return f.XMLName.Local == local &&
		(f.XMLName.Space == namespace || f.XMLName.Space == prefix)
}

// decodeMetadata decodes DIDL-Lite track metadata into Meta_* variables.
// Every Meta_* key is present in the result; fields the document does not
// carry are empty.
func decodeMetadata(didl string) map[string]string {
	meta := make(map[string]string, len(metaFields))
	for _, k := range metaFields {
		meta[k] = ""
	}

	var doc didlDocument
	if err := upnp.UnmarshalXML([]byte(stripProlog(didl)), &doc); err != nil || len(doc.Items) == 0 {
		return meta
	}

	var albumArtist string
	for _, f := range doc.Items[0].Fields {
		value := f.Value
		if value == "" {
			continue
		}
		switch {
		case f.is(nsDC, "dc", "title"):
			meta[MetaTitle] = value
		case f.is(nsUPnP, "upnp", "artist"):
			switch f.Role {
			case "Composer":
				meta[MetaComposer] = value
			case "AlbumArtist":
				albumArtist = value
			default:
				meta[MetaArtist] = value
			}
		case f.is(nsUPnP, "upnp", "album"):
			meta[MetaAlbum] = value
		case f.is(nsUPnP, "upnp", "genre"):
			meta[MetaGenre] = value
		case f.is(nsUPnP, "upnp", "composer"):
			meta[MetaComposer] = value
		case f.is(nsDC, "dc", "creator"):
			meta[MetaCreator] = value
		case f.is(nsDC, "dc", "date"):
			if len(value) == len("2006-01-02") {
				value = value[:4]
			}
			meta[MetaYear] = value
		}
	}

	if meta[MetaArtist] == "" && albumArtist != "" {
		meta[MetaArtist] = albumArtist
	}
	return meta
}
