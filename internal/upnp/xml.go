package upnp

import (
	"bytes"
	"encoding/xml"
	"io"

	"golang.org/x/net/html/charset"
)

// NewXMLDecoder returns an xml.Decoder that understands the non-UTF-8
// encodings some renderers declare in their XML prolog.
func NewXMLDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	return dec
}

// UnmarshalXML decodes data into v using NewXMLDecoder.
func UnmarshalXML(data []byte, v any) error {
	return NewXMLDecoder(bytes.NewReader(data)).Decode(v)
}
