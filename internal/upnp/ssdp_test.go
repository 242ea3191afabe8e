package upnp

import (
	"strings"
	"testing"
)

func TestUUIDFromUSN(t *testing.T) {
	tests := []struct {
		usn  string
		want string
	}{
		{usn: "uuid:abc::urn:schemas-upnp-org:device:MediaRenderer:1", want: "uuid:abc"},
		{usn: "uuid:abc::upnp:rootdevice", want: "uuid:abc"},
		{usn: "uuid:abc", want: "uuid:abc"},
		{usn: "  uuid:abc  ", want: "uuid:abc"},
		{usn: "", want: ""},
	}

	for _, tt := range tests {
		if got := uuidFromUSN(tt.usn); got != tt.want {
			t.Errorf("uuidFromUSN(%q) = %q, want %q", tt.usn, got, tt.want)
		}
	}
}

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func TestParseNotify(t *testing.T) {
	tests := []struct {
		name     string
		datagram string
		wantOK   bool
		want     announcement
	}{
		{
			name: "alive",
			datagram: `NOTIFY * HTTP/1.1
HOST: 239.255.255.250:1900
CACHE-CONTROL: max-age=1800
LOCATION: http://192.168.1.20:49152/description.xml
NT: urn:schemas-upnp-org:device:MediaRenderer:1
NTS: ssdp:alive
USN: uuid:abc::urn:schemas-upnp-org:device:MediaRenderer:1

`,
			wantOK: true,
			want: announcement{
				kind:       announceAlive,
				deviceType: "urn:schemas-upnp-org:device:MediaRenderer:1",
				uuid:       "uuid:abc",
				location:   "http://192.168.1.20:49152/description.xml",
			},
		},
		{
			name: "byebye",
			datagram: `NOTIFY * HTTP/1.1
HOST: 239.255.255.250:1900
NT: urn:schemas-upnp-org:device:MediaRenderer:1
NTS: ssdp:byebye
USN: uuid:abc::urn:schemas-upnp-org:device:MediaRenderer:1

`,
			wantOK: true,
			want: announcement{
				kind:       announceByebye,
				deviceType: "urn:schemas-upnp-org:device:MediaRenderer:1",
				uuid:       "uuid:abc",
			},
		},
		{
			name: "alive without location",
			datagram: `NOTIFY * HTTP/1.1
NT: upnp:rootdevice
NTS: ssdp:alive
USN: uuid:abc::upnp:rootdevice

`,
			wantOK: false,
		},
		{
			name: "m-search is not a notify",
			datagram: `M-SEARCH * HTTP/1.1
HOST: 239.255.255.250:1900
MAN: "ssdp:discover"
ST: ssdp:all

`,
			wantOK: false,
		},
		{
			name:     "garbage",
			datagram: "\x00\x01\x02",
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseNotify(crlf(tt.datagram))
			if ok != tt.wantOK {
				t.Fatalf("parseNotify() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("parseNotify() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseSearchResponse(t *testing.T) {
	datagram := crlf(`HTTP/1.1 200 OK
CACHE-CONTROL: max-age=1800
EXT:
LOCATION: http://192.168.1.21:1400/xml/device_description.xml
ST: urn:schemas-upnp-org:device:MediaRenderer:1
USN: uuid:RINCON_1::urn:schemas-upnp-org:device:MediaRenderer:1

`)

	a, ok := parseSearchResponse(datagram)
	if !ok {
		t.Fatal("parseSearchResponse() ok = false")
	}
	if a.kind != announceAlive {
		t.Errorf("kind = %v, want alive", a.kind)
	}
	if a.uuid != "uuid:RINCON_1" {
		t.Errorf("uuid = %q", a.uuid)
	}
	if a.deviceType != MediaRendererSearchTarget {
		t.Errorf("deviceType = %q", a.deviceType)
	}

	if _, ok := parseSearchResponse(crlf("HTTP/1.1 500 Internal Server Error\n\n")); ok {
		t.Error("parseSearchResponse(500) ok = true")
	}
}

func TestSearchRequest(t *testing.T) {
	req := string(searchRequest(MediaRendererSearchTarget))

	for _, want := range []string{
		"M-SEARCH * HTTP/1.1\r\n",
		"HOST: 239.255.255.250:1900\r\n",
		"MAN: \"ssdp:discover\"\r\n",
		"ST: urn:schemas-upnp-org:device:MediaRenderer:1\r\n",
	} {
		if !strings.Contains(req, want) {
			t.Errorf("search request missing %q", want)
		}
	}
	if !strings.HasSuffix(req, "\r\n\r\n") {
		t.Error("search request not terminated by blank line")
	}
}
