// Package proto enumerates the HTTP protocol versions the traffic handler needs to
// distinguish, mirroring the teacher's bitmask-based representation.
package proto

import "github.com/indigo-web/utils/uf"

// Protocol is a bitmask enum, so HTTP1 can be expressed as the union of HTTP10 and HTTP11.
type Protocol uint8

const (
	Unknown Protocol = 0
	HTTP10  Protocol = 1 << iota
	HTTP11
	HTTP2

	HTTP1 = HTTP10 | HTTP11
)

func (p Protocol) String() string {
	lut := [...]string{HTTP10: "HTTP/1.0", HTTP11: "HTTP/1.1", HTTP2: "HTTP/2.0"}
	if int(p) >= len(lut) {
		return "HTTP/1.1"
	}

	return lut[p]
}

// IsHTTP1 tells whether p is either HTTP/1.0 or HTTP/1.1.
func (p Protocol) IsHTTP1() bool {
	return p&HTTP1 == p && p != Unknown
}

const (
	tokenLength        = len("HTTP/x.x")
	majorVersionOffset = len("HTTP/x") - 1
	minorVersionOffset = len("HTTP/x.x") - 1
	scheme             = "HTTP/"
)

var majorMinorLUT = [10][10]Protocol{
	1: {0: HTTP10, 1: HTTP11},
	2: {0: HTTP2},
}

// FromBytes parses a protocol token such as "HTTP/1.1" with no trailing CRLF.
func FromBytes(raw []byte) Protocol {
	if len(raw) != tokenLength || uf.B2S(raw[:majorVersionOffset]) != scheme {
		return Unknown
	}

	major, minor := raw[majorVersionOffset]-'0', raw[minorVersionOffset]-'0'
	if major > 9 || minor > 9 {
		return Unknown
	}

	return majorMinorLUT[major][minor]
}
