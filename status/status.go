// Package status holds HTTP status codes and the framing predicates the outbound shaper needs
// in order to decide whether a response's length is self-defined.
package status

// Code is an HTTP status code.
type Code uint16

const (
	Continue           Code = 100
	SwitchingProtocols Code = 101

	OK        Code = 200
	NoContent Code = 204

	NotModified Code = 304

	BadRequest          Code = 400
	RequestTimeout      Code = 408
	HTTPVersionNotSupp  Code = 505
	InternalServerError Code = 500

	// CloseConnection is not a real wire status: it's the sentinel the core uses internally to
	// mean "do not write anything, just tear the connection down".
	CloseConnection Code = 0
)

var text = map[Code]string{
	Continue:            "Continue",
	SwitchingProtocols:  "Switching Protocols",
	OK:                  "OK",
	NoContent:           "No Content",
	NotModified:         "Not Modified",
	BadRequest:          "Bad Request",
	RequestTimeout:      "Request Timeout",
	HTTPVersionNotSupp:  "HTTP Version Not Supported",
	InternalServerError: "Internal Server Error",
}

// Text returns the standard reason phrase for code, or "" if unknown.
func Text(code Code) string {
	return text[code]
}

// IsInformational reports whether code is in the 1xx class.
func IsInformational(code Code) bool {
	return code >= 100 && code < 200
}

// IsNoContent reports whether code is 204.
func IsNoContent(code Code) bool {
	return code == NoContent
}

// IsNotModified reports whether code is 304.
func IsNotModified(code Code) bool {
	return code == NotModified
}
