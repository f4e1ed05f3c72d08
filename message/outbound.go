package message

import (
	"strings"

	"github.com/indigo-web/traffic/kv"
	"github.com/indigo-web/traffic/status"
)

// OutboundKind tags the variant held by an Outbound value, replacing the teacher's dispatch on
// msg.getClass() (DefaultHttpResponse / DefaultFullHttpResponse / DefaultHttpContent / ...).
type OutboundKind uint8

const (
	// ResponseHead carries a response line and headers only; body arrives as later Content /
	// LastContent parts.
	ResponseHead OutboundKind = iota
	// FullResponse carries a response head together with its entire (possibly empty) body in
	// one shot.
	FullResponse
	// OutContent carries an intermediate response body chunk.
	OutContent
	// OutLastContent carries the final response body chunk.
	OutLastContent
	// Other is anything the shaper doesn't need to interpret (e.g. a raw protocol upgrade
	// acknowledgement) and passes through untouched.
	Other
)

// Outbound is a single outgoing message part, written by the application and observed by the
// traffic handler on its way to the encoder.
type Outbound struct {
	Kind OutboundKind

	// Populated when Kind == ResponseHead or Kind == FullResponse.
	Code    status.Code
	Headers *kv.Storage

	// Populated when Kind == FullResponse, OutContent or OutLastContent.
	Body []byte
}

// IsInformational reports whether the response head is a 1xx status.
func (o *Outbound) IsInformational() bool {
	return status.IsInformational(o.Code)
}

// HasSelfDefinedLength reports whether a client can detect the end of this message without the
// connection closing: via Content-Length, chunked Transfer-Encoding, a multipart/* body, or an
// empty-by-spec status (1xx, 204, 304). The 1xx/204/304 and header checks mirror
// HttpTrafficHandler.isSelfDefinedMessageLength verbatim; the FullResponse case below has no
// counterpart there and is a deliberate codec-specific addition, not a port.
func (o *Outbound) HasSelfDefinedLength() bool {
	if status.IsInformational(o.Code) || status.IsNoContent(o.Code) || status.IsNotModified(o.Code) {
		return true
	}

	if o.Kind == FullResponse {
		// applyKeepAlivePolicy (traffic/outbound.go) runs this check before the outbound value
		// ever reaches the encoder, so it can't yet see the Content-Length that http1/encoder.go
		// always computes for a FullResponse body. Treating FullResponse as self-defined here is
		// what keeps that later, real Content-Length honest: the two are a deliberate pair, not
		// an incidental match, and this field alone is why applyKeepAlivePolicy never force-closes
		// a keep-alive connection just because the application omitted its own Content-Length on
		// a WriteFull call.
		return true
	}

	if o.Headers == nil {
		return false
	}

	if o.Headers.Has("Content-Length") {
		return true
	}

	if te, ok := o.Headers.Get("Transfer-Encoding"); ok && strings.Contains(strings.ToLower(te), "chunked") {
		return true
	}

	if ct, ok := o.Headers.Get("Content-Type"); ok && hasMultipartPrefix(ct) {
		return true
	}

	return false
}

const multipartPrefix = "multipart"

func hasMultipartPrefix(contentType string) bool {
	if len(contentType) < len(multipartPrefix) {
		return false
	}

	return strings.EqualFold(contentType[:len(multipartPrefix)], multipartPrefix)
}

// KeepAliveRequested reports what the Connection header (or absence thereof under the rules
// implied by the request's protocol) says about persistence. The traffic handler is the one
// that knows the request's protocol default, so this only inspects the explicit header.
func KeepAliveRequested(headers *kv.Storage) (value string, explicit bool) {
	if headers == nil {
		return "", false
	}

	v, found := headers.Get("Connection")
	return v, found
}

// SetConnectionClose rewrites (or adds) the Connection header to "close", as
// HttpTrafficHandler.write does via HttpUtil.setKeepAlive(response, false) once the server
// knows better than the application did.
func SetConnectionClose(headers *kv.Storage) {
	headers.Set("Connection", "close")
}

// SetConnectionKeepAlive rewrites (or adds) the Connection header to "keep-alive".
func SetConnectionKeepAlive(headers *kv.Storage) {
	headers.Set("Connection", "keep-alive")
}
