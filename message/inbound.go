// Package message defines the tagged-variant message parts flowing between the decoder, the
// traffic handler and the application, replacing the teacher's polymorphism-by-concrete-class
// dispatch (see reactor-netty's HttpTrafficHandler.write switch on msg.getClass()) with an
// explicit Go sum type.
package message

import (
	"time"

	"github.com/indigo-web/traffic/kv"
	"github.com/indigo-web/traffic/proto"
)

// InboundKind tags the variant held by an Inbound value.
type InboundKind uint8

const (
	// RequestHead carries a request line and headers.
	RequestHead InboundKind = iota
	// Content carries an intermediate body chunk.
	Content
	// LastContent carries the final body chunk (possibly empty) and any trailers.
	LastContent
)

// DecoderResult reports whether the decoder produced this part successfully.
type DecoderResult struct {
	Err error
}

// Failed reports whether the decoder failed to produce this part.
func (d DecoderResult) Failed() bool {
	return d.Err != nil
}

// Ok is the zero-value successful DecoderResult.
var Ok = DecoderResult{}

// Failure wraps err into a failed DecoderResult.
func Failure(err error) DecoderResult {
	return DecoderResult{Err: err}
}

// Inbound is a single decoded message part traveling from the codec into the traffic handler.
type Inbound struct {
	Kind InboundKind

	// Populated when Kind == RequestHead.
	Method   string
	Target   string
	Protocol proto.Protocol
	Headers  *kv.Storage

	// Populated when Kind == Content or Kind == LastContent.
	Body []byte

	// Populated when Kind == LastContent.
	Trailers *kv.Storage
	// Empty marks the canonical "empty last content" marker: a benign, always-forwardable
	// end-of-body signal distinct from a stray body chunk arriving after the response closed.
	Empty bool

	Result DecoderResult
}

// RequestHolder is a deferred request head captured with its arrival timestamp, exactly as the
// teacher's HttpRequestHolder captures ZonedDateTime.now() at enqueue time so pipelined
// requests keep accurate start timing.
type RequestHolder struct {
	Head      Inbound
	Timestamp time.Time
}
