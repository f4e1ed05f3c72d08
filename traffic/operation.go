package traffic

import (
	"time"

	"github.com/dchest/uniuri"
	"github.com/indigo-web/traffic/config"
	"github.com/indigo-web/traffic/kv"
	"github.com/indigo-web/traffic/message"
	"github.com/indigo-web/traffic/status"
)

// Application is the per-request collaborator the handler dispatches a fully-headed request to,
// mirroring reactor-netty's HttpServerHandle. Handle may write zero or more response parts
// through op before returning; it may also return having written nothing, in which case the
// caller is expected to still be writing asynchronously (e.g. it spawned a goroutine — see
// Operation's doc comment for the concurrency contract this implies).
type Application interface {
	Handle(op *Operation)
}

// ConnObserver mirrors reactor-netty's ConnectionObserver: a connection-scoped lifecycle hook,
// independent of any single request.
type ConnObserver interface {
	// StateConfigured is called once an Operation has been bound for a newly arrived request
	// head, before Application.Handle runs.
	StateConfigured(op *Operation)
	// Disconnected is called exactly once when the connection's loop exits, err being nil for a
	// clean close.
	Disconnected(err error)
}

// NopObserver satisfies ConnObserver by doing nothing, following the teacher's habit of
// providing a zero-cost default collaborator (cf. transport/dummy's no-op client).
type NopObserver struct{}

func (NopObserver) StateConfigured(*Operation) {}
func (NopObserver) Disconnected(error)         {}

// Operation is the per-request handle the core hands to Application.Handle. It carries the
// request head, resolved connection info, and the write surface back into the traffic handler.
//
// Concurrency contract: Handle is invoked on a goroutine of its own, spawned per request, never
// on the connection's owner goroutine, and is free to hand work to yet another goroutine (e.g.
// to await a downstream call) and call Operation's Write* methods from there; those methods are
// safe to call from any goroutine
// because they hand their payload to the handler through its single inbound command channel
// rather than touching Handler state directly. Exactly one goroutine must be writing through a
// given Operation at a time — the core does not serialize concurrent writers against each other.
type Operation struct {
	handler *Handler

	Request message.Inbound
	Info    config.ConnectionInfo
	Config  *config.Config

	// Timestamp is when the request head was decoded, captured before any pipeline deferral, so
	// a pipelined request's timing reflects its true arrival rather than when it was dequeued.
	Timestamp time.Time
	// TraceID is a per-request correlation id, generated with uniuri the same way the teacher's
	// tests mint opaque tokens.
	TraceID string

	body chan bodyPart
}

type bodyPart struct {
	data []byte
	last bool
	err  error
}

func newOperation(h *Handler, req message.Inbound, info config.ConnectionInfo, cfg *config.Config, at time.Time) *Operation {
	return &Operation{
		handler:   h,
		Request:   req,
		Info:      info,
		Config:    cfg,
		Timestamp: at,
		TraceID:   uniuri.New(),
		body:      make(chan bodyPart, 4),
	}
}

// NextBodyChunk blocks until the next body chunk arrives, the body completes (last == true), or
// the connection fails (err != nil). It is the pull-based counterpart to the push-based
// dispatch the core uses internally, letting an Application that wants to stream a request body
// do so without the core having to buffer the whole thing.
func (op *Operation) NextBodyChunk() (data []byte, last bool, err error) {
	part, ok := <-op.body
	if !ok {
		return nil, true, ErrDetached
	}

	return part.data, part.last, part.err
}

// WriteHead writes a response head with no body yet; further Content/LastContent writes follow.
func (op *Operation) WriteHead(code status.Code, headers *kv.Storage) error {
	return op.handler.submitWrite(op, message.Outbound{
		Kind:    message.ResponseHead,
		Code:    code,
		Headers: headers,
	})
}

// WriteFull writes a complete response — head and entire body — in one part.
func (op *Operation) WriteFull(code status.Code, headers *kv.Storage, body []byte) error {
	return op.handler.submitWrite(op, message.Outbound{
		Kind:    message.FullResponse,
		Code:    code,
		Headers: headers,
		Body:    body,
	})
}

// WriteContent writes an intermediate response body chunk; WriteHead must have been called
// first.
func (op *Operation) WriteContent(body []byte) error {
	return op.handler.submitWrite(op, message.Outbound{Kind: message.OutContent, Body: body})
}

// WriteLastContent writes the final response body chunk, completing the response.
func (op *Operation) WriteLastContent(body []byte) error {
	return op.handler.submitWrite(op, message.Outbound{Kind: message.OutLastContent, Body: body})
}

// Flush forces any buffered response bytes for this connection out to the transport now,
// bypassing flush coalescing.
func (op *Operation) Flush() error {
	return op.handler.submitFlush(op)
}
