package traffic

import (
	"strings"
	"time"

	"github.com/indigo-web/traffic/message"
	"github.com/indigo-web/traffic/proto"
	"github.com/indigo-web/traffic/status"
)

// dispatchInbound implements §4.D, translating HttpTrafficHandler.channelRead. It runs
// exclusively on the owner goroutine.
func (h *Handler) dispatchInbound(part message.Inbound) {
	h.st.read = true
	h.conn.capture(h.client, h.secureDetector, h.proxy)

	if part.Kind == message.RequestHead {
		h.handleRequestHead(part, time.Now())
		return
	}

	if h.st.persistentConnection && h.st.pendingResponses == 0 {
		// A response has already completed for this connection slot. A decoder failure is still
		// surfaced even here (the teacher checks decoderResult() on every branch of this
		// condition before forwarding or dropping); everything else is dropped, except the
		// EMPTY_LAST_CONTENT marker, which is always safely forwardable and has nothing to
		// forward to once Idle, so it is simply acknowledged and not treated as dropped content.
		if part.Result.Failed() {
			h.sendDecodingFailure(part.Result.Err)
		}

		return
	}

	if h.st.overflow {
		h.queue.EnqueuePart(part)
		return
	}

	h.forwardPart(part)
}

// handleRequestHead implements the HttpRequest branch of channelRead.
func (h *Handler) handleRequestHead(head message.Inbound, arrivedAt time.Time) {
	if !h.st.persistentConnection {
		// Previous response already committed to closing; pipelined requests behind it are
		// dropped, logged as an overflow rather than synthesized into another error response
		// (the connection is already on its way down).
		h.log.Debug("dropping pipelined request", "error", ErrOverflow)
		return
	}

	if !head.Protocol.IsHTTP1() {
		// A PRI * HTTP/2.0 preface (or anything else claiming HTTP/2) landed on an HTTP/1.x
		// stage. Treat it exactly like a decoder failure rather than dispatching it: the error
		// response carries the framing-safe 505 status and the connection is torn down.
		h.sendDecodingFailure(status.ErrUnsupportedProto)
		return
	}

	h.st.finalizingResponse = false
	h.st.pendingResponses++
	h.st.persistentConnection = keepAliveRequested(head)

	if h.st.pendingResponses > 1 {
		h.st.overflow = true
		holder := h.queue.Acquire()
		holder.Head, holder.Timestamp = head, arrivedAt
		h.queue.EnqueueHead(holder)
		return
	}

	h.st.overflow = false
	h.startOperation(head, arrivedAt)
}

// startOperation binds a fresh Operation to head and dispatches it to the application, becoming
// the connection's activeOp so any content that follows streams straight to it instead of being
// queued. Mirrors the ops.bind()/listener.onStateChange(CONFIGURED) sequence. Reports whether an
// Operation was actually started.
func (h *Handler) startOperation(head message.Inbound, arrivedAt time.Time) bool {
	if head.Result.Failed() {
		h.sendDecodingFailure(head.Result.Err)
		return false
	}

	info := h.resolveConnectionInfo(head)
	op := newOperation(h, head, info, h.cfg, arrivedAt)
	h.activeOp = op
	h.observer.StateConfigured(op)

	h.inFlight.Add(1)
	go func() {
		defer h.inFlight.Done()
		h.app.Handle(op)
	}()

	return true
}

// forwardPart implements the non-request-head branches of channelRead for the common
// (non-overflow, non-exhausted) case: forward straight to whichever Operation is currently
// streaming a body.
func (h *Handler) forwardPart(part message.Inbound) {
	if part.Result.Failed() {
		h.sendDecodingFailure(part.Result.Err)
		return
	}

	if h.activeOp == nil {
		return
	}

	h.activeOp.body <- bodyPart{data: part.Body, last: part.Kind == message.LastContent}

	if part.Kind == message.LastContent {
		close(h.activeOp.body)
	}
}

// runPipeline implements HttpTrafficHandler.run(): drains queued items in order, binding at most
// one new request head per call and forwarding any content queued immediately after it, exactly
// matching the Java "if nextRequest != null { return }" early exit.
func (h *Handler) runPipeline() {
	var startedNext bool

	for !h.queue.Empty() {
		item := h.queue.PopHead()

		if item.IsHead {
			if startedNext {
				h.queue.PushFront(item)
				return
			}

			if !h.st.persistentConnection {
				h.discardQueue()
				return
			}

			startedNext = true
			h.st.finalizingResponse = false
			holder := item.Holder
			started := h.startOperation(holder.Head, holder.Timestamp)
			h.queue.Release(holder)

			if !started {
				h.discardQueue()
				return
			}

			continue
		}

		h.forwardPart(item.Part)
	}

	h.st.overflow = false
}

// discardQueue releases every item left in the pipeline queue without dispatching it, mirroring
// HttpTrafficHandler.discard().
func (h *Handler) discardQueue() {
	for _, item := range h.queue.Drain() {
		if item.IsHead {
			h.queue.Release(item.Holder)
		}
	}
}

// keepAliveRequested decides default persistence from protocol plus an explicit Connection
// header, mirroring HttpUtil.isKeepAlive(HttpRequest): HTTP/1.1 defaults to keep-alive unless
// Connection: close is present; HTTP/1.0 defaults to close unless Connection: keep-alive is
// present.
func keepAliveRequested(head message.Inbound) bool {
	value, explicit := message.KeepAliveRequested(head.Headers)

	if head.Protocol == proto.HTTP10 {
		return explicit && strings.EqualFold(value, "keep-alive")
	}

	if !explicit {
		return true
	}

	return !strings.EqualFold(value, "close")
}
