package traffic

import (
	"strings"

	"github.com/indigo-web/traffic/message"
)

// submitWrite is Operation's entry point into the outbound path (§4.E), translating
// HttpTrafficHandler.write. It always runs the actual mutation on the owner goroutine via
// h.cmdCh, regardless of which goroutine calls it, and blocks until that mutation has completed.
func (h *Handler) submitWrite(op *Operation, out message.Outbound) error {
	done := make(chan error, 1)

	h.cmdCh <- func() {
		done <- h.dispatchOutbound(op, out)
	}

	return <-done
}

func (h *Handler) submitFlush(op *Operation) error {
	done := make(chan error, 1)

	h.cmdCh <- func() {
		done <- h.encoder.Flush(h.client)
	}

	return <-done
}

// dispatchOutbound runs on the owner goroutine only.
func (h *Handler) dispatchOutbound(op *Operation, out message.Outbound) error {
	switch out.Kind {
	case message.ResponseHead:
		h.handleResponseHead(&out)
	case message.FullResponse:
		if h.handleFullResponse(&out) {
			return h.encodeAndFlush(out)
		}

		h.beginFinalizing()
		if err := h.encodeAndFlush(out); err != nil {
			return err
		}

		return h.handleLastContent(op)
	case message.OutLastContent:
		h.beginFinalizing()
		if err := h.encodeAndFlush(out); err != nil {
			return err
		}

		return h.handleLastContent(op)
	case message.OutContent:
		if h.st.persistentConnection && h.st.pendingResponses == 0 {
			// Response already completed; drop trailing content the application mistakenly
			// kept writing, as the Java handler drops late HttpContent.
			return nil
		}
	}

	return h.encodeAndFlush(out)
}

// beginFinalizing implements the head of handleLastHttpContent: it marks the response as
// finalizing, and in coalescing mode primes needsFlush directly from the current read state,
// before the last content is handed to encodeAndFlush — so flush's own coalescing decision
// (made inside encodeAndFlush, once finalizingResponse is already true) sees accurate state.
func (h *Handler) beginFinalizing() {
	h.st.finalizingResponse = true

	if h.flush.coalesce {
		h.st.needsFlush = !h.st.read
	}
}

func (h *Handler) encodeAndFlush(out message.Outbound) error {
	if err := h.encoder.Encode(out); err != nil {
		return err
	}

	if h.flush.onWrite(&h.st, h.client.Writable()) {
		return h.encoder.Flush(h.client)
	}

	return nil
}

// handleResponseHead implements handleDefaultHttpResponse: adjusts keep-alive bookkeeping before
// the head is encoded.
func (h *Handler) handleResponseHead(out *message.Outbound) {
	h.st.nonInformationalResponse = !out.IsInformational()
	h.applyKeepAlivePolicy(out)
}

// handleFullResponse implements handleDefaultFullHttpResponse, returning true when out is a
// 1xx interim response (e.g. 100 Continue) that must be written but is not itself the end of a
// response cycle.
func (h *Handler) handleFullResponse(out *message.Outbound) bool {
	h.st.nonInformationalResponse = !out.IsInformational()
	h.applyKeepAlivePolicy(out)

	return out.IsInformational()
}

// applyKeepAlivePolicy implements the maxKeepAliveRequestsReached / isKeepAlive /
// isSelfDefinedMessageLength logic shared by handleResponseHead and handleFullResponse, then rewrites the
// Connection header if the core knows better than the application did.
func (h *Handler) applyKeepAlivePolicy(out *message.Outbound) {
	maxReached := h.cfg.MaxKeepAliveRequests != -1 && h.requestsServed+1 >= h.cfg.MaxKeepAliveRequests

	value, explicit := message.KeepAliveRequested(out.Headers)
	appRequestedClose := explicit && strings.EqualFold(value, "close")

	if maxReached || appRequestedClose || !out.HasSelfDefinedLength() {
		h.st.pendingResponses = 0
		h.st.persistentConnection = false
	}

	if !h.st.shouldKeepAlive() && out.Headers != nil {
		message.SetConnectionClose(out.Headers)
	}
}

// handleLastContent implements the tail of handleLastHttpContent, run once beginFinalizing and
// encodeAndFlush have already handled the finalization-phase flush decision: it decides whether
// this connection survives to serve another request and, if so, drains whatever the pipeline
// queue is holding.
func (h *Handler) handleLastContent(op *Operation) error {
	if !h.st.shouldKeepAlive() {
		if h.st.nonInformationalResponse {
			h.st.nonInformationalResponse = false
			h.requestsServed++
		}

		if err := h.encoder.Flush(h.client); err != nil {
			return err
		}

		return h.client.Close()
	}

	if !h.st.persistentConnection {
		return nil
	}

	if h.st.nonInformationalResponse {
		h.st.nonInformationalResponse = false
		h.st.pendingResponses--
		h.requestsServed++
	}

	if h.activeOp == op {
		h.activeOp = nil
	}

	if !h.queue.Empty() {
		h.runPipeline()
	}

	return nil
}
