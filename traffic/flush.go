package traffic

// flushCoordinator implements §4.F: it decides whether a write should flush the transport
// immediately or wait for the current read batch to finish, mirroring
// HttpTrafficHandler.flush/endReadAndFlush and its LAST_FLUSH_WHEN_NO_READ system property.
//
// Two policies:
//   - eager (default): every write flushes right away.
//   - coalescing (config.LastFlushWhenNoRead): writes before the response's finalization phase
//     still flush right away; the last-content write only marks state.needsFlush, and the
//     actual flush happens once per read batch, at channelReadComplete-equivalent time. It
//     flushes immediately instead if no read is currently in flight (e.g. a write triggered by
//     a timer rather than inbound data) or the transport is not writable.
type flushCoordinator struct {
	coalesce bool
}

func newFlushCoordinator(coalesce bool) flushCoordinator {
	return flushCoordinator{coalesce: coalesce}
}

// onWrite is called after the handler hands bytes to the encoder. It mirrors flush(ctx): outside
// coalescing mode, or outside the finalization phase, every flush passes straight through.
// Inside coalescing mode's finalization phase, a flush goes through immediately only if a prior
// one was already deferred (needsFlush) or the transport is currently refusing more buffered
// writes (writable == false, i.e. back-pressure demands draining now); otherwise it's deferred
// to the next read-complete boundary.
func (f flushCoordinator) onWrite(s *state, writable bool) bool {
	if !f.coalesce || !s.finalizingResponse {
		return true
	}

	if s.needsFlush || !writable {
		s.needsFlush = false
		return true
	}

	s.needsFlush = true

	return false
}

// onReadComplete is called at the end of a read batch (mirrors endReadAndFlush). It returns
// whether a deferred flush is now due.
func (f flushCoordinator) onReadComplete(s *state) bool {
	if !s.read {
		return false
	}

	s.read = false

	if !f.coalesce || !s.needsFlush {
		return false
	}

	s.needsFlush = false

	return true
}
