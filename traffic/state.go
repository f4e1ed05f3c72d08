package traffic

// state holds the keep-alive/pipelining attributes of §3, translated field-for-field from
// reactor-netty's HttpTrafficHandler. It is touched exclusively by the connection's owner
// goroutine (see Handler in handler.go), so none of its fields need synchronization.
type state struct {
	// pendingResponses counts requests accepted whose final response hasn't been fully
	// written yet. Invariant: always >= 0.
	pendingResponses int
	// persistentConnection is whether keep-alive is still honored for this connection.
	persistentConnection bool
	// overflow is true once pipelining has deferred at least one message behind a
	// still-in-flight prior request.
	overflow bool
	// nonInformationalResponse marks that the current outgoing response is not a 1xx, so its
	// last content must decrement pendingResponses.
	nonInformationalResponse bool
	// finalizingResponse is true once the last content of the current response has entered
	// the outbound path; cleared when a new request head arrives.
	finalizingResponse bool
	// read is true once at least one inbound event has been delivered in the current read
	// batch; cleared at read-complete.
	read bool
	// needsFlush is true when a flush was requested but deferred awaiting a read boundary.
	needsFlush bool
}

func newState() state {
	return state{persistentConnection: true}
}

// shouldKeepAlive mirrors HttpTrafficHandler.shouldKeepAlive(): true only while there is a
// pending response to protect and persistence hasn't already been ruled out.
func (s *state) shouldKeepAlive() bool {
	return s.pendingResponses != 0 && s.persistentConnection
}

// idle reports whether the connection currently has no request awaiting a response.
func (s *state) idle() bool {
	return s.pendingResponses == 0
}
