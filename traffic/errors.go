package traffic

import (
	"errors"

	"github.com/indigo-web/traffic/status"
)

// Sentinel error kinds of §7, matchable with errors.Is. Each one names the handler's reaction,
// not the wire detail, mirroring the teacher's status.Err* sentinels.
var (
	// ErrDecodeFailed means the decoder rejected the bytes it was given; the handler responds
	// with the decoder's chosen status (usually status.BadRequest) and closes the connection,
	// mirroring HttpTrafficHandler.handleDecodingFailures.
	ErrDecodeFailed = errors.New("traffic: decode failed")
	// ErrPeerClosed means the transport reported a clean or unclean close while a request was
	// still outstanding.
	ErrPeerClosed = errors.New("traffic: peer closed connection")
	// ErrIdleTimeout means the connection was torn down for sitting idle past config.IdleTimeout.
	ErrIdleTimeout = errors.New("traffic: idle timeout")
	// ErrOverflow means a request arrived after persistentConnection had already gone false,
	// i.e. a client kept pipelining after the handler committed to closing; it is dropped
	// without a response rather than synthesized into one, since the connection is already
	// being torn down. See traffic/inbound.go's handleRequestHead.
	ErrOverflow = errors.New("traffic: message received after connection close was committed")
	// ErrDetached means an operation was attempted on a Handler after Detach.
	ErrDetached = errors.New("traffic: handler detached")
)

// StatusFor maps an error kind to the status code it should be rendered as, falling back to
// status.InternalServerError for anything unrecognized.
func StatusFor(err error) status.Code {
	switch {
	case errors.Is(err, ErrDecodeFailed):
		return status.BadRequest
	case errors.Is(err, ErrIdleTimeout):
		return status.RequestTimeout
	case errors.Is(err, ErrPeerClosed), errors.Is(err, ErrOverflow), errors.Is(err, ErrDetached):
		return status.CloseConnection
	default:
		var httpErr status.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr.Code
		}

		return status.InternalServerError
	}
}
