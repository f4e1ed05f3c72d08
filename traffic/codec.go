package traffic

import "github.com/indigo-web/traffic/message"

// Decoder turns a connection's raw byte stream into message.Inbound events. Implementations are
// stateful and own their own internal buffering across calls, exactly as the teacher's Parser
// retains partial state between Suit.serve iterations: Feed may be called with a short read and
// must hold back anything it can't yet interpret as a complete token.
//
// A non-nil error means the stream is unrecoverably malformed from this point on; the caller
// renders it per §7 and closes the connection. Whatever parts were successfully decoded before
// the error are still returned and must be dispatched.
type Decoder interface {
	Feed(data []byte) (parts []message.Inbound, err error)
}

// Encoder turns message.Outbound events into wire bytes, buffering internally the way the
// teacher's serializer grows its own buffer across writes. Flush hands the buffered bytes to w
// and resets the buffer; Encode alone never touches w.
type Encoder interface {
	Encode(out message.Outbound) error
	Flush(w Writer) error
}

// Writer is the minimal sink Encoder.Flush writes to; transport.Client satisfies it.
type Writer interface {
	Write([]byte) (int, error)
}
