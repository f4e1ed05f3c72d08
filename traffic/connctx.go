package traffic

import (
	"net"

	"github.com/indigo-web/traffic/transport"
)

// connContext captures the per-connection immutable facts of §4.A: whether the connection is
// secure and its resolved remote address. Both are populated lazily on the first inbound event,
// mirroring the teacher's `secure` (Boolean, nil until set) and `remoteAddress` fields.
type connContext struct {
	captured      bool
	secure        bool
	remoteAddress net.Addr
}

// ProxyProtocolReader resolves the real client address from an optional proxy-protocol
// preamble, mirroring reactor-netty's HAProxyMessageReader.resolveRemoteAddressFromProxyProtocol.
// A nil ProxyProtocolReader (the common case: no proxy in front) means "fall back to the
// socket's own peer address".
type ProxyProtocolReader func(conn net.Conn) net.Addr

// capture populates the context on first use. secureDetector reports whether a TLS stage
// precedes this handler in the inbound pipeline (the core never negotiates TLS itself — that's
// an explicit Non-goal — it only observes whether one already happened upstream).
func (c *connContext) capture(client transport.Client, secureDetector func() bool, proxy ProxyProtocolReader) {
	if c.captured {
		return
	}

	c.captured = true
	c.secure = secureDetector != nil && secureDetector()

	if proxy != nil {
		if addr := proxy(client.Conn()); addr != nil {
			c.remoteAddress = addr
			return
		}
	}

	c.remoteAddress = client.Remote()
}
