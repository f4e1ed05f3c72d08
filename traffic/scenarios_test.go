package traffic

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/indigo-web/traffic/config"
	"github.com/indigo-web/traffic/message"
	"github.com/indigo-web/traffic/status"
	"github.com/indigo-web/traffic/transport/dummy"
)

// Scenario 1: two pipelined GETs, both keep-alive, both Content-Length: 0. Both responses leave
// in arrival order and the connection returns to Idle.
func TestScenario_PipelinedGETsAnsweredInOrder(t *testing.T) {
	raw := []byte("GET /a HTTP/1.1\r\nContent-Length: 0\r\n\r\n" +
		"GET /b HTTP/1.1\r\nContent-Length: 0\r\n\r\n")
	client := dummy.NewClient(raw)

	h := newHandler(client, echoApp{}, nil)
	require.NoError(t, h.Run(context.Background()))

	written := string(client.Written())
	require.Less(t, strings.Index(written, "/a"), strings.Index(written, "/b"))
	require.True(t, h.st.idle())
	require.Equal(t, 2, h.requestsServed)
}

// Scenario 2: a request followed by an HTTP/2.0 preface. The first request is served normally;
// the preface is rejected with a framing-safe error response and the connection closes.
func TestScenario_RequestThenHTTP2PrefaceIsRejected(t *testing.T) {
	raw := []byte("GET /a HTTP/1.1\r\nContent-Length: 0\r\n\r\n" +
		"PRI * HTTP/2.0\r\n\r\n")
	client := dummy.NewClient(raw)

	h := newHandler(client, echoApp{}, nil)
	require.NoError(t, h.Run(context.Background()))

	written := string(client.Written())
	require.Contains(t, written, "/a")
	require.Contains(t, written, "505")
	require.False(t, h.st.persistentConnection)
	require.True(t, client.Closed())
}

// Scenario 3: a keep-alive request whose response declares neither Content-Length nor chunked
// framing forces the connection closed and rewrites the outgoing Connection header.
func TestScenario_UndefinedFramingRewritesConnectionHeader(t *testing.T) {
	client := dummy.NewClient([]byte("GET /a HTTP/1.1\r\nContent-Length: 0\r\n\r\n"))

	h := newHandler(client, bareHeadApp{}, nil)
	require.NoError(t, h.Run(context.Background()))

	written := string(client.Written())
	require.Contains(t, written, "Connection: close")
	require.False(t, h.st.persistentConnection)
	require.True(t, client.Closed())
}

// Scenario 4: content arriving once the connection is Idle (pendingResponses == 0) is handled
// per the EMPTY_LAST_CONTENT carve-out: the benign marker is absorbed without tripping a decode
// failure, while a genuinely failed decode of trailing content still surfaces as one.
func TestScenario_ContentAfterResponseCompleted(t *testing.T) {
	client := dummy.NewClient([]byte("GET /a HTTP/1.1\r\nContent-Length: 0\r\n\r\n"))
	h := newHandler(client, echoApp{}, nil)

	require.NoError(t, h.Run(context.Background()))
	require.True(t, h.st.idle())

	// A stray empty-last-content marker after the response completed is absorbed silently.
	h.dispatchInbound(message.Inbound{Kind: message.LastContent, Empty: true})
	require.True(t, h.st.persistentConnection)

	// A stray content part whose decoder result failed still triggers a decode failure even
	// though no Operation will ever see it.
	h.dispatchInbound(message.Inbound{
		Kind:   message.LastContent,
		Result: message.Failure(status.ErrBadRequest),
	})
	require.False(t, h.st.persistentConnection)
}

// Scenario 5: with MaxKeepAliveRequests == 3, the third response forces close and any request
// pipelined behind it is discarded untouched, released cleanly on detach.
func TestScenario_MaxKeepAliveRequestsDiscardsTrailingPipelinedRequest(t *testing.T) {
	raw := []byte(
		"GET /a HTTP/1.1\r\nContent-Length: 0\r\n\r\n" +
			"GET /b HTTP/1.1\r\nContent-Length: 0\r\n\r\n" +
			"GET /c HTTP/1.1\r\nContent-Length: 0\r\n\r\n" +
			"GET /d HTTP/1.1\r\nContent-Length: 0\r\n\r\n")
	client := dummy.NewClient(raw)

	h := newHandler(client, echoApp{}, func(c *config.Config) {
		c.MaxKeepAliveRequests = 3
	})
	require.NoError(t, h.Run(context.Background()))

	written := string(client.Written())
	require.Equal(t, 3, strings.Count(written, "HTTP/1.1 200"))
	require.NotContains(t, written, "/d")
	require.Equal(t, 3, h.requestsServed)
	require.True(t, client.Closed())
	require.True(t, h.queue.Empty())
}

// Scenario 6: with flush coalescing on, the last-content write issued while a read batch is
// still open defers its flush until the read-complete boundary; earlier writes flush at once.
func TestScenario_FlushCoalescingDefersUntilReadBoundary(t *testing.T) {
	fc := newFlushCoordinator(true)
	st := newState()
	st.read = true

	// A head/content write, before the response enters its finalization phase, always passes
	// straight through regardless of coalescing — only the last-content write defers.
	require.True(t, fc.onWrite(&st, true))
	require.False(t, st.needsFlush)

	st.finalizingResponse = true
	require.False(t, fc.onWrite(&st, true))
	require.True(t, st.needsFlush)

	require.True(t, fc.onReadComplete(&st))
	require.False(t, st.needsFlush)
	require.False(t, st.read)
}
