package http1

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/indigo-web/traffic/message"
	"github.com/indigo-web/traffic/proto"
)

func newTestDecoder() *Decoder {
	return NewDecoder(DefaultDecoderSettings())
}

func TestDecoder_ContentLengthZero(t *testing.T) {
	d := newTestDecoder()

	parts, err := d.Feed([]byte("GET /a HTTP/1.1\r\nHost: x\r\nContent-Length: 0\r\n\r\n"))
	require.NoError(t, err)
	require.Len(t, parts, 2)

	require.Equal(t, message.RequestHead, parts[0].Kind)
	require.Equal(t, "GET", parts[0].Method)
	require.Equal(t, "/a", parts[0].Target)
	require.Equal(t, proto.HTTP11, parts[0].Protocol)
	require.False(t, parts[0].Result.Failed())

	require.Equal(t, message.LastContent, parts[1].Kind)
	require.True(t, parts[1].Empty)
}

func TestDecoder_ContentLengthBodySplitAcrossReads(t *testing.T) {
	d := newTestDecoder()

	head, err := d.Feed([]byte("POST /b HTTP/1.1\r\nContent-Length: 5\r\n\r\nhel"))
	require.NoError(t, err)
	require.Len(t, head, 2)
	require.Equal(t, message.RequestHead, head[0].Kind)
	require.Equal(t, message.Content, head[1].Kind)
	require.Equal(t, []byte("hel"), head[1].Body)

	rest, err := d.Feed([]byte("lo"))
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.Equal(t, message.LastContent, rest[0].Kind)
	require.Equal(t, []byte("lo"), rest[0].Body)
}

func TestDecoder_ChunkedBody(t *testing.T) {
	d := newTestDecoder()

	raw := "POST /c HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"5\r\nhello\r\n0\r\n\r\n"

	parts, err := d.Feed([]byte(raw))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(parts), 2)
	require.Equal(t, message.RequestHead, parts[0].Kind)

	last := parts[len(parts)-1]
	require.Equal(t, message.LastContent, last.Kind)

	var body []byte
	for _, p := range parts[1:] {
		body = append(body, p.Body...)
	}
	require.Equal(t, "hello", string(body))
}

func TestDecoder_MalformedRequestLine(t *testing.T) {
	d := newTestDecoder()

	parts, err := d.Feed([]byte("not a request line\r\n\r\n"))
	require.Error(t, err)
	require.Len(t, parts, 1)
	require.True(t, parts[0].Result.Failed())
}

func TestDecoder_UnsupportedProtocol(t *testing.T) {
	d := newTestDecoder()

	parts, err := d.Feed([]byte("GET / HTTP/0.9\r\n\r\n"))
	require.Error(t, err)
	require.Len(t, parts, 1)
	require.True(t, parts[0].Result.Failed())
}

func TestDecoder_HTTP2Preface(t *testing.T) {
	d := newTestDecoder()

	parts, err := d.Feed([]byte("PRI * HTTP/2.0\r\n\r\n"))
	require.NoError(t, err)
	require.Len(t, parts, 1)
	require.Equal(t, proto.HTTP2, parts[0].Protocol)
}
