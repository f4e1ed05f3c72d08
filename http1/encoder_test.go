package http1

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/indigo-web/traffic/kv"
	"github.com/indigo-web/traffic/message"
	"github.com/indigo-web/traffic/status"
)

func TestEncoder_FullResponseSetsContentLength(t *testing.T) {
	e := NewEncoder(256, 1<<16)

	err := e.Encode(message.Outbound{
		Kind:    message.FullResponse,
		Code:    status.OK,
		Headers: kv.New(),
		Body:    []byte("hello"),
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, e.Flush(&buf))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n"))
	require.Contains(t, out, "Content-Length: 5\r\n")
	require.True(t, strings.HasSuffix(out, "hello"))
}

func TestEncoder_HeadWithExplicitContentLengthPassesContentThrough(t *testing.T) {
	e := NewEncoder(256, 1<<16)

	require.NoError(t, e.Encode(message.Outbound{
		Kind:    message.ResponseHead,
		Code:    status.OK,
		Headers: kv.New().Add("Content-Length", "3"),
	}))
	require.NoError(t, e.Encode(message.Outbound{Kind: message.OutLastContent, Body: []byte("abc")}))

	var buf bytes.Buffer
	require.NoError(t, e.Flush(&buf))

	out := buf.String()
	require.Contains(t, out, "Content-Length: 3\r\n")
	require.NotContains(t, out, "Transfer-Encoding")
	require.True(t, strings.HasSuffix(out, "abc"))
}

func TestEncoder_HeadWithNoLengthFallsBackToChunked(t *testing.T) {
	e := NewEncoder(256, 1<<16)

	require.NoError(t, e.Encode(message.Outbound{
		Kind:    message.ResponseHead,
		Code:    status.OK,
		Headers: kv.New(),
	}))
	require.NoError(t, e.Encode(message.Outbound{Kind: message.OutContent, Body: []byte("abc")}))
	require.NoError(t, e.Encode(message.Outbound{Kind: message.OutLastContent, Body: nil}))

	var buf bytes.Buffer
	require.NoError(t, e.Flush(&buf))

	out := buf.String()
	require.Contains(t, out, "Transfer-Encoding: chunked\r\n")
	require.Contains(t, out, "3\r\nabc\r\n")
	require.True(t, strings.HasSuffix(out, "0\r\n\r\n"))
}

func TestEncoder_NoContentStatusCarriesNoBody(t *testing.T) {
	e := NewEncoder(256, 1<<16)

	require.NoError(t, e.Encode(message.Outbound{
		Kind:    message.ResponseHead,
		Code:    status.NoContent,
		Headers: kv.New(),
	}))

	var buf bytes.Buffer
	require.NoError(t, e.Flush(&buf))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "HTTP/1.1 204 No Content\r\n"))
	require.NotContains(t, out, "Transfer-Encoding")
	require.NotContains(t, out, "Content-Length")
}

func TestEncoder_FlushOnEmptyBufferIsNoop(t *testing.T) {
	e := NewEncoder(64, 1<<16)

	var buf bytes.Buffer
	require.NoError(t, e.Flush(&buf))
	require.Zero(t, buf.Len())
}
