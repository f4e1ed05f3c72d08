// Package http1 is a reference HTTP/1.x codec for traffic.Handler: a Decoder that turns bytes
// into message.Inbound events and an Encoder that turns message.Outbound events into bytes. It
// is grounded on the teacher's internal/protocol/http1 package (parser.go, body.go,
// serializer.go) but kept intentionally thin — no compression, no multipart, no URL
// percent-decoding, since interpreting a request body or path is outside what a traffic handler
// needs to know.
package http1

import (
	"bytes"
	"io"

	"github.com/indigo-web/chunkedbody"
	"github.com/indigo-web/traffic/kv"
	"github.com/indigo-web/traffic/message"
	"github.com/indigo-web/traffic/proto"
	"github.com/indigo-web/traffic/status"
	"github.com/indigo-web/utils/buffer"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
)

type decoderState uint8

const (
	stateHead decoderState = iota
	stateBodyPlain
	stateBodyChunked
)

// DecoderSettings bounds how much a Decoder will buffer before giving up, mirroring the
// teacher's config.Headers/config.URI size limits.
type DecoderSettings struct {
	MaxHeadSize  int
	MaxBodySize  int
	ChunkedSettings chunkedbody.Settings
}

// DefaultDecoderSettings returns conservative limits, in the spirit of config.Default().
func DefaultDecoderSettings() DecoderSettings {
	return DecoderSettings{
		MaxHeadSize: 1 << 16,
		MaxBodySize: 1 << 24,
		ChunkedSettings: chunkedbody.DefaultSettings(),
	}
}

// Decoder is a stateful, reusable HTTP/1.x request decoder satisfying traffic.Decoder.
type Decoder struct {
	settings DecoderSettings
	state    decoderState
	head     *buffer.Buffer

	bodyPlainLeft int
	chunked       *chunkedbody.Parser
	trailers      bool
}

func NewDecoder(settings DecoderSettings) *Decoder {
	return &Decoder{
		settings: settings,
		state:    stateHead,
		head:     buffer.New(1024, settings.MaxHeadSize),
		chunked:  chunkedbody.NewParser(settings.ChunkedSettings),
	}
}

// Feed implements traffic.Decoder.
func (d *Decoder) Feed(data []byte) ([]message.Inbound, error) {
	var parts []message.Inbound

	for len(data) > 0 {
		switch d.state {
		case stateHead:
			head, rest, done, err := d.feedHead(data)
			data = rest

			if err != nil {
				parts = append(parts, message.Inbound{Kind: message.RequestHead, Result: message.Failure(err)})
				return parts, err
			}

			if !done {
				return parts, nil
			}

			parts = append(parts, head)

			if d.bodyPlainLeft == 0 && d.state == stateBodyPlain {
				// Content-Length: 0 — the request has no body at all.
				parts = append(parts, message.Inbound{Kind: message.LastContent, Empty: true})
				d.state = stateHead
			}
		case stateBodyPlain:
			n := min(d.bodyPlainLeft, len(data))
			chunk, rest := data[:n], data[n:]
			data = rest
			d.bodyPlainLeft -= n

			if d.bodyPlainLeft == 0 {
				parts = append(parts, message.Inbound{Kind: message.LastContent, Body: chunk})
				d.state = stateHead
			} else {
				parts = append(parts, message.Inbound{Kind: message.Content, Body: chunk})
			}
		case stateBodyChunked:
			chunk, extra, err := d.chunked.Parse(data, d.trailers)
			data = extra

			switch err {
			case nil:
				if len(chunk) > 0 {
					parts = append(parts, message.Inbound{Kind: message.Content, Body: chunk})
				}
			case io.EOF:
				parts = append(parts, message.Inbound{Kind: message.LastContent, Body: chunk})
				d.state = stateHead
			default:
				result := message.Failure(status.NewError(status.BadRequest, err.Error()))
				parts = append(parts, message.Inbound{Kind: message.LastContent, Result: result})
				return parts, result.Err
			}
		}
	}

	return parts, nil
}

// feedHead accumulates bytes until a full request head (request line + headers, terminated by
// a blank line) is available, then parses it. done is false if more bytes are still needed.
func (d *Decoder) feedHead(data []byte) (head message.Inbound, rest []byte, done bool, err error) {
	boundary := bytes.Index(data, []byte("\r\n\r\n"))
	if boundary == -1 {
		// Tolerate a bare LF-terminated blank line too.
		if alt := bytes.Index(data, []byte("\n\n")); alt != -1 {
			if !d.head.Append(data[:alt+2]) {
				return message.Inbound{}, nil, true, status.ErrBadRequest
			}

			raw := d.head.Finish()
			head, err = d.parseHead(raw)

			return head, data[alt+2:], true, err
		}

		if !d.head.Append(data) {
			return message.Inbound{}, nil, true, status.ErrBadRequest
		}

		return message.Inbound{}, nil, false, nil
	}

	if !d.head.Append(data[:boundary+4]) {
		return message.Inbound{}, nil, true, status.ErrBadRequest
	}

	raw := d.head.Finish()
	head, err = d.parseHead(raw)

	return head, data[boundary+4:], true, err
}

// parseHead parses a complete, CRLF-terminated request head. It sets up d.state/d.bodyPlainLeft
// for whatever body framing the headers declare, mirroring Parser's handling of Content-Length
// and Transfer-Encoding.
func (d *Decoder) parseHead(raw []byte) (message.Inbound, error) {
	lines := splitLines(raw)
	if len(lines) == 0 {
		return message.Inbound{}, status.ErrBadRequest
	}

	method, target, protocol, err := parseRequestLine(lines[0])
	if err != nil {
		return message.Inbound{}, err
	}

	headers := kv.NewPrealloc(len(lines) - 1)

	for _, line := range lines[1:] {
		if len(line) == 0 {
			continue
		}

		colon := bytes.IndexByte(line, ':')
		if colon == -1 {
			return message.Inbound{}, status.ErrBadRequest
		}

		key := uf.B2S(bytes.TrimSpace(line[:colon]))
		value := uf.B2S(bytes.TrimSpace(line[colon+1:]))
		headers.Add(key, value)
	}

	d.setupBody(headers)

	return message.Inbound{
		Kind:     message.RequestHead,
		Method:   method,
		Target:   target,
		Protocol: protocol,
		Headers:  headers,
		Result:   message.Ok,
	}, nil
}

func (d *Decoder) setupBody(headers *kv.Storage) {
	if te, ok := headers.Get("Transfer-Encoding"); ok && strcomp.EqualFold(lastToken(te), "chunked") {
		d.state = stateBodyChunked
		d.trailers = headers.Has("Trailer")
		return
	}

	if cl, ok := headers.Get("Content-Length"); ok {
		d.bodyPlainLeft = parseContentLength(cl)
		d.state = stateBodyPlain
		return
	}

	d.state = stateHead
}

func splitLines(raw []byte) [][]byte {
	raw = bytes.TrimSuffix(raw, []byte("\r\n\r\n"))
	raw = bytes.TrimSuffix(raw, []byte("\n\n"))

	return bytes.Split(raw, []byte("\r\n"))
}

func parseRequestLine(line []byte) (method, target string, protocol proto.Protocol, err error) {
	fields := bytes.Fields(line)
	if len(fields) != 3 {
		return "", "", proto.Unknown, status.ErrBadRequest
	}

	protocol = proto.FromBytes(fields[2])
	if protocol == proto.Unknown {
		return "", "", proto.Unknown, status.ErrUnsupportedProto
	}

	return string(fields[0]), string(fields[1]), protocol, nil
}

func parseContentLength(s string) int {
	n := 0

	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			break
		}

		n = n*10 + int(s[i]-'0')
	}

	return n
}

func lastToken(csv string) string {
	b := uf.S2B(csv)

	if idx := bytes.LastIndexByte(b, ','); idx != -1 {
		b = b[idx+1:]
	}

	return string(bytes.TrimSpace(b))
}
