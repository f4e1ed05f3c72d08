package http1

import (
	"strconv"

	"github.com/indigo-web/traffic"
	"github.com/indigo-web/traffic/kv"
	"github.com/indigo-web/traffic/message"
	"github.com/indigo-web/traffic/status"
	"github.com/indigo-web/utils/strcomp"
)

// Encoder is a reusable HTTP/1.x response encoder satisfying traffic.Encoder. It grows its own
// buffer and flushes it on demand, in the manner of the teacher's serializer.safeAppend/flush.
type Encoder struct {
	buff    []byte
	maxSize int
	// chunking is true once a ResponseHead committed this response to Transfer-Encoding:
	// chunked, so subsequent Content parts are wrapped as chunks. A FullResponse never does.
	chunking bool
}

func NewEncoder(initialSize, maxSize int) *Encoder {
	return &Encoder{buff: make([]byte, 0, initialSize), maxSize: maxSize}
}

const crlf = "\r\n"

// Encode implements traffic.Encoder.
func (e *Encoder) Encode(out message.Outbound) error {
	switch out.Kind {
	case message.ResponseHead:
		e.encodeHead(out.Code, out.Headers, false)
	case message.FullResponse:
		e.encodeHead(out.Code, out.Headers, true)
		e.appendContentLength(len(out.Body))
		e.crlf()
		e.append(out.Body)
	case message.OutContent:
		if e.chunking {
			e.appendChunk(out.Body)
		} else {
			e.append(out.Body)
		}
	case message.OutLastContent:
		if e.chunking {
			if len(out.Body) > 0 {
				e.appendChunk(out.Body)
			}

			e.append([]byte("0\r\n\r\n"))
			e.chunking = false
		} else if len(out.Body) > 0 {
			e.append(out.Body)
		}
	}

	return nil
}

// Flush implements traffic.Encoder.Flush.
func (e *Encoder) Flush(w traffic.Writer) error {
	if len(e.buff) == 0 {
		return nil
	}

	_, err := w.Write(e.buff)
	e.buff = e.buff[:0]

	return err
}

func (e *Encoder) encodeHead(code status.Code, headers *kv.Storage, full bool) {
	e.append([]byte("HTTP/1.1 "))
	e.append([]byte(strconv.Itoa(int(code))))
	e.append([]byte(" "))
	e.append([]byte(status.Text(code)))
	e.crlf()

	hasContentLength := false

	if headers != nil {
		for _, pair := range headers.Expose() {
			if strcomp.EqualFold(pair.Key, "Content-Length") {
				hasContentLength = true
			}

			e.append([]byte(pair.Key))
			e.append([]byte(": "))
			e.append([]byte(pair.Value))
			e.crlf()
		}
	}

	noBodyExpected := status.IsInformational(code) || status.IsNoContent(code) || status.IsNotModified(code)

	if !full && !hasContentLength && !noBodyExpected {
		e.chunking = headers == nil || !headers.Has("Transfer-Encoding")
		if e.chunking {
			e.append([]byte("Transfer-Encoding: chunked"))
			e.crlf()
		}
	}

	if full {
		return
	}

	e.crlf()
}

func (e *Encoder) appendContentLength(n int) {
	e.append([]byte("Content-Length: "))
	e.append([]byte(strconv.Itoa(n)))
	e.crlf()
}

func (e *Encoder) appendChunk(body []byte) {
	e.append([]byte(strconv.FormatInt(int64(len(body)), 16)))
	e.crlf()
	e.append(body)
	e.crlf()
}

func (e *Encoder) crlf() {
	e.append([]byte(crlf))
}

// append grows the buffer up to maxSize, matching growToContain's cap in the teacher's
// serializer; beyond that it simply keeps appending, trading a bounded memory guarantee for
// never dropping a byte the application asked to write.
func (e *Encoder) append(b []byte) {
	if need := len(e.buff) + len(b); need > cap(e.buff) && cap(e.buff) < e.maxSize {
		grown := make([]byte, len(e.buff), min(need, e.maxSize))
		copy(grown, e.buff)
		e.buff = grown
	}

	e.buff = append(e.buff, b...)
}
