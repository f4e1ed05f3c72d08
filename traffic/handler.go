// Package traffic implements the HTTP/1.x server-side traffic handler: the keep-alive and
// pipelining state machine that sits between a byte-level decoder and an application-level
// request processor on one connection, translated from reactor-netty's HttpTrafficHandler.
package traffic

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/indigo-web/traffic/config"
	"github.com/indigo-web/traffic/internal/queue"
	"github.com/indigo-web/traffic/message"
	"github.com/indigo-web/traffic/status"
	"github.com/indigo-web/traffic/transport"
)

// Handler owns one connection's worth of keep-alive/pipelining state (components A–F) and the
// goroutine that drives it. Every field below is touched exclusively by that one goroutine —
// see Run — so the zero-lock invariant holds even though Application code and Operation writers
// run concurrently on their own goroutines.
type Handler struct {
	client   transport.Client
	decoder  Decoder
	encoder  Encoder
	app      Application
	observer ConnObserver
	cfg      *config.Config
	log      *slog.Logger

	secureDetector func() bool
	proxy          ProxyProtocolReader

	st    state
	flush flushCoordinator
	conn  connContext
	queue *queue.Queue

	// activeOp is the Operation whose body is currently being streamed live from the decoder,
	// i.e. the request at the front of pendingResponses. Nil when idle.
	activeOp *Operation
	// requestsServed counts responses fully written on this connection, for
	// config.MaxKeepAliveRequests.
	requestsServed int

	// cmdCh carries closures from any goroutine back onto the owner goroutine: Operation writes
	// and flush requests funnel through it, mirroring the single Netty event-loop executor the
	// original handler assumed. Pipeline drains run inline, inside the write command that
	// completes the previous response.
	cmdCh chan func()

	// inFlight counts spawned Application.Handle goroutines that haven't returned yet. On a
	// read error the owner goroutine keeps servicing cmdCh until this reaches zero, so an
	// Application still mid-write never blocks forever on a channel nobody drains anymore.
	inFlight sync.WaitGroup
}

// Options configures a new Handler. Decoder, Encoder, Application and Client are required;
// everything else has a documented default.
type Options struct {
	Client         transport.Client
	Decoder        Decoder
	Encoder        Encoder
	Application    Application
	Observer       ConnObserver
	Config         *config.Config
	Logger         *slog.Logger
	SecureDetector func() bool
	Proxy          ProxyProtocolReader
}

// New builds a Handler ready for Run. It does not start any goroutine itself.
func New(opts Options) *Handler {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	observer := opts.Observer
	if observer == nil {
		observer = NopObserver{}
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Handler{
		client:         opts.Client,
		decoder:        opts.Decoder,
		encoder:        opts.Encoder,
		app:            opts.Application,
		observer:       observer,
		cfg:            cfg,
		log:            log,
		secureDetector: opts.SecureDetector,
		proxy:          opts.Proxy,
		st:             newState(),
		flush:          newFlushCoordinator(cfg.LastFlushWhenNoRead),
		queue:          queue.New(),
		cmdCh:          make(chan func(), 8),
	}
}

type readResult struct {
	data []byte
	err  error
}

// Run drives the connection until it closes, the context is cancelled, or an unrecoverable
// decode failure occurs. It blocks for the connection's lifetime; callers typically invoke it
// from a per-connection goroutine, exactly as the teacher's DefaultConnHandler does for its own
// serve loop.
func (h *Handler) Run(ctx context.Context) error {
	rawCh := make(chan readResult, 1)
	readerDone := make(chan struct{})

	go h.readLoop(rawCh, readerDone)

	runErr := h.loop(ctx, rawCh)

	_ = h.client.Close()
	<-readerDone
	h.Detach()
	h.observer.Disconnected(runErr)

	return runErr
}

// Detach releases every item still held in the pipeline queue without dispatching it, the
// resource-reclamation step §5 requires once a connection's owner goroutine is done with it.
// Run calls this itself on exit; exposed so a caller driving its own teardown (e.g. a listener
// forcibly evicting a connection) can reclaim queued holders without going through Run.
func (h *Handler) Detach() {
	h.discardQueue()
}

func (h *Handler) readLoop(rawCh chan<- readResult, done chan<- struct{}) {
	defer close(done)

	for {
		data, err := h.client.Read()
		rawCh <- readResult{data: data, err: err}

		if err != nil {
			return
		}
	}
}

func (h *Handler) loop(ctx context.Context, rawCh <-chan readResult) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-h.cmdCh:
			cmd()
		case res := <-rawCh:
			if res.err != nil {
				return h.shutdown(res.err)
			}

			if err := h.consume(res.data); err != nil {
				return err
			}
		}
	}
}

// shutdown runs once the transport has reported a read error. It keeps servicing cmdCh — the
// only channel an in-flight Application.Handle goroutine can still be blocked sending on —
// until every one of them has returned, so a response being written at the moment the peer
// disconnects completes (or fails its write) instead of leaking its goroutine forever.
func (h *Handler) shutdown(err error) error {
	drained := make(chan struct{})

	go func() {
		h.inFlight.Wait()
		close(drained)
	}()

	for {
		select {
		case cmd := <-h.cmdCh:
			cmd()
		case <-drained:
			return h.handlePeerClosed(err)
		}
	}
}

// consume feeds one read's worth of bytes through the decoder and dispatches every part it
// produces, then runs the read-complete flush policy (§4.F), mirroring channelRead +
// channelReadComplete for a single inbound batch.
func (h *Handler) consume(data []byte) error {
	parts, decodeErr := h.decoder.Feed(data)

	for _, part := range parts {
		h.dispatchInbound(part)
	}

	if decodeErr != nil {
		h.sendDecodingFailure(decodeErr)
	}

	if h.flush.onReadComplete(&h.st) {
		if err := h.encoder.Flush(h.client); err != nil {
			return err
		}
	}

	return nil
}

func (h *Handler) handlePeerClosed(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}

	return err
}

// sendDecodingFailure implements sendDecodingFailures: persistence is revoked unconditionally,
// then a best-effort error response is written if no response head is currently open. When no
// Operation is in flight to carry the close through handleLastContent on its own (the failing
// message was rejected before ever being dispatched — e.g. an HTTP/2.0 preface), the handler
// closes the connection itself, since nothing else will.
func (h *Handler) sendDecodingFailure(err error) {
	h.st.persistentConnection = false
	h.log.Debug("decode failure", "error", err)

	code := StatusFor(err)
	if code != status.CloseConnection && !h.st.nonInformationalResponse {
		_ = h.encoder.Encode(errorOutbound(code, err))
		_ = h.encoder.Flush(h.client)
	}

	if h.st.pendingResponses == 0 {
		_ = h.client.Close()
	}
}

// resolveConnectionInfo implements ConnectionInfo.from: scheme from secure, remote address from
// the lazily captured connContext, then an optional ForwardedHeaderHandler rewrite.
func (h *Handler) resolveConnectionInfo(head message.Inbound) config.ConnectionInfo {
	scheme := "http"
	if h.conn.secure {
		scheme = "https"
	}

	info := config.ConnectionInfo{
		Scheme:        scheme,
		RemoteAddress: addrString(h.conn.remoteAddress),
		ServerAddress: addrString(h.localAddr()),
	}

	if h.cfg.ForwardedHeaderHandler == nil || head.Headers == nil {
		return info
	}

	if rewritten, err := h.cfg.ForwardedHeaderHandler(info, head.Headers); err == nil {
		return rewritten
	}

	return info
}

func (h *Handler) localAddr() net.Addr {
	if conn := h.client.Conn(); conn != nil {
		return conn.LocalAddr()
	}

	return nil
}

func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}

	return a.String()
}
