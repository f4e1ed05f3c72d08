package traffic

import (
	"context"
	"testing"

	"github.com/indigo-web/traffic/config"
	"github.com/indigo-web/traffic/http1"
	"github.com/indigo-web/traffic/kv"
	"github.com/indigo-web/traffic/status"
	"github.com/indigo-web/traffic/transport/dummy"
)

// echoApp responds 200 OK with the request's target as the body, exercising the common
// WriteFull path. Handlers that need to stream content use streamingApp below instead.
type echoApp struct{}

func (echoApp) Handle(op *Operation) {
	_ = op.WriteFull(status.OK, kv.New(), []byte(op.Request.Target))
}

// streamingApp writes a head, then every body chunk it reads back as response content,
// exercising WriteHead/WriteContent/WriteLastContent and NextBodyChunk together.
type streamingApp struct{}

func (streamingApp) Handle(op *Operation) {
	_ = op.WriteHead(status.OK, kv.New().Add("Transfer-Encoding", "chunked"))

	for {
		data, last, err := op.NextBodyChunk()
		if err != nil {
			return
		}

		if last {
			_ = op.WriteLastContent(data)
			return
		}

		_ = op.WriteContent(data)
	}
}

func disperse(data []byte, n int) (parts [][]byte) {
	for len(data) > 0 {
		end := min(len(data), n)
		parts = append(parts, data[:end])
		data = data[end:]
	}

	return parts
}

func newHandler(client *dummy.Client, app Application, mutate func(*config.Config)) *Handler {
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}

	return New(Options{
		Client:      client,
		Decoder:     http1.NewDecoder(http1.DefaultDecoderSettings()),
		Encoder:     http1.NewEncoder(512, 1<<16),
		Application: app,
		Config:      cfg,
	})
}

func run(t *testing.T, client *dummy.Client, app Application, mutate func(*config.Config)) {
	t.Helper()

	h := newHandler(client, app, mutate)
	err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned unexpected error: %v", err)
	}
}
