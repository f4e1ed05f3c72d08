// Package config holds the traffic handler's configuration, following the teacher's convention
// of a single Config struct built via Default() and never constructed by hand.
package config

import "time"

// ForwardedHeaderHandler rewrites resolved connection info using Forwarded/X-Forwarded-*
// headers. It mirrors reactor-netty's BiFunction<ConnectionInfo, HttpRequest, ConnectionInfo>.
type ForwardedHeaderHandler func(info ConnectionInfo, headers HeaderReader) (ConnectionInfo, error)

// HeaderReader is the minimal header-lookup surface a ForwardedHeaderHandler needs; kept
// narrow so config doesn't have to import the message/kv packages.
type HeaderReader interface {
	Value(key string) string
	Has(key string) bool
}

// ConnectionInfo is the resolved, immutable-per-request connection metadata surfaced to the
// application, mirroring reactor-netty's ConnectionInfo.
type ConnectionInfo struct {
	Scheme        string
	RemoteAddress string
	ServerAddress string
}

// Config is the immutable, connection-wide configuration of a traffic handler, following the
// teacher's single-struct-built-via-Default() convention (see config.Config in the teacher).
type Config struct {
	// MaxKeepAliveRequests upper-bounds the number of requests served on one connection before
	// it is forced to close. -1 means unlimited.
	MaxKeepAliveRequests int
	// IdleTimeout is the idle limit for a connection; zero means disabled. It is carried as
	// configuration only: traffic.Handler does not read it and starts no idle timer.
	IdleTimeout time.Duration
	// ReadTimeout and RequestTimeout are per-request deadlines surfaced to the application; the
	// core does not itself enforce them.
	ReadTimeout    time.Duration
	RequestTimeout time.Duration
	// ValidateHeaders is carried as configuration only; error-response synthesis
	// (traffic's errorOutbound) does not receive or read it.
	ValidateHeaders bool
	// ForwardedHeaderHandler optionally rewrites connection info from proxy headers.
	ForwardedHeaderHandler ForwardedHeaderHandler
	// LastFlushWhenNoRead enables flush-coalescing: defer flushes of response bytes to the next
	// read boundary instead of flushing immediately. Defaults to off, as in the teacher (the
	// teacher reads this from a JVM system property; here it's plain per-handler config so
	// tests can flip it per connection, per the "no true global" design note).
	LastFlushWhenNoRead bool

	// Compress and CompressionOptions, CookieEncoder and CookieDecoder, FormDecoderProvider, and
	// MapHandle are opaque pass-through configuration, mirroring HttpTrafficHandler's
	// compress/compressionOptions/cookieEncoder/cookieDecoder/formDecoderProvider/mapHandle
	// fields: the core never calls or interprets any of them, only carries them from Config onto
	// the bound Operation so a codec or application layer outside this module's scope can read
	// them back. Typed as any since their concrete shape belongs entirely to those collaborators.
	Compress            any
	CompressionOptions  any
	CookieEncoder       any
	CookieDecoder       any
	FormDecoderProvider any
	MapHandle           any
}

// Default returns a Config with conservative, widely-applicable defaults.
func Default() *Config {
	return &Config{
		MaxKeepAliveRequests: -1,
		IdleTimeout:          60 * time.Second,
		ReadTimeout:          0,
		RequestTimeout:       0,
		ValidateHeaders:      true,
		LastFlushWhenNoRead:  false,
	}
}
