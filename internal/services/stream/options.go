package stream

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"anomalydash/internal/config"
)

// Transport selects the framing spoken on the websocket.
type Transport string

const (
	// TransportSocketIO speaks Engine.IO v4 / Socket.IO, as the capture device does.
	TransportSocketIO Transport = "socketio"
	// TransportWebSocket treats every text message as one frame payload.
	TransportWebSocket Transport = "websocket"
)

// Default connection constants.
const (
	DefaultDialTimeout    = 10 * time.Second
	DefaultWriteWait      = 10 * time.Second
	DefaultRetryDelay     = 1 * time.Second
	DefaultMaxRetryDelay  = 30 * time.Second
	DefaultMaxMessageSize = 16 * 1024 * 1024
)

// Options configures a Connection. Every reconnection parameter is explicit; there
// are no hidden transport defaults beyond the ones listed above.
type Options struct {
	URL       string // ws://, wss://, http:// or https:// origin
	Path      string // Socket.IO mount path, "/socket.io/" by default
	Namespace string // Socket.IO namespace, or the websocket path for TransportWebSocket
	Event     string // Socket.IO event carrying frames
	Transport Transport
	Headers   http.Header

	DialTimeout    time.Duration
	ReadTimeout    time.Duration // zero disables the read deadline
	WriteWait      time.Duration
	MaxMessageSize int64

	MaxRetries    int // reconnection attempts after a failure; zero fails on the first error
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// OptionsFromConfig maps the live feed settings onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	headers := http.Header{}
	if cfg.BypassHeader != "" {
		headers.Set(cfg.BypassHeader, cfg.BypassHeaderValue)
	}
	return Options{
		URL:           cfg.StreamURL,
		Path:          cfg.StreamPath,
		Namespace:     cfg.StreamNamespace,
		Event:         cfg.StreamEvent,
		Transport:     Transport(cfg.StreamTransport),
		Headers:       headers,
		DialTimeout:   cfg.StreamDialTimeout,
		ReadTimeout:   cfg.StreamReadTimeout,
		MaxRetries:    cfg.StreamMaxRetries,
		RetryDelay:    cfg.StreamRetryDelay,
		MaxRetryDelay: cfg.StreamMaxRetryDelay,
	}
}

func (o *Options) defaults() {
	if o.Transport == "" {
		o.Transport = TransportSocketIO
	}
	if o.Path == "" {
		o.Path = "/socket.io/"
	}
	if o.Event == "" {
		o.Event = "video_frame"
	}
	if o.DialTimeout == 0 {
		o.DialTimeout = DefaultDialTimeout
	}
	if o.WriteWait == 0 {
		o.WriteWait = DefaultWriteWait
	}
	if o.MaxMessageSize == 0 {
		o.MaxMessageSize = DefaultMaxMessageSize
	}
	if o.RetryDelay == 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.MaxRetryDelay == 0 {
		o.MaxRetryDelay = DefaultMaxRetryDelay
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
}

// endpoint builds the websocket URL for the configured transport.
func (o *Options) endpoint() (string, error) {
	u, err := url.Parse(o.URL)
	if err != nil {
		return "", fmt.Errorf("invalid stream URL %q: %w", o.URL, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid stream URL %q: unsupported scheme %q", o.URL, u.Scheme)
	}

	base := strings.TrimSuffix(u.Path, "/")
	switch o.Transport {
	case TransportSocketIO:
		u.Path = base + "/" + strings.Trim(o.Path, "/") + "/"
		q := u.Query()
		q.Set("EIO", "4")
		q.Set("transport", "websocket")
		u.RawQuery = q.Encode()
	case TransportWebSocket:
		u.Path = base + "/" + strings.TrimPrefix(o.Namespace, "/")
	default:
		return "", fmt.Errorf("unknown stream transport %q", o.Transport)
	}
	return u.String(), nil
}
