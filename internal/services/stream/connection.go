// Package stream consumes the live video feed of the capture device over a single
// websocket, reconnecting with bounded exponential backoff.
package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"anomalydash/internal/logger"
	"anomalydash/internal/metrics"
	"anomalydash/internal/model"
)

// Snapshot is a read-only view of the connection.
type Snapshot struct {
	State       State
	LatestFrame *model.Frame
	LastError   error
}

// closedByServer ends a session without an error condition.
type closedByServer struct {
	reason string
}

func (e *closedByServer) Error() string {
	return e.reason
}

// Connection owns one realtime channel to the capture device. One goroutine reads
// the socket, so frames are surfaced in arrival order.
type Connection struct {
	opts    Options
	framer  framer
	dialer  *websocket.Dialer
	logger  *logger.Logger
	metrics *metrics.Metrics

	// lifeMu serializes Open and Close, so an Open issued during a Close starts
	// a new loop once the old one has exited.
	lifeMu sync.Mutex

	handlerMu     sync.RWMutex
	onStatus      func(State)
	onFrame       func(model.Frame)
	onDecodeError func(error)

	mu      sync.Mutex
	state   State
	latest  *model.Frame
	lastErr error
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(opts Options, logger *logger.Logger, m *metrics.Metrics) *Connection {
	opts.defaults()
	return &Connection{
		opts:   opts,
		framer: newFramer(&opts),
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: opts.DialTimeout,
		},
		logger:  logger,
		metrics: m,
	}
}

// OnStatus registers the status signal handler.
func (c *Connection) OnStatus(fn func(State)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onStatus = fn
}

// OnFrame registers the handler receiving every decoded frame in arrival order.
func (c *Connection) OnFrame(fn func(model.Frame)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onFrame = fn
}

// OnDecodeError registers the handler told about dropped malformed messages.
func (c *Connection) OnDecodeError(fn func(error)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onDecodeError = fn
}

// Open starts the connection loop. The loop ends when ctx is done, Close is called,
// the server closes the session or retries run out.
func (c *Connection) Open(ctx context.Context) error {
	endpoint, err := c.opts.endpoint()
	if err != nil {
		return err
	}

	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	c.mu.Lock()
	if c.runningLocked() {
		c.mu.Unlock()
		return ErrAlreadyOpen
	}
	if c.cancel != nil {
		c.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.lastErr = nil
	c.latest = nil
	c.mu.Unlock()

	c.setState(State{Status: Connecting})
	go c.run(runCtx, endpoint, done)
	return nil
}

// Close tears the channel down and waits for the loop to exit. The connection ends
// in Disconnected and the latest frame is dropped.
func (c *Connection) Close() error {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	c.mu.Lock()
	c.latest = nil
	disconnected := c.state.Status == Disconnected
	c.mu.Unlock()

	if !disconnected {
		c.setState(State{Status: Disconnected})
	}
	return nil
}

// Snapshot returns the current status, latest frame and last connection error.
func (c *Connection) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{State: c.state, LastError: c.lastErr}
	if c.latest != nil {
		frame := *c.latest
		snap.LatestFrame = &frame
	}
	return snap
}

// Done is closed when the current connection loop exits. Nil before the first Open.
func (c *Connection) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

func (c *Connection) runningLocked() bool {
	if c.done == nil {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

func (c *Connection) run(ctx context.Context, endpoint string, done chan struct{}) {
	defer close(done)

	attempt := 0
	for {
		conn, window, err := c.connect(ctx, endpoint)
		if err == nil {
			attempt = 0
			c.logger.Info("Live stream connected to %s", endpoint)
			c.setState(State{Status: Connected})
			err = c.receive(ctx, conn, window)
		}

		if ctx.Err() != nil {
			c.setState(State{Status: Disconnected})
			return
		}

		var closed *closedByServer
		if errors.As(err, &closed) {
			c.logger.Info("Live stream closed by server: %s", closed.reason)
			c.setState(State{Status: Disconnected, Reason: closed.reason})
			return
		}

		attempt++
		connErr := &ConnectError{Endpoint: endpoint, Attempt: attempt, Cause: err}
		c.mu.Lock()
		c.lastErr = connErr
		c.mu.Unlock()

		if !retryable(err) || attempt > c.opts.MaxRetries {
			c.logger.Error("Live stream failed (%s): %v", classify(err), connErr)
			c.setState(State{Status: Failed, Reason: err.Error(), Attempt: attempt})
			return
		}

		delay := backoff(attempt, c.opts.RetryDelay, c.opts.MaxRetryDelay)
		c.logger.Warning("Live stream error: %v, reconnecting in %s (%d/%d)", err, delay, attempt, c.opts.MaxRetries)
		c.metrics.StreamReconnect()
		c.setState(State{Status: Reconnecting, Reason: err.Error(), Attempt: attempt})

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.setState(State{Status: Disconnected})
			return
		case <-timer.C:
		}
		c.setState(State{Status: Connecting, Attempt: attempt})
	}
}

// connect dials and completes the transport handshake. It returns the read window
// to apply between messages.
func (c *Connection) connect(ctx context.Context, endpoint string) (*websocket.Conn, time.Duration, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.opts.DialTimeout)
	defer cancel()

	c.logger.Debug("Dialing live stream %s", endpoint)
	conn, resp, err := c.dialer.DialContext(dialCtx, endpoint, c.opts.Headers)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, 0, fmt.Errorf("%w: HTTP %d", ErrUnauthorized, resp.StatusCode)
		}
		return nil, 0, fmt.Errorf("failed to connect: %w", err)
	}
	conn.SetReadLimit(c.opts.MaxMessageSize)

	window, err := c.handshake(conn)
	if err != nil {
		_ = conn.Close()
		return nil, 0, err
	}
	return conn, window, nil
}

// handshake joins the Socket.IO namespace. Plain websocket needs nothing.
func (c *Connection) handshake(conn *websocket.Conn) (time.Duration, error) {
	join := c.framer.joinMessage()
	if join == "" {
		return c.opts.ReadTimeout, nil
	}

	_ = conn.SetReadDeadline(time.Now().Add(c.opts.DialTimeout))
	defer conn.SetReadDeadline(time.Time{})

	_, msg, err := conn.ReadMessage()
	if err != nil {
		return 0, fmt.Errorf("reading engine.io open packet: %w", err)
	}
	open, err := parseOpen(msg)
	if err != nil {
		return 0, err
	}
	if err := c.write(conn, join); err != nil {
		return 0, err
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return 0, fmt.Errorf("waiting for namespace ack: %w", err)
		}
		pkt, err := c.framer.decode(msg)
		if err != nil {
			continue
		}
		switch pkt.kind {
		case packetJoined:
			window := c.opts.ReadTimeout
			if window == 0 {
				window = open.heartbeatWindow()
			}
			c.logger.Debug("Joined namespace %s (sid %s)", c.opts.Namespace, open.SID)
			return window, nil
		case packetReply:
			if err := c.write(conn, pkt.reply); err != nil {
				return 0, err
			}
		case packetRefused:
			return 0, fmt.Errorf("%w: %s", ErrNamespaceRefused, pkt.reason)
		case packetClose:
			return 0, fmt.Errorf("%w: closed during handshake", ErrProtocol)
		}
	}
}

// receive reads until the session ends. It always returns a non-nil error;
// *closedByServer marks a clean end.
func (c *Connection) receive(ctx context.Context, conn *websocket.Conn, window time.Duration) error {
	stop := context.AfterFunc(ctx, func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.opts.WriteWait))
		_ = conn.Close()
	})
	defer stop()
	defer conn.Close()

	extend := func() {
		if window > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(window))
		}
	}
	extend()
	conn.SetPongHandler(func(string) error {
		extend()
		return nil
	})

	if window > 0 {
		hbCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go c.heartbeat(hbCtx, conn, window/2)
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return &closedByServer{reason: "closed by server"}
			}
			return err
		}
		extend()

		pkt, err := c.framer.decode(msg)
		if err != nil {
			c.decodeFailed(err)
			continue
		}
		switch pkt.kind {
		case packetFrame:
			c.deliver(pkt.payload)
		case packetReply:
			if err := c.write(conn, pkt.reply); err != nil {
				return err
			}
		case packetClose:
			return &closedByServer{reason: pkt.reason}
		case packetRefused:
			return fmt.Errorf("%w: %s", ErrNamespaceRefused, pkt.reason)
		}
	}
}

func (c *Connection) heartbeat(ctx context.Context, conn *websocket.Conn, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.opts.WriteWait)); err != nil {
				c.logger.Debug("Live stream ping failed: %v", err)
				return
			}
		}
	}
}

// write is only called from the goroutine that owns conn.
func (c *Connection) write(conn *websocket.Conn, msg string) error {
	if err := conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

func (c *Connection) deliver(payload []byte) {
	frame, err := DecodeFrame(payload, time.Now())
	if err != nil {
		c.decodeFailed(err)
		return
	}

	c.mu.Lock()
	c.latest = &frame
	c.mu.Unlock()
	c.metrics.StreamFrame(frame.IsAnomaly)

	c.handlerMu.RLock()
	fn := c.onFrame
	c.handlerMu.RUnlock()
	if fn != nil {
		fn(frame)
	}
}

func (c *Connection) decodeFailed(err error) {
	c.metrics.StreamDecodeFailure()
	c.logger.Warning("Dropping malformed stream message: %v", err)

	c.handlerMu.RLock()
	fn := c.onDecodeError
	c.handlerMu.RUnlock()
	if fn != nil {
		fn(err)
	}
}

func (c *Connection) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	c.metrics.StreamState(s.Status.String(), StatusNames)

	c.handlerMu.RLock()
	fn := c.onStatus
	c.handlerMu.RUnlock()
	if fn != nil {
		fn(s)
	}
}
