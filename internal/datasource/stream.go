package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"wallet-strategy-lab/internal/domain"
	"wallet-strategy-lab/internal/observability"
)

// Reconnection parameters for the live activity feed.
const (
	initialBackoff   = 1 * time.Second
	maxBackoff       = 60 * time.Second
	backoffFactor    = 2.0
	jitterPercent    = 0.2
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
	readTimeout      = 90 * time.Second
)

// Listener maintains a websocket connection to the live wallet-activity feed
// and emits normalized trade events. Reconnects with jittered exponential
// backoff on any read or dial failure.
type Listener struct {
	url     string
	wallets []string
	events  chan<- domain.TradeEvent
	log     *logrus.Logger

	conn    *websocket.Conn
	connMu  sync.Mutex
	backoff time.Duration
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewListener creates a listener that subscribes to fills for the given
// wallets and sends them on events.
func NewListener(url string, wallets []string, events chan<- domain.TradeEvent, log *logrus.Logger) *Listener {
	return &Listener{
		url:     url,
		wallets: wallets,
		events:  events,
		log:     log,
		backoff: initialBackoff,
		stopCh:  make(chan struct{}),
	}
}

// Start begins the listener loop. Returns immediately; events arrive on the
// channel passed to NewListener until Stop or context cancellation.
func (l *Listener) Start(ctx context.Context) {
	l.wg.Add(1)
	go l.runLoop(ctx)
}

// Stop shuts the listener down and waits for the loop to exit.
func (l *Listener) Stop() {
	close(l.stopCh)
	l.closeConn()
	l.wg.Wait()
}

func (l *Listener) runLoop(ctx context.Context) {
	defer l.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		default:
		}

		observability.DefaultMetrics.FeedConnects.Inc()
		if err := l.connect(ctx); err != nil {
			l.log.WithError(err).WithField("backoff", l.backoff).Warn("activity feed connect failed")
			l.waitBackoff(ctx)
			continue
		}

		if err := l.readLoop(ctx); err != nil {
			l.log.WithError(err).Warn("activity feed read error")
		}
		l.closeConn()

		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		default:
			l.waitBackoff(ctx)
		}
	}
}

func (l *Listener) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	conn, resp, err := dialer.DialContext(ctx, l.url, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial failed with status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("dial failed: %w", err)
	}

	l.connMu.Lock()
	l.conn = conn
	l.connMu.Unlock()
	l.backoff = initialBackoff

	sub := map[string]any{"type": "subscribe", "channel": "fills", "wallets": l.wallets}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	l.log.WithFields(logrus.Fields{
		"endpoint": l.url,
		"wallets":  len(l.wallets),
	}).Info("activity feed connected")
	return nil
}

func (l *Listener) readLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stopCh:
			return nil
		default:
		}

		l.connMu.Lock()
		conn := l.conn
		l.connMu.Unlock()
		if conn == nil {
			return fmt.Errorf("connection is nil")
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		l.handleMessage(message)
	}
}

func (l *Listener) handleMessage(data []byte) {
	var msg activityMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		l.log.WithError(err).Debug("activity feed message unparseable")
		return
	}
	if msg.Type != "fill" || msg.Wallet == "" {
		return
	}

	// Single-fill payloads reuse the normalizer; SeqNum is assigned at
	// archive time since the feed carries no source ordering.
	events := Normalize(msg.Wallet, []RawPosition{msg.Position})
	for _, e := range events {
		select {
		case l.events <- e:
		default:
			l.log.WithField("wallet", e.WalletID).Warn("event channel full, fill dropped")
		}
	}
}

func (l *Listener) closeConn() {
	l.connMu.Lock()
	defer l.connMu.Unlock()
	if l.conn != nil {
		l.conn.Close()
		l.conn = nil
	}
}

func (l *Listener) waitBackoff(ctx context.Context) {
	jitter := time.Duration(float64(l.backoff) * jitterPercent * (rand.Float64()*2 - 1))
	select {
	case <-ctx.Done():
	case <-l.stopCh:
	case <-time.After(l.backoff + jitter):
	}

	l.backoff = time.Duration(float64(l.backoff) * backoffFactor)
	if l.backoff > maxBackoff {
		l.backoff = maxBackoff
	}
}
