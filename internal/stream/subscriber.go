// Package stream subscribes to the indexer's live transfer feed over
// WebSocket and invalidates cached wallet views as transfers land.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Config configures subscriber connection behavior.
type Config struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing control frames.
	WriteTimeout time.Duration
}

// DefaultConfig returns default subscriber configuration.
func DefaultConfig() Config {
	return Config{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// Invalidator drops a wallet's cached pages.
type Invalidator interface {
	InvalidateWallet(ctx context.Context, wallet string) (int, error)
}

// feedEvent is one transfer as the feed pushes it.
type feedEvent struct {
	From            string `json:"from"`
	To              string `json:"to"`
	ContractAddress string `json:"contractAddress"`
	TokenID         string `json:"tokenID"`
}

// Subscriber keeps a WebSocket connection to the transfer feed and
// invalidates both parties' cached views for every event. The connection is
// re-established with exponential backoff; missed events are harmless because
// cached pages expire on their own TTL.
type Subscriber struct {
	endpoint    string
	config      Config
	invalidator Invalidator
	logger      *logrus.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewSubscriber connects to the feed and starts consuming events.
func NewSubscriber(ctx context.Context, endpoint string, invalidator Invalidator, logger *logrus.Logger, config *Config) (*Subscriber, error) {
	cfg := DefaultConfig()
	if config != nil {
		cfg = *config
	}

	s := &Subscriber{
		endpoint:    endpoint,
		config:      cfg,
		invalidator: invalidator,
		logger:      logger,
		done:        make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.readLoop()

	s.wg.Add(1)
	go s.pingLoop()

	return s, nil
}

// connect establishes the WebSocket connection.
func (s *Subscriber) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	s.conn = conn
	return nil
}

// Close shuts the subscriber down and waits for its goroutines.
func (s *Subscriber) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	return nil
}

// readLoop reads feed messages and reconnects on failure.
func (s *Subscriber) readLoop() {
	defer s.wg.Done()

	reconnectDelay := s.config.ReconnectDelay

	for !s.closed.Load() {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			if !s.reconnect(reconnectDelay) {
				return
			}
			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > s.config.MaxReconnectDelay {
				reconnectDelay = s.config.MaxReconnectDelay
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}
			s.logger.WithError(err).Warn("transfer feed read failed, reconnecting")
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.Close()
				s.conn = nil
			}
			s.connMu.Unlock()
			continue
		}

		reconnectDelay = s.config.ReconnectDelay
		s.handleMessage(message)
	}
}

// reconnect waits out the backoff delay and re-dials. Returns false when the
// subscriber is shutting down.
func (s *Subscriber) reconnect(delay time.Duration) bool {
	select {
	case <-s.done:
		return false
	case <-time.After(delay):
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.connect(ctx); err != nil {
		s.logger.WithError(err).Warn("transfer feed reconnect failed")
	}
	return true
}

// handleMessage parses one feed event and invalidates both wallets.
func (s *Subscriber) handleMessage(message []byte) {
	var event feedEvent
	if err := json.Unmarshal(message, &event); err != nil {
		s.logger.WithError(err).Debug("unparseable feed message dropped")
		return
	}
	if event.From == "" && event.To == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, wallet := range []string{event.From, event.To} {
		if wallet == "" {
			continue
		}
		if _, err := s.invalidator.InvalidateWallet(ctx, wallet); err != nil {
			s.logger.WithError(err).WithField("wallet", wallet).Warn("feed-driven invalidation failed")
		}
	}
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (s *Subscriber) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
				s.conn.WriteMessage(websocket.PingMessage, nil)
			}
			s.connMu.Unlock()
		}
	}
}
