package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"market-sim-lab/internal/domain"
)

// WSConfig configures a WebSocket record source.
type WSConfig struct {
	// HandshakeTimeout bounds the dial.
	HandshakeTimeout time.Duration
	// ReadTimeout closes the source when the server goes quiet. Zero disables it.
	ReadTimeout time.Duration
	// Buffer is the number of decoded records held ahead of the consumer.
	Buffer int
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		HandshakeTimeout: 10 * time.Second,
		ReadTimeout:      60 * time.Second,
		Buffer:           1024,
	}
}

// subscribeRequest is sent once after connecting when symbols are given.
type subscribeRequest struct {
	Op      string   `json:"op"`
	Symbols []string `json:"symbols"`
}

type wsResult struct {
	rec domain.Record
	err error
}

// WSSource streams records from a WebSocket endpoint. Each text frame carries
// one JSON record or a JSON array of records. A normal close ends the stream
// with io.EOF.
type WSSource struct {
	conn   *websocket.Conn
	cfg    WSConfig
	out    chan wsResult
	done   chan struct{}
	once   sync.Once
	closed error
}

// DialWS connects to endpoint and subscribes to symbols when any are given.
func DialWS(ctx context.Context, endpoint string, symbols []string, config *WSConfig) (*WSSource, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 1
	}

	dialer := websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	if len(symbols) > 0 {
		if err := conn.WriteJSON(subscribeRequest{Op: "subscribe", Symbols: symbols}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("write subscribe: %w", err)
		}
	}

	s := &WSSource{
		conn: conn,
		cfg:  cfg,
		out:  make(chan wsResult, cfg.Buffer),
		done: make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// Next returns the next record, io.EOF after a normal close, or the read error.
func (s *WSSource) Next(ctx context.Context) (domain.Record, error) {
	select {
	case res, ok := <-s.out:
		if !ok {
			return domain.Record{}, io.EOF
		}
		return res.rec, res.err
	case <-ctx.Done():
		return domain.Record{}, ctx.Err()
	}
}

// Close closes the connection. Pending records are discarded.
func (s *WSSource) Close() error {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.closed = s.conn.Close()
	})
	return s.closed
}

func (s *WSSource) readLoop() {
	defer close(s.out)

	for {
		if s.cfg.ReadTimeout > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}

		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || s.isClosed() {
				return
			}
			s.emit(wsResult{err: fmt.Errorf("websocket read: %w", err)})
			return
		}

		records, err := decodeRecords(msg)
		if err != nil {
			s.emit(wsResult{err: err})
			return
		}
		for _, r := range records {
			if !s.emit(wsResult{rec: r}) {
				return
			}
		}
	}
}

func (s *WSSource) emit(res wsResult) bool {
	select {
	case s.out <- res:
		return true
	case <-s.done:
		return false
	}
}

func (s *WSSource) isClosed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

var errEmptyFrame = errors.New("empty frame")

func decodeRecords(msg []byte) ([]domain.Record, error) {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 {
		return nil, errEmptyFrame
	}

	if msg[0] == '[' {
		var records []domain.Record
		if err := json.Unmarshal(msg, &records); err != nil {
			return nil, fmt.Errorf("decode record batch: %w", err)
		}
		return records, nil
	}

	var r domain.Record
	if err := json.Unmarshal(msg, &r); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return []domain.Record{r}, nil
}
