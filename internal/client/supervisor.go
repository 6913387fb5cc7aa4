package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/sentinel-voice/sentinel/internal/pipeline"
	"github.com/sentinel-voice/sentinel/internal/stt"
)

type SupervisorConfig struct {
	URL     string
	Queue   *pipeline.Queue
	Tracker *Tracker
	Dialer  *websocket.Dialer

	// OnConnect runs after each successful dial, before audio flows. The
	// pipeline uses it to start a fresh resampler state per connection.
	OnConnect func()

	// OnFinal receives finalized utterances.
	OnFinal func(stt.Event)
}

// Supervisor keeps one websocket connection alive against the streaming
// endpoint. Each connection runs a send loop and a receive loop as a pair:
// whichever fails first tears down the other, the connection is retried
// immediately, and queued audio from the dead connection is discarded so
// the new session starts clean.
type Supervisor struct {
	url       string
	queue     *pipeline.Queue
	tracker   *Tracker
	dialer    *websocket.Dialer
	onConnect func()
	onFinal   func(stt.Event)
}

func NewSupervisor(cfg SupervisorConfig) *Supervisor {
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	}
	tracker := cfg.Tracker
	if tracker == nil {
		tracker = NewTracker()
	}
	return &Supervisor{
		url:       cfg.URL,
		queue:     cfg.Queue,
		tracker:   tracker,
		dialer:    dialer,
		onConnect: cfg.OnConnect,
		onFinal:   cfg.OnFinal,
	}
}

func (s *Supervisor) Tracker() *Tracker { return s.tracker }

// Run dials and serves until ctx is cancelled. Dial failures and dropped
// connections retry immediately; the handshake timeout is the only pacing.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.tracker.SetState(StateConnecting, "")

		conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.tracker.SetState(StateReconnecting, reasonTag(err))
			continue
		}

		s.queue.Drain()
		if s.onConnect != nil {
			s.onConnect()
		}
		s.tracker.SetState(StateConnected, "")
		s.tracker.SetPartial("")

		err = s.serve(ctx, conn)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.tracker.SetState(StateReconnecting, reasonTag(err))
	}
}

func (s *Supervisor) serve(ctx context.Context, conn *websocket.Conn) error {
	var once sync.Once
	closeConn := func() { once.Do(func() { _ = conn.Close() }) }
	defer closeConn()

	g, gctx := errgroup.WithContext(ctx)

	// Gorilla reads do not observe contexts; closing the connection is what
	// unblocks the sibling loop once the first one fails.
	g.Go(func() error {
		<-gctx.Done()
		closeConn()
		return nil
	})
	g.Go(func() error { return s.sendLoop(gctx, conn) })
	g.Go(func() error { return s.recvLoop(conn) })

	return g.Wait()
}

func (s *Supervisor) sendLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		block, err := s.queue.Dequeue(ctx)
		if err != nil {
			return err
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, block); err != nil {
			return fmt.Errorf("send: %w", err)
		}
	}
}

func (s *Supervisor) recvLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("recv: %w", err)
		}
		var ev stt.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		switch ev.Type {
		case stt.EventPartial:
			if ev.Text != "" {
				s.tracker.SetPartial(ev.Text)
			}
		case stt.EventFinal:
			s.tracker.SetPartial("")
			if ev.Text != "" && s.onFinal != nil {
				s.onFinal(ev)
			}
		}
	}
}

// reasonTag condenses an error to its type name for the status line, where
// the full message would not fit.
func reasonTag(err error) string {
	if err == nil {
		return ""
	}
	t := fmt.Sprintf("%T", err)
	t = strings.TrimPrefix(t, "*")
	if i := strings.LastIndex(t, "."); i >= 0 {
		t = t[i+1:]
	}
	if t == "errorString" || t == "" {
		return "Error"
	}
	return t
}
