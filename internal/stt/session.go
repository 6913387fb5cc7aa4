package stt

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sentinel-voice/sentinel/internal/engine"
)

// Conn is the part of a websocket connection a session drives.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteJSON(v any) error
	Close() error
}

type SessionConfig struct {
	ID         string
	SampleRate int
	Channels   int
	Recognizer engine.Recognizer
	Conn       Conn
	Log        *slog.Logger

	// OnFinal is called for every non-empty finalized utterance, including
	// the flush on disconnect.
	OnFinal func(engine.Result)
}

// Session owns one websocket connection and one recognizer. Binary frames
// are fed to the recognizer; every frame produces exactly one partial or
// final event back on the connection.
type Session struct {
	id         string
	sampleRate int
	channels   int
	rec        engine.Recognizer
	conn       Conn
	log        *slog.Logger
	onFinal    func(engine.Result)

	startedAt  time.Time
	audioBytes atomic.Int64
	lastActive atomic.Int64

	mu     sync.Mutex
	closed bool
}

func NewSession(cfg SessionConfig) *Session {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	s := &Session{
		id:         cfg.ID,
		sampleRate: cfg.SampleRate,
		channels:   cfg.Channels,
		rec:        cfg.Recognizer,
		conn:       cfg.Conn,
		log:        cfg.Log.With("session_id", cfg.ID),
		onFinal:    cfg.OnFinal,
		startedAt:  time.Now(),
	}
	s.lastActive.Store(s.startedAt.UnixNano())
	return s
}

func (s *Session) ID() string           { return s.id }
func (s *Session) SampleRate() int      { return s.sampleRate }
func (s *Session) Channels() int        { return s.channels }
func (s *Session) AudioBytes() int64    { return s.audioBytes.Load() }
func (s *Session) StartedAt() time.Time { return s.startedAt }

func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Run reads frames until the connection drops, then flushes the recognizer
// so trailing audio still produces a final event. It always closes the
// session before returning.
func (s *Session) Run() {
	defer s.Close()

	for {
		mt, data, err := s.conn.ReadMessage()
		if err != nil {
			s.flush()
			return
		}
		if mt != websocket.BinaryMessage || len(data) == 0 {
			continue
		}
		s.audioBytes.Add(int64(len(data)))
		s.lastActive.Store(time.Now().UnixNano())

		if err := s.process(data); err != nil {
			s.log.Error("session ended", "error", err)
			return
		}
	}
}

func (s *Session) process(pcm []byte) error {
	if s.rec.AcceptAudio(pcm) {
		res, err := s.rec.Result()
		if err != nil {
			return err
		}
		if err := s.conn.WriteJSON(finalEvent(res)); err != nil {
			return err
		}
		s.emitFinal(res)
		return nil
	}

	text, err := s.rec.Partial()
	if err != nil {
		return err
	}
	return s.conn.WriteJSON(partialEvent(text))
}

// flush drains whatever the recognizer still buffers. The write is best
// effort: the peer is usually already gone.
func (s *Session) flush() {
	res, err := s.rec.FinalResult()
	if err != nil {
		s.log.Error("flush failed", "error", err)
		return
	}
	_ = s.conn.WriteJSON(finalEvent(res))
	s.emitFinal(res)
}

func (s *Session) emitFinal(res engine.Result) {
	if s.onFinal != nil && res.Text != "" {
		s.onFinal(res)
	}
}

// Close releases the connection and the recognizer exactly once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	_ = s.conn.Close()
	s.rec.Close()
}
