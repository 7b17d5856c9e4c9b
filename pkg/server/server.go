// Package server accepts websocket connections and multiplexes each
// connection's binary audio frames and textual control frames into a
// session, driving the turn state machine and the response pipeline.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fauzanhilmi/vocalis/pkg/logging"
	"github.com/fauzanhilmi/vocalis/pkg/metrics"
	"github.com/fauzanhilmi/vocalis/pkg/pipeline"
	"github.com/fauzanhilmi/vocalis/pkg/protocol"
	"github.com/fauzanhilmi/vocalis/pkg/session"
	"github.com/fauzanhilmi/vocalis/pkg/stt"
	"github.com/fauzanhilmi/vocalis/pkg/turn"
)

const defaultHeartbeatInterval = 15 * time.Second

// Config holds the websocket server settings.
type Config struct {
	Addr              string
	HeartbeatInterval time.Duration
}

// Server owns the listener, the session registry and the per-connection
// handling loops.
type Server struct {
	cfg        Config
	registry   *session.Registry
	runner     *pipeline.Runner
	sttFactory func() stt.Stream
	observer   metrics.Observer
	upgrader   websocket.Upgrader
	logger     *slog.Logger
	httpServer *http.Server
	conns      sync.Map
}

// New builds a Server. sttFactory is called once per connection; each
// session owns its stream for the connection lifetime.
func New(cfg Config, runner *pipeline.Runner, sttFactory func() stt.Stream, observer metrics.Observer) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = defaultHeartbeatInterval
	}
	if sttFactory == nil {
		sttFactory = func() stt.Stream { return stt.NewDisabled() }
	}
	if observer == nil {
		observer = metrics.NoopObserver{}
	}
	s := &Server{
		cfg:        cfg,
		registry:   session.NewRegistry(),
		runner:     runner,
		sttFactory: sttFactory,
		observer:   observer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logging.NewComponentLogger(slog.Default(), "server"),
	}
	s.httpServer = &http.Server{Addr: cfg.Addr, Handler: s.Handler()}
	return s
}

// Handler returns the HTTP handler serving the websocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWS)
	return mux
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("websocket server listening", slog.String("addr", s.cfg.Addr))
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and closes live sessions.
// Closing the websockets unblocks their read loops, which release the
// per-session resources.
func (s *Server) Shutdown(ctx context.Context) error {
	s.registry.Iterate(func(sess *session.Session) {
		sess.CancelTurn()
	})
	s.conns.Range(func(_, v any) bool {
		_ = v.(*websocket.Conn).Close()
		return true
	})
	return s.httpServer.Shutdown(ctx)
}

// Sessions exposes the live session count for observability.
func (s *Server) Sessions() int { return s.registry.Len() }

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", slog.String("error", err.Error()))
		return
	}

	sttStream := s.sttFactory()
	sess := session.New(newWSSink(conn), sttStream, s.observer)
	s.registry.Insert(sess)
	s.conns.Store(sess.ID, conn)
	log := sess.Logger()
	log.Info("client connected", slog.String("stt", sttStream.Name()))

	connCtx, cancelConn := context.WithCancel(r.Context())
	var closeOnce sync.Once
	closeConn := func(reason string) {
		closeOnce.Do(func() {
			cancelConn()
			sess.CancelTurn()
			_ = sttStream.Close()
			s.registry.Remove(sess.ID)
			s.conns.Delete(sess.ID)
			_ = conn.Close()
			log.Info("client disconnected", slog.String("reason", reason))
		})
	}
	defer closeConn("read loop ended")

	sess.Emit(protocol.SessionIDEvent(sess.ID))
	sess.Emit(protocol.StateEvent(sess.Machine.State().String()))

	if err := sttStream.Start(connCtx); err != nil {
		log.Warn("stt start failed, turns will use the fallback path",
			slog.String("error", err.Error()))
	}
	go func() {
		for res := range sttStream.Results() {
			sess.OnTranscript(res)
		}
	}()

	conn.SetPongHandler(func(string) error {
		sess.MarkAlive()
		return nil
	})
	go s.heartbeat(connCtx, sess, conn, closeConn)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		switch msgType {
		case websocket.BinaryMessage:
			// Audio is forwarded upstream only while listening; frames
			// arriving mid-response belong to a superseded capture.
			if sess.Machine.State() != turn.StateListening {
				continue
			}
			if err := sttStream.SendAudio(data); err != nil {
				log.Warn("stt send failed", slog.String("error", err.Error()))
			}
		case websocket.TextMessage:
			msg, err := protocol.ParseClientMessage(data)
			if err != nil {
				log.Warn("malformed control frame ignored", slog.String("error", err.Error()))
				continue
			}
			s.handleControl(connCtx, sess, msg)
		}
	}
}

func (s *Server) handleControl(ctx context.Context, sess *session.Session, msg protocol.ClientMessage) {
	log := sess.Logger()
	switch msg.Type {
	case protocol.TypeTurnStart:
		sess.ClearTranscript()
		id := sess.Tracker.StartTurn(msg.ID)
		log.Debug("turn started", slog.String("turn_id", id))

	case protocol.TypeUserStopped:
		id, result := sess.Tracker.ResolveEnd(msg.ID)
		if result == turn.Duplicate {
			log.Debug("duplicate turn end ignored", slog.String("turn_id", id))
			return
		}
		if err := sess.Machine.Transition(turn.StateThinking, "user stopped"); err != nil {
			// A turn end while a response is in flight is a protocol
			// error, treated as a no-op. The id stays uncommitted so a
			// retransmission after the response can still run.
			log.Debug("turn end out of state", slog.String("error", err.Error()))
			return
		}
		sess.Tracker.CommitEnd(id)
		turnCtx := sess.BeginTurn(ctx)
		go s.runner.Run(turnCtx, sess, id)

	case protocol.TypeBargeIn:
		log.Info("barge in")
		sess.CancelTurn()
		sess.Machine.ForceListening("barge in")
		sess.ClearTranscript()

	default:
		log.Debug("unknown control frame ignored", slog.String("type", msg.Type))
	}
}

// heartbeat pings the connection every interval and tears it down when
// the previous ping went unanswered.
func (s *Server) heartbeat(ctx context.Context, sess *session.Session, conn *websocket.Conn, closeConn func(reason string)) {
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !sess.CheckAlive() {
				closeConn("heartbeat timeout")
				return
			}
			// WriteControl is safe alongside the sink's data writes.
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			if err != nil {
				closeConn("ping failed")
				return
			}
		}
	}
}
