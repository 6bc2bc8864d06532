package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/netpad-project/netpad/internal/game"
	"github.com/netpad-project/netpad/internal/model"
	"github.com/netpad-project/netpad/internal/protocol"
)

// ServerConfig carries the listen address and loop timings for a game
// server.
type ServerConfig struct {
	Host         string
	Port         int
	Transport    protocol.Transport
	WriteTimeout time.Duration
	// IdleTimeout bounds how long a player may stay silent before the
	// connection is dropped.
	IdleTimeout time.Duration
	// PollInterval paces the per-player write loops and in-read close
	// checks.
	PollInterval time.Duration
	// ClosePollInterval paces the watcher that turns a runtime close
	// into a listener shutdown.
	ClosePollInterval time.Duration
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              protocol.DefaultPort,
		Transport:         protocol.TransportTCP,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		PollInterval:      200 * time.Millisecond,
		ClosePollInterval: time.Second,
	}
}

// Server accepts controller connections for one game runtime. Each
// handshake connection is answered and closed; a successful Join upgrades
// the connection to a long session with dedicated read and write loops.
type Server struct {
	cfg     ServerConfig
	runtime *game.Runtime
	logger  *slog.Logger

	mu       sync.Mutex
	listener net.Listener

	sessions sync.WaitGroup
}

func NewServer(rt *game.Runtime, cfg ServerConfig, logger *slog.Logger) (*Server, error) {
	if !cfg.Transport.Supported() {
		return nil, fmt.Errorf("transport %s: %w", cfg.Transport, model.ErrTransportUnsupported)
	}
	return &Server{
		cfg:     cfg,
		runtime: rt,
		logger:  logger.With("component", "netserver"),
	}, nil
}

// Listen binds the listening socket. Split from Serve so callers can
// learn the bound address before traffic starts (Port 0 picks a free
// port).
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.logger.Info("listening", "addr", ln.Addr().String())
	return nil
}

// Addr reports the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run binds and serves in one call.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve accepts connections until the context is cancelled or the runtime
// closes, then waits for in-flight sessions to drain. Player loops notice
// the close themselves; the watcher here only has to stop the accept
// loop.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return errors.New("serve before listen")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		ticker := time.NewTicker(s.cfg.ClosePollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if s.runtime.Closed() {
					cancel()
					return
				}
			}
		}
	}()
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			s.logger.Warn("accept failed", "error", err)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	wg.Wait()
	s.sessions.Wait()
	s.logger.Info("server stopped")
	return nil
}

// handleConnection reads the single handshake request and dispatches it.
// Only Join keeps the connection open past the response.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	payload, err := readFrameOnce(conn, s.cfg.IdleTimeout)
	if err != nil {
		s.logger.Warn("handshake read failed", "remote", conn.RemoteAddr().String(), "error", err)
		conn.Close()
		return
	}

	msg := protocol.DecodeConnection(payload)
	switch msg.Kind {
	case protocol.ConnRequestGameInfos:
		s.respond(conn, protocol.ConnectionResponse{Kind: protocol.RespGameInfos, Infos: s.runtime.Info()})
		conn.Close()
	case protocol.ConnRequestLayoutConfigure, protocol.ConnRequestSkinPackage:
		// Acknowledged but carries no payload transfer yet.
		s.logger.Info("resource request acknowledged", "request", msg.String(), "remote", conn.RemoteAddr().String())
		s.respond(conn, protocol.ConnectionResponse{Kind: protocol.RespOk})
		conn.Close()
	case protocol.ConnJoin:
		s.handleJoin(ctx, conn, msg.Player)
	case protocol.ConnReady:
		s.logger.Warn("ready outside a session", "remote", conn.RemoteAddr().String())
		conn.Close()
	default:
		s.logger.Warn("undecodable handshake request", "remote", conn.RemoteAddr().String())
		conn.Close()
	}
}

func (s *Server) handleJoin(ctx context.Context, conn net.Conn, player model.Player) {
	if err := s.runtime.TryJoin(player, s.cfg.Transport); err != nil {
		refusal := protocol.RefusalUnknown
		var joinErr *protocol.JoinError
		if errors.As(err, &joinErr) {
			refusal = joinErr.Refusal
		}
		s.logger.Info("join refused", "player", player.Account.ID, "refusal", refusal)
		s.respond(conn, protocol.ConnectionResponse{Kind: protocol.RespDeny, Refusal: refusal})
		conn.Close()
		return
	}

	if err := writeFrame(conn, protocol.EncodeResponse(protocol.ConnectionResponse{Kind: protocol.RespWelcome}), s.cfg.WriteTimeout); err != nil {
		s.logger.Warn("welcome write failed", "player", player.Account.ID, "error", err)
		s.runtime.SignOffline(player.Account)
		conn.Close()
		return
	}
	s.logger.Info("player joined", "player", player.Account.ID, "remote", conn.RemoteAddr().String())

	s.sessions.Add(2)
	go func() {
		defer s.sessions.Done()
		s.readLoop(ctx, conn, player.Account)
	}()
	go func() {
		defer s.sessions.Done()
		s.writeLoop(ctx, conn, player.Account)
	}()
}

// respond writes one handshake response, logging on failure.
func (s *Server) respond(conn net.Conn, resp protocol.ConnectionResponse) {
	if err := writeFrame(conn, protocol.EncodeResponse(resp), s.cfg.WriteTimeout); err != nil {
		s.logger.Warn("handshake write failed", "remote", conn.RemoteAddr().String(), "error", err)
	}
}

// readLoop receives control messages from one player. Exit, an error
// streak, idleness, a socket failure, or runtime close all end it; on the
// way out it enqueues End so the paired write loop stops too.
func (s *Server) readLoop(ctx context.Context, conn net.Conn, account model.Account) {
	s.runtime.ReaderStarted()
	defer s.runtime.ReaderStopped()
	defer s.runtime.EnqueueOutbound(account, protocol.GameMessage{Kind: protocol.GameEnd}, s.cfg.Transport)

	errStreak := 0
	for {
		payload, err := readFramePolling(conn, s.cfg.PollInterval, s.cfg.IdleTimeout, func() bool {
			return s.runtime.Closed() || ctx.Err() != nil
		})
		if err != nil {
			if !errors.Is(err, errClosing) {
				s.logger.Warn("player read failed", "player", account.ID, "error", err)
			}
			return
		}

		msg := protocol.DecodeControl(payload)
		switch msg.Kind {
		case protocol.ControlExit:
			s.logger.Info("player exited", "player", account.ID)
			return
		case protocol.ControlErr:
			errStreak++
			if errStreak >= maxErrTolerance {
				s.logger.Error("too many undecodable messages, dropping player", "player", account.ID)
				return
			}
		default:
			errStreak = 0
			if err := s.runtime.ProcessControlMessage(account, msg); err != nil {
				s.logger.Warn("control message rejected", "player", account.ID, "error", err)
			}
		}
	}
}

// writeLoop drains one player's outbound queue onto the wire. A runtime
// close injects a single LetExit(GameOver); End stops the loop without
// being transmitted. The loop owns the offline transition: whatever ends
// the session, the player is signed off exactly here.
func (s *Server) writeLoop(ctx context.Context, conn net.Conn, account model.Account) {
	s.runtime.WriterStarted()
	defer func() {
		s.runtime.SignOffline(account)
		conn.Close()
		s.runtime.WriterStopped()
	}()

	closeNotified := false
	for {
		if s.runtime.Closed() && !closeNotified {
			s.runtime.EnqueueOutbound(account, protocol.GameMessage{
				Kind:   protocol.GameLetExit,
				Reason: protocol.ReasonGameOver,
			}, s.cfg.Transport)
			closeNotified = true
		}

		msg, ok := s.runtime.PopOutbound(account, s.cfg.Transport)
		if !ok {
			if !s.runtime.IsOnline(account) || ctx.Err() != nil {
				return
			}
			time.Sleep(s.cfg.PollInterval)
			continue
		}
		switch msg.Kind {
		case protocol.GameEnd:
			// A runtime close can race the reader's End ahead of the
			// farewell injection above, so it is retried here.
			if s.runtime.Closed() && !closeNotified {
				farewell := protocol.GameMessage{Kind: protocol.GameLetExit, Reason: protocol.ReasonGameOver}
				_ = writeFrame(conn, protocol.EncodeGame(farewell), s.cfg.WriteTimeout)
			}
			return
		case protocol.GameErr:
			continue
		}
		if err := writeFrame(conn, protocol.EncodeGame(msg), s.cfg.WriteTimeout); err != nil {
			s.logger.Warn("player write failed", "player", account.ID, "error", err)
			return
		}
	}
}
