package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/netpad-project/netpad/internal/controller"
	"github.com/netpad-project/netpad/internal/model"
	"github.com/netpad-project/netpad/internal/protocol"
)

// ErrInfoUnavailable is returned when the game info request does not
// produce a usable GameInfos response.
var ErrInfoUnavailable = errors.New("game info unavailable")

// ClientConfig carries the dial target and loop timings for a controller
// session.
type ClientConfig struct {
	Host         string
	Port         int
	Transport    protocol.Transport
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	// IdleTimeout bounds how long the session tolerates a silent server.
	IdleTimeout time.Duration
	// PollInterval paces the outbound loop and close-flag checks.
	PollInterval time.Duration
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Host:         "127.0.0.1",
		Port:         protocol.DefaultPort,
		Transport:    protocol.TransportTCP,
		DialTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		PollInterval: 200 * time.Millisecond,
	}
}

func (c ClientConfig) addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprintf("%d", c.Port))
}

// Client connects a controller runtime to a game server. It performs the
// info request and join handshake, then pumps the runtime's mailbox over
// the long connection until either side ends the session.
type Client struct {
	cfg     ClientConfig
	runtime *controller.Runtime
	logger  *slog.Logger
}

func NewClient(rt *controller.Runtime, cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	if !cfg.Transport.Supported() {
		return nil, fmt.Errorf("transport %s: %w", cfg.Transport, model.ErrTransportUnsupported)
	}
	return &Client{
		cfg:     cfg,
		runtime: rt,
		logger:  logger.With("component", "netclient"),
	}, nil
}

// Run executes a full session: fetch game info, join, then run the long
// connection until it ends. A join refusal is returned as a
// *protocol.JoinError. Run returns nil when the session ends cleanly.
func (c *Client) Run(ctx context.Context) error {
	if err := c.fetchGameInfo(ctx); err != nil {
		return err
	}

	conn, err := c.join(ctx)
	if err != nil {
		return err
	}
	c.logger.Info("joined game", "addr", c.cfg.addr(), "player", c.runtime.Player().Account.ID)

	c.longConnection(ctx, conn)
	return nil
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	d := net.Dialer{Timeout: c.cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", c.cfg.addr())
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", c.cfg.addr(), err)
	}
	return conn, nil
}

// fetchGameInfo runs the first handshake connection and stores the
// returned metadata on the runtime. Any response other than GameInfos
// aborts the session.
func (c *Client) fetchGameInfo(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	req := protocol.ConnectionMessage{Kind: protocol.ConnRequestGameInfos}
	if err := writeFrame(conn, protocol.EncodeConnection(req), c.cfg.WriteTimeout); err != nil {
		return fmt.Errorf("sending info request: %w", err)
	}
	payload, err := readFrameOnce(conn, c.cfg.IdleTimeout)
	if err != nil {
		return fmt.Errorf("reading info response: %w", err)
	}

	resp := protocol.DecodeResponse(payload)
	if resp.Kind != protocol.RespGameInfos {
		return fmt.Errorf("%w: got %s", ErrInfoUnavailable, resp)
	}
	c.runtime.SetGameInfo(resp.Infos)
	return nil
}

// join runs the second handshake connection. On Welcome the connection is
// handed back for the long-connection phase; on Deny the refusal is
// returned and the connection closed.
func (c *Client) join(ctx context.Context) (net.Conn, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}

	req := protocol.ConnectionMessage{Kind: protocol.ConnJoin, Player: c.runtime.Player()}
	if err := writeFrame(conn, protocol.EncodeConnection(req), c.cfg.WriteTimeout); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sending join request: %w", err)
	}
	payload, err := readFrameOnce(conn, c.cfg.IdleTimeout)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("reading join response: %w", err)
	}

	resp := protocol.DecodeResponse(payload)
	switch resp.Kind {
	case protocol.RespWelcome:
		return conn, nil
	case protocol.RespDeny:
		conn.Close()
		return nil, &protocol.JoinError{Refusal: resp.Refusal}
	default:
		conn.Close()
		return nil, fmt.Errorf("unexpected join response %s", resp)
	}
}

// longConnection runs the paired read/write loops until the session ends,
// then closes the runtime so both loops and any console observe the end.
func (c *Client) longConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	defer c.runtime.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.runtime.Close()
		case <-done:
		}
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.readLoop(conn)
	}()
	go func() {
		defer wg.Done()
		c.writeLoop(conn)
	}()
	wg.Wait()
}

// readLoop receives game messages until LetExit, a fatal error streak, a
// socket failure, or local close. On exit it closes the runtime so the
// write loop transmits Exit and stops.
func (c *Client) readLoop(conn net.Conn) {
	defer c.runtime.Close()

	errStreak := 0
	for {
		payload, err := readFramePolling(conn, c.cfg.PollInterval, c.cfg.IdleTimeout, c.runtime.Closed)
		if err != nil {
			if !errors.Is(err, errClosing) {
				c.logger.Warn("session read failed", "error", err)
			}
			return
		}

		msg := protocol.DecodeGame(payload)
		switch msg.Kind {
		case protocol.GameLetExit:
			c.logger.Info("server requested exit", "reason", msg.Reason)
			c.runtime.PutInbound(msg)
			return
		case protocol.GameErr:
			errStreak++
			if errStreak >= maxErrTolerance {
				c.logger.Error("too many undecodable messages, dropping session")
				return
			}
		default:
			errStreak = 0
			c.runtime.PutInbound(msg)
		}
	}
}

// writeLoop drains the runtime's outbound intents onto the wire. When the
// runtime closes it injects Exit then End; End stops the loop without
// being transmitted, and Err intents are skipped.
func (c *Client) writeLoop(conn net.Conn) {
	defer c.runtime.Close()

	exitSent := false
	for {
		if c.runtime.Closed() && !exitSent {
			c.runtime.Send(protocol.ControlMessage{Kind: protocol.ControlExit})
			c.runtime.Send(protocol.ControlMessage{Kind: protocol.ControlEnd})
			exitSent = true
		}

		msg, ok := c.runtime.PopOutbound()
		if !ok {
			time.Sleep(c.cfg.PollInterval)
			continue
		}
		switch msg.Kind {
		case protocol.ControlEnd:
			return
		case protocol.ControlErr:
			continue
		}
		if err := writeFrame(conn, protocol.EncodeControl(msg), c.cfg.WriteTimeout); err != nil {
			c.logger.Warn("session write failed", "error", err)
			return
		}
	}
}
