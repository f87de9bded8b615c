package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"chatdrop/internal/chat"
	"chatdrop/internal/config"
	"chatdrop/internal/protocol"
	"chatdrop/internal/protocol/frame"
)

// Server accepts chat connections and runs one handler goroutine per
// accepted connection. Handlers share only the read-only command registry
// and the artifact directories; all per-connection errors stay on their
// connection.
type Server struct {
	cfg      config.ServerConfig
	registry *chat.Registry
	limits   frame.Limits
	log      zerolog.Logger

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}

	clientCount atomic.Int64
}

func New(cfg config.ServerConfig, logger zerolog.Logger) *Server {
	store := chat.NewStore(cfg.FileDir, cfg.ImageDir)
	return &Server{
		cfg:      cfg,
		registry: chat.NewRegistry(store, logger),
		limits:   frame.Limits{MaxPayloadBytes: cfg.MaxFrameBytes},
		log:      logger,
		conns:    make(map[net.Conn]struct{}),
	}
}

// Registry exposes the command table, e.g. for startup banners.
func (s *Server) Registry() *chat.Registry {
	return s.registry
}

// Run binds the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return err
	}
	s.log.Info().Str("addr", ln.Addr().String()).Msg("listening")
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled or the listener
// fails. Acceptance never blocks on a connection's processing.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	go func() {
		<-ctx.Done()
		s.closeAllConns()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.trackConn(conn)
		go s.handleConn(ctx, conn)
	}
}

// handleConn owns one accepted connection: read frame, dispatch, write
// response, repeat until EOF, a malformed frame, or a write failure.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	defer s.untrackConn(conn)

	logger := s.log.With().
		Str("conn_id", uuid.NewString()).
		Str("remote", conn.RemoteAddr().String()).
		Logger()
	active := s.clientCount.Add(1)
	logger.Info().Int64("active_clients", active).Msg("client connected")
	defer func() {
		remaining := s.clientCount.Add(-1)
		logger.Info().Int64("active_clients", remaining).Msg("client disconnected")
	}()

	var limiter *rate.Limiter
	if s.cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.cfg.RateLimit), s.cfg.RateBurst)
	}

	reader := bufio.NewReader(conn)
	for {
		msg, err := protocol.ReadMessage(reader, s.limits)
		if err != nil {
			if errors.Is(err, io.EOF) {
				logger.Debug().Msg("peer closed connection")
				return
			}
			logger.Warn().Err(err).Msg("frame decode failed, closing connection")
			// Best-effort notice; the transport may already be gone.
			_ = protocol.EncodeResponse(conn, protocol.Response{
				Status: protocol.StatusError,
				Code:   chat.CodeBadFrame,
				Body:   "malformed frame: " + err.Error(),
			}, s.limits)
			return
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}

		resp, closeAfter := s.registry.Dispatch(msg)
		if err := protocol.EncodeResponse(conn, resp, s.limits); err != nil {
			logger.Warn().Err(err).Msg("write response failed")
			return
		}
		if closeAfter {
			logger.Info().Msg("closing on client quit")
			return
		}
	}
}

func (s *Server) trackConn(conn net.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Server) untrackConn(conn net.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) closeAllConns() {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
		delete(s.conns, conn)
	}
}
