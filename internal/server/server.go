// Package server runs the TCP line-protocol listener: one goroutine per
// accepted connection, one response line per request line.
package server

import (
    "bufio"
    "context"
    "errors"
    "fmt"
    "net"
    "sync"

    "go.uber.org/zap"

    "github.com/sahararesort/reservation/internal/handler"
    "github.com/sahararesort/reservation/internal/middleware"
)

// Server accepts protocol connections and drives the dispatcher for each
// of them. Connections share nothing but the dispatcher (and through it
// the store); every other piece of state is connection-local.
type Server struct {
    addr     string
    disp     *handler.Dispatcher
    limiter  *middleware.ConnLimiter
    log      *zap.Logger
    maxConns int

    mu sync.Mutex
    ln net.Listener
    // sem bounds the number of concurrently served connections so a
    // connection flood cannot grow goroutines without limit.
    sem chan struct{}
}

// New constructs a Server. maxConns must be positive.
func New(addr string, disp *handler.Dispatcher, limiter *middleware.ConnLimiter, maxConns int, log *zap.Logger) *Server {
    if maxConns <= 0 {
        maxConns = 256
    }
    return &Server{
        addr:     addr,
        disp:     disp,
        limiter:  limiter,
        log:      log,
        maxConns: maxConns,
        sem:      make(chan struct{}, maxConns),
    }
}

// ListenAndServe binds the configured address and serves until Shutdown
// closes the listener. It returns nil on clean shutdown.
func (s *Server) ListenAndServe() error {
    ln, err := net.Listen("tcp", s.addr)
    if err != nil {
        return fmt.Errorf("listen %s: %w", s.addr, err)
    }
    return s.Serve(ln)
}

// Serve runs the accept loop on an existing listener. Exposed separately
// so tests can serve on a listener bound to an ephemeral port.
func (s *Server) Serve(ln net.Listener) error {
    s.mu.Lock()
    s.ln = ln
    s.mu.Unlock()
    s.log.Info("protocol listener up", zap.String("addr", ln.Addr().String()))

    for {
        conn, err := ln.Accept()
        if err != nil {
            if errors.Is(err, net.ErrClosed) {
                return nil
            }
            return fmt.Errorf("accept: %w", err)
        }
        go s.handleConn(conn)
    }
}

// Shutdown stops accepting new connections. In-flight connections are
// not drained; the protocol has no close handshake and clients simply
// observe EOF.
func (s *Server) Shutdown() {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.ln != nil {
        _ = s.ln.Close()
    }
}

// handleConn owns one connection for its whole life. A panic while
// handling a line is recovered here so a single bad connection can never
// take down the accept loop or touch its peers.
func (s *Server) handleConn(conn net.Conn) {
    remote := conn.RemoteAddr().String()
    defer func() {
        if r := recover(); r != nil {
            s.log.Error("connection handler panic", zap.String("remote", remote), zap.Any("panic", r))
        }
        _ = conn.Close()
    }()

    select {
    case s.sem <- struct{}{}:
        defer func() { <-s.sem }()
    default:
        _, _ = fmt.Fprintln(conn, "ERR SERVER_BUSY")
        return
    }

    if s.limiter != nil && !s.limiter.Allow(context.Background(), remoteIP(conn)) {
        s.log.Warn("connection rate limited", zap.String("remote", remote))
        _, _ = fmt.Fprintln(conn, "ERR RATE_LIMITED")
        return
    }

    s.log.Debug("client connected", zap.String("remote", remote))
    sc := bufio.NewScanner(conn)
    for sc.Scan() {
        resp, ok := s.disp.Dispatch(sc.Text())
        if !ok {
            continue // blank line, no response
        }
        if _, err := fmt.Fprintln(conn, resp); err != nil {
            s.log.Debug("write failed, dropping connection",
                zap.String("remote", remote), zap.Error(err))
            return
        }
    }
    if err := sc.Err(); err != nil {
        s.log.Debug("read failed, dropping connection",
            zap.String("remote", remote), zap.Error(err))
        return
    }
    s.log.Debug("client disconnected", zap.String("remote", remote))
}

// remoteIP extracts the bare IP from the connection's remote address for
// rate-limit keying.
func remoteIP(conn net.Conn) string {
    host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
    if err != nil {
        return conn.RemoteAddr().String()
    }
    return host
}
