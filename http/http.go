// Package httpx is a small HTTP/1.1 static file server working directly on
// TCP connections: one request per connection, close-delimited responses.
package httpx

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"golang.org/x/net/netutil"
)

// Options tune the listener.
type Options struct {
	MaxConns  int  // concurrent connections; 0 means unbounded
	ReusePort bool // SO_REUSEPORT, Linux only
}

// BindError reports a listening address that could not be bound.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// StartHTTPServer binds addr and serves h on it in the background.
// It returns the listener so the caller can close it on shutdown.
func StartHTTPServer(addr string, h *Handler, opts Options, logger *log.Logger) (net.Listener, error) {
	if addr == "" {
		addr = ":80"
	}
	lc := net.ListenConfig{}
	if opts.ReusePort {
		lc.Control = reusePortControl
	}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, &BindError{Addr: addr, Err: err}
	}
	if opts.MaxConns > 0 {
		ln = netutil.LimitListener(ln, opts.MaxConns)
	}
	go func() {
		if logger != nil {
			logger.Printf("http server listening on %s max_conns=%d", ln.Addr(), opts.MaxConns)
		}
		if err := Serve(ln, h, logger); err != nil && logger != nil {
			logger.Printf("http serve error: %v", err)
		}
	}()
	return ln, nil
}

// Serve accepts connections until ln is closed, handling each on its own
// goroutine. Accept failures are logged and retried with a short backoff.
func Serve(ln net.Listener, h *Handler, logger *log.Logger) error {
	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			if delay == 0 {
				delay = 5 * time.Millisecond
			} else {
				delay *= 2
			}
			if delay > time.Second {
				delay = time.Second
			}
			if logger != nil {
				logger.Printf("accept error: %v; retrying in %v", err, delay)
			}
			time.Sleep(delay)
			continue
		}
		delay = 0
		go h.ServeConn(conn)
	}
}
