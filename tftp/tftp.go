// Package tftp mirrors the HTTP document root over read-only TFTP, using the
// same extension rules and route aliases as the HTTP server.
package tftp

import (
	"bytes"
	"errors"
	"io"
	"log"
	"net"
	"strings"
	"time"

	tftp "github.com/pin/tftp/v3"

	"static-webserver/config"
	"static-webserver/store"
)

// resolveName maps a TFTP filename the way an HTTP request path is mapped:
// an empty name means index.html, and the extension picks the route alias.
func resolveName(cfg *config.Config, filename string) (string, error) {
	name := strings.TrimPrefix(strings.TrimSpace(filename), "/")
	if name == "" {
		name = "index.html"
	}
	ext := config.Extension(name)
	if _, err := cfg.ContentTypeFor(ext); err != nil {
		return "", err
	}
	return cfg.RoutedPath(ext, name), nil
}

func serveFile(st *store.Store, path string, rf io.ReaderFrom) error {
	f, err := st.Open(path)
	if err != nil {
		return err
	}
	if t, ok := rf.(tftp.OutgoingTransfer); ok {
		t.SetSize(int64(len(f.Body)))
	}
	_, err = rf.ReadFrom(bytes.NewReader(f.Body))
	return err
}

// NewServer returns a read-only TFTP server for st. Write requests are refused.
func NewServer(cfg *config.Config, st *store.Store, logger *log.Logger) *tftp.Server {
	readHandler := func(filename string, rf io.ReaderFrom) error {
		path, err := resolveName(cfg, filename)
		if err == nil {
			err = serveFile(st, path, rf)
		}
		if logger != nil {
			if err != nil {
				logger.Printf("RRQ %q: %v", filename, err)
			} else {
				logger.Printf("RRQ %q -> %q", filename, path)
			}
		}
		return err
	}
	writeHandler := func(filename string, wt io.WriterTo) error {
		if logger != nil {
			logger.Printf("WRQ %q refused", filename)
		}
		return errors.New("read-only server")
	}

	srv := tftp.NewServer(readHandler, writeHandler)
	srv.SetTimeout(5 * time.Second)
	return srv
}

// StartTFTPServer binds addr and serves st on it in the background.
func StartTFTPServer(addr string, cfg *config.Config, st *store.Store, logger *log.Logger) (*tftp.Server, error) {
	if addr == "" {
		addr = ":69"
	}
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, err
	}
	srv := NewServer(cfg, st, logger)

	go func() {
		if logger != nil {
			logger.Printf("TFTP server listening on %s", conn.LocalAddr())
		}
		if err := srv.Serve(conn); err != nil {
			if logger != nil {
				logger.Printf("TFTP server error: %v", err)
			}
		}
	}()
	return srv, nil
}
