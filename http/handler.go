package httpx

import (
	"errors"
	"log"
	"net"
	"time"

	"github.com/google/uuid"

	"static-webserver/config"
	"static-webserver/store"
)

// Handler answers one request per connection and then closes it.
type Handler struct {
	cfg    *config.Config
	store  *store.Store
	logger *log.Logger
}

func NewHandler(cfg *config.Config, st *store.Store, logger *log.Logger) *Handler {
	return &Handler{cfg: cfg, store: st, logger: logger}
}

// ServeConn takes ownership of conn.
func (h *Handler) ServeConn(conn net.Conn) {
	defer conn.Close()
	id := uuid.New()

	if h.cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	}
	raw, err := ReadRequest(conn, h.cfg.Sep)
	if err != nil {
		h.logf("conn=%s remote=%s read error: %v", id, conn.RemoteAddr(), err)
		return
	}

	var resp *Response
	req, err := ParseRequest(raw, h.cfg.Sep)
	if errors.Is(err, ErrRequestLine) {
		h.logf("conn=%s remote=%s %v", id, conn.RemoteAddr(), err)
		resp = NewResponse(h.cfg, StatusBadRequest, "", "")
	} else {
		var cause error
		resp, cause = h.Resolve(req)
		if cause != nil {
			h.logf("conn=%s %s %s: %v", id, req.Method, req.Target, cause)
		}
	}

	if h.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
	}
	_, werr := conn.Write(resp.Bytes())

	if req != nil {
		h.logf("conn=%s %s %s %s", id, req.Method, req.Target, resp.Status)
		if req.Method == "POST" {
			h.logf("conn=%s body=%q", id, req.Body)
		}
	}
	if werr != nil {
		h.logf("conn=%s write error: %v", id, werr)
	}
}

// Resolve maps req to a file and builds its response. The response is never
// nil; err explains why it is not a 200.
func (h *Handler) Resolve(req *Request) (*Response, error) {
	if _, err := h.cfg.ContentTypeFor(req.Extension); err != nil {
		return NewResponse(h.cfg, StatusNotFound, "", ""), err
	}
	f, err := h.store.Open(h.cfg.RoutedPath(req.Extension, req.Path))
	if err != nil {
		return NewResponse(h.cfg, StatusNotFound, "", ""), err
	}
	resp := NewResponse(h.cfg, StatusOK, req.Extension, f.LastModified())
	resp.Body = f.Body
	return resp, nil
}

func (h *Handler) logf(format string, args ...any) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}
