package httpx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"static-webserver/config"
)

// MaxRequestSize caps how much of a request is read; the header block of a
// GET request is expected to fit.
const MaxRequestSize = 4096

var (
	ErrRequestLine = errors.New("request line is not METHOD PATH VERSION")
	ErrNoExtension = errors.New("path has no extension")
)

// MalformedRequestError reports a request that cannot be mapped to a file.
type MalformedRequestError struct {
	Line string
	Err  error
}

func (e *MalformedRequestError) Error() string {
	return fmt.Sprintf("malformed request %q: %v", e.Line, e.Err)
}

func (e *MalformedRequestError) Unwrap() error { return e.Err }

// Request is the parsed request line of a single connection.
type Request struct {
	Method    string
	Target    string // path as sent by the client
	Version   string
	Path      string // Target with "/" mapped to index.html and the leading slash removed
	Extension string
	Body      string // POST only: last line of what was read
}

// ReadRequest reads until the blank line ending the header block, EOF, a
// read timeout, or MaxRequestSize bytes, whichever comes first. A blank line
// made of bare LFs also ends the block. EOF and timeouts are only errors when
// nothing was read.
func ReadRequest(r io.Reader, sep string) ([]byte, error) {
	buf := make([]byte, 0, MaxRequestSize)
	chunk := make([]byte, 1024)
	end := []byte(sep + sep)
	for len(buf) < MaxRequestSize {
		n, err := r.Read(chunk[:min(len(chunk), MaxRequestSize-len(buf))])
		buf = append(buf, chunk[:n]...)
		if bytes.Contains(buf, end) || bytes.Contains(buf, []byte("\n\n")) {
			return buf, nil
		}
		if err != nil {
			if len(buf) > 0 && (errors.Is(err, io.EOF) || isTimeout(err)) {
				return buf, nil
			}
			return nil, err
		}
	}
	return buf, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// ParseRequest parses the first line of raw. When the path has no extension
// the request is returned together with an ErrNoExtension error.
func ParseRequest(raw []byte, sep string) (*Request, error) {
	lines := strings.Split(string(raw), sep)
	// a client using bare LFs leaves the whole request in lines[0]
	first, _, _ := strings.Cut(lines[0], "\n")
	first = strings.TrimSuffix(first, "\r")
	fields := strings.Split(first, " ")
	if len(fields) != 3 {
		return nil, &MalformedRequestError{Line: first, Err: ErrRequestLine}
	}

	req := &Request{
		Method:  fields[0],
		Target:  fields[1],
		Version: fields[2],
	}
	p := req.Target
	if p == "/" {
		p = "/index.html"
	}
	req.Path = strings.TrimPrefix(p, "/")
	req.Extension = config.Extension(req.Path)
	if req.Method == "POST" {
		req.Body = lines[len(lines)-1]
	}

	if req.Extension == "" {
		return req, &MalformedRequestError{Line: first, Err: ErrNoExtension}
	}
	return req, nil
}
