package httpx

import (
	"bytes"

	"static-webserver/config"
)

// Status codes, as keyed in the http_status table.
const (
	StatusOK         = "200"
	StatusBadRequest = "400"
	StatusNotFound   = "404"
)

type Header struct {
	Name  string
	Value string
}

// Response is a complete reply. There is no Content-Length: the connection
// is closed after the body, which is what delimits it.
type Response struct {
	Status     string
	StatusLine string
	Headers    []Header
	Body       []byte

	sep string
}

// NewResponse builds the header block for status. Content-Type is looked up
// from ext; headers whose value would be empty are left out, so error
// responses carry only the status line.
func NewResponse(cfg *config.Config, status, ext, lastModified string) *Response {
	r := &Response{
		Status:     status,
		StatusLine: cfg.StatusLine(status),
		sep:        cfg.Sep,
	}
	if mime, err := cfg.ContentTypeFor(ext); err == nil {
		r.Headers = append(r.Headers, Header{Name: "Content-Type", Value: mime})
	}
	if lastModified != "" {
		r.Headers = append(r.Headers, Header{Name: "Last-Modified", Value: lastModified})
	}
	return r
}

// Bytes serializes the status line, headers, blank line and body.
func (r *Response) Bytes() []byte {
	var b bytes.Buffer
	b.WriteString(r.StatusLine)
	b.WriteString(r.sep)
	for _, h := range r.Headers {
		b.WriteString(h.Name)
		b.WriteString(": ")
		b.WriteString(h.Value)
		b.WriteString(r.sep)
	}
	b.WriteString(r.sep)
	b.Write(r.Body)
	return b.Bytes()
}
