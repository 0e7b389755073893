package httpx

import (
	"bytes"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/osfs"

	"static-webserver/config"
	"static-webserver/store"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return root
}

func newTestHandler(root string, logger *log.Logger) *Handler {
	return NewHandler(config.Default(), store.New(osfs.New(root)), logger)
}

func newTimeoutHandler(root string, timeout time.Duration, logger *log.Logger) *Handler {
	cfg := config.Default()
	cfg.ReadTimeout = timeout
	cfg.WriteTimeout = timeout
	return NewHandler(cfg, store.New(osfs.New(root)), logger)
}

// roundTrip sends raw over an in-memory connection and returns everything
// the handler wrote before closing it.
func roundTrip(t *testing.T, h *Handler, raw string) string {
	t.Helper()
	client, server := net.Pipe()
	defer client.Close()
	go h.ServeConn(server)

	_ = client.SetDeadline(time.Now().Add(5 * time.Second))
	if _, err := client.Write([]byte(raw)); err != nil {
		t.Fatalf("write request: %v", err)
	}
	resp, err := io.ReadAll(client)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return string(resp)
}

func splitResponse(t *testing.T, resp string) (string, []string, string) {
	t.Helper()
	head, body, ok := strings.Cut(resp, "\r\n\r\n")
	if !ok {
		t.Fatalf("no header terminator in %q", resp)
	}
	lines := strings.Split(head, "\r\n")
	return lines[0], lines[1:], body
}

func TestServeRootIsIndex(t *testing.T) {
	root := writeTree(t, map[string]string{"html/index.html": "<html>hi</html>"})
	h := newTestHandler(root, nil)

	status, headers, body := splitResponse(t, roundTrip(t, h, "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n"))
	if status != "HTTP/1.1 200 OK" {
		t.Fatalf("status=%q", status)
	}
	if len(headers) != 2 || headers[0] != "Content-Type: text/html; charset=utf-8" {
		t.Fatalf("headers=%q", headers)
	}
	if body != "<html>hi</html>" {
		t.Fatalf("body=%q", body)
	}

	same := roundTrip(t, h, "GET /index.html HTTP/1.1\r\n\r\n")
	if _, _, b := splitResponse(t, same); b != body {
		t.Fatalf("/index.html body=%q want=%q", b, body)
	}
}

func TestServeRoutedExtension(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.html":      "unrouted",
		"html/index.html": "routed",
	})
	_, _, body := splitResponse(t, roundTrip(t, newTestHandler(root, nil), "GET /index.html HTTP/1.1\r\n\r\n"))
	if body != "routed" {
		t.Fatalf("body=%q want=routed", body)
	}
}

func TestServeUnroutedExtension(t *testing.T) {
	css := "body { color: red; }\n"
	root := writeTree(t, map[string]string{"style.css": css})
	status, headers, body := splitResponse(t, roundTrip(t, newTestHandler(root, nil), "GET /style.css HTTP/1.1\r\n\r\n"))
	if status != "HTTP/1.1 200 OK" || headers[0] != "Content-Type: text/css" {
		t.Fatalf("status=%q headers=%q", status, headers)
	}
	if body != css {
		t.Fatalf("body=%q want=%q", body, css)
	}
}

func TestServeBinaryBody(t *testing.T) {
	png := string([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0x00, 0xff})
	root := writeTree(t, map[string]string{"img/logo.png": png})
	_, headers, body := splitResponse(t, roundTrip(t, newTestHandler(root, nil), "GET /img/logo.png HTTP/1.1\r\n\r\n"))
	if headers[0] != "Content-Type: image/png" {
		t.Fatalf("headers=%q", headers)
	}
	if body != png {
		t.Fatalf("body=%x want=%x", body, png)
	}
}

func TestServeLastModified(t *testing.T) {
	root := writeTree(t, map[string]string{"app.js": "run()"})
	mtime := time.Date(2020, time.February, 29, 23, 59, 58, 0, time.UTC)
	if err := os.Chtimes(filepath.Join(root, "app.js"), mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	_, headers, _ := splitResponse(t, roundTrip(t, newTestHandler(root, nil), "GET /app.js HTTP/1.1\r\n\r\n"))
	if got, want := headers[1], "Last-Modified: Sat, 29 Feb 2020 23:59:58 GMT"; got != want {
		t.Fatalf("header=%q want=%q", got, want)
	}
}

func TestServeNotFound(t *testing.T) {
	root := writeTree(t, map[string]string{
		"setup.exe": "MZ",
		"README":    "text",
		"dir.css/x": "",
	})
	var logs bytes.Buffer
	h := newTestHandler(root, log.New(&logs, "", 0))
	for _, target := range []string{"/missing.png", "/setup.exe", "/README", "/dir.css", "/../etc/passwd.css"} {
		got := roundTrip(t, h, "GET "+target+" HTTP/1.1\r\n\r\n")
		if got != "HTTP/1.1 404 Not Found\r\n\r\n" {
			t.Fatalf("%s: got=%q want bare 404", target, got)
		}
	}
	if !strings.Contains(logs.String(), "GET /missing.png 404") {
		t.Fatalf("missing request log line in %q", logs.String())
	}
}

func TestServeMalformedRequest(t *testing.T) {
	h := newTestHandler(t.TempDir(), nil)
	if got, want := roundTrip(t, h, "GARBAGE\r\n\r\n"), "HTTP/1.1 400 Bad Request\r\n\r\n"; got != want {
		t.Fatalf("got=%q want=%q", got, want)
	}
}

func TestServePOSTLogsBody(t *testing.T) {
	root := writeTree(t, map[string]string{"html/form.html": "<form></form>"})
	var logs bytes.Buffer
	h := newTestHandler(root, log.New(&logs, "", 0))
	status, _, body := splitResponse(t, roundTrip(t, h, "POST /form.html HTTP/1.1\r\nContent-Length: 7\r\n\r\nname=go"))
	if status != "HTTP/1.1 200 OK" || body != "<form></form>" {
		t.Fatalf("status=%q body=%q", status, body)
	}
	if !strings.Contains(logs.String(), `body="name=go"`) {
		t.Fatalf("POST body not logged: %q", logs.String())
	}
}

func TestResolveReportsCause(t *testing.T) {
	h := newTestHandler(t.TempDir(), nil)
	resp, err := h.Resolve(&Request{Method: "GET", Path: "gone.css", Extension: "css"})
	if err == nil || resp.Status != StatusNotFound {
		t.Fatalf("status=%s err=%v want 404 with cause", resp.Status, err)
	}
}

func TestServeRequestLineWithoutBlankLine(t *testing.T) {
	root := writeTree(t, map[string]string{"ok.js": "ok"})
	h := newTimeoutHandler(root, 200*time.Millisecond, nil)
	status, _, body := splitResponse(t, roundTrip(t, h, "GET /ok.js HTTP/1.1\r\n"))
	if status != "HTTP/1.1 200 OK" || body != "ok" {
		t.Fatalf("status=%q body=%q", status, body)
	}
}

func TestServeBareLFRequest(t *testing.T) {
	root := writeTree(t, map[string]string{"ok.js": "ok"})
	h := newTimeoutHandler(root, 5*time.Second, nil)
	start := time.Now()
	status, _, body := splitResponse(t, roundTrip(t, h, "GET /ok.js HTTP/1.0\n\n"))
	if status != "HTTP/1.1 200 OK" || body != "ok" {
		t.Fatalf("status=%q body=%q", status, body)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("answered after %v, want no wait for the read deadline", elapsed)
	}
}

func TestServeEmptyFile(t *testing.T) {
	root := writeTree(t, map[string]string{"empty.css": ""})
	status, headers, body := splitResponse(t, roundTrip(t, newTestHandler(root, nil), "GET /empty.css HTTP/1.1\r\n\r\n"))
	if status != "HTTP/1.1 200 OK" || headers[0] != "Content-Type: text/css" {
		t.Fatalf("status=%q headers=%q", status, headers)
	}
	if body != "" {
		t.Fatalf("body=%q want empty", body)
	}
}

func TestServeLogsRequestWhenWriteFails(t *testing.T) {
	root := writeTree(t, map[string]string{"ok.js": "ok"})
	var logs bytes.Buffer
	h := newTimeoutHandler(root, 5*time.Second, log.New(&logs, "", 0))

	client, server := net.Pipe()
	done := make(chan struct{})
	go func() {
		h.ServeConn(server)
		close(done)
	}()
	_ = client.SetDeadline(time.Now().Add(5 * time.Second))
	if _, err := client.Write([]byte("GET /ok.js HTTP/1.1\r\n\r\n")); err != nil {
		t.Fatalf("write request: %v", err)
	}
	client.Close()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("handler did not return")
	}
	out := logs.String()
	if !strings.Contains(out, "GET /ok.js 200") || !strings.Contains(out, "write error") {
		t.Fatalf("logs=%q want request line and write error", out)
	}
}
