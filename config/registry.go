package config

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrUnsupportedType matches every UnsupportedTypeError.
var ErrUnsupportedType = errors.New("unsupported content type")

// UnsupportedTypeError is returned for an extension missing from content_type.
type UnsupportedTypeError struct {
	Extension string
}

func (e *UnsupportedTypeError) Error() string {
	if e.Extension == "" {
		return "no extension"
	}
	return fmt.Sprintf("unsupported extension %q", e.Extension)
}

func (e *UnsupportedTypeError) Is(target error) bool { return target == ErrUnsupportedType }

// Extension returns the token after the first dot of name, up to the next
// dot: "index.html" -> "html", "bundle.min.js" -> "min". It returns "" when
// name has no dot.
func Extension(name string) string {
	_, rest, ok := strings.Cut(name, ".")
	if !ok {
		return ""
	}
	ext, _, _ := strings.Cut(rest, ".")
	return ext
}

// ContentTypeFor returns the MIME type configured for ext. An extension
// mapped to "" is treated as absent.
func (c *Config) ContentTypeFor(ext string) (string, error) {
	if mime := c.contentTypes[strings.ToLower(ext)]; mime != "" {
		return mime, nil
	}
	return "", &UnsupportedTypeError{Extension: ext}
}

// RoutedPath prefixes name with the route alias for ext, if there is one.
func (c *Config) RoutedPath(ext, name string) string {
	prefix, ok := c.routes[strings.ToLower(ext)]
	if !ok || prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// StatusLine returns the full status line for code, e.g. "HTTP/1.1 200 OK".
// Only codes checked by Parse are guaranteed to be present.
func (c *Config) StatusLine(code string) string {
	return c.statuses[code]
}
