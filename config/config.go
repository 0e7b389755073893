// Package config loads the server's lookup tables and listener settings.
//
// A Config is built once at process start and never mutated afterwards, so it
// is safe to share between connection goroutines without locking.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Defaults applied when the document leaves a setting out.
const (
	DefaultSep          = "\r\n"
	DefaultHost         = "localhost"
	DefaultRoot         = "."
	DefaultMaxConns     = 64
	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 10 * time.Second
)

// Status codes the server emits; every configuration must provide them.
var requiredStatuses = []string{"200", "400", "404"}

// ConfigurationError reports a missing or malformed configuration document.
type ConfigurationError struct {
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// document mirrors the on-disk layout, shared by the JSON, TOML and YAML decoders.
type document struct {
	HTTPStatus   map[string]string `json:"http_status" toml:"http_status" yaml:"http_status"`
	ContentType  map[string]string `json:"content_type" toml:"content_type" yaml:"content_type"`
	Routes       map[string]string `json:"routes" toml:"routes" yaml:"routes"`
	Sep          *string           `json:"sep" toml:"sep" yaml:"sep"`
	DefaultPort  int               `json:"default_port" toml:"default_port" yaml:"default_port"`
	Host         string            `json:"host" toml:"host" yaml:"host"`
	Root         string            `json:"root" toml:"root" yaml:"root"`
	MaxConns     int               `json:"max_conns" toml:"max_conns" yaml:"max_conns"`
	ReadTimeout  string            `json:"read_timeout" toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout string            `json:"write_timeout" toml:"write_timeout" yaml:"write_timeout"`
	ReusePort    bool              `json:"reuse_port" toml:"reuse_port" yaml:"reuse_port"`
	TFTPAddr     string            `json:"tftp_addr" toml:"tftp_addr" yaml:"tftp_addr"`
	NFSAddr      string            `json:"nfs_addr" toml:"nfs_addr" yaml:"nfs_addr"`
}

// Config is the read-only configuration handed to every component.
type Config struct {
	Sep          string
	DefaultPort  int
	Host         string
	Root         string
	MaxConns     int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ReusePort    bool
	TFTPAddr     string // empty disables the TFTP mirror
	NFSAddr      string // empty disables the NFS mirror

	statuses     map[string]string
	contentTypes map[string]string
	routes       map[string]string
}

// defaultDocument holds the tables the server has always shipped with: html
// is served from the html/ directory, everything else relative to the root.
func defaultDocument() document {
	return document{
		HTTPStatus: map[string]string{
			"200": "HTTP/1.1 200 OK",
			"400": "HTTP/1.1 400 Bad Request",
			"404": "HTTP/1.1 404 Not Found",
		},
		ContentType: map[string]string{
			"html": "text/html; charset=utf-8",
			"jpg":  "image/jpeg",
			"png":  "image/png",
			"css":  "text/css",
			"js":   "text/javascript",
			"ico":  "image/x-icon",
		},
		Routes:      map[string]string{"html": "html/"},
		DefaultPort: 8080,
	}
}

// overlay applies the settings present in o on top of d. Table entries are
// merged key by key, so a document only lists what it adds or changes.
func (d *document) overlay(o document) {
	d.HTTPStatus = mergeTable(d.HTTPStatus, o.HTTPStatus)
	d.ContentType = mergeTable(d.ContentType, o.ContentType)
	d.Routes = mergeTable(d.Routes, o.Routes)
	if o.Sep != nil {
		d.Sep = o.Sep
	}
	if o.DefaultPort != 0 {
		d.DefaultPort = o.DefaultPort
	}
	if o.Host != "" {
		d.Host = o.Host
	}
	if o.Root != "" {
		d.Root = o.Root
	}
	if o.MaxConns != 0 {
		d.MaxConns = o.MaxConns
	}
	if o.ReadTimeout != "" {
		d.ReadTimeout = o.ReadTimeout
	}
	if o.WriteTimeout != "" {
		d.WriteTimeout = o.WriteTimeout
	}
	d.ReusePort = d.ReusePort || o.ReusePort
	if o.TFTPAddr != "" {
		d.TFTPAddr = o.TFTPAddr
	}
	if o.NFSAddr != "" {
		d.NFSAddr = o.NFSAddr
	}
}

// Default returns the built-in configuration. Load and Parse start from it.
func Default() *Config {
	cfg, err := build(defaultDocument())
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the configuration document at path. The format is picked from
// the file extension: .json, .toml, .yaml or .yml.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Err: err}
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	cfg, err := Parse(data, format)
	if err != nil {
		var cerr *ConfigurationError
		if errors.As(err, &cerr) {
			cerr.Path = path
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a configuration document in the given format and applies it
// over Default. Unknown keys are rejected in every format.
func Parse(data []byte, format string) (*Config, error) {
	var doc document
	var err error
	switch format {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	case "toml":
		var md toml.MetaData
		md, err = toml.Decode(string(data), &doc)
		if err == nil {
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				err = fmt.Errorf("unknown keys %v", undecoded)
			}
		}
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&doc)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}
	base := defaultDocument()
	base.overlay(doc)
	cfg, err := build(base)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}
	return cfg, nil
}

func build(doc document) (*Config, error) {
	for _, code := range requiredStatuses {
		if doc.HTTPStatus[code] == "" {
			return nil, fmt.Errorf("http_status: missing entry for %s", code)
		}
	}
	if len(doc.ContentType) == 0 {
		return nil, errors.New("content_type: no extensions configured")
	}
	if doc.DefaultPort < 1 || doc.DefaultPort > 65535 {
		return nil, fmt.Errorf("default_port: %d out of range", doc.DefaultPort)
	}

	cfg := &Config{
		Sep:          DefaultSep,
		DefaultPort:  doc.DefaultPort,
		Host:         doc.Host,
		Root:         doc.Root,
		MaxConns:     doc.MaxConns,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		ReusePort:    doc.ReusePort,
		TFTPAddr:     doc.TFTPAddr,
		NFSAddr:      doc.NFSAddr,
		statuses:     copyTable(doc.HTTPStatus),
		contentTypes: copyTable(doc.ContentType),
		routes:       copyTable(doc.Routes),
	}
	if doc.Sep != nil {
		if *doc.Sep == "" {
			return nil, errors.New("sep: must not be empty")
		}
		cfg.Sep = *doc.Sep
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Root == "" {
		cfg.Root = DefaultRoot
	}
	if cfg.MaxConns < 0 {
		return nil, fmt.Errorf("max_conns: %d is negative", cfg.MaxConns)
	}
	if cfg.MaxConns == 0 {
		cfg.MaxConns = DefaultMaxConns
	}
	var err error
	if cfg.ReadTimeout, err = parseTimeout("read_timeout", doc.ReadTimeout, DefaultReadTimeout); err != nil {
		return nil, err
	}
	if cfg.WriteTimeout, err = parseTimeout("write_timeout", doc.WriteTimeout, DefaultWriteTimeout); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseTimeout(key, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: %s must be positive", key, value)
	}
	return d, nil
}

// Keys are matched case-insensitively, so tables are stored lower-cased.
func copyTable(in map[string]string) map[string]string {
	return mergeTable(nil, in)
}

func mergeTable(dst, src map[string]string) map[string]string {
	out := make(map[string]string, len(dst)+len(src))
	for k, v := range dst {
		out[strings.ToLower(k)] = v
	}
	for k, v := range src {
		out[strings.ToLower(k)] = v
	}
	return out
}
