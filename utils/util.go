package utils

import (
	"net"
	"strconv"
	"strings"
)

// ParsePort returns the port given on the command line, or fallback when
// arg is empty, not a number, or outside 1-65535.
func ParsePort(arg string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || v < 1 || v > 65535 {
		return fallback
	}
	return v
}

// PortOf extracts the port of a listening address such as ":69" or
// "0.0.0.0:2049". It returns 0 when addr has no valid port.
func PortOf(addr string) int {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	v, err := strconv.Atoi(p)
	if err != nil {
		return 0
	}
	return v
}
