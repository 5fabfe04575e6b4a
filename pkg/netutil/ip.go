package netutil

import (
	"net"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

const (
	clientIPHeader = "x-forwarded-for"
)

// GetClientIP gets the client's IP address, preferring the first hop listed in
// the x-forwarded-for header over the connection's remote address.
func GetClientIP(r *http.Request) (string, error) {
	if forwarded := r.Header.Get(clientIPHeader); len(forwarded) > 0 {
		first, _, _ := strings.Cut(forwarded, ",")
		first = strings.TrimSpace(first)
		if len(first) > 0 {
			return first, nil
		}
	}

	if len(r.RemoteAddr) == 0 {
		return "", errors.New("remote address not set")
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port
		return r.RemoteAddr, nil
	}
	return host, nil
}
