package tracking

import (
	"net"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Column bounds of the visit table.
const (
	MaxSourceURLLength     = 255
	MaxCustomElementLength = 55
)

const httpsPort = "443"

// SourceURL rebuilds the full URL of r as received: scheme, Host header and
// request URI, without any normalization.
func SourceURL(r *http.Request) string {
	scheme := "http://"
	if isSecure(r) {
		scheme = "https://"
	}

	// Absolute-form targets (proxy requests, httptest) carry the scheme and
	// host in RequestURI already.
	uri := r.RequestURI
	if !strings.HasPrefix(uri, "/") {
		uri = r.URL.RequestURI()
	}
	return scheme + r.Host + uri
}

// isSecure reports TLS on the connection or a server socket bound to 443.
// The client-supplied Host header is not consulted.
func isSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	addr, ok := r.Context().Value(http.LocalAddrContextKey).(net.Addr)
	if !ok {
		return false
	}
	_, port, err := net.SplitHostPort(addr.String())
	return err == nil && port == httpsPort
}

// Truncate cuts s to at most limit runes.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
