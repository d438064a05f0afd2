package geo

import (
	"crypto/rand"
	"encoding/hex"
	"net"
	"net/http"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// hashKey is generated per process, so hashes correlate log lines within one
// run and nothing else.
var hashKey = func() []byte {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic("geo: cannot seed ip hash key: " + err.Error())
	}
	return key
}()

// HashIP returns a short keyed digest of ip for log fields.
func HashIP(ip string) string {
	h, err := blake2b.New(8, hashKey)
	if err != nil {
		return ""
	}
	h.Write([]byte(ip))
	return hex.EncodeToString(h.Sum(nil))
}

// ClientIP extracts the originating address of a request: first
// X-Forwarded-For hop, then X-Real-IP, then the socket peer. IPv4-mapped IPv6
// addresses are unwrapped.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if first != "" {
			return normalizeIP(first)
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return normalizeIP(real)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return normalizeIP(host)
}

func normalizeIP(ip string) string {
	ip = strings.Trim(ip, "[]")
	if strings.HasPrefix(ip, "::ffff:") && strings.Count(ip, ".") == 3 {
		return strings.TrimPrefix(ip, "::ffff:")
	}
	if ip == "" {
		return "unknown"
	}
	return ip
}
