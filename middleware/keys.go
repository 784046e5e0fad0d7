package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ByClientIP keys requests by client IP. Forwarding headers are honored
// only when the direct peer is inside trustedProxies (IPs or CIDRs);
// otherwise the connection address wins, so untrusted clients cannot spoof
// their way past per-IP budgets.
func ByClientIP(trustedProxies ...string) KeyFunc {
	nets := parseProxies(trustedProxies)

	return func(r *http.Request) (string, bool) {
		remote, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			remote = r.RemoteAddr
		}
		remoteIP := net.ParseIP(remote)
		if remoteIP == nil {
			return "", false
		}

		if proxyTrusted(nets, remoteIP) {
			if forwarded := clientFromForwarded(r.Header.Get("X-Forwarded-For")); forwarded != "" {
				return forwarded, true
			}
		}

		return remoteIP.String(), true
	}
}

// ByHeader keys requests by a header value (API key, tenant ID, ...).
func ByHeader(name string) KeyFunc {
	return func(r *http.Request) (string, bool) {
		value := r.Header.Get(name)
		if value == "" {
			return "", false
		}
		return value, true
	}
}

// ByTokenSubject keys requests by the sub claim of the bearer token. The
// token is parsed without signature verification; a separate auth layer is
// expected to reject forged tokens before or after this middleware.
func ByTokenSubject() KeyFunc {
	parser := jwt.NewParser()

	return func(r *http.Request) (string, bool) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			return "", false
		}

		claims := jwt.MapClaims{}
		if _, _, err := parser.ParseUnverified(token, claims); err != nil {
			return "", false
		}

		subject, err := claims.GetSubject()
		if err != nil || subject == "" {
			return "", false
		}
		return subject, true
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

func parseProxies(entries []string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(entries))
	for _, entry := range entries {
		if strings.Contains(entry, "/") {
			if _, n, err := net.ParseCIDR(entry); err == nil {
				nets = append(nets, n)
			}
			continue
		}
		if ip := net.ParseIP(entry); ip != nil {
			bits := 32
			if ip.To4() == nil {
				bits = 128
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
		}
	}
	return nets
}

func proxyTrusted(nets []*net.IPNet, ip net.IP) bool {
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// clientFromForwarded returns the first entry of an X-Forwarded-For chain,
// which is the original client as recorded by the trusted edge.
func clientFromForwarded(header string) string {
	if header == "" {
		return ""
	}
	first, _, _ := strings.Cut(header, ",")
	first = strings.TrimSpace(first)
	if net.ParseIP(first) == nil {
		return ""
	}
	return first
}
