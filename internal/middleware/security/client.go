package security

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
)

// ClientResolver works out the real client address of a request and flags
// requests that look like scans.
type ClientResolver struct {
	trustedProxies []*net.IPNet
	suspicious     int64
}

// NewClientResolver trusts forwarding headers only from loopback and
// private networks.
func NewClientResolver() *ClientResolver {
	return &ClientResolver{
		trustedProxies: []*net.IPNet{
			mustParseCIDR("127.0.0.0/8"),
			mustParseCIDR("10.0.0.0/8"),
			mustParseCIDR("172.16.0.0/12"),
			mustParseCIDR("192.168.0.0/16"),
			mustParseCIDR("::1/128"),
		},
	}
}

func mustParseCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("failed to parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

// AddTrustedProxy adds a trusted proxy network. It is not safe to call
// while requests are being served.
func (c *ClientResolver) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	c.trustedProxies = append(c.trustedProxies, network)
	return nil
}

func (c *ClientResolver) isTrustedProxy(ip net.IP) bool {
	for _, network := range c.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP returns the direct peer address, or the forwarded client address
// when the peer is a trusted proxy.
func (c *ClientResolver) ClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsedDirectIP := net.ParseIP(directIP)
	if parsedDirectIP == nil || !c.isTrustedProxy(parsedDirectIP) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}
	return directIP
}

var (
	probePatterns = []string{
		"../", "..\\", ".env", ".git", "wp-admin", "phpmyadmin",
		"etc/passwd", "<script", "union select",
	}
	scannerAgents = []string{"sqlmap", "nikto", "nmap", "gobuster", "dirb"}
)

// Suspicious reports whether r looks like an automated probe. Matches are
// counted and can be read with SuspiciousCount.
func (c *ClientResolver) Suspicious(r *http.Request) bool {
	hit := false

	target := strings.ToLower(r.URL.Path + "?" + r.URL.RawQuery)
	for _, p := range probePatterns {
		if strings.Contains(target, p) {
			hit = true
			break
		}
	}

	if !hit {
		ua := strings.ToLower(r.Header.Get("User-Agent"))
		for _, a := range scannerAgents {
			if strings.Contains(ua, a) {
				hit = true
				break
			}
		}
	}

	if !hit {
		switch r.Method {
		case "TRACE", "TRACK", "CONNECT":
			hit = true
		}
	}

	if !hit && len(r.URL.String()) > 2048 {
		hit = true
	}

	if hit {
		atomic.AddInt64(&c.suspicious, 1)
	}
	return hit
}

// SuspiciousCount returns how many requests Suspicious has flagged.
func (c *ClientResolver) SuspiciousCount() int64 {
	return atomic.LoadInt64(&c.suspicious)
}
