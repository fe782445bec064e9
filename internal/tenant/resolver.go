package tenant

import (
	"net"
	"strings"
)

// Resolver derives the tenant subdomain token from a request host. It is a
// pure function of its inputs: no lookups, deterministic, case-insensitive.
type Resolver struct {
	// PreviewSuffixes are hosting domains (e.g. "vercel.app") whose
	// subdomains are deploy previews, not tenants.
	PreviewSuffixes []string
}

// NewResolver creates a resolver with the given preview-hosting suffixes
func NewResolver(previewSuffixes []string) *Resolver {
	return &Resolver{PreviewSuffixes: previewSuffixes}
}

// Resolve returns the tenant token for a host, or ok=false for the platform
// root. devOverride is the value of the development query override; it is
// only honored on loopback hosts.
func (r *Resolver) Resolve(host, devOverride string) (string, bool) {
	host = stripPort(strings.ToLower(strings.TrimSpace(host)))

	if isLoopback(host) {
		if devOverride != "" {
			return strings.ToLower(devOverride), true
		}
		return "", false
	}

	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		// bare root domain
		return "", false
	}

	suffix := labels[len(labels)-2] + "." + labels[len(labels)-1]
	for _, preview := range r.PreviewSuffixes {
		if suffix == strings.ToLower(preview) {
			return "", false
		}
	}

	if labels[0] == "www" {
		return "", false
	}

	return labels[0], true
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.Trim(host, "[]")
}

func isLoopback(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}
