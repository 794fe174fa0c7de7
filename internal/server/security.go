package server

import (
	"net/http"
	"strings"

	"github.com/FocuswithJustin/playfair/internal/logging"
)

// CSPConfig holds Content-Security-Policy configuration.
type CSPConfig struct {
	DefaultSrc     []string
	ConnectSrc     []string
	FrameAncestors []string
	BaseURI        []string
	FormAction     []string
	// UpgradeInsecureRequests forces HTTPS
	UpgradeInsecureRequests bool
}

// APICSPConfig returns the policy for the cipher endpoints. Nothing served
// here loads resources, so everything is denied.
func APICSPConfig() CSPConfig {
	return CSPConfig{
		DefaultSrc:     []string{"'none'"},
		FrameAncestors: []string{"'none'"},
		BaseURI:        []string{"'none'"},
		FormAction:     []string{"'none'"},
	}
}

// BuildCSPHeader builds a Content-Security-Policy header value from config.
func (cfg CSPConfig) BuildCSPHeader() string {
	var directives []string
	add := func(name string, srcs []string) {
		if len(srcs) > 0 {
			directives = append(directives, name+" "+strings.Join(srcs, " "))
		}
	}
	add("default-src", cfg.DefaultSrc)
	add("connect-src", cfg.ConnectSrc)
	add("frame-ancestors", cfg.FrameAncestors)
	add("base-uri", cfg.BaseURI)
	add("form-action", cfg.FormAction)
	if cfg.UpgradeInsecureRequests {
		directives = append(directives, "upgrade-insecure-requests")
	}
	return strings.Join(directives, "; ")
}

// SecurityHeadersWithCSP adds the standard security headers and cfg's CSP.
func SecurityHeadersWithCSP(cfg CSPConfig, next http.Handler) http.Handler {
	cspHeader := cfg.BuildCSPHeader()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if cspHeader != "" {
			w.Header().Set("Content-Security-Policy", cspHeader)
		}
		next.ServeHTTP(w, r)
	})
}

// isOriginAllowed checks origin against exact entries, "*" and "*.domain"
// patterns. A missing Origin header never matches.
func isOriginAllowed(origin string, allowedOrigins []string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
		if domain, ok := strings.CutPrefix(allowed, "*."); ok && strings.HasSuffix(origin, "."+domain) {
			return true
		}
	}
	return false
}

// checkOrigin returns the upgrader's CheckOrigin. With no configured
// origins the upgrader falls back to gorilla's same-host rule, which also
// admits clients that send no Origin at all.
func checkOrigin(allowedOrigins []string) func(*http.Request) bool {
	if len(allowedOrigins) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if isOriginAllowed(origin, allowedOrigins) {
			return true
		}
		logging.SecurityEvent("origin_rejected", "server", "origin", origin, "remote_addr", r.RemoteAddr)
		return false
	}
}
