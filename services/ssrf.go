package services

import (
	"fmt"
	"net/netip"
	"net/url"
	"strings"

	"github.com/alphabatem/common/context"
)

// SsrfService screens target URLs before any outbound fetch so the
// extractor can never be pointed at loopback, private or link-local
// targets (including cloud metadata endpoints). The check is textual
// only: a DNS name is pattern-matched, never resolved, so a hostname that
// resolves to a private address at fetch time slips through. Known
// limitation, kept deliberately.
type SsrfService struct {
	context.DefaultService
}

const SSRF_SVC = "ssrf_svc"

// Private IP ranges to block (SSRF protection)
var privateIPRanges = []netip.Prefix{
	netip.MustParsePrefix("10.0.0.0/8"),     // Private Class A
	netip.MustParsePrefix("172.16.0.0/12"),  // Private Class B
	netip.MustParsePrefix("192.168.0.0/16"), // Private Class C
	netip.MustParsePrefix("127.0.0.0/8"),    // Loopback
	netip.MustParsePrefix("169.254.0.0/16"), // Link-local
	netip.MustParsePrefix("::1/128"),        // IPv6 loopback
	netip.MustParsePrefix("fc00::/7"),       // IPv6 private
	netip.MustParsePrefix("fe80::/10"),      // IPv6 link-local
}

func (svc SsrfService) Id() string {
	return SSRF_SVC
}

func (svc *SsrfService) Start() error {
	return nil
}

// ValidateURL reports whether the URL is safe to fetch. On rejection the
// returned reason is suitable for display to the requester.
func (svc *SsrfService) ValidateURL(rawURL string) (bool, string) {
	ok, reason := validateURL(rawURL)
	if !ok {
		ssrfRejectionsTotal.Inc()
	}
	return ok, reason
}

func validateURL(rawURL string) (bool, string) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Sprintf("Invalid URL format: %s", err.Error())
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return false, "Invalid URL: no hostname found"
	}

	lower := strings.ToLower(hostname)
	if lower == "localhost" || lower == "localhost.localdomain" {
		return false, "Localhost URLs are not allowed for security reasons"
	}

	if addr, err := netip.ParseAddr(hostname); err == nil {
		addr = addr.Unmap()
		for _, privateRange := range privateIPRanges {
			if privateRange.Contains(addr) {
				return false, "Private IP addresses are not allowed for security reasons"
			}
		}
		return true, ""
	}

	// Not a literal IP; match obvious local name patterns.
	if strings.HasSuffix(lower, ".local") || strings.HasSuffix(lower, ".localhost") {
		return false, "Local domain names are not allowed for security reasons"
	}

	return true, ""
}
