// Package weburl provides URL validation and narrative ID generation for
// web-hosted narratives. It implements SSRF prevention including private IP
// detection and DNS rebinding protection.
package weburl

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

// Pre-compiled CIDR networks for private/reserved IP ranges.
// Parsed once at package initialization.
var (
	cgnat    *net.IPNet // 100.64.0.0/10 - Carrier-grade NAT
	v6unique *net.IPNet // fc00::/7 - IPv6 unique local
	v6link   *net.IPNet // fe80::/10 - IPv6 link-local
)

// narrativeIDPattern validates narrative ID format to prevent injection.
var narrativeIDPattern = regexp.MustCompile(`^narrative\.web\.[a-z0-9-]+$`)

func init() {
	var err error

	_, cgnat, err = net.ParseCIDR("100.64.0.0/10")
	if err != nil {
		panic("invalid CGNAT CIDR: " + err.Error())
	}

	_, v6unique, err = net.ParseCIDR("fc00::/7")
	if err != nil {
		panic("invalid IPv6 unique local CIDR: " + err.Error())
	}

	_, v6link, err = net.ParseCIDR("fe80::/10")
	if err != nil {
		panic("invalid IPv6 link-local CIDR: " + err.Error())
	}
}

// ValidateURL validates a narrative URL for security (SSRF prevention).
// It requires HTTPS and blocks localhost, private IPs, and local domains.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "https" {
		return fmt.Errorf("only HTTPS URLs are allowed")
	}

	host := parsed.Hostname()

	lowHost := strings.ToLower(host)
	if lowHost == "localhost" || lowHost == "127.0.0.1" || lowHost == "::1" {
		return fmt.Errorf("localhost URLs are not allowed")
	}

	if strings.HasSuffix(lowHost, ".local") || strings.HasSuffix(lowHost, ".internal") {
		return fmt.Errorf("local domain URLs are not allowed")
	}

	if ip := net.ParseIP(host); ip != nil {
		if IsPrivateIP(ip) {
			return fmt.Errorf("private IP addresses are not allowed")
		}
	}

	return nil
}

// IsPrivateIP checks if an IP is in private/reserved ranges.
// It handles IPv4, IPv6, and IPv6-mapped IPv4 addresses.
func IsPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}

	// IPv6-mapped IPv4 addresses (::ffff:x.x.x.x) need re-checking as IPv4.
	if v4 := ip.To4(); v4 != nil {
		ip = v4
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() {
			return true
		}
	}

	if cgnat.Contains(ip) || v6unique.Contains(ip) || v6link.Contains(ip) {
		return true
	}

	return false
}

// GenerateNarrativeID creates a web narrative ID from a URL.
// The ID follows the format "narrative.web.<slug>" where slug is derived
// from the domain and path. IDs are deterministic and NATS-subject safe.
func GenerateNarrativeID(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		// Fall back to a hash-based ID for invalid URLs.
		hash := sha256.Sum256([]byte(rawURL))
		return "narrative.web." + hex.EncodeToString(hash[:8])
	}

	host := parsed.Hostname()
	path := strings.Trim(parsed.Path, "/")

	slug := strings.ReplaceAll(host, ".", "-")
	if path != "" {
		slug = slug + "-" + strings.ReplaceAll(path, "/", "-")
	}

	slug = strings.ToLower(slug)
	slug = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '-'
	}, slug)

	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	slug = strings.Trim(slug, "-")

	if len(slug) > 80 {
		slug = slug[:80]
		slug = strings.TrimRight(slug, "-")
	}

	return "narrative.web." + slug
}

// ExtractDomain returns the hostname of a URL, or "" if the URL is invalid.
func ExtractDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}

// ValidateNarrativeID checks if a narrative ID has a valid format.
// Valid IDs match "narrative.web.[a-z0-9-]+" to prevent NATS subject
// injection attacks.
func ValidateNarrativeID(id string) bool {
	return narrativeIDPattern.MatchString(id)
}
