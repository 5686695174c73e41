package edge

import "strings"

// NormalizeHost strips the port from a Host header value and lowercases
// it. IPv6 literals keep their brackets.
//
//	"Example.COM:8080" -> "example.com"
//	"[::1]:8080" -> "[::1]"
func NormalizeHost(host string) string {
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		if !strings.Contains(host[idx:], "]") {
			host = host[:idx]
		}
	}
	return strings.ToLower(host)
}

// SubdomainSlug extracts the tenant slug from a root-level single-segment
// path. Paths with more segments, a file extension or nothing but "/" do
// not name a tenant site.
//
//	"/john-jane-2024"  -> ("john-jane-2024", true)
//	"/john-jane-2024/" -> ("john-jane-2024", true)
//	"/a/b"             -> ("", false)
//	"/sitemap.xml"     -> ("", false)
//	"/"                -> ("", false)
func SubdomainSlug(path string) (string, bool) {
	slug, ok := strings.CutPrefix(path, "/")
	if !ok || slug == "" {
		return "", false
	}
	slug = strings.TrimSuffix(slug, "/")
	if slug == "" || strings.ContainsAny(slug, "/.") {
		return "", false
	}
	return slug, true
}
