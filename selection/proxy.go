package selection

import (
	"log/slog"
	"net/url"
)

// RewriteDownloadURL replaces the scheme+host of downloadURL with the
// proxy base's, preserving path and query. Any parse error falls back to
// the original URL unchanged.
func RewriteDownloadURL(downloadURL, proxyBaseURL string) string {
	if proxyBaseURL == "" || downloadURL == "" {
		return downloadURL
	}
	proxy, err := url.Parse(proxyBaseURL)
	if err != nil {
		slog.Warn("invalid proxy base url, leaving download url unchanged", "error", err)
		return downloadURL
	}
	orig, err := url.Parse(downloadURL)
	if err != nil {
		slog.Warn("invalid download url, leaving it unchanged", "error", err)
		return downloadURL
	}
	orig.Scheme = proxy.Scheme
	orig.Host = proxy.Host
	return orig.String()
}
