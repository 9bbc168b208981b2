package utils

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path"
	"strings"
)

var (
	InstagramVideoExtensions = []string{".mp4", ".mov"}
	FacebookVideoExtensions  = []string{".mp4", ".mov", ".webm"}
)

// HasExtension reports whether the path of rawURL ends in one of exts.
// Query strings and fragments are ignored.
func HasExtension(rawURL string, exts ...string) bool {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// CheckPublicURL returns an error when rawURL cannot be fetched by a
// third-party server: non-http schemes, localhost names and loopback,
// private, link-local or unspecified IP literals.
func CheckPublicURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fmt.Errorf("invalid media url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("media url %q must use http or https", rawURL)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("media url %q has no host", rawURL)
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("media url %q points to localhost and is not reachable from the internet", rawURL)
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() {
			return fmt.Errorf("media url %q points to a non-public address", rawURL)
		}
	}
	return nil
}

// CheckPublicURLs validates every url and joins the failures.
func CheckPublicURLs(urls []string) error {
	var errs []error
	for _, u := range urls {
		if err := CheckPublicURL(u); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
