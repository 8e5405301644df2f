// Package mirror maps site URLs onto the on-disk layout of an archive.
// It canonicalizes URLs for deduplication and derives the file path each
// canonical URL is stored under, plus the relative link between two files.
package mirror

import (
	"fmt"
	"net/url"
	"strings"
)

const indexSuffix = "/index.html"

// PathRewrite is a literal path substitution applied during canonicalization
type PathRewrite struct {
	From string
	To   string
}

// SiteRewrite binds a set of path rewrites to hosts ending in HostSuffix
type SiteRewrite struct {
	HostSuffix string
	Rules      []PathRewrite
}

// DefaultSiteRewrites collapses Webflow template pages onto their pretty slugs.
var DefaultSiteRewrites = []SiteRewrite{
	{
		HostSuffix: "webflow.io",
		Rules: []PathRewrite{
			{From: "/home-v2/index.html", To: "/home-pages/home-v2"},
			{From: "/home-v3/index.html", To: "/home-pages/home-v3"},
			{From: "/blog-v1/index.html", To: "/blog-pages/blog-v1"},
			{From: "/blog-v2/index.html", To: "/blog-pages/blog-v2"},
			{From: "/blog-v3/index.html", To: "/blog-pages/blog-v3"},
			{From: "/contact-v1/index.html", To: "/contact-pages/contact-v1"},
			{From: "/contact-v2/index.html", To: "/contact-pages/contact-v2"},
			{From: "/contact-v3/index.html", To: "/contact-pages/contact-v3"},
		},
	},
}

// Canonicalizer normalizes URLs into the form used for the visited set and
// for path derivation
type Canonicalizer struct {
	sites []SiteRewrite
}

// NewCanonicalizer creates a canonicalizer with the given site tables.
// A nil table falls back to DefaultSiteRewrites.
func NewCanonicalizer(sites []SiteRewrite) *Canonicalizer {
	if sites == nil {
		sites = DefaultSiteRewrites
	}
	return &Canonicalizer{sites: sites}
}

// Canonicalize returns scheme://host/path with query and fragment removed.
// Generator-specific rewrites run first; otherwise a trailing /index.html is
// dropped. The escaped form of the path is preserved.
func (c *Canonicalizer) Canonicalize(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("URL %q is not absolute", rawURL)
	}

	p := c.rewritePath(u.Host, u.EscapedPath())
	if p == "" || !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	return u.Scheme + "://" + u.Host + p, nil
}

func (c *Canonicalizer) rewritePath(host, p string) string {
	for _, site := range c.sites {
		if !strings.HasSuffix(host, site.HostSuffix) {
			continue
		}
		for _, rule := range site.Rules {
			if strings.Contains(p, rule.From) {
				return strings.Replace(p, rule.From, rule.To, 1)
			}
		}
	}

	if strings.HasSuffix(p, indexSuffix) {
		return strings.TrimSuffix(p, indexSuffix)
	}
	return p
}

var defaultCanonicalizer = NewCanonicalizer(nil)

// Canonicalize canonicalizes rawURL using DefaultSiteRewrites
func Canonicalize(rawURL string) (string, error) {
	return defaultCanonicalizer.Canonicalize(rawURL)
}
