package parser

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	cssURLPattern    = regexp.MustCompile(`url\(\s*['"]?([^'"()]+)['"]?\s*\)`)
	cssImportPattern = regexp.MustCompile(`@import\s+['"]([^'"]+)['"]`)
)

// ExtractCSSURLs returns the references of every url(...) argument and
// every quoted @import in css, in order of appearance and without
// duplicates. data: URLs are embedded content and are skipped.
func ExtractCSSURLs(css string) []string {
	var refs []string
	seen := make(map[string]bool)

	add := func(ref string) {
		ref = strings.TrimSpace(ref)
		if ref == "" || hasScheme(ref, "data") || seen[ref] {
			return
		}
		seen[ref] = true
		refs = append(refs, ref)
	}

	for _, match := range cssURLPattern.FindAllStringSubmatch(css, -1) {
		add(match[1])
	}
	for _, match := range cssImportPattern.FindAllStringSubmatch(css, -1) {
		add(match[1])
	}

	return refs
}

// ResolveCSSURLs extracts the references in css and resolves them against
// the stylesheet's own URL. Unparseable references are dropped.
func ResolveCSSURLs(css, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	var urls []string
	for _, ref := range ExtractCSSURLs(css) {
		u, err := url.Parse(ref)
		if err != nil {
			continue
		}
		abs := base.ResolveReference(u)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			continue
		}
		urls = append(urls, abs.String())
	}
	return urls
}
