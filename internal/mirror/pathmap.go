package mirror

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

const indexFile = "index.html"

// MapPath returns the slash-separated path, relative to the archive root,
// that the canonical URL is stored under. Directory-like URLs resolve to an
// index.html inside the directory, the way static file servers do.
func MapPath(canonicalURL string) (string, error) {
	escaped, err := escapedMappedPath(canonicalURL)
	if err != nil {
		return "", err
	}
	decoded, err := url.PathUnescape(escaped)
	if err != nil {
		// malformed escapes are stored verbatim
		return escaped, nil
	}
	return decoded, nil
}

// RelativePath returns the reference that leads from the file mapped for
// fromURL to the file mapped for toURL. Targets on another host are returned
// unchanged. The result stays percent-encoded so it can be placed directly
// in an HTML attribute.
func RelativePath(fromURL, toURL string) (string, error) {
	from, err := url.Parse(fromURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", fromURL, err)
	}
	to, err := url.Parse(toURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", toURL, err)
	}
	if from.Host != to.Host {
		return toURL, nil
	}

	fromPath := mapEscaped(from.EscapedPath())
	toPath := mapEscaped(to.EscapedPath())

	fromDir := segments(path.Dir(fromPath))
	toDir := segments(path.Dir(toPath))
	base := path.Base(toPath)

	common := 0
	for common < len(fromDir) && common < len(toDir) && fromDir[common] == toDir[common] {
		common++
	}

	parts := make([]string, 0, len(fromDir)-common+len(toDir)-common+1)
	for i := common; i < len(fromDir); i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, toDir[common:]...)
	parts = append(parts, base)

	return strings.Join(parts, "/"), nil
}

func escapedMappedPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	return mapEscaped(u.EscapedPath()), nil
}

// mapEscaped applies the directory-to-index rule to an escaped URL path
func mapEscaped(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return indexFile
	}
	if !strings.Contains(path.Base(p), ".") {
		return p + "/" + indexFile
	}
	return p
}

func segments(dir string) []string {
	if dir == "." || dir == "" {
		return nil
	}
	return strings.Split(dir, "/")
}
