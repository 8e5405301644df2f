package parser

import (
	"net/url"

	"github.com/KASSWRH/Website-Archiver/internal/mirror"
)

// LinkRewriter points same-domain references of a page at their mirrored
// files
type LinkRewriter struct {
	domain string
	canon  *mirror.Canonicalizer
}

// NewLinkRewriter creates a rewriter for pages of the given host
func NewLinkRewriter(domain string, canon *mirror.Canonicalizer) *LinkRewriter {
	if canon == nil {
		canon = mirror.NewCanonicalizer(nil)
	}
	return &LinkRewriter{domain: domain, canon: canon}
}

// Rewrite replaces every same-domain attribute reference in doc with the
// path relative to pageURL's mirrored file and records the absolute target
// in data-original-url. Cross-domain references are made absolute, so
// protocol-relative hyperlinks get the page's scheme; absolute hyperlinks are
// left as written. It returns the number of rewritten references.
func (r *LinkRewriter) Rewrite(doc *Document, pageURL string) int {
	rewritten := 0

	for _, ref := range doc.refs {
		if ref.node == nil {
			continue
		}

		if ref.Host != r.domain {
			if ref.Kind != KindLink || !isAbsolute(ref.Raw) {
				setAttr(ref.node, ref.attr, ref.URL)
			}
			continue
		}

		target, err := r.canon.Canonicalize(ref.URL)
		if err != nil {
			continue
		}
		rel, err := mirror.RelativePath(pageURL, target)
		if err != nil {
			continue
		}

		setAttr(ref.node, ref.attr, rel)
		setAttr(ref.node, OriginalURLAttr, ref.URL)
		rewritten++
	}

	return rewritten
}

func isAbsolute(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.IsAbs()
}
