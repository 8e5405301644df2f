// Package parser provides HTML and CSS scanning for the archiver.
// It collects the hyperlinks and asset references of a page, rewrites them
// to point into the mirror, and renders the modified document back to HTML.
package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// OriginalURLAttr carries the absolute URL a rewritten reference pointed to
const OriginalURLAttr = "data-original-url"

// RefKind classifies a reference found in a document
type RefKind string

const (
	KindLink       RefKind = "link"       // <a href>
	KindStylesheet RefKind = "stylesheet" // <link rel="stylesheet" href>
	KindScript     RefKind = "script"     // <script src>
	KindImage      RefKind = "image"      // <img src>
	KindStyleURL   RefKind = "style-url"  // url(...) inside an inline <style>
)

// Reference is a hyperlink or asset reference resolved against the page URL
type Reference struct {
	Kind RefKind
	Raw  string // attribute value as written in the page
	URL  string // absolute URL
	Host string

	node *html.Node
	attr string
}

// Document is a parsed HTML page together with the references it contains.
// References are collected at parse time, so later rewriting does not
// change what Links and Assets report.
type Document struct {
	root  *html.Node
	base  *url.URL
	title string
	refs  []*Reference
}

// Parse parses an HTML page. baseURL is the URL the page was served from
// and is used to resolve relative references.
func Parse(content []byte, baseURL string) (*Document, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	root, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc := &Document{root: root, base: base}
	doc.traverse(root)
	return doc, nil
}

// Title returns the text of the first <title> element
func (d *Document) Title() string {
	return d.title
}

// References returns every collected reference in document order
func (d *Document) References() []*Reference {
	return d.refs
}

// Links returns the absolute URLs of all followable hyperlinks
func (d *Document) Links() []string {
	var links []string
	for _, ref := range d.refs {
		if ref.Kind == KindLink {
			links = append(links, ref.URL)
		}
	}
	return links
}

// Assets returns the absolute URLs of stylesheets, scripts, images and the
// url(...) references of inline style blocks
func (d *Document) Assets() []string {
	var assets []string
	for _, ref := range d.refs {
		if ref.Kind != KindLink {
			assets = append(assets, ref.URL)
		}
	}
	return assets
}

// Render serializes the (possibly rewritten) document
func (d *Document) Render() ([]byte, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return nil, fmt.Errorf("failed to render HTML: %w", err)
	}
	return buf.Bytes(), nil
}

// traverse recursively walks the HTML tree
func (d *Document) traverse(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "title":
			if d.title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				d.title = strings.TrimSpace(n.FirstChild.Data)
			}
		case "a":
			d.addAttrRef(n, "href", KindLink)
		case "link":
			if hasRelToken(n, "stylesheet") {
				d.addAttrRef(n, "href", KindStylesheet)
			}
		case "script":
			d.addAttrRef(n, "src", KindScript)
		case "img":
			d.addAttrRef(n, "src", KindImage)
		case "style":
			d.addStyleRefs(n)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.traverse(c)
	}
}

func (d *Document) addAttrRef(n *html.Node, key string, kind RefKind) {
	raw, ok := getAttr(n, key)
	if !ok {
		return
	}
	value := strings.TrimSpace(raw)
	if value == "" || strings.HasPrefix(value, "#") || hasScheme(value, "javascript") {
		return
	}

	abs, ok := d.resolve(value)
	if !ok {
		return
	}

	d.refs = append(d.refs, &Reference{
		Kind: kind,
		Raw:  raw,
		URL:  abs.String(),
		Host: abs.Host,
		node: n,
		attr: key,
	})
}

func (d *Document) addStyleRefs(n *html.Node) {
	var css strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			css.WriteString(c.Data)
		}
	}

	for _, raw := range ExtractCSSURLs(css.String()) {
		abs, ok := d.resolve(raw)
		if !ok {
			continue
		}
		d.refs = append(d.refs, &Reference{
			Kind: KindStyleURL,
			Raw:  raw,
			URL:  abs.String(),
			Host: abs.Host,
		})
	}
}

// resolve makes ref absolute against the page URL; only http(s) targets
// are reported
func (d *Document) resolve(ref string) (*url.URL, bool) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, false
	}
	abs := d.base.ResolveReference(u)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return nil, false
	}
	return abs, true
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func hasRelToken(n *html.Node, token string) bool {
	rel, ok := getAttr(n, "rel")
	if !ok {
		return false
	}
	for _, field := range strings.Fields(rel) {
		if strings.EqualFold(field, token) {
			return true
		}
	}
	return false
}

func hasScheme(ref, scheme string) bool {
	return len(ref) > len(scheme) && strings.EqualFold(ref[:len(scheme)+1], scheme+":")
}
