package crawler

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"net/url"
	"path"
	"strings"
)

// Placeholder bodies written when an asset cannot be retrieved
const (
	cssPlaceholder          = "/* This is a placeholder for a CSS file that could not be downloaded */\n"
	cssErrorPlaceholder     = "/* This is a placeholder for a CSS file that could not be downloaded due to an error */\n"
	scriptPlaceholder       = "// This is a placeholder for a JavaScript file that could not be downloaded\n"
	scriptErrorPlaceholder  = "// This is a placeholder for a JavaScript file that could not be downloaded due to an error\n"
	placeholderErrorMaxRune = 30
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp"}

// assetType classifies an asset for placeholder selection
type assetType int

const (
	assetOther assetType = iota
	assetCSS
	assetScript
	assetImage
)

// classifyAsset looks at the URL extension and, when known, the content type
func classifyAsset(rawURL, contentType string) assetType {
	ext := strings.ToLower(path.Ext(urlPath(rawURL)))
	ct := strings.ToLower(contentType)

	switch {
	case ext == ".css" || strings.Contains(ct, "text/css"):
		return assetCSS
	case ext == ".js" || strings.Contains(ct, "javascript"):
		return assetScript
	case isImageExt(ext) || strings.HasPrefix(ct, "image/"):
		return assetImage
	}
	return assetOther
}

func isImageExt(ext string) bool {
	for _, e := range imageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// StatusPlaceholder returns the substitute body for an asset answered with a
// non-success status. ok is false for asset types without a placeholder.
func StatusPlaceholder(assetURL, contentType string) (body []byte, ok bool) {
	switch classifyAsset(assetURL, contentType) {
	case assetCSS:
		return []byte(cssPlaceholder), true
	case assetScript:
		return []byte(scriptPlaceholder), true
	case assetImage:
		return imagePlaceholder(assetURL, ""), true
	}
	return nil, false
}

// TransportPlaceholder returns the substitute body for an asset whose fetch
// failed without a response. Only the URL extension is consulted.
func TransportPlaceholder(assetURL string, cause error) (body []byte, ok bool) {
	switch classifyAsset(assetURL, "") {
	case assetCSS:
		return []byte(cssErrorPlaceholder), true
	case assetScript:
		return []byte(scriptErrorPlaceholder), true
	case assetImage:
		msg := ""
		if cause != nil {
			msg = cause.Error()
		}
		return imagePlaceholder(assetURL, "Error: "+truncateRunes(msg, placeholderErrorMaxRune)), true
	}
	return nil, false
}

// imagePlaceholder renders a 200x150 grey SVG naming the missing file
func imagePlaceholder(assetURL, detail string) []byte {
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="200" height="150" viewBox="0 0 200 150">` + "\n")
	b.WriteString(`  <rect width="200" height="150" fill="#f0f0f0"/>` + "\n")
	b.WriteString(`  <text x="100" y="65" font-family="Arial" font-size="14" text-anchor="middle" fill="#666">Image Not Found</text>` + "\n")
	fmt.Fprintf(&b, `  <text x="100" y="85" font-family="Arial" font-size="12" text-anchor="middle" fill="#999">%s</text>`+"\n",
		html.EscapeString(path.Base(urlPath(assetURL))))
	if detail != "" {
		fmt.Fprintf(&b, `  <text x="100" y="105" font-family="Arial" font-size="10" text-anchor="middle" fill="#c00">%s</text>`+"\n",
			html.EscapeString(detail))
	}
	b.WriteString("</svg>\n")
	return []byte(b.String())
}

var errorPageTemplate = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>body{font-family:Arial,sans-serif;margin:40px;color:#333}.details{background:#f5f5f5;padding:16px;border-radius:4px}</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>The archiver could not save this page.</p>
<div class="details">
<p><strong>URL:</strong> {{.URL}}</p>
{{- if .StatusCode}}
<p><strong>Status Code:</strong> {{.StatusCode}}</p>
{{- end}}
{{- if .OriginalPath}}
<p><strong>Original Path:</strong> {{.OriginalPath}}</p>
{{- end}}
{{- if .Error}}
<p><strong>Error:</strong> {{.Error}}</p>
{{- end}}
</div>
</body>
</html>
`))

type errorPage struct {
	Title        string
	URL          string
	StatusCode   int
	OriginalPath string
	Error        string
}

// StatusErrorPage is written in place of a page answered with a non-200 status
func StatusErrorPage(pageURL string, statusCode int) []byte {
	return renderErrorPage(errorPage{
		Title:        "Error Accessing Page",
		URL:          pageURL,
		StatusCode:   statusCode,
		OriginalPath: urlPath(pageURL),
	})
}

// ProcessingErrorPage is written in place of a page whose processing failed
func ProcessingErrorPage(pageURL string, cause error) []byte {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return renderErrorPage(errorPage{
		Title: "Error Processing Page",
		URL:   pageURL,
		Error: msg,
	})
}

func renderErrorPage(p errorPage) []byte {
	var buf bytes.Buffer
	if err := errorPageTemplate.Execute(&buf, p); err != nil {
		// The template is static; fall back to a minimal escaped body.
		return []byte("<!DOCTYPE html><html><body><h1>" + html.EscapeString(p.Title) + "</h1><p>" + html.EscapeString(p.URL) + "</p></body></html>\n")
	}
	return buf.Bytes()
}

func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
