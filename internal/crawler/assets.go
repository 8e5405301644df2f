package crawler

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/KASSWRH/Website-Archiver/internal/parser"
)

// fetchAssets downloads the given asset URLs and, level by level, whatever
// their stylesheets reference. URLs already visited are skipped.
func (a *Archiver) fetchAssets(ctx context.Context, urls []string) {
	pending := a.claimAssets(urls)

	for len(pending) > 0 && ctx.Err() == nil {
		var (
			mu   sync.Mutex
			next []string
		)

		var g errgroup.Group
		g.SetLimit(a.assetConcurrency)
		for _, assetURL := range pending {
			g.Go(func() error {
				found := a.fetchAsset(ctx, assetURL)
				if len(found) > 0 {
					mu.Lock()
					next = append(next, found...)
					mu.Unlock()
				}
				return nil
			})
		}
		_ = g.Wait()

		pending = a.claimAssets(next)
	}
}

// claimAssets canonicalizes same-domain URLs and claims the unvisited ones
func (a *Archiver) claimAssets(urls []string) []string {
	var claimed []string
	for _, raw := range urls {
		if !a.sameDomain(raw) {
			continue
		}
		canonical, err := a.canon.Canonicalize(raw)
		if err != nil {
			continue
		}
		if a.frontier.Visit(canonical) {
			claimed = append(claimed, canonical)
		}
	}
	return claimed
}

// fetchAsset downloads one asset, writing a placeholder when it cannot be
// retrieved. It returns the absolute URLs referenced by a stylesheet.
func (a *Archiver) fetchAsset(ctx context.Context, assetURL string) []string {
	res := a.fetcher.Fetch(ctx, assetURL)

	switch res.Outcome {
	case OutcomeTransportError:
		if ctx.Err() != nil {
			return nil
		}
		a.logger.Warn("Asset download failed", "url", assetURL, "error", res.Err)
		a.addError(fmt.Sprintf("Error downloading asset %s: %v", assetURL, res.Err))
		if body, ok := TransportPlaceholder(assetURL, res.Err); ok {
			a.savePlaceholder(assetURL, body, res)
		}
		return nil

	case OutcomeHTTPError:
		a.logger.Warn("Asset returned error status", "url", assetURL, "status", res.StatusCode)
		a.addError(fmt.Sprintf("Failed to fetch asset %s: HTTP %d", assetURL, res.StatusCode))
		if body, ok := StatusPlaceholder(assetURL, res.ContentType); ok {
			a.savePlaceholder(assetURL, body, res)
		}
		return nil
	}

	if _, err := a.save(assetURL, res.Body, KindAsset, res); err != nil {
		a.logger.Warn("Failed to write asset", "url", assetURL, "error", err)
		a.addError(fmt.Sprintf("Error downloading asset %s: %v", assetURL, err))
		return nil
	}
	a.logger.Debug("Archived asset", "url", assetURL, "bytes", len(res.Body))

	if classifyAsset(assetURL, res.ContentType) != assetCSS {
		return nil
	}
	return parser.ResolveCSSURLs(string(res.Body), assetURL)
}

func (a *Archiver) savePlaceholder(assetURL string, body []byte, res *FetchResult) {
	if _, err := a.save(assetURL, body, KindPlaceholder, res); err != nil {
		a.logger.Warn("Failed to write placeholder", "url", assetURL, "error", err)
	}
}
