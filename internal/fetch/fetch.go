// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves BibTeX records for DOIs through content
// negotiation on a DOI resolver.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/bibmagic/internal/bibliography"
	"github.com/pdiddy/bibmagic/internal/httputil"
	"github.com/pdiddy/bibmagic/pkg/types"
)

const bibtexMediaType = "application/x-bibtex"

// doiPattern matches DOIs: "10.1145/1234567.1234568".
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

// bareMonth matches the unbraced month macros resolvers emit
// (month = jun), which the entry parser rejects.
var bareMonth = regexp.MustCompile(`(?i)(\bmonth\s*=\s*)([a-z]{3})(\s*[,}])`)

var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi:",
}

// NormalizeDOI strips resolver URL and "doi:" prefixes and checks the
// result looks like a DOI.
func NormalizeDOI(s string) (string, error) {
	doi := strings.TrimSpace(s)
	for _, p := range doiPrefixes {
		if len(doi) >= len(p) && strings.EqualFold(doi[:len(p)], p) {
			doi = doi[len(p):]
			break
		}
	}
	if !doiPattern.MatchString(doi) {
		return "", fmt.Errorf("not a DOI: %q", s)
	}
	return doi, nil
}

// Client fetches BibTeX by DOI.
type Client struct {
	http   *http.Client
	cfg    types.FetchConfig
	parser *bibliography.Parser
}

// NewClient returns a Client using cfg. Fetched text is parsed with
// parser; nil uses the default options.
func NewClient(cfg types.FetchConfig, parser *bibliography.Parser) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://doi.org/"
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if parser == nil {
		parser = bibliography.NewParser(types.DefaultParserOptions(), nil)
	}
	return &Client{
		http:   &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		parser: parser,
	}
}

func (c *Client) userAgent() string {
	ua := c.cfg.UserAgent
	if ua == "" {
		ua = "bibmagic"
	}
	if c.cfg.Mailto != "" {
		ua += " (mailto:" + c.cfg.Mailto + ")"
	}
	return ua
}

// Fetch returns the BibTeX record the resolver serves for doi. Progress
// about rate limiting goes to w.
func (c *Client) Fetch(ctx context.Context, doi string, w io.Writer) (string, error) {
	doi, err := NormalizeDOI(doi)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+doi, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", bibtexMediaType)
	req.Header.Set("User-Agent", c.userAgent())

	policy := httputil.RetryPolicy{
		MaxRetries: c.cfg.MaxRetries,
		OnRetry: func(attempt int, wait time.Duration) {
			fmt.Fprintf(w, "  rate limited, retrying in %v (attempt %d)\n", wait, attempt)
		},
	}
	resp, err := httputil.DoWithRetry(ctx, c.http, req, policy)
	if err != nil {
		return "", fmt.Errorf("requesting %s: %w", doi, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("resolver returned HTTP %d for %s", resp.StatusCode, doi)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response for %s: %w", doi, err)
	}
	text := strings.TrimSpace(string(body))
	if !strings.HasPrefix(text, "@") {
		return "", fmt.Errorf("response for %s is not BibTeX", doi)
	}
	return bareMonth.ReplaceAllString(text, "${1}{${2}}${3}"), nil
}

// BatchResult holds the outcome of a batch fetch.
type BatchResult struct {
	Fetched int
	Failed  int

	// BibTeX is the concatenated text of every fetched record.
	BibTeX string

	// Bibliography is BibTeX parsed with the client's parser.
	Bibliography *types.Bibliography
}

// Total returns the number of DOIs processed.
func (r BatchResult) Total() int {
	return r.Fetched + r.Failed
}

// HasFailures reports whether any DOI failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// FetchBatch fetches each DOI in turn, printing per-item status to w, and
// parses the combined result. It continues after individual failures and
// waits cfg.Delay between requests. Only context cancellation returns an
// error.
func (c *Client) FetchBatch(ctx context.Context, dois []string, w io.Writer) (BatchResult, error) {
	var (
		result  BatchResult
		records []string
	)

	for i, doi := range dois {
		if i > 0 && c.cfg.Delay > 0 {
			timer := time.NewTimer(c.cfg.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return result, ctx.Err()
			case <-timer.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		text, err := c.Fetch(ctx, doi, w)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			fmt.Fprintf(w, "failed  %s: %v\n", doi, err)
			result.Failed++
			continue
		}
		fmt.Fprintf(w, "fetched %s\n", doi)
		records = append(records, text)
		result.Fetched++
	}

	fmt.Fprintf(w, "\nfetched: %d, failed: %d\n", result.Fetched, result.Failed)

	if len(records) > 0 {
		result.BibTeX = strings.Join(records, "\n\n") + "\n"
	}
	result.Bibliography = c.parser.Parse(result.BibTeX)
	return result, nil
}
