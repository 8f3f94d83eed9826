/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package webfetch retrieves web pages and converts them to Markdown so the
// model gets a compact textual representation instead of raw HTML.
package webfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/chainguard-dev/clog"
	"github.com/issueops/ghagent/agent/schema"
	"github.com/issueops/ghagent/agent/toolcall"
)

const (
	// fetchTimeout bounds the whole page fetch.
	fetchTimeout = 10 * time.Second

	// maxPageBytes caps how much of a page we read.
	maxPageBytes = 4 << 20
)

var multipleNewlines = regexp.MustCompile(`\n{3,}`)

// Client fetches web pages.
type Client struct {
	httpClient *http.Client
}

// New creates a web client with the default timeout.
func New() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: fetchTimeout},
	}
}

// GetPage fetches url and returns its content converted to Markdown.
func (c *Client) GetPage(ctx context.Context, url string) (string, error) {
	clog.FromContext(ctx).With("url", url).Info("Fetching web page")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request for %s: %w", url, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", url, err)
	}

	markdown, err := htmltomarkdown.ConvertString(string(body))
	if err != nil {
		return "", fmt.Errorf("converting %s to markdown: %w", url, err)
	}

	markdown = multipleNewlines.ReplaceAllString(markdown, "\n\n")
	return strings.TrimSpace(markdown), nil
}

type pageArgs struct {
	URL string `json:"url" jsonschema:"required,description=The URL of the page to fetch."`
}

// Tools returns the web tool surface exposed to the model. The parameter
// schema is inferred from the args struct.
func (c *Client) Tools() []toolcall.Tool {
	return []toolcall.Tool{
		schema.MustInfer("get_web_page",
			"Fetch a web page and return its content converted to Markdown.",
			func(ctx context.Context, args pageArgs) (any, error) {
				return c.GetPage(ctx, args.URL)
			}),
	}
}
