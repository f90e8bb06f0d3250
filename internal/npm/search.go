package npm

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MaxSearchSize is the largest page the registry serves.
const MaxSearchSize = 250

// SearchResult is one page of search results.
type SearchResult struct {
	Total   int            `json:"total"`
	Objects []SearchObject `json:"objects"`
}

// SearchObject is a single search hit.
type SearchObject struct {
	Package SearchPackage `json:"package"`
	Score   struct {
		Final float64 `json:"final"`
	} `json:"score"`
}

// SearchPackage is the package summary in a search hit.
type SearchPackage struct {
	Name        string            `json:"name"`
	Scope       string            `json:"scope"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Keywords    []string          `json:"keywords"`
	Date        string            `json:"date"`
	Links       map[string]string `json:"links"`
	Publisher   Person            `json:"publisher"`
}

// Search queries the registry. size is clamped to [1, MaxSearchSize].
func (c *Client) Search(ctx context.Context, query string, from, size int) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &SearchResult{}, nil
	}
	if from < 0 {
		from = 0
	}
	if size <= 0 {
		size = 20
	}
	if size > MaxSearchSize {
		size = MaxSearchSize
	}

	ctx, span := c.tracer.Start(ctx, "npm.Search", trace.WithAttributes(
		attribute.String("npm.query", query),
		attribute.Int("npm.from", from),
	))
	defer span.End()

	params := url.Values{}
	params.Set("text", query)
	params.Set("from", strconv.Itoa(from))
	params.Set("size", strconv.Itoa(size))

	var res SearchResult
	if err := c.getJSON(ctx, c.searchURL+"?"+params.Encode(), &res); err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("npm.total", res.Total))
	return &res, nil
}
