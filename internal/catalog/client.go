package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/VoxDroid/bhub/internal/transport"
)

// DefaultBaseURL is the public BadgeHub API.
const DefaultBaseURL = "https://badgehub.p1m.nl/api/v3"

// resolvePageSize and resolveMaxPages bound the catalog walk done by
// ResolveRevision.
const (
	resolvePageSize = 50
	resolveMaxPages = 10
)

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL string
	Logger  *slog.Logger
	// SkipIcons disables icon downloads (CLI listings don't show them).
	SkipIcons bool
}

// Client exposes typed catalog fetches on top of a Transport.
type Client struct {
	transport transport.Transport
	baseURL   string
	log       *slog.Logger
	skipIcons bool
}

// NewClient returns a Client using t for all requests.
func NewClient(t transport.Transport, opts ClientOptions) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Client{transport: t, baseURL: base, log: log, skipIcons: opts.SkipIcons}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// PageURL builds the project list URL. The search parameter is omitted
// when query is empty.
func (c *Client) PageURL(query string, limit, offset int) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	b.WriteString("/projects?")
	if query != "" {
		// match curl_easy_escape: spaces as %20, not '+'
		b.WriteString("search=")
		b.WriteString(strings.ReplaceAll(url.QueryEscape(query), "+", "%20"))
		b.WriteString("&")
	}
	b.WriteString("limit=")
	b.WriteString(strconv.Itoa(limit))
	b.WriteString("&offset=")
	b.WriteString(strconv.Itoa(offset))
	return b.String()
}

// DetailURL builds the URL of one project revision.
func (c *Client) DetailURL(slug string, revision int) string {
	return fmt.Sprintf("%s/projects/%s/rev%d", c.baseURL, url.PathEscape(slug), revision)
}

// FetchPage fetches at most limit projects starting at offset.
func (c *Client) FetchPage(ctx context.Context, query string, limit, offset int) ([]ProjectSummary, error) {
	if limit <= 0 || offset < 0 {
		return nil, &FetchError{Op: "fetch page", Kind: KindInvalid, Err: fmt.Errorf("invalid limit %d / offset %d", limit, offset)}
	}
	u := c.PageURL(query, limit, offset)
	data, err := c.transport.Get(ctx, u)
	if err != nil {
		return nil, transportFailure("fetch page", u, err)
	}
	items, err := DecodeSummaries(data)
	if err != nil {
		return nil, &FetchError{Op: "fetch page", URL: u, Kind: KindDecode, Err: err}
	}
	if len(items) > limit {
		items = items[:limit]
	}
	if !c.skipIcons {
		for i := range items {
			items[i].Icon = c.fetchIcon(ctx, items[i].Slug, items[i].IconURL)
		}
	}
	c.log.Debug("fetched page", "query", query, "limit", limit, "offset", offset, "count", len(items))
	return items, nil
}

// fetchIcon returns the icon bytes or nil. A failed icon never fails the page.
func (c *Client) fetchIcon(ctx context.Context, slug, iconURL string) []byte {
	if iconURL == "" {
		return nil
	}
	data, err := c.transport.Get(ctx, iconURL)
	if err != nil {
		c.log.Debug("icon unavailable", "slug", slug, "url", iconURL, "err", err)
		return nil
	}
	if len(data) == 0 {
		return nil
	}
	return data
}

// FetchDetail fetches one project revision.
func (c *Client) FetchDetail(ctx context.Context, slug string, revision int) (ProjectDetail, error) {
	if slug == "" {
		return ProjectDetail{}, &FetchError{Op: "fetch detail", Kind: KindInvalid, Err: fmt.Errorf("empty slug")}
	}
	u := c.DetailURL(slug, revision)
	data, err := c.transport.Get(ctx, u)
	if err != nil {
		return ProjectDetail{}, transportFailure("fetch detail", u, err)
	}
	d, err := DecodeDetail(slug, revision, data)
	if err != nil {
		return ProjectDetail{}, &FetchError{Op: "fetch detail", URL: u, Kind: KindDecode, Err: err}
	}
	c.log.Debug("fetched detail", "slug", slug, "revision", revision, "files", len(d.Files))
	return d, nil
}

// ResolveRevision finds the catalog entry whose slug matches exactly. It
// searches by slug and walks result pages until the list ends.
func (c *Client) ResolveRevision(ctx context.Context, slug string) (ProjectSummary, error) {
	for page := 0; page < resolveMaxPages; page++ {
		items, err := c.withoutIcons().FetchPage(ctx, slug, resolvePageSize, page*resolvePageSize)
		if err != nil {
			return ProjectSummary{}, err
		}
		for _, it := range items {
			if it.Slug == slug {
				return it, nil
			}
		}
		if len(items) < resolvePageSize {
			break
		}
	}
	return ProjectSummary{}, fmt.Errorf("%w: %s", ErrProjectNotFound, slug)
}

func (c *Client) withoutIcons() *Client {
	if c.skipIcons {
		return c
	}
	cp := *c
	cp.skipIcons = true
	return &cp
}
