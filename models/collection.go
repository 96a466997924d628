package models

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Cytomine-ULiege/cytomine-go-client/errors"
)

// Collection is the base state shared by every resource listing: the
// element kind, the filters the kind accepts, the pagination window and
// extra query parameters. Typed collections embed it and add their element
// slice and kind-specific query switches.
type Collection struct {
	kind          string
	allowNoFilter bool
	allowed       map[string]struct{}
	filterOrder   []string
	filters       map[string]int64

	// Max bounds the number of elements a fetch returns; 0 lets the
	// service decide. Offset skips that many elements from the start of
	// the listing.
	Max    int64
	Offset int64

	params url.Values

	total      int64
	totalPages int64
}

// newCollection builds a collection base. unfiltered reports whether the
// kind may be listed without any filter; allowed names the filters the
// kind accepts.
func newCollection(kind string, unfiltered bool, allowed ...string) Collection {
	set := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		set[name] = struct{}{}
	}
	return Collection{
		kind:          kind,
		allowNoFilter: unfiltered,
		allowed:       set,
	}
}

// Kind returns the element kind of the collection.
func (c *Collection) Kind() string { return c.kind }

// AddFilter restricts the listing to elements owned by the named resource.
// Filters outside the kind's allowed set are rejected without mutating the
// collection. Re-applying a filter overwrites its value.
func (c *Collection) AddFilter(name string, id int64) error {
	if _, ok := c.allowed[name]; !ok {
		return errors.NewError("filter",
			fmt.Errorf("%w: %q on %s collection", errors.ErrFilterNotAllowed, name, c.kind))
	}
	if c.filters == nil {
		c.filters = make(map[string]int64)
	}
	if _, present := c.filters[name]; !present {
		c.filterOrder = append(c.filterOrder, name)
	}
	c.filters[name] = id
	return nil
}

// Filter returns the value of an applied filter.
func (c *Collection) Filter(name string) (int64, bool) {
	id, ok := c.filters[name]
	return id, ok
}

// SetParameter attaches an extra query parameter sent with every fetch.
func (c *Collection) SetParameter(key, value string) {
	if c.params == nil {
		c.params = url.Values{}
	}
	c.params.Set(key, value)
}

// Path composes the listing path from the applied filters, in application
// order: "<filter>/<id>/.../<kind>.json".
func (c *Collection) Path() string {
	var b strings.Builder
	for _, name := range c.filterOrder {
		fmt.Fprintf(&b, "%s/%d/", name, c.filters[name])
	}
	b.WriteString(c.kind + ".json")
	return b.String()
}

// Total returns the number of elements the service reported for the
// listing, across all pages. Valid after a fetch.
func (c *Collection) Total() int64 { return c.total }

// TotalPages returns the number of pages the service reported for the
// current window. Valid after a fetch.
func (c *Collection) TotalPages() int64 { return c.totalPages }

func (c *Collection) queryValues(extra url.Values) url.Values {
	q := url.Values{}
	for k, vs := range c.params {
		q[k] = append([]string(nil), vs...)
	}
	for k, vs := range extra {
		q[k] = append([]string(nil), vs...)
	}
	q.Set("max", strconv.FormatInt(c.Max, 10))
	q.Set("offset", strconv.FormatInt(c.Offset, 10))
	return q
}

type collectionEnvelope struct {
	Collection []map[string]any `json:"collection"`
	Size       int64            `json:"size"`
	TotalPages int64            `json:"totalPages"`
}

// fetchPage issues one listing request and returns the raw element
// payloads of the page.
func (c *Collection) fetchPage(ctx context.Context, api Caller, path string, extra url.Values) ([]map[string]any, error) {
	if len(c.filters) == 0 && !c.allowNoFilter {
		return nil, errors.NewError("fetch",
			fmt.Errorf("%w: %s collection", errors.ErrFilterRequired, c.kind))
	}
	var env collectionEnvelope
	if err := api.GetJSON(ctx, path, c.queryValues(extra), &env); err != nil {
		return nil, errors.NewPathError("fetch", path, err)
	}
	c.total = env.Size
	c.totalPages = env.TotalPages
	return env.Collection, nil
}

type populator interface {
	Populate(map[string]any)
}

// fetchItems fetches one page of a listing and materializes each element
// with newItem.
func fetchItems[T populator](ctx context.Context, api Caller, c *Collection, path string, extra url.Values, newItem func() T) ([]T, error) {
	rows, err := c.fetchPage(ctx, api, path, extra)
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, len(rows))
	for _, row := range rows {
		item := newItem()
		item.Populate(row)
		items = append(items, item)
	}
	return items, nil
}

// fetchAllItems walks the listing page by page until the reported total is
// reached. A pageSize of 0 requests the whole listing in one call.
func fetchAllItems[T populator](ctx context.Context, api Caller, c *Collection, path string, extra url.Values, pageSize int64, newItem func() T) ([]T, error) {
	if pageSize <= 0 {
		c.Max = 0
		c.Offset = 0
		return fetchItems(ctx, api, c, path, extra, newItem)
	}
	c.Max = pageSize
	c.Offset = 0
	var all []T
	for {
		page, err := fetchItems(ctx, api, c, path, extra, newItem)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		c.Offset += pageSize
		if len(page) == 0 || c.Offset >= c.total {
			return all, nil
		}
	}
}

// saveItems creates every element of the slice in one service call. The
// listing path without filters is used, matching the bulk-create endpoint.
func saveItems[T any](ctx context.Context, api Caller, c *Collection, items []T) error {
	if len(items) == 0 {
		return nil
	}
	path := c.kind + ".json"
	var payload map[string]any
	if err := api.PostJSON(ctx, path, items, &payload); err != nil {
		return errors.NewPathError("save", path, err)
	}
	return nil
}
