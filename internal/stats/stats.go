// Package stats collects library statistics from the monitoring API.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/user/streamwarden/internal/activity"
)

// maxConcurrentFetches bounds simultaneous library detail requests so a
// digest over many libraries doesn't hammer the server.
const maxConcurrentFetches = 4

// API is the slice of the Tautulli client the collector needs.
type API interface {
	Libraries(ctx context.Context) ([]map[string]any, error)
	Library(ctx context.Context, sectionID string) (map[string]any, error)
}

// Collector resolves library names to sections and gathers item counts.
type Collector struct {
	api API
	sem *semaphore.Weighted
}

// New creates a Collector over the given API client.
func New(api API) *Collector {
	return &Collector{
		api: api,
		sem: semaphore.NewWeighted(maxConcurrentFetches),
	}
}

// LibraryID resolves a library name to its section id.
func (c *Collector) LibraryID(ctx context.Context, name string) (string, error) {
	libs, err := c.api.Libraries(ctx)
	if err != nil {
		return "", fmt.Errorf("list libraries: %w", err)
	}
	for _, lib := range libs {
		if activity.ToString(lib["section_name"]) == name {
			return activity.ToString(lib["section_id"]), nil
		}
	}
	return "", fmt.Errorf("library not found: %s", name)
}

// LibraryInfo fetches the detail record for a library by name.
func (c *Collector) LibraryInfo(ctx context.Context, name string) (map[string]any, error) {
	id, err := c.LibraryID(ctx, name)
	if err != nil {
		return nil, err
	}
	info, err := c.api.Library(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get library %s: %w", name, err)
	}
	return info, nil
}

// ItemCount returns the number of items in a library. Music libraries
// count tracks (child_count); everything else uses the section count.
func (c *Collector) ItemCount(ctx context.Context, name string) (int, error) {
	info, err := c.LibraryInfo(ctx, name)
	if err != nil {
		return 0, err
	}
	if activity.ToString(info["section_type"]) == "artist" {
		return activity.ToInt(info["child_count"]), nil
	}
	return activity.ToInt(info["count"]), nil
}

// Digest fetches item counts for the named libraries concurrently (at most
// maxConcurrentFetches in flight) and renders a one-line-per-library
// summary in the order given. A library that cannot be read shows as
// "unavailable" rather than failing the whole digest.
func (c *Collector) Digest(ctx context.Context, names []string) string {
	type result struct {
		count int
		err   error
	}
	results := make([]result, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			results[i] = result{err: err}
			continue
		}
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			defer c.sem.Release(1)
			count, err := c.ItemCount(ctx, name)
			results[i] = result{count: count, err: err}
		}(i, name)
	}
	wg.Wait()

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString("\n")
		}
		if results[i].err != nil {
			slog.Warn("library stats unavailable", "library", name, "error", results[i].err)
			fmt.Fprintf(&b, "%s: unavailable", name)
			continue
		}
		noun := "items"
		if results[i].count == 1 {
			noun = "item"
		}
		fmt.Fprintf(&b, "%s: %d %s", name, results[i].count, noun)
	}
	return b.String()
}
