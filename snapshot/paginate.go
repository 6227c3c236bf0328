// ABOUTME: Page loop with a hard ceiling shared by the snapshot sources
// ABOUTME: Stops on a short page and warns when the ceiling truncates the result
package snapshot

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	DefaultPageSize = 1000
	DefaultMaxPages = 100
)

// PageOptions bounds a page loop.
type PageOptions struct {
	PageSize int
	MaxPages int
}

func (o PageOptions) withDefaults() PageOptions {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.MaxPages <= 0 {
		o.MaxPages = DefaultMaxPages
	}
	return o
}

// PageFunc fetches one 1-based page.
type PageFunc[T any] func(ctx context.Context, page, pageSize int) ([]T, error)

// Paginate collects pages until one comes back short. Reaching MaxPages with a full last
// page truncates the listing and logs a warning naming what.
func Paginate[T any](ctx context.Context, logger *zap.Logger, what string, opts PageOptions, fetch PageFunc[T]) ([]T, error) {
	opts = opts.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	var all []T
	for page := 1; page <= opts.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch, err := fetch(ctx, page, opts.PageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s page %d: %w", what, page, err)
		}
		all = append(all, batch...)
		if len(batch) < opts.PageSize {
			return all, nil
		}
	}

	logger.Warn("pagination ceiling reached, results truncated",
		zap.String("listing", what),
		zap.Int("max_pages", opts.MaxPages),
		zap.Int("records", len(all)))
	return all, nil
}

// slicePage serves page of items from an in-memory slice.
func slicePage[T any](items []T, page, pageSize int) []T {
	start := (page - 1) * pageSize
	if start >= len(items) {
		return nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
