package mstr

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// MaxConcurrency limits simultaneous task requests issued by batch lookups
const MaxConcurrency = 5

// GetAttributes looks up several attributes concurrently on the current
// session. Results are returned in the order of ids; the first failure
// cancels the remaining lookups.
func (c *Client) GetAttributes(ctx context.Context, ids ...string) ([]*Attribute, error) {
	if len(ids) == 0 {
		return []*Attribute{}, nil
	}

	results := make([]*Attribute, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxConcurrency)

	for i, id := range ids {
		g.Go(func() error {
			attr, err := c.GetAttribute(ctx, id)
			if err != nil {
				return err
			}
			// Each goroutine owns its own index
			results[i] = attr
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.logger.Debug().Int("count", len(results)).Msg("Resolved attributes")
	return results, nil
}
