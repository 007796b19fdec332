package store

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Policy bounds every request with a timeout and retries failed reads.
// Writes are attempted once.
type Policy struct {
	Timeout     time.Duration
	ReadRetries int
	Backoff     time.Duration
}

// DefaultPolicy returns the policy used when config leaves it unset
func DefaultPolicy() Policy {
	return Policy{Timeout: 10 * time.Second, ReadRetries: 2, Backoff: 200 * time.Millisecond}
}

type policyClient struct {
	next   Client
	policy Policy
	logger *zap.Logger
}

// WithPolicy wraps next so that every call obeys p
func WithPolicy(next Client, p Policy, logger *zap.Logger) Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &policyClient{next: next, policy: p, logger: logger}
}

func (c *policyClient) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.policy.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.policy.Timeout)
}

func (c *policyClient) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	var lastErr error
	for attempt := 0; attempt <= c.policy.ReadRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("retrying select",
				zap.String("table", table),
				zap.Int("attempt", attempt),
				zap.Error(lastErr))

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.policy.Backoff * time.Duration(attempt)):
			}
		}

		reqCtx, cancel := c.bounded(ctx)
		rows, err := c.next.Select(reqCtx, table, q)
		cancel()
		if err == nil {
			return rows, nil
		}
		if !retryable(err) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *policyClient) Insert(ctx context.Context, table string, row Row) (Row, error) {
	reqCtx, cancel := c.bounded(ctx)
	defer cancel()
	return c.next.Insert(reqCtx, table, row)
}

func (c *policyClient) Update(ctx context.Context, table string, patch Row, filters ...Filter) error {
	reqCtx, cancel := c.bounded(ctx)
	defer cancel()
	return c.next.Update(reqCtx, table, patch, filters...)
}

func (c *policyClient) Delete(ctx context.Context, table string, filters ...Filter) error {
	reqCtx, cancel := c.bounded(ctx)
	defer cancel()
	return c.next.Delete(reqCtx, table, filters...)
}
