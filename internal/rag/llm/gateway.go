package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/anvikal/askapi/internal/config"
	"github.com/anvikal/askapi/pkg/logger_i"
	"github.com/sethvargo/go-retry"
)

// RetryPolicy bounds the automatic recovery applied to every generation
// call: exponential backoff between MinWait and MaxWait, at most
// MaxAttempts tries. Exhausting the attempts surfaces the last error.
type RetryPolicy struct {
	MaxAttempts uint64
	MinWait     time.Duration
	MaxWait     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: config.GenerationMaxAttempts,
		MinWait:     config.GenerationMinWait,
		MaxWait:     config.GenerationMaxWait,
	}
}

// Gateway is the retry-wrapped entry point for derived-text generation.
// It is the only path the indexer uses to reach the provider.
type Gateway struct {
	provider Provider
	policy   RetryPolicy
	logger   *logger_i.Logger
}

func NewGateway(provider Provider, policy RetryPolicy) *Gateway {
	return &Gateway{
		provider: provider,
		policy:   policy,
		logger:   logger_i.NewLogger("GenerationGateway"),
	}
}

func (g *Gateway) Complete(ctx context.Context, prompt string) (string, error) {
	backoff := retry.WithMaxRetries(
		g.policy.MaxAttempts-1,
		retry.WithCappedDuration(g.policy.MaxWait, retry.NewExponential(g.policy.MinWait)),
	)

	var out string
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		res, err := g.provider.Complete(ctx, prompt)
		if err != nil {
			g.logger.Warn("Generation call failed, will retry", "error", err)
			return retry.RetryableError(err)
		}
		out = res
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("generation failed after %d attempts: %w", g.policy.MaxAttempts, err)
	}
	return out, nil
}
