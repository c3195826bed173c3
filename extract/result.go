package extract

import (
	"context"
	"log/slog"

	"github.com/poiesic/boardvec/core"
)

// Result is the outcome of one strategy attempt.
type Result struct {
	Content string
	Err     error
}

// Ok wraps successfully extracted content.
func Ok(content string) Result {
	return Result{Content: content}
}

// Fail wraps a strategy failure.
func Fail(err error) Result {
	return Result{Err: err}
}

// IsOk reports whether the attempt produced content.
func (r Result) IsOk() bool {
	return r.Err == nil
}

// Strategy is one named attempt at producing text for an item.
// Fallback chains are ordered slices of strategies, so the chain and
// its ordering are inspectable data rather than nested control flow.
type Strategy struct {
	Name string
	Run  func(ctx context.Context, item *core.Item) Result
}

// runChain tries strategies in order and returns the first success.
// Each failure is logged at debug level with the strategy name.
func runChain(ctx context.Context, item *core.Item, logger *slog.Logger, chain []Strategy) (string, error) {
	var lastErr error
	for _, s := range chain {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		res := s.Run(ctx, item)
		if res.IsOk() {
			return res.Content, nil
		}
		lastErr = res.Err
		logger.Debug("extraction strategy failed",
			"strategy", s.Name, "block", item.ExternalID, "err", res.Err)
	}
	if lastErr == nil {
		lastErr = ErrExtractionFailed
	}
	return "", lastErr
}
