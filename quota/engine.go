// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/boardvec/core"
	"github.com/poiesic/boardvec/storage"
)

// CheckResult is the outcome of a read-only quota check.
type CheckResult struct {
	CanProcess     bool
	ProcessedSoFar int
	Remaining      int
	// CappedCount is how many items may actually be processed. Equal
	// to the requested count when the full request fits, less when the
	// partial-allow policy down-scopes it.
	CappedCount int
	Message     string
}

// Warning is the advisory result shown before syncing a large
// collection. It never blocks processing.
type Warning struct {
	ShowWarning      bool
	Used             int
	Limit            int
	Remaining        int
	WouldExceedLimit bool
	Message          string
}

// OverageEstimate prices the portion of a request beyond the monthly
// ceiling. Advisory only; enforcement still caps at the ceiling.
type OverageEstimate struct {
	OverageItems int
	Blocks       int
	PriceCents   int
}

// largeCollectionThreshold is the item count above which the
// pre-flight warning shows even when the quota would not be exceeded.
const largeCollectionThreshold = 100

// Engine decides how many items may be processed for an identity and
// records consumption afterward. Checking is side-effect-free;
// recording happens exactly once per sync with the count actually
// ingested.
type Engine struct {
	usage  storage.UsageRepository
	limits Limits
	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLimits overrides the default tier ceilings.
func WithLimits(limits Limits) Option {
	return func(e *Engine) error {
		if limits.FreeLifetime < 0 || limits.FreeChannel < 0 {
			return fmt.Errorf("limits must be non-negative")
		}
		e.limits = limits
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithClock overrides the time source. Tests use this to pin the
// calendar month.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) error {
		if now == nil {
			now = time.Now
		}
		e.now = now
		return nil
	}
}

// NewEngine creates a quota engine over the given usage repository.
func NewEngine(usage storage.UsageRepository, opts ...Option) (*Engine, error) {
	if usage == nil {
		return nil, ErrUsageRepositoryRequired
	}

	e := &Engine{
		usage:  usage,
		limits: DefaultLimits(),
		logger: slog.Default().With("component", "quota"),
		now:    time.Now,
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// CheckUsageLimit decides whether requestedCount items may be
// processed for this identity against collectionID. Read-only and safe
// to call repeatedly; nothing is consumed until RecordUsage.
//
// A request that exceeds the remaining budget but where some budget
// remains is allowed with CappedCount set to the remainder. A request
// against an exhausted budget is rejected with a message that names
// the numbers involved.
func (e *Engine) CheckUsageLimit(ctx context.Context, identity core.Identity, tier core.Tier, collectionID core.ID, requestedCount int) (*CheckResult, error) {
	if err := core.ValidateIdentity(identity); err != nil {
		return nil, err
	}
	if requestedCount <= 0 {
		return nil, ErrInvalidCount
	}

	if tier.IsPaid() {
		return e.checkMonthly(ctx, identity, tier, requestedCount)
	}
	return e.checkFree(ctx, identity, collectionID, requestedCount)
}

// checkFree enforces both free-tier dimensions: the lifetime cap
// across all collections and the legacy per-collection cap. The
// effective remainder is the smaller of the two.
func (e *Engine) checkFree(ctx context.Context, identity core.Identity, collectionID core.ID, requestedCount int) (*CheckResult, error) {
	key := identity.Key()

	lifetimeUsed, err := e.usage.TotalUsage(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read lifetime usage: %w", err)
	}

	channelUsed := 0
	record, err := e.usage.GetUsage(ctx, key, collectionID)
	switch {
	case err == nil:
		channelUsed = record.ItemsProcessed
	case errors.Is(err, storage.ErrNotFound):
		// First sync of this collection.
	default:
		return nil, fmt.Errorf("failed to read channel usage: %w", err)
	}

	lifetimeRemaining := max(0, e.limits.FreeLifetime-lifetimeUsed)
	channelRemaining := max(0, e.limits.FreeChannel-channelUsed)
	remaining := min(lifetimeRemaining, channelRemaining)

	res := &CheckResult{
		ProcessedSoFar: lifetimeUsed,
		Remaining:      remaining,
	}

	if remaining == 0 {
		if lifetimeRemaining == 0 {
			res.Message = fmt.Sprintf(
				"free plan limit reached: %d of %d lifetime items used; upgrade to process more",
				lifetimeUsed, e.limits.FreeLifetime)
		} else {
			res.Message = fmt.Sprintf(
				"collection limit reached: %d of %d free items used for this collection",
				channelUsed, e.limits.FreeChannel)
		}
		return res, nil
	}

	res.CanProcess = true
	if requestedCount > remaining {
		res.CappedCount = remaining
		res.Message = fmt.Sprintf(
			"%d items requested but only %d remain on the free plan; processing the first %d",
			requestedCount, remaining, remaining)
	} else {
		res.CappedCount = requestedCount
	}
	return res, nil
}

// checkMonthly enforces a paid tier's calendar-month ceiling with the
// same partial-allow policy as the free tier.
func (e *Engine) checkMonthly(ctx context.Context, identity core.Identity, tier core.Tier, requestedCount int) (*CheckResult, error) {
	key := identity.Key()
	month := core.MonthKey(e.now())
	limit := e.limits.MonthlyLimit(tier)

	used := 0
	record, err := e.usage.GetMonthlyUsage(ctx, key, month)
	switch {
	case err == nil:
		used = record.ItemsProcessed
	case errors.Is(err, storage.ErrNotFound):
		// First sync this month; the counter resets by starting fresh.
	default:
		return nil, fmt.Errorf("failed to read monthly usage: %w", err)
	}

	remaining := max(0, limit-used)
	res := &CheckResult{
		ProcessedSoFar: used,
		Remaining:      remaining,
	}

	if remaining == 0 {
		res.Message = fmt.Sprintf(
			"monthly limit reached: %d of %d items used on the %s plan this month",
			used, limit, tier)
		return res, nil
	}

	res.CanProcess = true
	if requestedCount > remaining {
		res.CappedCount = remaining
		res.Message = fmt.Sprintf(
			"%d items requested but only %d remain this month on the %s plan; processing the first %d",
			requestedCount, remaining, tier, remaining)
	} else {
		res.CappedCount = requestedCount
	}
	return res, nil
}

// RecordUsage consumes quota for items actually ingested. Called
// exactly once per sync, after storing completes, with the processed
// count rather than the requested count.
func (e *Engine) RecordUsage(ctx context.Context, identity core.Identity, tier core.Tier, collectionID core.ID, count int) error {
	if err := core.ValidateIdentity(identity); err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	if count < 0 {
		return ErrInvalidCount
	}

	key := identity.Key()
	if _, err := e.usage.AddUsage(ctx, key, collectionID, count, !tier.IsPaid()); err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}

	if tier.IsPaid() {
		month := core.MonthKey(e.now())
		limit := e.limits.MonthlyLimit(tier)
		if _, err := e.usage.AddMonthlyUsage(ctx, key, month, count, tier, limit); err != nil {
			return fmt.Errorf("failed to record monthly usage: %w", err)
		}
	}

	e.logger.Info("usage recorded", "identity", key, "collection", collectionID, "count", count, "tier", tier.String())
	return nil
}

// CheckChatLimit gates free-tier chat messages for one collection in
// the current month. Paid tiers always pass.
func (e *Engine) CheckChatLimit(ctx context.Context, identity core.Identity, tier core.Tier, collectionID core.ID) (bool, error) {
	used, err := e.channelCounters(ctx, identity, tier, collectionID)
	if err != nil {
		return false, err
	}
	if tier.IsPaid() {
		return true, nil
	}
	return used.chat < e.limits.FreeChatPerMonth, nil
}

// CheckGenerationLimit gates free-tier generations for one collection
// in the current month. Paid tiers always pass.
func (e *Engine) CheckGenerationLimit(ctx context.Context, identity core.Identity, tier core.Tier, collectionID core.ID) (bool, error) {
	used, err := e.channelCounters(ctx, identity, tier, collectionID)
	if err != nil {
		return false, err
	}
	if tier.IsPaid() {
		return true, nil
	}
	return used.generation < e.limits.FreeGenerationPerMonth, nil
}

type counters struct {
	chat       int
	generation int
}

// channelCounters returns this month's per-collection usage. Paid
// tiers skip the lookup since nothing gates on their counters.
func (e *Engine) channelCounters(ctx context.Context, identity core.Identity, tier core.Tier, collectionID core.ID) (counters, error) {
	if tier.IsPaid() {
		return counters{}, nil
	}

	month := core.MonthKey(e.now())
	record, err := e.usage.GetChannelLimits(ctx, identity.Key(), collectionID, month)
	switch {
	case err == nil:
		return counters{chat: record.ChatUsed, generation: record.GenerationUsed}, nil
	case errors.Is(err, storage.ErrNotFound):
		return counters{}, nil
	default:
		return counters{}, fmt.Errorf("failed to read channel limits: %w", err)
	}
}

// RecordChatMessage increments the free-tier chat counter. No-op for
// paid tiers.
func (e *Engine) RecordChatMessage(ctx context.Context, identity core.Identity, tier core.Tier, collectionID core.ID) error {
	if tier.IsPaid() {
		return nil
	}
	month := core.MonthKey(e.now())
	_, err := e.usage.AddChannelUsage(ctx, identity.Key(), collectionID, month,
		1, 0, e.limits.FreeChatPerMonth, e.limits.FreeGenerationPerMonth)
	return err
}

// RecordGeneration increments the free-tier generation counter. No-op
// for paid tiers.
func (e *Engine) RecordGeneration(ctx context.Context, identity core.Identity, tier core.Tier, collectionID core.ID) error {
	if tier.IsPaid() {
		return nil
	}
	month := core.MonthKey(e.now())
	_, err := e.usage.AddChannelUsage(ctx, identity.Key(), collectionID, month,
		0, 1, e.limits.FreeChatPerMonth, e.limits.FreeGenerationPerMonth)
	return err
}

// CheckLargeCollectionWarning builds the advisory shown before syncing
// a big collection. It never blocks anything; authoritative
// enforcement happens in CheckUsageLimit.
func (e *Engine) CheckLargeCollectionWarning(ctx context.Context, identity core.Identity, tier core.Tier, itemCount int) (*Warning, error) {
	if err := core.ValidateIdentity(identity); err != nil {
		return nil, err
	}

	key := identity.Key()
	var used, limit int
	if tier.IsPaid() {
		limit = e.limits.MonthlyLimit(tier)
		record, err := e.usage.GetMonthlyUsage(ctx, key, core.MonthKey(e.now()))
		if err == nil {
			used = record.ItemsProcessed
		} else if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("failed to read monthly usage: %w", err)
		}
	} else {
		limit = e.limits.FreeLifetime
		total, err := e.usage.TotalUsage(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to read lifetime usage: %w", err)
		}
		used = total
	}

	remaining := max(0, limit-used)
	w := &Warning{
		Used:             used,
		Limit:            limit,
		Remaining:        remaining,
		WouldExceedLimit: itemCount > remaining,
	}
	w.ShowWarning = w.WouldExceedLimit || itemCount >= largeCollectionThreshold

	switch {
	case w.WouldExceedLimit && tier.IsPaid():
		est := e.EstimateOverage(itemCount, remaining)
		w.Message = fmt.Sprintf(
			"this collection has %d items but only %d remain this month; going over would cost about $%.2f, or processing stops at the limit",
			itemCount, remaining, float64(est.PriceCents)/100)
	case w.WouldExceedLimit:
		w.Message = fmt.Sprintf(
			"this collection has %d items but only %d remain on your plan; only the first %d will be processed",
			itemCount, remaining, remaining)
	case w.ShowWarning:
		w.Message = fmt.Sprintf("this collection has %d items and may take a while to process", itemCount)
	}

	return w, nil
}

// EstimateOverage prices the portion of a request beyond the remaining
// monthly budget in fixed-size blocks. Zero estimate when the request
// fits.
func (e *Engine) EstimateOverage(requestedCount, remaining int) OverageEstimate {
	if requestedCount <= remaining || e.limits.OverageBlockSize <= 0 {
		return OverageEstimate{}
	}
	over := requestedCount - remaining
	blocks := (over + e.limits.OverageBlockSize - 1) / e.limits.OverageBlockSize
	return OverageEstimate{
		OverageItems: over,
		Blocks:       blocks,
		PriceCents:   blocks * e.limits.OverageBlockPriceCents,
	}
}

// AggregateSessionUsage sums usage across anonymous sessions that
// share a timestamp prefix with the given session. Client-generated
// session IDs embed a millisecond timestamp, so sessions created close
// together by the same visitor cluster under one prefix. Dashboard
// aggregation only; enforcement always uses the exact identity key.
func (e *Engine) AggregateSessionUsage(ctx context.Context, sessionID string) (int, error) {
	prefix := sessionTimestampPrefix(sessionID)
	if prefix == "" {
		return 0, nil
	}

	records, err := e.usage.ListUsageByPrefix(ctx, "anon:"+prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list session usage: %w", err)
	}

	total := 0
	for _, r := range records {
		total += r.ItemsProcessed
	}
	return total, nil
}

// sessionTimestampPrefix returns the leading digits of a session ID,
// truncated so sessions minted within the same ~quarter hour share it.
func sessionTimestampPrefix(sessionID string) string {
	digits := sessionID
	if i := strings.IndexFunc(sessionID, func(r rune) bool { return r < '0' || r > '9' }); i >= 0 {
		digits = sessionID[:i]
	}
	if len(digits) > 7 {
		digits = digits[:7]
	}
	return digits
}
