// Package ledger is the application service over the transaction store. It
// caches each user's list, invalidates it on write and announces new
// transactions to the configured publisher.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/smarttrack/internal/aggregate"
	"github.com/Veraticus/smarttrack/internal/cache"
	"github.com/Veraticus/smarttrack/internal/events"
	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/Veraticus/smarttrack/internal/service"
)

// Cache sizing for per-user transaction lists.
const (
	DefaultCacheSize = 256
	DefaultCacheTTL  = 5 * time.Minute
)

// Options configures a Ledger. Zero values select the defaults.
type Options struct {
	Publisher service.EventPublisher
	Location  *time.Location
	Logger    *slog.Logger
	CacheSize int
	CacheTTL  time.Duration
}

// Ledger reads and records a user's transactions.
type Ledger struct {
	store     service.TransactionStore
	publisher service.EventPublisher
	lists     *cache.LRU[[]model.Transaction]
	loc       *time.Location
	logger    *slog.Logger

	// generations counts writes per user. A list read from the store is
	// cached only if no write landed while it was being read.
	mu          sync.Mutex
	generations map[string]uint64
}

// New creates a ledger over store.
func New(store service.TransactionStore, opts Options) *Ledger {
	if opts.Publisher == nil {
		opts.Publisher = events.NopPublisher{}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}

	return &Ledger{
		store:     store,
		publisher: opts.Publisher,
		lists:     cache.NewLRU[[]model.Transaction](opts.CacheSize, opts.CacheTTL),
		loc:       opts.Location,
		logger:    opts.Logger.With("component", "ledger"),

		generations: make(map[string]uint64),
	}
}

// Location returns the time zone used for date grouping.
func (l *Ledger) Location() *time.Location {
	return l.loc
}

// Transactions returns the user's transactions, newest first. The returned
// slice is the caller's to modify.
func (l *Ledger) Transactions(ctx context.Context, userID string) ([]model.Transaction, error) {
	if cached, ok := l.lists.Get(userID); ok {
		return clone(cached), nil
	}

	l.mu.Lock()
	gen := l.generations[userID]
	l.mu.Unlock()

	txns, err := l.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	l.mu.Lock()
	if l.generations[userID] == gen {
		l.lists.Set(userID, txns)
	}
	l.mu.Unlock()
	return clone(txns), nil
}

// Record stores txn for the user. The insert is attempted exactly once. A
// failed event publish is logged and does not fail the call.
func (l *Ledger) Record(ctx context.Context, userID string, txn model.NewTransaction) (model.Transaction, error) {
	saved, err := l.store.InsertTransaction(ctx, userID, txn)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to record transaction: %w", err)
	}

	l.mu.Lock()
	l.generations[userID]++
	l.lists.Delete(userID)
	l.mu.Unlock()

	if err := l.publisher.PublishTransactionCreated(ctx, saved); err != nil {
		l.logger.WarnContext(ctx, "Failed to publish transaction event",
			"error", err,
			"id", saved.ID)
	}

	l.logger.DebugContext(ctx, "Recorded transaction",
		"id", saved.ID,
		"merchant", saved.MerchantName,
		"category", saved.Category)

	return saved, nil
}

// RecordedSources returns the source IDs of the user's imported
// transactions.
func (l *Ledger) RecordedSources(ctx context.Context, userID string) (map[string]bool, error) {
	txns, err := l.Transactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	sources := make(map[string]bool)
	for _, txn := range txns {
		if txn.SourceID != "" {
			sources[txn.SourceID] = true
		}
	}
	return sources, nil
}

// Summary returns the spending overview with at most topN categories.
func (l *Ledger) Summary(ctx context.Context, userID string, topN int) (aggregate.Summary, error) {
	txns, err := l.Transactions(ctx, userID)
	if err != nil {
		return aggregate.Summary{}, err
	}
	return aggregate.Summarize(txns, topN), nil
}

// ByDate returns the user's transactions grouped by day, newest day first.
func (l *Ledger) ByDate(ctx context.Context, userID string) ([]aggregate.DateGroup, error) {
	txns, err := l.Transactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return aggregate.DateGroups(txns, l.loc), nil
}

// CleanExpired evicts expired cache entries and reports how many were removed.
func (l *Ledger) CleanExpired() int {
	return l.lists.CleanExpired()
}

// RunCleanup evicts expired entries every interval until ctx is done.
func (l *Ledger) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.CleanExpired(); n > 0 {
				l.logger.DebugContext(ctx, "Evicted cached transaction lists", "count", n)
			}
		}
	}
}

func clone(txns []model.Transaction) []model.Transaction {
	out := make([]model.Transaction, len(txns))
	copy(out, txns)
	return out
}
