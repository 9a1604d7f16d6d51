package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/smarttrack/internal/common"
	"github.com/Veraticus/smarttrack/internal/model"
)

// Recorder persists a categorized payment. The ledger implements it.
type Recorder interface {
	Record(ctx context.Context, userID string, txn model.NewTransaction) (model.Transaction, error)
}

// Answerer produces an assistant reply to free text.
type Answerer interface {
	Respond(ctx context.Context, userID, text string) (string, error)
}

// Coordinator owns one session per user and serializes its transitions.
type Coordinator struct {
	recorder  Recorder
	simulator *Simulator
	sessions  map[string]Session
	now       func() time.Time
	logger    *slog.Logger
	mu        sync.Mutex
}

// NewCoordinator creates a coordinator saving through recorder.
func NewCoordinator(recorder Recorder, simulator *Simulator, logger *slog.Logger) *Coordinator {
	if simulator == nil {
		simulator = NewSimulator(nil, time.Now().UnixNano())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		recorder:  recorder,
		simulator: simulator,
		sessions:  make(map[string]Session),
		now:       time.Now,
		logger:    logger.With("component", "flow"),
	}
}

// session returns the user's session, creating it on first use. Callers hold mu.
func (c *Coordinator) session(userID string) Session {
	s, ok := c.sessions[userID]
	if !ok {
		s = NewSession(c.now())
		c.sessions[userID] = s
	}
	return s
}

// Snapshot returns a copy of the user's session.
func (c *Coordinator) Snapshot(userID string) Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session(userID).Clone()
}

// Reset discards the user's session.
func (c *Coordinator) Reset(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, userID)
}

// Simulate synthesizes a payment and opens a prompt for it.
func (c *Coordinator) Simulate(userID string) (Session, error) {
	return c.Offer(userID, c.simulator.Next())
}

// Offer opens a prompt for an externally sourced payment.
func (c *Coordinator) Offer(userID string, pending model.PendingCategorization) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := Simulate(c.session(userID), pending, c.now())
	if err != nil {
		return c.session(userID).Clone(), err
	}
	c.sessions[userID] = next

	c.logger.Debug("Opened categorization prompt",
		"user_id", userID,
		"merchant", pending.MerchantName,
		"amount", pending.Amount.String())
	return next.Clone(), nil
}

// Choose saves the pending payment under category. Transition errors are
// returned as errors. A failed save is not: the session records the failure
// message, returns to idle and the returned transaction is nil.
func (c *Coordinator) Choose(ctx context.Context, userID string, category model.Category) (Session, *model.Transaction, error) {
	c.mu.Lock()
	saving, insert, err := Choose(c.session(userID), category)
	if err != nil {
		snapshot := c.session(userID).Clone()
		c.mu.Unlock()
		return snapshot, nil, err
	}
	c.sessions[userID] = saving
	c.mu.Unlock()

	saved, saveErr := c.recorder.Record(ctx, userID, insert)
	if saveErr != nil {
		c.logger.ErrorContext(ctx, "Failed to save categorized payment",
			"error", saveErr,
			"user_id", userID,
			"merchant", insert.MerchantName)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	resolved, err := Resolve(c.session(userID), saveErr, c.now())
	if err != nil {
		return c.session(userID).Clone(), nil, fmt.Errorf("resolve session: %w", err)
	}
	c.sessions[userID] = resolved

	if saveErr != nil {
		return resolved.Clone(), nil, nil
	}
	return resolved.Clone(), &saved, nil
}

// Say appends a user message.
func (c *Coordinator) Say(userID, text string) Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := Say(c.session(userID), text, c.now())
	c.sessions[userID] = next
	return next.Clone()
}

// Reply appends an assistant message.
func (c *Coordinator) Reply(userID, text string) Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := Reply(c.session(userID), text, c.now())
	c.sessions[userID] = next
	return next.Clone()
}

// Ask records the user's question, asks answerer and records the reply.
// Failures carrying a user-facing message show it; others become the generic
// apology. The reply text is returned.
func (c *Coordinator) Ask(ctx context.Context, userID, text string, answerer Answerer) (string, Session) {
	c.Say(userID, text)

	reply, err := answerer.Respond(ctx, userID, text)
	switch {
	case err != nil:
		c.logger.ErrorContext(ctx, "Failed to answer question", "error", err, "user_id", userID)
		reply = common.UserMessage(err, ChatFailedMessage)
	case strings.TrimSpace(reply) == "":
		reply = EmptyReplyFallback
	}

	return reply, c.Reply(userID, reply)
}
