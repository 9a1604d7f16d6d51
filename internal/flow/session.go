// Package flow implements the conversational categorization flow: a payment
// arrives, the assistant asks what it was for, the user picks a category and
// the transaction is saved.
//
// Transitions are pure functions over a Session value. Coordinator owns one
// session per user and performs the save between Choose and Resolve.
package flow

import (
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/smarttrack/internal/format"
	"github.com/Veraticus/smarttrack/internal/model"
)

// State is the position of a session in the categorization flow.
type State int

const (
	// StateIdle has no pending payment.
	StateIdle State = iota
	// StateAwaitingCategory has a pending payment and an open prompt.
	StateAwaitingCategory
	// StateSaving has a chosen category and a save in flight.
	StateSaving
	// StateResolved is the instant after a save completes. Resolve passes
	// through it on the way back to StateIdle.
	StateResolved
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingCategory:
		return "awaiting_category"
	case StateSaving:
		return "saving"
	case StateResolved:
		return "resolved"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name.
func (s *State) UnmarshalText(text []byte) error {
	for _, candidate := range []State{StateIdle, StateAwaitingCategory, StateSaving, StateResolved} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown flow state %q", string(text))
}

// Assistant message texts.
const (
	GreetingMessage    = "Hey! 👋 I'm your financial assistant. Ask me anything about your spending - like 'What did I spend today?' or 'Show me my food expenses'"
	SaveFailedMessage  = "Failed to save the transaction. Please try again."
	ChatFailedMessage  = "Sorry, I couldn't process your request. Please try again."
	EmptyReplyFallback = "I couldn't process your request."
)

var (
	// ErrPaymentPending is returned when a payment arrives while another one
	// is still waiting for a category.
	ErrPaymentPending = errors.New("a payment is already waiting for a category")
	// ErrNoPendingPayment is returned when a category is chosen with nothing pending.
	ErrNoPendingPayment = errors.New("no payment is waiting for a category")
	// ErrSaveInFlight is returned when a category is chosen while a save is running.
	ErrSaveInFlight = errors.New("the payment is already being saved")
	// ErrInvalidChoice is returned for categories not offered by the prompt.
	ErrInvalidChoice = errors.New("category is not one of the offered choices")
)

// Session is one user's conversation and categorization state.
type Session struct {
	Pending  *model.PendingCategorization `json:"pending,omitempty"`
	Choice   model.Category               `json:"choice,omitempty"`
	Messages []model.ChatMessage          `json:"messages"`
	State    State                        `json:"state"`
}

// NewSession starts a conversation with the assistant greeting.
func NewSession(now time.Time) Session {
	return Session{
		State:    StateIdle,
		Messages: []model.ChatMessage{model.NewChatMessage(model.RoleAssistant, GreetingMessage, now)},
	}
}

// Clone returns a copy that shares no mutable state with s.
func (s Session) Clone() Session {
	out := s
	out.Messages = append([]model.ChatMessage(nil), s.Messages...)
	if s.Pending != nil {
		pending := *s.Pending
		out.Pending = &pending
	}
	return out
}

// PromptText is the question asked about a pending payment.
func PromptText(p model.PendingCategorization) string {
	return fmt.Sprintf("Quick question - what was this %s payment at **%s** for?",
		format.Currency(p.Amount), p.MerchantName)
}

// SavedText confirms a saved payment.
func SavedText(p model.PendingCategorization, c model.Category) string {
	return fmt.Sprintf("Got it! Saved %s at %s under %s 👍",
		format.Currency(p.Amount), p.MerchantName, c.Display())
}

// Simulate opens a categorization prompt for pending.
func Simulate(s Session, pending model.PendingCategorization, now time.Time) (Session, error) {
	if s.State != StateIdle {
		return s, ErrPaymentPending
	}

	next := s.Clone()
	next.State = StateAwaitingCategory
	next.Pending = &pending
	next.Choice = ""

	prompt := model.NewChatMessage(model.RoleAssistant, PromptText(pending), now)
	prompt.CategoryPrompt = true
	prompt.PendingID = pending.ID
	next.Messages = append(next.Messages, prompt)

	return next, nil
}

// Choose records the user's category and moves to StateSaving. The returned
// insert fields are what the caller must persist before calling Resolve.
func Choose(s Session, c model.Category) (Session, model.NewTransaction, error) {
	switch s.State {
	case StateAwaitingCategory:
	case StateSaving:
		return s, model.NewTransaction{}, ErrSaveInFlight
	default:
		return s, model.NewTransaction{}, ErrNoPendingPayment
	}

	if !offered(c) {
		return s, model.NewTransaction{}, fmt.Errorf("%w: %q", ErrInvalidChoice, string(c))
	}

	next := s.Clone()
	next.State = StateSaving
	next.Choice = c
	return next, next.Pending.Categorize(c), nil
}

// Resolve completes a save. saveErr reports the persistence outcome. The
// pending payment is cleared either way and the session returns to idle.
func Resolve(s Session, saveErr error, now time.Time) (Session, error) {
	if s.State != StateSaving || s.Pending == nil {
		return s, ErrNoPendingPayment
	}

	next := s.Clone()
	next.State = StateResolved

	text := SaveFailedMessage
	if saveErr == nil {
		text = SavedText(*next.Pending, next.Choice)
	}
	next.Messages = append(next.Messages, model.NewChatMessage(model.RoleAssistant, text, now))

	next.Pending = nil
	next.Choice = ""
	next.State = StateIdle
	return next, nil
}

// Say appends a message typed by the user.
func Say(s Session, text string, now time.Time) Session {
	next := s.Clone()
	next.Messages = append(next.Messages, model.NewChatMessage(model.RoleUser, text, now))
	return next
}

// Reply appends an assistant message.
func Reply(s Session, text string, now time.Time) Session {
	next := s.Clone()
	next.Messages = append(next.Messages, model.NewChatMessage(model.RoleAssistant, text, now))
	return next
}

func offered(c model.Category) bool {
	for _, choice := range model.PromptChoices() {
		if c == choice {
			return true
		}
	}
	return false
}
