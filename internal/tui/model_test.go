package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/smarttrack/internal/flow"
	"github.com/Veraticus/smarttrack/internal/model"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	err   error
	saved []model.NewTransaction
	mu    sync.Mutex
}

func (f *fakeRecorder) Record(_ context.Context, userID string, txn model.NewTransaction) (model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.Transaction{}, f.err
	}
	f.saved = append(f.saved, txn)
	return model.Transaction{
		ID:           "txn-1",
		UserID:       userID,
		Amount:       txn.Amount,
		MerchantName: txn.MerchantName,
		Category:     txn.Category,
		PaymentMode:  txn.PaymentMode,
		CreatedAt:    time.Now(),
	}, nil
}

type fakeAnswerer struct {
	reply    string
	err      error
	received []string
}

func (f *fakeAnswerer) Respond(_ context.Context, _, text string) (string, error) {
	f.received = append(f.received, text)
	return f.reply, f.err
}

type harness struct {
	recorder *fakeRecorder
	answerer *fakeAnswerer
	model    Model
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	recorder := &fakeRecorder{}
	answerer := &fakeAnswerer{reply: "You spent **₹530** on food"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	coordinator := flow.NewCoordinator(recorder, flow.NewSimulator(nil, 7), logger)

	m := NewModel(coordinator, answerer,
		WithUserID("user-1"),
		WithSize(100, 40),
		WithLogger(logger))

	return &harness{recorder: recorder, answerer: answerer, model: m}
}

// send feeds msg to the model and returns the command it produced.
func (h *harness) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := h.model.Update(msg)
	m, ok := next.(Model)
	require.True(t, ok)
	h.model = m
	return cmd
}

// press sends a key and runs the resulting flow command to completion.
func (h *harness) press(t *testing.T, msg tea.KeyMsg) {
	t.Helper()
	cmd := h.send(t, msg)
	require.NotNil(t, cmd, "expected a command for %q", msg.String())
	h.send(t, cmd())
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_Greeting(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, flow.StateIdle, h.model.Session().State)
	require.Len(t, h.model.Session().Messages, 1)
	assert.Contains(t, h.model.View(), "financial assistant")
}

func TestModel_SimulateAndChoose(t *testing.T) {
	h := newHarness(t)

	h.press(t, tea.KeyMsg{Type: tea.KeyCtrlP})
	session := h.model.Session()
	require.Equal(t, flow.StateAwaitingCategory, session.State)
	require.NotNil(t, session.Pending)

	view := h.model.View()
	assert.Contains(t, view, "Quick question")
	assert.Contains(t, view, "[1]")
	assert.Contains(t, view, "[5]")

	h.press(t, runes("2"))
	session = h.model.Session()
	assert.Equal(t, flow.StateIdle, session.State)
	assert.Nil(t, session.Pending)

	require.Len(t, h.recorder.saved, 1)
	assert.Equal(t, model.CategoryDaily, h.recorder.saved[0].Category)
	assert.Contains(t, h.model.View(), "Got it! Saved")
	assert.Empty(t, h.model.notice)
}

func TestModel_SimulateWhilePending(t *testing.T) {
	h := newHarness(t)
	h.press(t, tea.KeyMsg{Type: tea.KeyCtrlP})

	cmd := h.send(t, tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.Nil(t, cmd)
	assert.Equal(t, noticePending, h.model.notice)
	assert.Contains(t, h.model.View(), noticePending)
}

func TestModel_DigitsTypeWhenIdle(t *testing.T) {
	h := newHarness(t)

	h.send(t, runes("1"))
	assert.Equal(t, "1", h.model.input.Value())
	assert.Empty(t, h.recorder.saved)
}

func TestModel_DigitsTypeAfterText(t *testing.T) {
	h := newHarness(t)
	h.press(t, tea.KeyMsg{Type: tea.KeyCtrlP})

	h.send(t, runes("top "))
	h.send(t, runes("3"))
	assert.Equal(t, "top 3", h.model.input.Value())
	assert.Equal(t, flow.StateAwaitingCategory, h.model.Session().State)
}

func TestModel_AskQuestion(t *testing.T) {
	h := newHarness(t)

	h.send(t, runes("how much on food?"))
	cmd := h.send(t, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	assert.True(t, h.model.busy)
	assert.Empty(t, h.model.input.Value())
	assert.Contains(t, h.model.View(), "how much on food?")

	h.send(t, cmd())
	assert.False(t, h.model.busy)
	assert.Empty(t, h.model.echo)
	assert.Equal(t, []string{"how much on food?"}, h.answerer.received)

	messages := h.model.Session().Messages
	require.Len(t, messages, 3)
	assert.Equal(t, model.RoleUser, messages[1].Role)
	assert.Equal(t, model.RoleAssistant, messages[2].Role)
	assert.Contains(t, h.model.View(), "₹530")
	assert.NotContains(t, h.model.View(), "**")
}

func TestModel_AskFailureShowsApology(t *testing.T) {
	h := newHarness(t)
	h.answerer.err = errors.New("gateway down")

	h.send(t, runes("hello"))
	h.press(t, tea.KeyMsg{Type: tea.KeyEnter})

	messages := h.model.Session().Messages
	assert.Equal(t, flow.ChatFailedMessage, messages[len(messages)-1].Content)
}

func TestModel_EmptyEnterIgnored(t *testing.T) {
	h := newHarness(t)

	h.send(t, runes("   "))
	cmd := h.send(t, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, h.answerer.received)
}

func TestModel_EnterCategoryNameWhilePending(t *testing.T) {
	h := newHarness(t)
	h.press(t, tea.KeyMsg{Type: tea.KeyCtrlP})

	h.send(t, runes("medcal"))
	h.press(t, tea.KeyMsg{Type: tea.KeyEnter})

	require.Len(t, h.recorder.saved, 1)
	assert.Equal(t, model.CategoryMedical, h.recorder.saved[0].Category)
	assert.Empty(t, h.answerer.received)
}

func TestModel_SaveFailure(t *testing.T) {
	h := newHarness(t)
	h.recorder.err = errors.New("disk full")

	h.press(t, tea.KeyMsg{Type: tea.KeyCtrlP})
	h.press(t, runes("5"))

	assert.Equal(t, flow.StateIdle, h.model.Session().State)
	assert.Equal(t, flow.SaveFailedMessage, h.model.notice)
	assert.True(t, h.model.errored)
}

func TestModel_BusyBlocksSecondRequest(t *testing.T) {
	h := newHarness(t)

	cmd := h.send(t, tea.KeyMsg{Type: tea.KeyCtrlP})
	require.NotNil(t, cmd)

	again := h.send(t, tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.Nil(t, again)
	assert.Equal(t, noticeBusy, h.model.notice)

	h.send(t, cmd())
	assert.Equal(t, flow.StateAwaitingCategory, h.model.Session().State)
}

func TestModel_Quit(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
	}{
		{name: "escape", msg: tea.KeyMsg{Type: tea.KeyEsc}},
		{name: "ctrl+c", msg: tea.KeyMsg{Type: tea.KeyCtrlC}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			cmd := h.send(t, tt.msg)
			require.NotNil(t, cmd)
			assert.Equal(t, tea.QuitMsg{}, cmd())
			assert.Empty(t, h.model.View())
		})
	}
}

func TestModel_WindowResize(t *testing.T) {
	h := newHarness(t)

	h.send(t, tea.WindowSizeMsg{Width: 60, Height: 20})
	assert.Equal(t, 60, h.model.viewport.Width)
	assert.Equal(t, 20-headerHeight-footerHeight, h.model.viewport.Height)
}

func TestChoiceForKey(t *testing.T) {
	tests := []struct {
		key  string
		want model.Category
		ok   bool
	}{
		{key: "1", want: model.CategoryFood, ok: true},
		{key: "4", want: model.CategoryShopping, ok: true},
		{key: "5", want: model.CategoryOther, ok: true},
		{key: "6"},
		{key: "0"},
		{key: "12"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := choiceForKey(tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
