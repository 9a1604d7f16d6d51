package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/smarttrack/internal/flow"
	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/shopspring/decimal"
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
		ID:                   "txn-1",
		UserID:               userID,
		Amount:               txn.Amount,
		MerchantName:         txn.MerchantName,
		Category:             txn.Category,
		PaymentMode:          txn.PaymentMode,
		IsRegisteredMerchant: txn.IsRegisteredMerchant,
		CreatedAt:            time.Now(),
	}, nil
}

func newCoordinator(recorder flow.Recorder) *flow.Coordinator {
	return flow.NewCoordinator(recorder, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func samplePending() model.PendingCategorization {
	return model.PendingCategorization{
		ID:                   "pending-1",
		Amount:               decimal.NewFromInt(250),
		MerchantName:         "Swiggy",
		PaymentMode:          model.PaymentModeQR,
		IsRegisteredMerchant: true,
	}
}

func TestResolveChoice(t *testing.T) {
	tests := []struct {
		wantErr   error
		name      string
		input     string
		suggested model.Category
		want      model.Category
	}{
		{name: "first number", input: "1", want: model.CategoryFood},
		{name: "last number", input: "5", want: model.CategoryOther},
		{name: "number out of range", input: "6", wantErr: ErrUnrecognizedChoice},
		{name: "zero", input: "0", wantErr: ErrUnrecognizedChoice},
		{name: "category id", input: "medical", want: model.CategoryMedical},
		{name: "label with padding", input: "  Daily Needs ", want: model.CategoryDaily},
		{name: "typo in id", input: "shoping", want: model.CategoryShopping},
		{name: "typo in short id", input: "fod", want: model.CategoryFood},
		{name: "known but not offered", input: "transport", wantErr: flow.ErrInvalidChoice},
		{name: "empty accepts suggestion", input: "", suggested: model.CategoryMedical, want: model.CategoryMedical},
		{name: "empty without suggestion", input: "", wantErr: errNoSuggestion},
		{name: "empty with unoffered suggestion", input: "", suggested: model.CategoryTransport, wantErr: errNoSuggestion},
		{name: "skip", input: "s", wantErr: ErrSkipped},
		{name: "skip word", input: "SKIP", wantErr: ErrSkipped},
		{name: "gibberish", input: "xyzzy", wantErr: ErrUnrecognizedChoice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveChoice(tt.input, tt.suggested)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrompter_ChooseCategory(t *testing.T) {
	tests := []struct {
		wantErr      error
		name         string
		input        string
		suggested    model.Category
		want         model.Category
		wantOutput   []string
		errorMessage string
	}{
		{
			name:       "number",
			input:      "3\n",
			want:       model.CategoryMedical,
			wantOutput: []string{"Quick question", "Swiggy", "₹250", "[1]", "[5]", "[s] Skip"},
		},
		{
			name:       "suggestion accepted with enter",
			input:      "\n",
			suggested:  model.CategoryFood,
			want:       model.CategoryFood,
			wantOutput: []string{"(enter to accept)"},
		},
		{
			name:       "unoffered category then valid",
			input:      "transport\n2\n",
			want:       model.CategoryDaily,
			wantOutput: []string{"Transport isn't offered here"},
		},
		{
			name:       "invalid then valid",
			input:      "9\nother\n",
			want:       model.CategoryOther,
			wantOutput: []string{"Invalid choice"},
		},
		{
			name:       "empty without suggestion asks again",
			input:      "\nfood\n",
			want:       model.CategoryFood,
			wantOutput: []string{"Type a number or a category name"},
		},
		{
			name:    "skip",
			input:   "s\n",
			wantErr: ErrSkipped,
		},
		{
			name:         "input ends",
			input:        "",
			errorMessage: "input terminated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var output bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &output)

			got, err := p.ChooseCategory(context.Background(), samplePending(), tt.suggested)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.errorMessage != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMessage)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}

			for _, want := range tt.wantOutput {
				assert.Contains(t, output.String(), want)
			}
		})
	}
}

func TestPrompter_ChooseCategory_ContextCanceled(t *testing.T) {
	pr, pw := io.Pipe()
	defer func() { _ = pw.Close() }()

	p := NewPrompter(pr, io.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ChooseCategory(ctx, samplePending(), "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrompter_Categorize(t *testing.T) {
	t.Run("saves the chosen category", func(t *testing.T) {
		recorder := &fakeRecorder{}
		coordinator := newCoordinator(recorder)
		var output bytes.Buffer
		p := NewPrompter(strings.NewReader("1\n"), &output)

		txn, err := p.Categorize(context.Background(), coordinator, "user-1", samplePending(), "")
		require.NoError(t, err)
		require.NotNil(t, txn)
		assert.Equal(t, model.CategoryFood, txn.Category)

		require.Len(t, recorder.saved, 1)
		assert.Equal(t, "Swiggy", recorder.saved[0].MerchantName)
		assert.Contains(t, output.String(), "Got it! Saved ₹250 at Swiggy")

		stats := p.Stats()
		assert.Equal(t, 1, stats.Saved)
		assert.True(t, decimal.NewFromInt(250).Equal(stats.Total))
		assert.Equal(t, 1, stats.Categories[model.CategoryFood])

		assert.Equal(t, flow.StateIdle, coordinator.Snapshot("user-1").State)
	})

	t.Run("skip leaves the session idle", func(t *testing.T) {
		recorder := &fakeRecorder{}
		coordinator := newCoordinator(recorder)
		var output bytes.Buffer
		p := NewPrompter(strings.NewReader("s\n2\n"), &output)

		_, err := p.Categorize(context.Background(), coordinator, "user-1", samplePending(), "")
		require.ErrorIs(t, err, ErrSkipped)
		assert.Equal(t, flow.StateIdle, coordinator.Snapshot("user-1").State)
		assert.Contains(t, output.String(), "Skipped ₹250 at Swiggy")

		txn, err := p.Categorize(context.Background(), coordinator, "user-1", samplePending(), "")
		require.NoError(t, err)
		require.NotNil(t, txn)
		assert.Equal(t, model.CategoryDaily, txn.Category)

		stats := p.Stats()
		assert.Equal(t, 1, stats.Skipped)
		assert.Equal(t, 1, stats.Saved)
	})

	t.Run("failed save is reported", func(t *testing.T) {
		recorder := &fakeRecorder{err: errors.New("database is down")}
		coordinator := newCoordinator(recorder)
		var output bytes.Buffer
		p := NewPrompter(strings.NewReader("4\n"), &output)

		txn, err := p.Categorize(context.Background(), coordinator, "user-1", samplePending(), "")
		require.NoError(t, err)
		assert.Nil(t, txn)
		assert.Contains(t, output.String(), flow.SaveFailedMessage)
		assert.Equal(t, 1, p.Stats().Failed)
		assert.Equal(t, flow.StateIdle, coordinator.Snapshot("user-1").State)
	})
}

func TestPrompter_ShowCompletion(t *testing.T) {
	coordinator := newCoordinator(&fakeRecorder{})
	var output bytes.Buffer
	p := NewPrompter(strings.NewReader("1\n1\ns\n"), &output)
	p.SetTotalTransactions(3)

	for i := 0; i < 3; i++ {
		_, _ = p.Categorize(context.Background(), coordinator, "user-1", samplePending(), "")
		p.Advance()
	}
	p.ShowCompletion()

	out := output.String()
	assert.Contains(t, out, "Categorization complete")
	assert.Contains(t, out, "Saved: 2 (₹500)")
	assert.Contains(t, out, "Skipped: 1")
	assert.NotContains(t, out, "Failed:")
	assert.Contains(t, out, "Food: 2")
}

func TestPrompter_ShowMessage(t *testing.T) {
	var output bytes.Buffer
	p := NewPrompter(strings.NewReader(""), &output)

	p.ShowMessage(model.NewChatMessage(model.RoleAssistant, "You spent **₹180** today", time.Now()))
	p.ShowMessage(model.NewChatMessage(model.RoleUser, "what did I spend today?", time.Now()))

	out := output.String()
	assert.Contains(t, out, ChatIcon+" You spent ")
	assert.Contains(t, out, "₹180")
	assert.NotContains(t, out, "**")
	assert.Contains(t, out, "what did I spend today?")
}
