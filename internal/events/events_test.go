package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/Veraticus/smarttrack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAck struct {
	acked    int
	nacked   int
	requeued int
}

func (r *recordingAck) Ack(bool) error {
	r.acked++
	return nil
}

func (r *recordingAck) Nack(_, requeue bool) error {
	r.nacked++
	if requeue {
		r.requeued++
	}
	return nil
}

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func sampleMessage(t *testing.T) []byte {
	t.Helper()
	txn := testutil.SampleTransactions()[1]
	body, err := NewTransactionCreated(txn, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)).ToJSON()
	require.NoError(t, err)
	return body
}

func TestTransactionCreated_JSON(t *testing.T) {
	txn := testutil.SampleTransactions()[1]
	msg, err := TransactionCreatedFromJSON(sampleMessage(t))
	require.NoError(t, err)

	got := msg.Transaction()
	assert.Equal(t, txn.ID, got.ID)
	assert.Equal(t, txn.UserID, got.UserID)
	assert.True(t, txn.Amount.Equal(got.Amount))
	assert.Equal(t, model.CategoryMedical, got.Category)
	assert.Equal(t, model.PaymentModeQR, got.PaymentMode)
	assert.True(t, txn.CreatedAt.Equal(got.CreatedAt))
}

func TestTransactionCreatedFromJSON_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "{"},
		{name: "missing ids", body: `{"amount":"10","category":"food"}`},
		{name: "unknown category", body: `{"id":"1","user_id":"u","amount":"10","category":"travel"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TransactionCreatedFromJSON([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestHandleDelivery(t *testing.T) {
	ctx := context.Background()

	t.Run("acks handled messages", func(t *testing.T) {
		ack := &recordingAck{}
		var seen TransactionCreated
		handleDelivery(ctx, quietLogger, ack, sampleMessage(t), func(_ context.Context, msg TransactionCreated) error {
			seen = msg
			return nil
		})
		assert.Equal(t, 1, ack.acked)
		assert.Zero(t, ack.nacked)
		assert.Equal(t, "Apollo Pharmacy", seen.MerchantName)
	})

	t.Run("drops malformed messages", func(t *testing.T) {
		ack := &recordingAck{}
		called := false
		handleDelivery(ctx, quietLogger, ack, []byte("garbage"), func(context.Context, TransactionCreated) error {
			called = true
			return nil
		})
		assert.False(t, called)
		assert.Equal(t, 1, ack.nacked)
		assert.Zero(t, ack.requeued)
	})

	t.Run("requeues handler failures", func(t *testing.T) {
		ack := &recordingAck{}
		handleDelivery(ctx, quietLogger, ack, sampleMessage(t), func(context.Context, TransactionCreated) error {
			return errors.New("sheets unavailable")
		})
		assert.Zero(t, ack.acked)
		assert.Equal(t, 1, ack.requeued)
	})
}

func TestNopPublisher(t *testing.T) {
	var p NopPublisher
	assert.NoError(t, p.PublishTransactionCreated(context.Background(), model.Transaction{}))
}
