package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/smarttrack/internal/model"
)

// MockWriter records reports and appended rows in memory.
type MockWriter struct {
	WriteFunc     func(ctx context.Context, report Report) error
	AppendFunc    func(ctx context.Context, txn model.Transaction) error
	Reports       []Report
	Appended      []model.Transaction
	SpreadsheetID string
	mu            sync.Mutex
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{SpreadsheetID: "mock-spreadsheet"}
}

// WriteReport implements ReportWriter.
func (m *MockWriter) WriteReport(ctx context.Context, report Report) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WriteFunc != nil {
		if err := m.WriteFunc(ctx, report); err != nil {
			return "", err
		}
	}
	m.Reports = append(m.Reports, report)
	return m.SpreadsheetID, nil
}

// AppendTransaction implements RowAppender.
func (m *MockWriter) AppendTransaction(ctx context.Context, txn model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.AppendFunc != nil {
		if err := m.AppendFunc(ctx, txn); err != nil {
			return err
		}
	}
	m.Appended = append(m.Appended, txn)
	return nil
}

// AppendedIDs returns the IDs of every appended transaction in order.
func (m *MockWriter) AppendedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.Appended))
	for _, txn := range m.Appended {
		ids = append(ids, txn.ID)
	}
	return ids
}

var (
	_ ReportWriter = (*MockWriter)(nil)
	_ RowAppender  = (*MockWriter)(nil)
)
