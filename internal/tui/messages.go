package tui

import (
	"github.com/Veraticus/smarttrack/internal/flow"
	"github.com/Veraticus/smarttrack/internal/model"
)

// Results of flow operations run as commands.
type simulatedMsg struct {
	err     error
	session flow.Session
}

type savedMsg struct {
	err         error
	transaction *model.Transaction
	session     flow.Session
}

type answeredMsg struct {
	reply   string
	session flow.Session
}
