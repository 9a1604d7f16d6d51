package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
)

// InterruptHandler cancels a prompt loop on SIGINT or SIGTERM and says
// goodbye once.
type InterruptHandler struct {
	writer       io.Writer
	interrupted  atomic.Bool
	goodbye      sync.Once
	showProgress bool
}

// NewInterruptHandler creates a handler writing its goodbye to w.
func NewInterruptHandler(w io.Writer) *InterruptHandler {
	if w == nil {
		w = os.Stdout
	}
	return &InterruptHandler{writer: w}
}

// HandleInterrupts returns a context canceled on interrupt. When showProgress
// is set the goodbye notes that already saved payments are kept.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context, showProgress bool) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	h.showProgress = showProgress

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		defer cancel()

		select {
		case <-signals:
		case <-ctx.Done():
			// The root command cancels on the same signal; check which won.
			select {
			case <-signals:
			default:
				return
			}
		}
		h.interrupted.Store(true)
		h.goodbye.Do(h.sayGoodbye)
	}()

	return ctx
}

func (h *InterruptHandler) sayGoodbye() {
	msg := "\n\n" + FormatWarning("Categorization interrupted!")
	if h.showProgress {
		msg += "\n" + FormatInfo("Payments saved so far are in your ledger.")
	}
	msg += "\n" + FormatInfo("See you later! "+WalletIcon) + "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

// WasInterrupted reports whether a signal ended the loop.
func (h *InterruptHandler) WasInterrupted() bool {
	return h.interrupted.Load()
}
