package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/smarttrack/internal/flow"
	"github.com/Veraticus/smarttrack/internal/format"
	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
)

var (
	// ErrSkipped is returned when the user skips a payment.
	ErrSkipped = errors.New("payment skipped")
	// ErrUnrecognizedChoice is returned for input naming no category.
	ErrUnrecognizedChoice = errors.New("unrecognized choice")
	errNoSuggestion       = errors.New("no suggestion to accept")
)

// Categorizer is the part of the flow coordinator the prompt drives.
type Categorizer interface {
	Offer(userID string, pending model.PendingCategorization) (flow.Session, error)
	Choose(ctx context.Context, userID string, category model.Category) (flow.Session, *model.Transaction, error)
	Reset(userID string)
}

// Stats counts the outcomes of a prompting session.
type Stats struct {
	Total      decimal.Decimal
	Categories map[model.Category]int
	Duration   time.Duration
	Saved      int
	Skipped    int
	Failed     int
}

// Prompter asks for payment categories on a line-mode terminal.
type Prompter struct {
	startTime   time.Time
	writer      io.Writer
	reader      *LineReader
	progressBar *progressbar.ProgressBar
	stats       Stats
	statsMutex  sync.Mutex
}

// NewPrompter creates a prompter reading from reader and writing to writer.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	return &Prompter{
		reader:    NewLineReader(reader),
		writer:    writer,
		startTime: time.Now(),
		stats:     Stats{Total: decimal.Zero, Categories: make(map[model.Category]int)},
	}
}

// ResolveChoice maps prompt input to an offered category. It accepts a choice
// number, a category id or label (with up to two typos), an empty line for
// the suggestion, or "s" to skip.
func ResolveChoice(input string, suggested model.Category) (model.Category, error) {
	choices := model.PromptChoices()
	needle := strings.ToLower(strings.TrimSpace(input))

	switch needle {
	case "":
		if suggested == "" || !offered(suggested) {
			return "", errNoSuggestion
		}
		return suggested, nil
	case "s", "skip":
		return "", ErrSkipped
	}

	if n, err := strconv.Atoi(needle); err == nil {
		if n < 1 || n > len(choices) {
			return "", fmt.Errorf("%w: pick a number from 1 to %d", ErrUnrecognizedChoice, len(choices))
		}
		return choices[n-1], nil
	}

	c, ok := model.ClosestCategory(needle)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnrecognizedChoice, input)
	}
	if !offered(c) {
		return "", fmt.Errorf("%w: %s", flow.ErrInvalidChoice, c.Info().Label)
	}
	return c, nil
}

func offered(c model.Category) bool {
	for _, choice := range model.PromptChoices() {
		if c == choice {
			return true
		}
	}
	return false
}

// ChooseCategory shows the prompt for pending and reads until the user names
// an offered category or skips.
func (p *Prompter) ChooseCategory(ctx context.Context, pending model.PendingCategorization, suggested model.Category) (model.Category, error) {
	if _, err := fmt.Fprintln(p.writer, RenderBox("New payment", p.formatPending(pending, suggested))); err != nil {
		return "", fmt.Errorf("failed to write payment box: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		if _, err := fmt.Fprint(p.writer, FormatPrompt("Category")); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}

		input, err := p.reader.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", errors.New("input terminated")
			}
			return "", err
		}

		category, err := ResolveChoice(input, suggested)
		switch {
		case err == nil:
			return category, nil
		case errors.Is(err, ErrSkipped):
			return "", ErrSkipped
		case errors.Is(err, errNoSuggestion):
			p.println(FormatError("Type a number or a category name."))
		case errors.Is(err, flow.ErrInvalidChoice):
			p.println(FormatError(fmt.Sprintf("%s isn't offered here. Pick one of the listed categories.",
				strings.TrimPrefix(err.Error(), flow.ErrInvalidChoice.Error()+": "))))
		default:
			p.println(FormatError("Invalid choice. Please try again."))
		}
	}
}

func (p *Prompter) formatPending(pending model.PendingCategorization, suggested model.Category) string {
	var b strings.Builder
	b.WriteString(RenderMessage(flow.PromptText(pending)))
	b.WriteString("\n\n")

	kind := "person-to-person"
	if pending.IsRegisteredMerchant {
		kind = "registered merchant"
	}
	b.WriteString(SubtleStyle.Render(fmt.Sprintf("%s payment to a %s", pending.PaymentMode, kind)))
	b.WriteString("\n\n")

	for i, c := range model.PromptChoices() {
		line := fmt.Sprintf("  [%d] %s", i+1, FormatCategory(c))
		if c == suggested {
			line += SubtleStyle.Render("  (enter to accept)")
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("  [s] Skip")
	return b.String()
}

// Categorize offers pending through categorizer, asks for its category and
// saves it. It returns the saved transaction, or nil when the save failed.
// Skipped payments return ErrSkipped and leave the session idle.
func (p *Prompter) Categorize(ctx context.Context, categorizer Categorizer, userID string, pending model.PendingCategorization, suggested model.Category) (*model.Transaction, error) {
	if _, err := categorizer.Offer(userID, pending); err != nil {
		return nil, err
	}

	category, err := p.ChooseCategory(ctx, pending, suggested)
	if err != nil {
		categorizer.Reset(userID)
		if errors.Is(err, ErrSkipped) {
			p.recordSkipped()
			p.println(FormatWarning(fmt.Sprintf("Skipped %s at %s", format.Currency(pending.Amount), pending.MerchantName)))
		}
		return nil, err
	}

	_, txn, err := categorizer.Choose(ctx, userID, category)
	if err != nil {
		categorizer.Reset(userID)
		return nil, err
	}

	if txn == nil {
		p.recordFailed()
		p.println(FormatError(flow.SaveFailedMessage))
		return nil, nil
	}

	p.recordSaved(*txn)
	p.println(FormatSuccess(flow.SavedText(pending, category)))
	return txn, nil
}

// ShowMessage prints one chat message.
func (p *Prompter) ShowMessage(msg model.ChatMessage) {
	prefix := ChatIcon + " "
	if msg.Role == model.RoleUser {
		prefix = PromptStyle.Render("you") + " "
	}
	p.println(prefix + RenderMessage(msg.Content))
}

// ReadLine reads one trimmed line of free text.
func (p *Prompter) ReadLine(ctx context.Context, prompt string) (string, error) {
	if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	return p.reader.ReadLine(ctx)
}

// SetTotalTransactions starts a progress bar for a batch of total payments.
func (p *Prompter) SetTotalTransactions(total int) {
	if total <= 1 {
		return
	}
	p.progressBar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Categorizing payments...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(p.writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

// Advance moves the progress bar by one payment.
func (p *Prompter) Advance() {
	if p.progressBar == nil {
		return
	}
	if err := p.progressBar.Add(1); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Stats returns the session counts so far.
func (p *Prompter) Stats() Stats {
	p.statsMutex.Lock()
	defer p.statsMutex.Unlock()

	stats := p.stats
	stats.Categories = make(map[model.Category]int, len(p.stats.Categories))
	for c, n := range p.stats.Categories {
		stats.Categories[c] = n
	}
	stats.Duration = time.Since(p.startTime)
	return stats
}

// ShowCompletion prints the session summary.
func (p *Prompter) ShowCompletion() {
	if p.progressBar != nil {
		if err := p.progressBar.Finish(); err != nil {
			slog.Warn("Failed to finish progress bar", "error", err)
		}
	}

	stats := p.Stats()
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s Statistics:\n", ChartIcon))
	b.WriteString(fmt.Sprintf("  • Saved: %d (%s)\n", stats.Saved, AmountStyle.Render(format.Currency(stats.Total))))
	b.WriteString(fmt.Sprintf("  • Skipped: %d\n", stats.Skipped))
	if stats.Failed > 0 {
		b.WriteString(fmt.Sprintf("  • Failed: %d\n", stats.Failed))
	}
	for _, c := range model.AllCategories() {
		if n := stats.Categories[c]; n > 0 {
			b.WriteString(fmt.Sprintf("  • %s: %d\n", FormatCategory(c), n))
		}
	}
	b.WriteString(fmt.Sprintf("  • Time taken: %s", stats.Duration.Round(time.Second)))

	p.println(RenderBox(CheckIcon+" Categorization complete", b.String()))
}

func (p *Prompter) recordSaved(txn model.Transaction) {
	p.statsMutex.Lock()
	defer p.statsMutex.Unlock()
	p.stats.Saved++
	p.stats.Total = p.stats.Total.Add(txn.Amount)
	p.stats.Categories[txn.Category]++
}

func (p *Prompter) recordSkipped() {
	p.statsMutex.Lock()
	defer p.statsMutex.Unlock()
	p.stats.Skipped++
}

func (p *Prompter) recordFailed() {
	p.statsMutex.Lock()
	defer p.statsMutex.Unlock()
	p.stats.Failed++
}

func (p *Prompter) println(s string) {
	if _, err := fmt.Fprintln(p.writer, s); err != nil {
		slog.Warn("Failed to write output", "error", err)
	}
}
