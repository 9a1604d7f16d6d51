package responder

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/Veraticus/smarttrack/internal/aggregate"
	"github.com/Veraticus/smarttrack/internal/common"
	"github.com/Veraticus/smarttrack/internal/format"
	"github.com/Veraticus/smarttrack/internal/model"
)

// Fixed replies of the rule-based strategy.
const (
	GreetingReply = "Hi there! 👋 I can tell you where your money went. Try 'How much did I spend on food?' or 'What did I pay on the 15th?'"
	HelpReply     = "I can answer questions like:\n" +
		"- How much did I spend on food?\n" +
		"- What did I pay on the 15th?\n" +
		"- Show my medical expenses\n" +
		"- What's my total spending?\n" +
		"- What was my first payment?"
)

var (
	ordinalDay = regexp.MustCompile(`\b([0-9]{1,2})(?:st|nd|rd|th)\b`)
	onDay      = regexp.MustCompile(`\bon (?:the )?([0-9]{1,2})\b`)

	greetings = map[string]bool{"hi": true, "hello": true, "hey": true}

	// rankedNouns after an ordinal rank payments instead of naming a day.
	rankedNouns = map[string]bool{
		"payment": true, "payments": true,
		"transaction": true, "transactions": true,
		"purchase": true, "purchases": true,
	}
	// monthWords may follow a bare day number.
	monthWords = func() map[string]bool {
		words := map[string]bool{"of": true}
		for m := time.January; m <= time.December; m++ {
			name := strings.ToLower(m.String())
			words[name] = true
			words[name[:3]] = true
		}
		return words
	}()
)

// rule is one entry of the ordered rule set. answer returns false when the
// rule does not apply to the query.
type rule struct {
	answer func(query string, txns []model.Transaction) (string, bool)
	name   string
}

// Rules is the keyword strategy. The first matching rule answers.
type Rules struct {
	source TransactionSource
	loc    *time.Location
	rules  []rule
}

// NewRules creates the keyword strategy. Times are rendered in loc.
func NewRules(source TransactionSource, loc *time.Location) *Rules {
	if loc == nil {
		loc = time.UTC
	}
	r := &Rules{source: source, loc: loc}
	r.rules = []rule{
		{name: "day", answer: r.byDay},
		{name: "food", answer: r.food},
		{name: "medical", answer: r.medical},
		{name: "total", answer: r.total},
		{name: "first", answer: r.first},
		{name: "greeting", answer: r.greeting},
	}
	return r
}

// Respond loads the user's transactions and answers text.
func (r *Rules) Respond(ctx context.Context, userID, text string) (string, error) {
	txns, err := r.source.Transactions(ctx, userID)
	if err != nil {
		return "", common.NewUserError(MsgFetchFailed, fmt.Errorf("%w: %w", ErrFetchTransactions, err))
	}
	return r.Answer(text, txns), nil
}

// Answer applies the rules to text over txns.
func (r *Rules) Answer(text string, txns []model.Transaction) string {
	query := strings.ToLower(text)
	for _, rl := range r.rules {
		if reply, ok := rl.answer(query, txns); ok {
			return reply
		}
	}
	return HelpReply
}

// dayOfMonth extracts a day reference such as "15th" or "on 3". An ordinal
// ranking payments ("1st payment") is not a day, and a bare number must end
// the phrase or be followed by a month ("on 3 jan").
func dayOfMonth(query string) (int, bool) {
	if m := ordinalDay.FindStringSubmatchIndex(query); m != nil && !rankedNouns[nextWord(query[m[1]:])] {
		if day, ok := parseDay(query[m[2]:m[3]]); ok {
			return day, true
		}
	}
	if m := onDay.FindStringSubmatchIndex(query); m != nil && endsDay(query[m[1]:]) {
		return parseDay(query[m[2]:m[3]])
	}
	return 0, false
}

func parseDay(s string) (int, bool) {
	day, err := strconv.Atoi(s)
	if err != nil || day < 1 || day > 31 {
		return 0, false
	}
	return day, true
}

// nextWord returns the first word of rest without surrounding punctuation.
func nextWord(rest string) string {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimFunc(fields[0], func(c rune) bool {
		return !unicode.IsLetter(c)
	})
}

func endsDay(rest string) bool {
	rest = strings.TrimLeft(rest, " ")
	if rest == "" {
		return true
	}
	if c, _ := utf8.DecodeRuneInString(rest); !unicode.IsLetter(c) && !unicode.IsDigit(c) {
		return true
	}
	return monthWords[nextWord(rest)]
}

func (r *Rules) byDay(query string, txns []model.Transaction) (string, bool) {
	day, ok := dayOfMonth(query)
	if !ok {
		return "", false
	}

	matches := aggregate.Filter(txns, func(txn model.Transaction) bool {
		return txn.CreatedAt.In(r.loc).Day() == day
	})
	if len(matches) == 0 {
		return fmt.Sprintf("I couldn't find any payments on the %s.", format.Ordinal(day)), true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "On the %s you made %s totalling %s:",
		format.Ordinal(day), payments(len(matches)), format.Currency(aggregate.TotalOf(matches)))
	for _, txn := range matches {
		fmt.Fprintf(&b, "\n- %s at %s (%s) at %s",
			format.Currency(txn.Amount), txn.MerchantName, txn.Category.Display(), format.Time(txn.CreatedAt.In(r.loc)))
	}
	return b.String(), true
}

func (r *Rules) food(query string, txns []model.Transaction) (string, bool) {
	if !strings.Contains(query, "food") {
		return "", false
	}

	food := aggregate.InCategory(txns, model.CategoryFood)
	if len(food) == 0 {
		return "You haven't spent anything on food yet.", true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You've spent %s on food across %s:",
		format.Currency(aggregate.TotalOf(food)), payments(len(food)))
	for _, txn := range food {
		fmt.Fprintf(&b, "\n- %s at %s on %s",
			format.Currency(txn.Amount), txn.MerchantName, format.Date(txn.CreatedAt.In(r.loc)))
	}
	return b.String(), true
}

func (r *Rules) medical(query string, txns []model.Transaction) (string, bool) {
	if !strings.Contains(query, "medical") && !strings.Contains(query, "pharmacy") {
		return "", false
	}

	medical := aggregate.InCategory(txns, model.CategoryMedical)
	latest, ok := aggregate.Latest(medical)
	if !ok {
		return "You haven't spent anything on medical expenses yet.", true
	}

	return fmt.Sprintf("You've spent %s on medical expenses. The most recent was %s at %s on %s.",
		format.Currency(aggregate.TotalOf(medical)),
		format.Currency(latest.Amount), latest.MerchantName, format.Date(latest.CreatedAt.In(r.loc))), true
}

func (r *Rules) total(query string, txns []model.Transaction) (string, bool) {
	if !strings.Contains(query, "total") && !strings.Contains(query, "how much") {
		return "", false
	}
	if len(txns) == 0 {
		return "You haven't made any payments yet.", true
	}
	return fmt.Sprintf("You've spent %s in total across %s.",
		format.Currency(aggregate.TotalOf(txns)), payments(len(txns))), true
}

func (r *Rules) first(query string, txns []model.Transaction) (string, bool) {
	if !containsAny(query, "first payment", "first transaction", "1st payment", "1st transaction") {
		return "", false
	}

	earliest, ok := aggregate.Earliest(txns)
	if !ok {
		return "You haven't made any payments yet.", true
	}

	at := earliest.CreatedAt.In(r.loc)
	return fmt.Sprintf("Your first payment was %s at %s (%s) on %s at %s.",
		format.Currency(earliest.Amount), earliest.MerchantName, earliest.Category.Display(),
		format.Date(at), format.Time(at)), true
}

func (r *Rules) greeting(query string, _ []model.Transaction) (string, bool) {
	words := strings.FieldsFunc(query, func(c rune) bool {
		return !unicode.IsLetter(c)
	})
	for _, w := range words {
		if greetings[w] {
			return GreetingReply, true
		}
	}
	return "", false
}

func payments(n int) string {
	if n == 1 {
		return "1 payment"
	}
	return strconv.Itoa(n) + " payments"
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
