// Package guardrail provides the pre/post filters applied to conversation
// turns: lexicon-based block/flag checks and a model-backed topic classifier.
package guardrail

import (
	"context"
	"fmt"
	"strings"
)

// Verdict is the outcome of a single check on a single message.
//
// Allowed=false blocks the turn outright. Allowed=true with Flagged=true lets
// the message through but signals the desk to escalate to a human role.
type Verdict struct {
	Allowed bool
	Flagged bool
	Reason  string
}

// Allow is the verdict for unremarkable messages.
var Allow = Verdict{Allowed: true}

// Checker classifies a message. Implementations must treat missing text as
// the empty string and allow it.
type Checker interface {
	Name() string
	Check(ctx context.Context, text string) (Verdict, error)
}

type funcChecker struct {
	name string
	fn   func(context.Context, string) (Verdict, error)
}

// CheckerFunc adapts a plain function to the Checker interface under a fixed
// name.
func CheckerFunc(name string, fn func(context.Context, string) (Verdict, error)) Checker {
	return &funcChecker{name: name, fn: fn}
}

func (c *funcChecker) Name() string {
	return c.name
}

func (c *funcChecker) Check(ctx context.Context, text string) (Verdict, error) {
	return c.fn(ctx, text)
}

type lexiconChecker struct {
	name    string
	phrases []string
	flag    bool
}

// Blocklist returns a checker that rejects any message containing one of the
// phrases (case-insensitive substring match). First match wins; the verdict
// is the same regardless of which phrase triggered.
func Blocklist(name string, phrases ...string) Checker {
	return &lexiconChecker{name: name, phrases: phrases}
}

// Sentiment returns a checker that flags, but does not block, messages
// containing one of the negative-indicator phrases. The desk uses the flag to
// force human escalation.
func Sentiment(name string, phrases ...string) Checker {
	return &lexiconChecker{name: name, phrases: phrases, flag: true}
}

func (c *lexiconChecker) Name() string {
	return c.name
}

func (c *lexiconChecker) Check(_ context.Context, text string) (Verdict, error) {
	lowered := strings.ToLower(text)
	if lowered == "" {
		return Allow, nil
	}

	for _, phrase := range c.phrases {
		if phrase == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(phrase)) {
			if c.flag {
				return Verdict{
					Allowed: true,
					Flagged: true,
					Reason:  fmt.Sprintf("negative sentiment: matched %q", phrase),
				}, nil
			}
			return Verdict{
				Allowed: false,
				Reason:  fmt.Sprintf("disallowed language: matched %q", phrase),
			}, nil
		}
	}
	return Allow, nil
}

// DefaultBlocklist returns the demo offensive-language checker.
func DefaultBlocklist() Checker {
	return Blocklist("offensive-language",
		"idiot", "stupid", "bkwas", "lanat", "gali", "bewaqoof",
	)
}

// DefaultSentiment returns the demo negative-sentiment checker.
func DefaultSentiment() Checker {
	return Sentiment("negative-sentiment",
		"refund now", "very bad", "worst", "angry", "nonsense", "ghalat", "cancel karo",
	)
}
