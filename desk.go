package qasid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/fogfish/opts"

	"github.com/qasid-ai/qasid/api"
	"github.com/qasid-ai/qasid/extract"
	"github.com/qasid-ai/qasid/guardrail"
	"github.com/qasid-ai/qasid/knowledge"
	"github.com/qasid-ai/qasid/session"
	"github.com/qasid-ai/qasid/types"
)

const (
	msgBlocked = "Barah-e-karam guftagu me respect barqarar rakhein. Meherbani karke apna message rephrase karein."

	msgAskOrderID = "Meherbani karke apni order ID share karein (jaise 123, 456, 789)."

	msgEscalateFallback = "Maazrat, is waqt hamari support team tak rabta nahi ho pa raha. Thori dair baad dobara koshish karein."

	msgOutputBlocked = "Maazrat, is sawal ka jawab hamari guidelines ke mutabiq nahi diya ja sakta."
)

func orderNotFoundMessage(orderID string) string {
	return fmt.Sprintf(
		"Lagta hai order_id '%s' hamari system me nahi mila. Meherbani karke sahi order ID share karein. Agar phir bhi masla ho to main Human Agent ko forward kar dunga.",
		orderID,
	)
}

// Desk is the routing state machine. It applies guardrails, tries
// deterministic lookups, falls back to a bot agent, and escalates to the
// human role when confidence is low or sentiment is negative.
//
// A Desk handles one logical turn per inbound message. The knowledge
// registries and session state are not locked internally; callers must
// serialize turns per session key.
type Desk struct {
	faqs     *knowledge.FAQBook
	orders   *knowledge.OrderBook
	hotels   *knowledge.HotelDirectory
	sessions *session.Store
	agents   *haxmap.Map[string, api.Agent]

	bot   api.Agent
	human api.Agent

	input     []guardrail.Checker
	sentiment []guardrail.Checker
	output    []guardrail.Checker

	hook       Hook
	timeout    time.Duration
	maxTurns   int
	maxRetries int
}

var (
	// Timeout bounds each delegated call; expiry counts as "not confident".
	Timeout = opts.ForName[Desk, time.Duration]("timeout")
	// MaxTurns bounds the tool-call rounds within one delegation.
	MaxTurns = opts.ForName[Desk, int]("maxTurns")
	// MaxRetries is passed through to the provider.
	MaxRetries = opts.ForName[Desk, int]("maxRetries")
	// FAQs sets the FAQ registry.
	FAQs = opts.ForName[Desk, *knowledge.FAQBook]("faqs")
	// Orders sets the order registry.
	Orders = opts.ForName[Desk, *knowledge.OrderBook]("orders")
	// Hotels sets the hotel registry.
	Hotels = opts.ForName[Desk, *knowledge.HotelDirectory]("hotels")
	// Sessions sets the session state store.
	Sessions = opts.ForName[Desk, *session.Store]("sessions")
	// WithHook sets the observability hook.
	WithHook = opts.ForName[Desk, Hook]("hook")
)

// Bot sets the bot-role agent and registers it as a hand-off target.
func Bot(agent api.Agent) opts.Option[Desk] {
	return opts.Type[Desk](func(d *Desk) error {
		d.bot = agent
		d.agents.Set(agent.Name(), agent)
		return nil
	})
}

// Human sets the human-role agent and registers it as a hand-off target.
func Human(agent api.Agent) opts.Option[Desk] {
	return opts.Type[Desk](func(d *Desk) error {
		d.human = agent
		d.agents.Set(agent.Name(), agent)
		return nil
	})
}

// Agents registers additional hand-off targets.
func Agents(agent api.Agent, extraAgents ...api.Agent) opts.Option[Desk] {
	return opts.Type[Desk](func(d *Desk) error {
		d.agents.Set(agent.Name(), agent)
		for _, extra := range extraAgents {
			d.agents.Set(extra.Name(), extra)
		}
		return nil
	})
}

// InputGuardrails appends checkers applied to inbound messages; a failed
// check blocks the turn.
func InputGuardrails(checker guardrail.Checker, extra ...guardrail.Checker) opts.Option[Desk] {
	return opts.Type[Desk](func(d *Desk) error {
		d.input = append(d.input, checker)
		d.input = append(d.input, extra...)
		return nil
	})
}

// SentimentGuardrails appends checkers whose flag forces human escalation.
func SentimentGuardrails(checker guardrail.Checker, extra ...guardrail.Checker) opts.Option[Desk] {
	return opts.Type[Desk](func(d *Desk) error {
		d.sentiment = append(d.sentiment, checker)
		d.sentiment = append(d.sentiment, extra...)
		return nil
	})
}

// OutputGuardrails appends checkers applied to agent-generated replies before
// they are surfaced.
func OutputGuardrails(checker guardrail.Checker, extra ...guardrail.Checker) opts.Option[Desk] {
	return opts.Type[Desk](func(d *Desk) error {
		d.output = append(d.output, checker)
		d.output = append(d.output, extra...)
		return nil
	})
}

// New creates a desk with the provided options.
func New(options ...opts.Option[Desk]) *Desk {
	d := &Desk{
		faqs:     knowledge.NewFAQBook(),
		orders:   knowledge.NewOrderBook(),
		hotels:   knowledge.NewHotelDirectory(),
		sessions: session.NewStore(),
		agents:   haxmap.New[string, api.Agent](),
		hook:     NoopHook{},
		timeout:  30 * time.Second,
		maxTurns: 5,
	}
	if err := opts.Apply(d, options); err != nil {
		panic(err)
	}
	return d
}

// Handle routes one inbound message and returns the turn result. The stages
// run in strict order, first applicable wins: blocked, escalate on sentiment,
// FAQ answer, order tool path, bot delegation, human fallback.
func (d *Desk) Handle(ctx context.Context, sessionID, text string) (Turn, error) {
	if d.bot == nil || d.human == nil {
		return Turn{}, errors.New("desk requires both a bot and a human agent")
	}

	// 1. Input guardrails. A checker error counts as a rejection.
	for _, checker := range d.input {
		verdict, err := checker.Check(ctx, text)
		if err != nil {
			slog.Warn("input guardrail failed", slog.String("guardrail", checker.Name()), errAttr(err))
		}
		if !verdict.Allowed {
			d.hook.OnBlocked(ctx, sessionID, verdict.Reason)
			return Turn{Decision: DecisionBlock, Reply: msgBlocked, Reason: verdict.Reason}, nil
		}
	}

	// 2. Negative sentiment forces human escalation.
	for _, checker := range d.sentiment {
		verdict, err := checker.Check(ctx, text)
		if err != nil {
			slog.Warn("sentiment guardrail failed", slog.String("guardrail", checker.Name()), errAttr(err))
			continue
		}
		if verdict.Flagged {
			d.hook.OnEscalated(ctx, sessionID, verdict.Reason)
			return d.escalate(ctx, sessionID, text, verdict.Reason), nil
		}
	}

	// 3. FAQ answers, unless the message also looks like an order query:
	// order intent is the more specific signal.
	faqAnswer, faqOK := d.faqs.Answer(text)
	orderLike := orderIntent(text)

	if faqOK && !orderLike {
		d.hook.OnFAQAnswered(ctx, sessionID, faqAnswer)
		return Turn{Decision: DecisionAnswer, Reply: faqAnswer}, nil
	}

	// 4. Order tool path.
	if orderLike {
		return d.orderLookup(ctx, sessionID, text), nil
	}

	// 5. Bot delegation, 6. human fallback.
	reply, agentName, confident, err := d.delegate(ctx, d.bot, sessionID, text)
	if err != nil {
		d.hook.OnDelegateError(ctx, d.bot.Name(), err)
		slog.Warn("bot delegation failed", slog.String("agent", d.bot.Name()), errAttr(err))
		confident = false
	}
	if confident {
		if verdict := d.checkOutput(ctx, reply); !verdict.Allowed {
			d.hook.OnBlocked(ctx, sessionID, verdict.Reason)
			return Turn{Decision: DecisionBlock, Reply: msgOutputBlocked, Agent: agentName, Reason: verdict.Reason}, nil
		}
		return Turn{Decision: DecisionDelegate, Reply: reply, Agent: agentName}, nil
	}

	d.hook.OnEscalated(ctx, sessionID, "no clear answer from bot")
	return d.escalate(ctx, sessionID, text, "no clear answer from bot"), nil
}

func (d *Desk) orderLookup(ctx context.Context, sessionID, text string) Turn {
	orderID, err := extract.OrderID(text)
	if err != nil {
		// Extraction failure is not a lookup failure: reprompt, no escalation.
		return Turn{Decision: DecisionTool, Reply: msgAskOrderID}
	}

	d.hook.OnToolCall(ctx, "desk", "get_order_status", orderID)
	status, err := d.orders.Status(orderID)
	if err != nil {
		if knowledge.IsNotFound(err) {
			return Turn{Decision: DecisionTool, Reply: orderNotFoundMessage(orderID)}
		}
		slog.Error("order lookup failed", slog.String("order_id", orderID), errAttr(err))
		return Turn{Decision: DecisionTool, Reply: orderNotFoundMessage(orderID)}
	}

	d.hook.OnToolResult(ctx, "desk", "get_order_status", status)
	return Turn{Decision: DecisionTool, Reply: status}
}

// escalate hands the turn to the human role. The human agent's output is
// terminal regardless of its own signal; there is no further fallback.
func (d *Desk) escalate(ctx context.Context, sessionID, text, reason string) Turn {
	reply, agentName, _, err := d.delegate(ctx, d.human, sessionID, text)
	if err != nil {
		d.hook.OnDelegateError(ctx, d.human.Name(), err)
		slog.Warn("human delegation failed", slog.String("agent", d.human.Name()), errAttr(err))
	}
	if reply == "" {
		reply = msgEscalateFallback
	} else if verdict := d.checkOutput(ctx, reply); !verdict.Allowed {
		d.hook.OnBlocked(ctx, sessionID, verdict.Reason)
		reply = msgOutputBlocked
	}
	if agentName == "" {
		agentName = d.human.Name()
	}
	return Turn{Decision: DecisionEscalate, Reply: reply, Agent: agentName, Reason: reason}
}

func (d *Desk) checkOutput(ctx context.Context, reply string) guardrail.Verdict {
	for _, checker := range d.output {
		verdict, err := checker.Check(ctx, reply)
		if err != nil {
			slog.Warn("output guardrail failed", slog.String("guardrail", checker.Name()), errAttr(err))
		}
		if !verdict.Allowed {
			return verdict
		}
	}
	return guardrail.Allow
}

// Template variables derived fresh each turn; they never persist back into
// the session store.
const (
	knownHotelsKey  = "known_hotels"
	hotelProfileKey = "hotel_profile"
)

// contextFor assembles the template variables for instruction rendering:
// the live session state plus derived hotel fields for this turn.
func (d *Desk) contextFor(sessionID, text string) types.ContextVars {
	names := d.hotels.Names()
	if best, ok := extract.BestHotel(text, names); ok {
		d.sessions.SetActiveHotel(sessionID, best)
	}

	render := d.sessions.Get(sessionID).Clone()
	render[knownHotelsKey] = strings.Join(names, ", ")

	if active, ok := d.sessions.ActiveHotel(sessionID); ok {
		if hotel, err := d.hotels.Lookup(active); err == nil {
			render[session.ActiveHotelKey] = hotel.Name
			render[hotelProfileKey] = hotel.Profile()
		}
	}
	if _, ok := render[session.ActiveHotelKey]; !ok {
		render[session.ActiveHotelKey] = ""
		render[hotelProfileKey] = ""
	}
	return render
}

// persistSession writes the post-delegation context variables back to the
// session store, minus the render-only keys, so state written by tool
// handlers (like the active hotel) survives the turn.
func (d *Desk) persistSession(sessionID string, cv types.ContextVars) {
	saved := cv.Clone()
	delete(saved, knownHotelsKey)
	delete(saved, hotelProfileKey)
	d.sessions.Save(sessionID, saved)
}

func errAttr(err error) slog.Attr {
	return slog.String("error", err.Error())
}
