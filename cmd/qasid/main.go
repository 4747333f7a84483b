package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	// Ensure API Key is loaded
	_ "github.com/joho/godotenv/autoload"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/go-openapi/swag"
	"github.com/k0kubun/pp/v3"
	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"

	"github.com/qasid-ai/qasid"
	"github.com/qasid-ai/qasid/agent"
	"github.com/qasid-ai/qasid/api"
	"github.com/qasid-ai/qasid/guardrail"
	"github.com/qasid-ai/qasid/knowledge"
	"github.com/qasid-ai/qasid/provider/openai"
	"github.com/qasid-ai/qasid/session"
	"github.com/qasid-ai/qasid/tool"
	"github.com/qasid-ai/qasid/types"
)

var log zerolog.Logger

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Stamp}
	log = zerolog.New(output).With().Timestamp().Logger()
	slog.SetDefault(slog.New(
		zeroslog.NewHandler(log, &zeroslog.HandlerOptions{Level: slog.LevelWarn}),
	))
}

var glam *glamour.TermRenderer

func init() {
	var err error
	glam, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		panic(err)
	}
}

const botInstructions = `You are Qasid, the customer support assistant for an online store that also
manages hotel partners. Answer in the customer's language; many customers write
in Roman Urdu.

Known hotels: {{.known_hotels}}
{{if .active_hotel}}The customer is currently asking about {{.active_hotel}}.
{{.hotel_profile}}
{{end}}
Use get_hotel_info before answering questions about a hotel, and
update_hotel_rooms when the customer reports a change in room counts. When the
question is outside your knowledge, transfer to the human agent instead of
guessing.`

const humanInstructions = `You are a senior human support representative. The conversation was escalated
to you. Be empathetic, apologize for any inconvenience, and resolve the issue
or promise a concrete follow-up. Answer in the customer's language.`

func main() {
	debug := flag.Bool("debug", false, "dump the full routing result for every turn")
	flag.Parse()

	if os.Getenv("OPENAI_API_KEY") == "" {
		log.Fatal().Msg("OPENAI_API_KEY is required")
	}

	orders := knowledge.DefaultOrders()
	hotels := knowledge.DefaultHotels()

	orderStatusTool := tool.Must(
		func(orderID string) (string, error) { return orders.Status(orderID) },
		tool.Name("get_order_status"),
		tool.Description("Look up an order's shipping status by its numeric ID."),
		tool.Parameters("order_id"),
		tool.OnError(func(error, string) string {
			return "Maazrat, order ki maloomat abhi nahi mil saki. Order ID dobara check karein."
		}),
	)

	hotelInfoTool := tool.Must(
		func(cv types.ContextVars, name string) (string, error) {
			h, err := hotels.Lookup(name)
			if err != nil {
				return "", err
			}
			cv[session.ActiveHotelKey] = h.Name
			return h.Profile(), nil
		},
		tool.Name("get_hotel_info"),
		tool.Description("Fetch the full profile of a hotel by name, including bookable capacity."),
		tool.Parameters("hotel_name"),
		tool.Enabled(hotelTopic),
		tool.OnError(func(error, string) string {
			return "Yeh hotel hamari list me nahi hai. Naam dobara check karein."
		}),
	)

	updateHotelTool := tool.Must(
		func(name string, totalRooms, blockedRooms int) (string, error) {
			h, err := hotels.Upsert(knowledge.HotelUpdate{
				Name:         name,
				TotalRooms:   swag.Int(totalRooms),
				BlockedRooms: swag.Int(blockedRooms),
			})
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s updated: %d rooms total, %d bookable.", h.Name, h.TotalRooms, h.PublicCapacity()), nil
		},
		tool.Name("update_hotel_rooms"),
		tool.Description("Update a hotel's total and blocked room counts."),
		tool.Parameters("hotel_name", "total_rooms", "blocked_rooms"),
		tool.Enabled(hotelTopic),
	)

	human := agent.New(
		agent.Name("Human Agent"),
		agent.Model(openai.GPT4oMini()),
		agent.Instructions(humanInstructions),
	)

	transferToHuman := tool.Must(
		func() api.Agent { return human },
		tool.Name("transfer_to_human"),
		tool.Description("Hand the conversation to a human support representative."),
	)

	bot := agent.New(
		agent.Name("Qasid Bot"),
		agent.Model(openai.GPT4oMini()),
		agent.Instructions(botInstructions),
		agent.Tools(orderStatusTool, hotelInfoTool, updateHotelTool, transferToHuman),
	)

	desk := qasid.New(
		qasid.FAQs(knowledge.DefaultFAQs()),
		qasid.Orders(orders),
		qasid.Hotels(hotels),
		qasid.Bot(bot),
		qasid.Human(human),
		qasid.InputGuardrails(guardrail.DefaultBlocklist()),
		qasid.SentimentGuardrails(guardrail.DefaultSentiment()),
		qasid.WithHook(consoleHook{}),
	)

	runREPL(context.Background(), desk, *debug)
}

func hotelTopic(q tool.Query) bool {
	if q.Session.GetString(session.ActiveHotelKey) != "" {
		return true
	}
	return strings.Contains(strings.ToLower(q.Text), "hotel")
}

func runREPL(ctx context.Context, desk *qasid.Desk, debug bool) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Split(bufio.ScanLines)

	for {
		fmt.Printf("%s: ", color.CyanString("User"))
		if !scanner.Scan() {
			fmt.Println("Exiting...")
			return
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			return
		}

		turn, err := desk.Handle(ctx, "cli-user", input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}

		if debug {
			pp.Println(turn)
		}

		sender := turn.Agent
		if sender == "" {
			sender = "Qasid"
		}
		out, rerr := glam.Render(turn.Reply)
		if rerr != nil {
			out = turn.Reply
		}
		fmt.Fprintf(os.Stdout, "%s [%s]:%s\n", color.MagentaString(sender), turn.Decision, out)
	}
}

// consoleHook surfaces routing milestones on stderr so the demo shows what
// the desk is doing between prompt and reply.
type consoleHook struct{}

func (consoleHook) OnBlocked(_ context.Context, _, reason string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("[blocked]"), reason)
}

func (consoleHook) OnEscalated(_ context.Context, _, reason string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", color.YellowString("[escalated]"), reason)
}

func (consoleHook) OnFAQAnswered(context.Context, string, string) {}

func (consoleHook) OnToolCall(_ context.Context, agentName, toolName, arguments string) {
	fmt.Fprintf(os.Stderr, "%s %s(%s)\n", color.YellowString(agentName), toolName, arguments)
}

func (consoleHook) OnToolResult(context.Context, string, string, string) {}

func (consoleHook) OnHandOff(_ context.Context, from, to string) {
	fmt.Fprintf(os.Stderr, "%s %s -> %s\n", color.YellowString("[hand-off]"), from, to)
}

func (consoleHook) OnDelegateError(_ context.Context, agentName string, err error) {
	fmt.Fprintf(os.Stderr, "%s %s: %v\n", color.RedString("[error]"), agentName, err)
}
