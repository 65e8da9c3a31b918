package telegram_bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"productivity-service/internal/config"
	"productivity-service/internal/models"
	"productivity-service/internal/service"
)

// historyLimit caps how many records /history prints
const historyLimit = 10

// Bot exposes the quick, calendar and browse flows over Telegram
type Bot struct {
	api    *tgbotapi.BotAPI
	svc    *service.Productivity
	logger *zap.Logger
}

// NewBot creates a new Telegram bot instance. It returns nil when the bot is disabled.
func NewBot(cfg *config.Config, svc *service.Productivity, logger *zap.Logger) (*Bot, error) {
	if !cfg.Telegram.Enabled || cfg.Telegram.BotToken == "" {
		logger.Info("Telegram bot is disabled (telegram.enabled=false or token is empty)")
		return nil, nil
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}

	logger.Info("Telegram bot authorized", zap.String("username", botAPI.Self.UserName))

	return &Bot{
		api:    botAPI,
		svc:    svc,
		logger: logger,
	}, nil
}

// Start begins listening for updates from Telegram
func (b *Bot) Start(ctx context.Context) error {
	if b == nil {
		return nil
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Telegram bot started, waiting for updates...")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Telegram bot shutting down...")
			b.api.StopReceivingUpdates()
			return nil
		case update := <-updates:
			if update.Message != nil && update.Message.IsCommand() {
				b.handleMessage(ctx, update.Message)
			}
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	b.logger.Debug("Received command",
		zap.String("command", message.Command()),
		zap.Int64("chat_id", message.Chat.ID),
	)
	b.sendMessage(message.Chat.ID, b.respond(ctx, message.Command(), message.CommandArguments()))
}

// respond runs one command and returns the reply text
func (b *Bot) respond(ctx context.Context, command, args string) string {
	fields := splitArgs(args)

	switch command {
	case "start", "help":
		return helpText
	case "predict":
		return b.handlePredict(ctx, fields)
	case "save":
		return b.handleSave(ctx, fields)
	case "history":
		return b.handleHistory(ctx, fields)
	case "delete":
		return b.handleDelete(ctx, fields)
	default:
		return "Unknown command. Use /help."
	}
}

const helpText = "Productivity score bot\n\n" +
	"/predict [sleep] [caffeine] [screen] [exercise] - quick score, nothing is saved\n" +
	"/save <name> [YYYY-MM-DD] [sleep] [caffeine] [screen] [exercise] - score and save for a day\n" +
	"/history <name> - latest saved scores\n" +
	"/delete <name> - delete every saved score of a user\n\n" +
	"Quote a name that contains spaces: /save \"Asli Y\" 7.5\n" +
	"Sleep is in hours (4-10), caffeine in mg (0-300), screen time before bed (0-180) and exercise (0-120) in minutes.\n" +
	"Omitted values take their defaults; out of range values are clipped."

func (b *Bot) handlePredict(ctx context.Context, fields []string) string {
	in, err := parseMetrics(models.QuickForm, fields)
	if err != nil {
		return err.Error()
	}

	result, err := b.svc.QuickPredict(ctx, in)
	if err != nil {
		return failureText(err)
	}

	return fmt.Sprintf("Estimated productivity score: %.2f / 10\n%s\n%s",
		result.Score, scoreBar(result.Fraction), describeInput(result.Input))
}

func (b *Bot) handleSave(ctx context.Context, fields []string) string {
	if len(fields) == 0 {
		return "Usage: /save <name> [YYYY-MM-DD] [sleep] [caffeine] [screen] [exercise]"
	}
	user, rest := fields[0], fields[1:]

	var date time.Time
	if len(rest) > 0 {
		if d, err := time.Parse(models.DateLayout, rest[0]); err == nil {
			date = d
			rest = rest[1:]
		}
	}

	in, err := parseMetrics(models.CalendarForm, rest)
	if err != nil {
		return err.Error()
	}

	rec, saved, err := b.svc.SaveDaily(ctx, user, date, in)
	if err != nil {
		return failureText(err)
	}
	if !saved {
		return "Nothing saved: a name is required."
	}

	return fmt.Sprintf("Prediction saved for %s on %s: %.2f / 10\n%s",
		rec.User, rec.DateString(), rec.Prediction, scoreBar(rec.Fraction()))
}

func (b *Bot) handleHistory(ctx context.Context, fields []string) string {
	if len(fields) == 0 {
		return "Usage: /history <name>"
	}
	user := fields[0]

	records, err := b.svc.Records(ctx, user)
	if err != nil {
		return failureText(err)
	}
	if len(records) == 0 {
		return "No records yet for " + user + "."
	}

	records = service.SortByDateDesc(records)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d saved predictions\n", user, len(records))
	for i, r := range records {
		if i == historyLimit {
			fmt.Fprintf(&sb, "... and %d more", len(records)-historyLimit)
			break
		}
		fmt.Fprintf(&sb, "%s  %.2f  (%s)\n", r.DateString(), r.Prediction, describeInput(r.Input()))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Bot) handleDelete(ctx context.Context, fields []string) string {
	if len(fields) == 0 {
		return "Usage: /delete <name>"
	}
	user := fields[0]

	view, err := b.svc.DeleteUser(ctx, user)
	if err != nil {
		return failureText(err)
	}

	b.logger.Info("Predictions deleted from chat", zap.String("user", user))
	return fmt.Sprintf("Records for %s deleted. %d records remain.", user, view.Total)
}

// splitArgs splits on whitespace; a double-quoted run is one argument
func splitArgs(args string) []string {
	var (
		fields  []string
		current strings.Builder
		quoted  bool
		started bool
	)
	for _, r := range args {
		switch {
		case r == '"':
			quoted = !quoted
			started = true
		case !quoted && unicode.IsSpace(r):
			if started {
				fields = append(fields, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if started {
		fields = append(fields, current.String())
	}
	return fields
}

// parseMetrics reads up to four positional values in form order.
// Missing values take the form default and everything is clipped.
func parseMetrics(form models.FormSpec, fields []string) (models.MetricInput, error) {
	specs := form.Fields()
	if len(fields) > len(specs) {
		return models.MetricInput{}, errors.New("too many values: expected sleep, caffeine, screen and exercise")
	}

	values := make(map[string]string, len(fields))
	for i, raw := range fields {
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return models.MetricInput{}, fmt.Errorf("%s must be a number, got %q", specs[i].Label, raw)
		}
		values[specs[i].Key] = raw
	}

	return form.FromValues(func(key string) string { return values[key] }), nil
}

func describeInput(in models.MetricInput) string {
	return fmt.Sprintf("sleep %.1fh, caffeine %dmg, screen %dmin, exercise %dmin",
		in.SleepHours, in.CaffeineMg, in.ScreenMinutes, in.ExerciseMinutes)
}

// scoreBar renders a ten-cell progress bar
func scoreBar(fraction float64) string {
	filled := int(fraction*10 + 0.5)
	if filled < 0 {
		filled = 0
	}
	if filled > 10 {
		filled = 10
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", 10-filled) + "]"
}

func failureText(err error) string {
	return "Request failed: " + err.Error()
}

// sendMessage is a helper to send a simple text message
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
