package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/aj98-official/Nova/internal/auth"
	"github.com/aj98-official/Nova/internal/calendar"
	"github.com/aj98-official/Nova/internal/schedule"
)

// commandTimeout bounds the work done for a single host command.
const commandTimeout = 30 * time.Second

// defaultEventDuration applies when a schedule add command omits the
// duration argument.
const defaultEventDuration = 60 * time.Minute

// TokenProvider yields access tokens for calendar write commands.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// EventGateway is the calendar surface used by the schedule commands.
type EventGateway interface {
	AddEvent(ctx context.Context, accessToken, summary string, start, end time.Time) (string, error)
	RemoveEvent(ctx context.Context, accessToken, eventID string) error
}

// Asker answers a free-form query, typically backed by an LLM provider.
type Asker interface {
	Ask(ctx context.Context, query string) (string, error)
}

// Config holds the bot's command-surface settings.
type Config struct {
	Token    string
	Prefix   string
	Location *time.Location
}

// Bot owns the Discord session and routes prefixed host commands to the
// scheduler, the calendar gateway, and any configured LLM commands. It also
// implements schedule.Notifier for the daily summary.
type Bot struct {
	cfg     Config
	session *discordgo.Session
	sched   *schedule.Scheduler
	tokens  TokenProvider
	cal     EventGateway
	askers  map[string]Asker
	log     *zap.Logger

	mu sync.Mutex
	// lastViewed remembers, per user, the event list shown by the most
	// recent view command so that remove can address events by index.
	lastViewed map[string][]calendar.Event
}

// New creates the bot and its Discord session. Open must be called before
// any message is sent or received.
func New(cfg Config, sched *schedule.Scheduler, tokens TokenProvider, cal EventGateway, askers map[string]Asker, log *zap.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	b := &Bot{
		cfg:        cfg,
		session:    session,
		sched:      sched,
		tokens:     tokens,
		cal:        cal,
		askers:     askers,
		log:        log,
		lastViewed: make(map[string][]calendar.Event),
	}
	session.AddHandler(b.onMessageCreate)
	return b, nil
}

// Open connects the gateway session.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	return nil
}

// Close shuts the gateway session down.
func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	content := strings.TrimSpace(m.Content)
	if !strings.HasPrefix(content, b.cfg.Prefix) {
		return
	}

	args := splitArgs(strings.TrimPrefix(content, b.cfg.Prefix))
	if len(args) == 0 {
		return
	}
	command := strings.ToLower(args[0])
	args = args[1:]

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var reply string
	var err error
	switch {
	case command == "briefing":
		reply, err = b.handleBriefing(ctx, args)
	case command == "schedule":
		reply, err = b.handleSchedule(ctx, m, args)
	case b.askers[command] != nil:
		reply, err = b.handleAsk(ctx, command, args)
	default:
		return
	}

	if err != nil {
		b.log.Warn("command failed",
			zap.String("command", command),
			zap.String("user", m.Author.ID),
			zap.Error(err),
		)
		reply = userFacingError(err)
	}
	if reply == "" {
		return
	}
	if err := b.Deliver(ctx, m.ChannelID, reply); err != nil {
		b.log.Error("failed to send command reply",
			zap.String("command", command),
			zap.Error(err),
		)
	}
}

func (b *Bot) handleBriefing(ctx context.Context, args []string) (string, error) {
	sub := "now"
	if len(args) > 0 {
		sub = strings.ToLower(args[0])
	}
	switch sub {
	case "now":
		return b.sched.RunNow(ctx)
	case "status":
		status, err := b.sched.Status(ctx)
		if err != nil {
			return "", err
		}
		lastFired := status.LastFiredDate
		if lastFired == "" {
			lastFired = "never"
		}
		return fmt.Sprintf("Next summary: %s\nLast delivered: %s",
			status.NextFire.Format("Mon Jan 2 15:04 MST"), lastFired), nil
	default:
		return "Unknown briefing subcommand. Try `briefing now` or `briefing status`.", nil
	}
}

func (b *Bot) handleSchedule(ctx context.Context, m *discordgo.MessageCreate, args []string) (string, error) {
	if len(args) == 0 {
		return b.scheduleHelp(), nil
	}
	sub := strings.ToLower(args[0])
	args = args[1:]

	switch sub {
	case "view":
		return b.handleView(ctx, m.Author.ID, args)
	case "add":
		return b.handleAdd(ctx, args)
	case "remove":
		return b.handleRemove(ctx, m.Author.ID, args)
	case "export":
		return b.handleExport(ctx, m.ChannelID, args)
	case "help":
		return b.scheduleHelp(), nil
	default:
		return fmt.Sprintf("Unknown schedule subcommand %q.\n%s", sub, b.scheduleHelp()), nil
	}
}

func (b *Bot) handleView(ctx context.Context, userID string, args []string) (string, error) {
	day, err := b.parseDayArg(args)
	if err != nil {
		return err.Error(), nil
	}
	text, events, err := b.sched.Agenda(ctx, day)
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	b.lastViewed[userID] = events
	b.mu.Unlock()

	return text, nil
}

func (b *Bot) handleAdd(ctx context.Context, args []string) (string, error) {
	if len(args) < 2 {
		return "Usage: `schedule add \"Title\" <time> [duration minutes]`", nil
	}
	title := args[0]
	start, err := schedule.ParseEventTime(args[1], time.Now(), b.cfg.Location)
	if err != nil {
		return fmt.Sprintf("Could not understand the time %q.", args[1]), nil
	}

	duration := defaultEventDuration
	if len(args) >= 3 {
		minutes, err := strconv.Atoi(args[2])
		if err != nil || minutes <= 0 {
			return fmt.Sprintf("Duration must be a positive number of minutes, got %q.", args[2]), nil
		}
		duration = time.Duration(minutes) * time.Minute
	}

	token, err := b.tokens.AccessToken(ctx)
	if err != nil {
		return "", err
	}
	if _, err := b.cal.AddEvent(ctx, token, title, start, start.Add(duration)); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added **%s** at %s for %d min.",
		title, start.Format("Mon Jan 2 03:04 PM"), int(duration.Minutes())), nil
}

func (b *Bot) handleRemove(ctx context.Context, userID string, args []string) (string, error) {
	if len(args) == 0 {
		return "Usage: `schedule remove <number>` (numbers come from the last `schedule view`)", nil
	}
	index, err := strconv.Atoi(strings.Trim(args[0], "[]"))
	if err != nil {
		return fmt.Sprintf("Event number must be a number, got %q.", args[0]), nil
	}

	b.mu.Lock()
	events := b.lastViewed[userID]
	b.mu.Unlock()

	if len(events) == 0 {
		return "Run `schedule view` first so I know which list you mean.", nil
	}
	if index < 1 || index > len(events) {
		return fmt.Sprintf("Event number must be between 1 and %d.", len(events)), nil
	}
	event := events[index-1]

	token, err := b.tokens.AccessToken(ctx)
	if err != nil {
		return "", err
	}
	if err := b.cal.RemoveEvent(ctx, token, event.ID); err != nil {
		if errors.Is(err, calendar.ErrEventNotFound) {
			return fmt.Sprintf("**%s** is already gone.", eventLabel(event)), nil
		}
		return "", err
	}

	b.mu.Lock()
	delete(b.lastViewed, userID)
	b.mu.Unlock()

	return fmt.Sprintf("Removed **%s**.", eventLabel(event)), nil
}

func (b *Bot) handleExport(ctx context.Context, channelID string, args []string) (string, error) {
	day, err := b.parseDayArg(args)
	if err != nil {
		return err.Error(), nil
	}
	_, events, err := b.sched.Agenda(ctx, day)
	if err != nil {
		return "", err
	}
	if len(events) == 0 {
		return fmt.Sprintf("Nothing to export for %s.", day.Format("Monday, January 02")), nil
	}

	data, err := calendar.EncodeICS(events)
	if err != nil {
		return "", fmt.Errorf("failed to encode calendar: %w", err)
	}
	name := fmt.Sprintf("schedule-%s.ics", day.Format("2006-01-02"))
	if _, err := b.session.ChannelFileSend(channelID, name, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to upload calendar file: %w", err)
	}
	return "", nil
}

func (b *Bot) handleAsk(ctx context.Context, command string, args []string) (string, error) {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Sprintf("Usage: `%s <question>`", command), nil
	}
	return b.askers[command].Ask(ctx, query)
}

func (b *Bot) parseDayArg(args []string) (time.Time, error) {
	if len(args) == 0 {
		return schedule.ParseDay("today", time.Now(), b.cfg.Location)
	}
	day, err := schedule.ParseDay(strings.Join(args, " "), time.Now(), b.cfg.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("Could not understand the day %q. Try `today`, `tomorrow`, a weekday, or `2006-01-02`.", strings.Join(args, " "))
	}
	return day, nil
}

func (b *Bot) scheduleHelp() string {
	p := b.cfg.Prefix
	return strings.Join([]string{
		"**Schedule commands**",
		fmt.Sprintf("`%sschedule view [day]` - show the agenda for a day", p),
		fmt.Sprintf("`%sschedule add \"Title\" <time> [minutes]` - create an event", p),
		fmt.Sprintf("`%sschedule remove <number>` - delete an event from the last view", p),
		fmt.Sprintf("`%sschedule export [day]` - download the day as an .ics file", p),
		fmt.Sprintf("`%sbriefing now` - send today's summary immediately", p),
		fmt.Sprintf("`%sbriefing status` - show the next scheduled summary", p),
	}, "\n")
}

func eventLabel(event calendar.Event) string {
	if event.Summary == "" {
		return "No Title"
	}
	return event.Summary
}

// userFacingError turns an internal failure into a short reply. Details stay
// in the logs.
func userFacingError(err error) string {
	switch {
	case errors.Is(err, auth.ErrRefreshDenied):
		return "Google Calendar access was revoked. The refresh token needs to be re-issued."
	case errors.Is(err, calendar.ErrUnauthorized):
		return "Google Calendar rejected my credentials. Please check the configuration."
	case errors.Is(err, calendar.ErrRateLimited):
		return "Google Calendar is rate limiting me right now. Try again in a minute."
	case errors.Is(err, calendar.ErrUnavailable):
		return "Google Calendar seems to be unavailable. Try again shortly."
	case errors.Is(err, context.DeadlineExceeded):
		return "That took too long and I gave up. Try again."
	default:
		return "Something went wrong handling that command."
	}
}
