package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aj98-official/Nova/internal/auth"
	"github.com/aj98-official/Nova/internal/calendar"
)

// ErrDeliveryRejected marks a permanent notifier failure (missing channel or
// permissions). It is not retried; any other delivery error is transient.
var ErrDeliveryRejected = errors.New("delivery rejected")

// Notifier delivers a formatted text payload to a target channel.
type Notifier interface {
	Deliver(ctx context.Context, channelID, text string) error
}

// TokenProvider produces valid access tokens and can be told to discard the
// cached one when the provider rejects it.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
	Invalidate()
}

// EventSource fetches the calendar events inside a day window.
type EventSource interface {
	EventsForDay(ctx context.Context, accessToken string, dayStart, dayEnd time.Time) ([]calendar.Event, error)
}

// StateStore persists the last fired date across restarts.
type StateStore interface {
	LastFiredDate(ctx context.Context) (string, error)
	SetLastFiredDate(ctx context.Context, date string) error
}

// Config holds the scheduler's immutable settings.
type Config struct {
	ChannelID string
	FireAt    TimeOfDay
	Location  *time.Location
}

// Status describes the scheduler for the admin status command.
type Status struct {
	NextFire      time.Time
	LastFiredDate string // "" if never fired
}

// Scheduler is the orchestrating loop: it waits until the next fire
// instant, builds the day's summary, and delivers it at most once per local
// calendar date. All state mutation happens inside the single-flight firing
// section shared with RunNow.
type Scheduler struct {
	cfg      Config
	tokens   TokenProvider
	events   EventSource
	notifier Notifier
	state    StateStore
	log      *zap.Logger

	mu sync.Mutex // single-flight around the firing path
	// attemptedDate is the local date of the last in-process scheduled
	// attempt, successful or not. It keeps a failed cycle from being
	// re-fired by the catch-up rule before the next natural trigger; it is
	// deliberately not persisted, so a restart may retry the same day.
	attemptedDate string

	now func() time.Time
}

// New creates a Scheduler. The notifier, event source and state store are
// injected so tests can substitute fakes.
func New(cfg Config, tokens TokenProvider, events EventSource, notifier Notifier, state StateStore, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		tokens:   tokens,
		events:   events,
		notifier: notifier,
		state:    state,
		log:      log,
		now:      time.Now,
	}
}

// Run executes the scheduling loop until ctx is canceled. No cycle failure
// is fatal: errors are logged and the loop waits for the next trigger.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		next := s.nextFire(ctx)
		s.log.Info("waiting for next daily summary",
			zap.Time("next_fire", next),
			zap.String("channel", s.cfg.ChannelID),
		)

		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("scheduler stopping")
			return
		case <-timer.C:
		}

		if err := s.fireScheduled(ctx); err != nil {
			s.log.Error("daily summary cycle failed", zap.Error(err))
		}
	}
}

// nextFire computes the next trigger instant from persisted state. A day
// already attempted in-process counts as fired so a failed cycle waits for
// the next natural trigger instead of busy-retrying.
func (s *Scheduler) nextFire(ctx context.Context) time.Time {
	lastFired, err := s.state.LastFiredDate(ctx)
	if err != nil {
		s.log.Error("failed to load scheduler state", zap.Error(err))
	}

	s.mu.Lock()
	attempted := s.attemptedDate
	s.mu.Unlock()

	today := s.now().In(s.cfg.Location).Format(dateLayout)
	if attempted == today && lastFired != today {
		lastFired = today
	}
	return NextFire(s.now(), s.cfg.FireAt, s.cfg.Location, lastFired)
}

// fireScheduled runs one scheduled firing cycle.
func (s *Scheduler) fireScheduled(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.now().In(s.cfg.Location).Format(dateLayout)
	s.attemptedDate = today

	fired, err := s.alreadyFired(ctx, today)
	if err != nil {
		return err
	}
	if fired {
		s.log.Info("summary already delivered today, skipping", zap.String("date", today))
		return nil
	}
	return s.deliverSummary(ctx, today)
}

// RunNow executes the firing path immediately, regardless of trigger clock
// state. It serializes with the scheduled path and is an idempotent no-op
// when today's summary was already delivered. The returned string is a
// user-facing result message.
func (s *Scheduler) RunNow(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.now().In(s.cfg.Location).Format(dateLayout)
	fired, err := s.alreadyFired(ctx, today)
	if err != nil {
		return "", err
	}
	if fired {
		return fmt.Sprintf("Today's summary (%s) was already delivered.", today), nil
	}

	if err := s.deliverSummary(ctx, today); err != nil {
		return "", err
	}
	return "Daily summary delivered.", nil
}

// Status returns the next fire instant and the last fired date.
func (s *Scheduler) Status(ctx context.Context) (Status, error) {
	lastFired, err := s.state.LastFiredDate(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("failed to load scheduler state: %w", err)
	}
	return Status{
		NextFire:      s.nextFire(ctx),
		LastFiredDate: lastFired,
	}, nil
}

func (s *Scheduler) alreadyFired(ctx context.Context, today string) (bool, error) {
	lastFired, err := s.state.LastFiredDate(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load scheduler state: %w", err)
	}
	return lastFired == today, nil
}

// deliverSummary is the Firing state: fetch, format, deliver, persist.
// Callers hold s.mu. The last fired date is persisted only after a
// successful delivery; that ordering is the at-most-once guarantee.
func (s *Scheduler) deliverSummary(ctx context.Context, today string) error {
	day := s.now().In(s.cfg.Location)
	events, err := s.fetchEvents(ctx, day)
	if err != nil {
		return err
	}

	text := FormatDailySummary(day, events)

	deliver := func() error {
		return s.notifier.Deliver(ctx, s.cfg.ChannelID, text)
	}
	retryable := func(err error) bool { return !errors.Is(err, ErrDeliveryRejected) }
	if err := withRetry(ctx, deliver, retryable); err != nil {
		return fmt.Errorf("failed to deliver summary: %w", err)
	}

	if err := s.state.SetLastFiredDate(ctx, today); err != nil {
		return fmt.Errorf("summary delivered but state not persisted: %w", err)
	}

	s.log.Info("daily summary delivered",
		zap.String("date", today),
		zap.Int("events", len(events)),
	)
	return nil
}

// Agenda fetches and formats the agenda for an arbitrary day, for the
// schedule view command. It does not touch scheduler state.
func (s *Scheduler) Agenda(ctx context.Context, day time.Time) (string, []calendar.Event, error) {
	events, err := s.fetchEvents(ctx, day)
	if err != nil {
		return "", nil, err
	}
	return FormatAgenda(day, events), events, nil
}

// fetchEvents obtains a token and fetches the local day's events, applying
// the cycle's retry policy: transient auth errors and rate limits get
// bounded backoff; a rejected access token triggers exactly one forced
// refresh and a single retry; a denied refresh or provider outage fails
// the cycle.
func (s *Scheduler) fetchEvents(ctx context.Context, day time.Time) ([]calendar.Event, error) {
	token, err := s.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	dayStart, dayEnd := dayWindow(day, s.cfg.Location)

	var events []calendar.Event
	fetch := func() error {
		var ferr error
		events, ferr = s.events.EventsForDay(ctx, token, dayStart, dayEnd)
		return ferr
	}

	retryable := func(err error) bool { return errors.Is(err, calendar.ErrRateLimited) }
	err = withRetry(ctx, fetch, retryable)

	if errors.Is(err, calendar.ErrUnauthorized) {
		s.log.Warn("access token rejected, forcing refresh", zap.Error(err))
		s.tokens.Invalidate()
		if token, err = s.accessToken(ctx); err != nil {
			return nil, err
		}
		err = fetch()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	return events, nil
}

// accessToken fetches a token, retrying transient failures. A denied
// refresh is fatal for the cycle and is never retried in-cycle.
func (s *Scheduler) accessToken(ctx context.Context) (string, error) {
	var token string
	fetch := func() error {
		var terr error
		token, terr = s.tokens.AccessToken(ctx)
		return terr
	}
	retryable := func(err error) bool { return !errors.Is(err, auth.ErrRefreshDenied) }
	if err := withRetry(ctx, fetch, retryable); err != nil {
		return "", fmt.Errorf("failed to obtain access token: %w", err)
	}
	return token, nil
}
