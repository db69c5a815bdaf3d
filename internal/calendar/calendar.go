// Package calendar wraps the Google Calendar events API behind a small
// gateway that returns typed failures the scheduler can act on.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

var (
	// ErrUnauthorized means the access token was rejected. The caller should
	// force one credential refresh and retry once.
	ErrUnauthorized = errors.New("calendar access unauthorized")
	// ErrRateLimited means the provider asked us to back off.
	ErrRateLimited = errors.New("calendar rate limited")
	// ErrUnavailable covers provider outages and transport failures; the
	// cycle fails without further local retry.
	ErrUnavailable = errors.New("calendar unavailable")
	// ErrEventNotFound means the event was already deleted or never existed.
	ErrEventNotFound = errors.New("event not found")
)

// Event is a read-only snapshot of a calendar event.
type Event struct {
	ID      string
	Summary string
	Start   time.Time
	End     time.Time
	AllDay  bool
}

// Client is a wrapper around the Google Calendar API service. A service is
// built per call from the supplied access token, so the client itself holds
// no credentials.
type Client struct {
	calendarID string
	log        *zap.Logger
	opts       []option.ClientOption
}

// NewClient creates a new Google Calendar API client for the given calendar.
// Extra options (such as an endpoint override) are appended to every service
// construction; tests use this to point the client at a stub server.
func NewClient(calendarID string, log *zap.Logger, opts ...option.ClientOption) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{calendarID: calendarID, log: log, opts: opts}
}

func (c *Client) service(ctx context.Context, accessToken string) (*gcal.Service, error) {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	opts := append([]option.ClientOption{option.WithTokenSource(source)}, c.opts...)
	service, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return service, nil
}

// EventsForDay retrieves all events in [dayStart, dayEnd), fully draining
// pagination before returning. Recurring events are expanded to instances.
// An empty slice is a valid result. Events are ordered by start time
// ascending, with all-day events before timed events on the same date.
func (c *Client) EventsForDay(ctx context.Context, accessToken string, dayStart, dayEnd time.Time) ([]Event, error) {
	service, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var events []Event
	pageToken := ""
	for {
		call := service.Events.List(c.calendarID).
			TimeMin(dayStart.Format(time.RFC3339)).
			TimeMax(dayEnd.Format(time.RFC3339)).
			SingleEvents(true). // Expand recurring events
			OrderBy("startTime").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		list, err := call.Do()
		if err != nil {
			return nil, mapAPIError(err)
		}

		for _, item := range list.Items {
			event, err := parseEvent(item, dayStart.Location())
			if err != nil {
				c.log.Warn("skipping malformed event",
					zap.String("event_id", item.Id),
					zap.Error(err),
				)
				continue
			}
			events = append(events, event)
		}

		if list.NextPageToken == "" {
			break
		}
		pageToken = list.NextPageToken
	}

	sortEvents(events)
	return events, nil
}

// AddEvent inserts a timed event into the calendar and returns its link.
func (c *Client) AddEvent(ctx context.Context, accessToken, summary string, start, end time.Time) (string, error) {
	service, err := c.service(ctx, accessToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	event := &gcal.Event{
		Summary: summary,
		Start: &gcal.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: start.Location().String(),
		},
		End: &gcal.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: end.Location().String(),
		},
	}

	created, err := service.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", mapAPIError(err)
	}
	return created.HtmlLink, nil
}

// RemoveEvent deletes an event by ID. A 404/410 maps to ErrEventNotFound so
// callers can report "already gone" instead of a failure.
func (c *Client) RemoveEvent(ctx context.Context, accessToken, eventID string) error {
	service, err := c.service(ctx, accessToken)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := service.Events.Delete(c.calendarID, eventID).Context(ctx).Do(); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
			return ErrEventNotFound
		}
		return mapAPIError(err)
	}
	return nil
}

// parseEvent converts an API event into an Event snapshot. All-day events
// carry a date only; their Start/End are local midnights in loc.
func parseEvent(item *gcal.Event, loc *time.Location) (Event, error) {
	event := Event{ID: item.Id, Summary: item.Summary}

	if item.Start == nil || item.End == nil {
		return event, fmt.Errorf("event %s has no start or end", item.Id)
	}

	if item.Start.Date != "" {
		start, err := time.ParseInLocation("2006-01-02", item.Start.Date, loc)
		if err != nil {
			return event, fmt.Errorf("failed to parse all-day start: %w", err)
		}
		end := start.AddDate(0, 0, 1)
		if item.End.Date != "" {
			if parsed, err := time.ParseInLocation("2006-01-02", item.End.Date, loc); err == nil {
				end = parsed
			}
		}
		event.Start = start
		event.End = end
		event.AllDay = true
		return event, nil
	}

	start, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return event, fmt.Errorf("failed to parse event start time: %w", err)
	}
	end, err := time.Parse(time.RFC3339, item.End.DateTime)
	if err != nil {
		return event, fmt.Errorf("failed to parse event end time: %w", err)
	}
	event.Start = start.In(loc)
	event.End = end.In(loc)
	return event, nil
}

// sortEvents orders events by start time ascending; all-day events sort
// before timed events that share a start date.
func sortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		di := events[i].Start.Format("2006-01-02")
		dj := events[j].Start.Format("2006-01-02")
		if di != dj {
			return di < dj
		}
		if events[i].AllDay != events[j].AllDay {
			return events[i].AllDay
		}
		return events[i].Start.Before(events[j].Start)
	})
}

// mapAPIError translates provider failures into the gateway's typed errors.
func mapAPIError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		// Transport-level failure; the cycle fails without local retry.
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch {
	case apiErr.Code == http.StatusUnauthorized:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, apiErr.Code)
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrRateLimited, apiErr.Code)
	case apiErr.Code == http.StatusForbidden && isRateReason(apiErr):
		return fmt.Errorf("%w: status %d", ErrRateLimited, apiErr.Code)
	case apiErr.Code == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, apiErr.Code)
	default:
		return fmt.Errorf("%w: status %d", ErrUnavailable, apiErr.Code)
	}
}

// isRateReason reports whether a 403 carries a quota reason rather than a
// permission problem.
func isRateReason(apiErr *googleapi.Error) bool {
	for _, item := range apiErr.Errors {
		switch item.Reason {
		case "rateLimitExceeded", "userRateLimitExceeded", "quotaExceeded":
			return true
		}
	}
	return false
}
