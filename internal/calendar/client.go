package calendar

import (
	"context"
	"fmt"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/gcalmcp/internal/google"
)

// Client wraps the Google Calendar service for one account.
type Client struct {
	svc     *calendar.Service
	account string
}

// NewClientForAccount creates a Calendar client authenticated with the
// account's cached OAuth token.
func NewClientForAccount(ctx context.Context, account string, auth *google.Authorizer) (*Client, error) {
	if auth == nil {
		return nil, fmt.Errorf("authorizer cannot be nil")
	}

	httpClient, err := auth.HTTPClientForAccount(ctx, account)
	if err != nil {
		return nil, err
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{svc: svc, account: account}, nil
}

// Account returns the account name this client is associated with.
func (c *Client) Account() string {
	return c.account
}

// ListEvents lists events in one calendar within a time range, expanding
// recurring events into single instances, ordered by start time.
func (c *Client) ListEvents(calendarID string, timeMin, timeMax time.Time, query string) ([]Event, error) {
	call := c.svc.Events.List(calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")

	if query != "" {
		call = call.Q(query)
	}

	result, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events for %s: %w", calendarID, err)
	}

	events := make([]Event, 0, len(result.Items))
	for _, item := range result.Items {
		events = append(events, toEvent(calendarID, item))
	}

	return events, nil
}

// GetEvent retrieves a specific event by ID.
func (c *Client) GetEvent(calendarID, eventID string) (*Event, error) {
	item, err := c.svc.Events.Get(calendarID, eventID).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	event := toEvent(calendarID, item)
	return &event, nil
}

// CreateEvent creates a new calendar event.
func (c *Client) CreateEvent(calendarID string, input EventInput) (*Event, error) {
	created, err := c.svc.Events.Insert(calendarID, eventFromInput(&calendar.Event{}, input)).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	event := toEvent(calendarID, created)
	return &event, nil
}

// UpdateEvent applies the non-zero fields of input to an existing event.
func (c *Client) UpdateEvent(calendarID, eventID string, input EventInput) (*Event, error) {
	existing, err := c.svc.Events.Get(calendarID, eventID).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get existing event: %w", err)
	}

	updated, err := c.svc.Events.Update(calendarID, eventID, eventFromInput(existing, input)).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	event := toEvent(calendarID, updated)
	return &event, nil
}

// DeleteEvent deletes a calendar event.
func (c *Client) DeleteEvent(calendarID, eventID string) error {
	if err := c.svc.Events.Delete(calendarID, eventID).Do(); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// ListCalendars lists the calendars on the account's calendar list.
func (c *Client) ListCalendars() ([]CalendarInfo, error) {
	list, err := c.svc.CalendarList.List().Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	calendars := make([]CalendarInfo, 0, len(list.Items))
	for _, entry := range list.Items {
		calendars = append(calendars, toCalendarInfo(entry))
	}

	return calendars, nil
}

// QueryFreeBusy reports busy intervals for the given calendars in a range.
func (c *Client) QueryFreeBusy(timeMin, timeMax time.Time, calendarIDs []string) ([]FreeBusy, error) {
	items := make([]*calendar.FreeBusyRequestItem, len(calendarIDs))
	for i, id := range calendarIDs {
		items[i] = &calendar.FreeBusyRequestItem{Id: id}
	}

	result, err := c.svc.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: timeMin.Format(time.RFC3339),
		TimeMax: timeMax.Format(time.RFC3339),
		Items:   items,
	}).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query freebusy: %w", err)
	}

	// Preserve request order; the API responds with a map.
	infos := make([]FreeBusy, 0, len(calendarIDs))
	for _, id := range calendarIDs {
		cal, ok := result.Calendars[id]
		if !ok {
			continue
		}

		info := FreeBusy{Calendar: id}
		for _, busy := range cal.Busy {
			start, _ := time.Parse(time.RFC3339, busy.Start)
			end, _ := time.Parse(time.RFC3339, busy.End)
			info.Busy = append(info.Busy, TimeRange{Start: start, End: end})
		}
		for _, calErr := range cal.Errors {
			info.Errors = append(info.Errors, calErr.Reason)
		}
		infos = append(infos, info)
	}

	return infos, nil
}

// eventFromInput overlays the set fields of input onto base and returns it.
func eventFromInput(base *calendar.Event, input EventInput) *calendar.Event {
	if input.Summary != "" {
		base.Summary = input.Summary
	}
	if input.Description != "" {
		base.Description = input.Description
	}
	if input.Location != "" {
		base.Location = input.Location
	}

	if !input.Start.IsZero() {
		base.Start = toEventDateTime(input.Start, input)
	}
	if !input.End.IsZero() {
		base.End = toEventDateTime(input.End, input)
	}

	if len(input.Attendees) > 0 {
		attendees := make([]*calendar.EventAttendee, 0, len(input.Attendees))
		for _, email := range input.Attendees {
			attendees = append(attendees, &calendar.EventAttendee{Email: email})
		}
		base.Attendees = attendees
	}

	if len(input.Recurrence) > 0 {
		base.Recurrence = input.Recurrence
	}

	return base
}

func toEventDateTime(t time.Time, input EventInput) *calendar.EventDateTime {
	if input.AllDay {
		return &calendar.EventDateTime{Date: t.Format("2006-01-02")}
	}
	tz := input.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	return &calendar.EventDateTime{
		DateTime: t.Format(time.RFC3339),
		TimeZone: tz,
	}
}
