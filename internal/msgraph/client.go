// Package msgraph imports shifts from an Outlook calendar through the
// Microsoft Graph API.
package msgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	graphBaseURL = "https://graph.microsoft.com/v1.0"
	pageSize     = 100
)

// eventFields limits calendarView responses to what the import reads.
var eventFields = []string{"id", "subject", "categories", "isAllDay", "isCancelled", "showAs", "start", "end"}

// Client reads calendar events from Microsoft Graph.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a Graph API client authorised by ts.
func NewClient(ctx context.Context, ts oauth2.TokenSource) *Client {
	return NewClientWithHTTP(oauth2.NewClient(ctx, ts), graphBaseURL)
}

// NewClientWithHTTP creates a client that sends requests with hc to baseURL.
func NewClientWithHTTP(hc *http.Client, baseURL string) *Client {
	return &Client{httpClient: hc, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// EventTime is a Graph dateTimeTimeZone value.
type EventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// CalendarEvent is the subset of a Graph event used to derive a work log.
type CalendarEvent struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	Categories  []string  `json:"categories"`
	IsAllDay    bool      `json:"isAllDay"`
	IsCancelled bool      `json:"isCancelled"`
	ShowAs      string    `json:"showAs"` // free, tentative, busy, oof, workingElsewhere, unknown
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
}

// APIError is a non-200 answer from Graph.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("graph API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("graph API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Code != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}

type calendarPage struct {
	Value    []CalendarEvent `json:"value"`
	NextLink string          `json:"@odata.nextLink"`
}

// GetCalendarView returns the events overlapping [from, to), following
// @odata.nextLink until the last page. timezone is an IANA name used for the
// returned event times; "" means UTC.
func (c *Client) GetCalendarView(ctx context.Context, from, to time.Time, timezone string) ([]CalendarEvent, error) {
	q := url.Values{}
	q.Set("startDateTime", from.UTC().Format(time.RFC3339))
	q.Set("endDateTime", to.UTC().Format(time.RFC3339))
	q.Set("$select", strings.Join(eventFields, ","))
	q.Set("$orderby", "start/dateTime")
	q.Set("$top", fmt.Sprint(pageSize))
	next := c.baseURL + "/me/calendarView?" + q.Encode()

	var events []CalendarEvent
	for next != "" {
		page, err := c.getPage(ctx, next, timezone)
		if err != nil {
			return nil, err
		}
		events = append(events, page.Value...)
		next = page.NextLink
	}
	return events, nil
}

func (c *Client) getPage(ctx context.Context, endpoint, timezone string) (calendarPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return calendarPage{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if timezone != "" {
		req.Header.Set("Prefer", fmt.Sprintf(`outlook.timezone="%s"`, timezone))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return calendarPage{}, fmt.Errorf("graph API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return calendarPage{}, newAPIError(resp.StatusCode, body)
	}

	var page calendarPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return calendarPage{}, fmt.Errorf("decoding graph response: %w", err)
	}
	return page, nil
}
