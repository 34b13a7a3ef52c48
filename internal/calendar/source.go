package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

// Source supplies busy intervals between two dates (YYYY-MM-DD, inclusive)
type Source interface {
	Events(ctx context.Context, from, to string) ([]models.CalendarEvent, error)
}

// GoogleClient reads events from the Google Calendar v3 API using an
// already-issued bearer token
type GoogleClient struct {
	baseURL    string
	calendarID string
	token      string
	httpClient *http.Client
}

// NewGoogleClient creates a Google Calendar source
func NewGoogleClient(baseURL, calendarID, token string, timeout time.Duration) *GoogleClient {
	return &GoogleClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		calendarID: calendarID,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type eventsResponse struct {
	Items []models.CalendarEvent `json:"items"`
}

// Events lists single events overlapping [from, to]
func (g *GoogleClient) Events(ctx context.Context, from, to string) ([]models.CalendarEvent, error) {
	start, err := models.ParseDate(from)
	if err != nil {
		return nil, fmt.Errorf("invalid range start: %w", err)
	}
	end, err := models.ParseDate(to)
	if err != nil {
		return nil, fmt.Errorf("invalid range end: %w", err)
	}

	q := url.Values{}
	q.Set("timeMin", start.Format(time.RFC3339))
	q.Set("timeMax", end.AddDate(0, 0, 1).Format(time.RFC3339))
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")
	endpoint := fmt.Sprintf("%s/calendars/%s/events?%s", g.baseURL, url.PathEscape(g.calendarID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar events: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar API returned status %d", resp.StatusCode)
	}

	var body eventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode calendar events: %w", err)
	}
	return body.Items, nil
}

// FileSource reads events from a local JSON or YAML file. The file holds
// either a list of events or an object with an "items" list.
type FileSource struct {
	path string
}

// NewFileSource creates a file-backed source
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Events returns every event in the file that overlaps [from, to].
// Events that cannot be parsed are returned as-is for the filter to report.
func (f *FileSource) Events(_ context.Context, from, to string) ([]models.CalendarEvent, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar file: %w", err)
	}

	var events []models.CalendarEvent
	switch strings.ToLower(filepath.Ext(f.path)) {
	case ".yaml", ".yml":
		events, err = decodeEvents(data, yaml.Unmarshal)
	default:
		events, err = decodeEvents(data, json.Unmarshal)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar file %s: %w", f.path, err)
	}

	window, werr := rangeInterval(from, to)
	if werr != nil {
		return events, nil
	}
	out := make([]models.CalendarEvent, 0, len(events))
	for _, e := range events {
		iv, err := EventInterval(e)
		if err != nil || iv.Overlaps(window) {
			out = append(out, e)
		}
	}
	return out, nil
}

func decodeEvents(data []byte, unmarshal func([]byte, any) error) ([]models.CalendarEvent, error) {
	var list []models.CalendarEvent
	if err := unmarshal(data, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Items []models.CalendarEvent `json:"items" yaml:"items"`
	}
	if err := unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Items, nil
}

func rangeInterval(from, to string) (Interval, error) {
	start, err := models.ParseDate(from)
	if err != nil {
		return Interval{}, err
	}
	end, err := models.ParseDate(to)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: start, End: end}, nil
}

// NopSource never reports events, which makes the calendar stage a pass-through
type NopSource struct{}

// Events always returns no events
func (NopSource) Events(context.Context, string, string) ([]models.CalendarEvent, error) {
	return nil, nil
}
