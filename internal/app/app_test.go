package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cx-tal-miterani/flight-assistant/internal/calendar"
	"github.com/cx-tal-miterani/flight-assistant/internal/config"
	"github.com/cx-tal-miterani/flight-assistant/internal/logging"
	"github.com/cx-tal-miterani/flight-assistant/internal/provider"
)

func TestNewAdapters_WithoutRedis(t *testing.T) {
	cfg := config.Default()

	a := NewAdapters(cfg, logging.Discard())
	t.Cleanup(func() { _ = a.Close() })

	assert.IsType(t, &provider.SerpAPI{}, a.Searcher)
	assert.IsType(t, calendar.NopSource{}, a.Calendar)
	require.NotNil(t, a.Ranker)
	require.NotNil(t, a.Oracle)
}

func TestNewAdapters_WithRedis(t *testing.T) {
	cfg := config.Default()
	cfg.Redis.Addr = "localhost:6379"

	a := NewAdapters(cfg, logging.Discard())
	t.Cleanup(func() { _ = a.Close() })

	assert.IsType(t, &provider.CachedSearcher{}, a.Searcher)
}

func TestNewCalendar(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.CalendarConfig
		want calendar.Source
	}{
		{name: "file wins", cfg: config.CalendarConfig{File: "events.yaml", Token: "tok"}, want: &calendar.FileSource{}},
		{name: "google", cfg: config.CalendarConfig{Token: "tok", CalendarID: "primary"}, want: &calendar.GoogleClient{}},
		{name: "none", cfg: config.CalendarConfig{}, want: calendar.NopSource{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.IsType(t, tt.want, NewCalendar(tt.cfg, logging.Discard()))
		})
	}
}
