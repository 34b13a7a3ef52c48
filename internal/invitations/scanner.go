// Package invitations finds event invitations in a user's stored emails.
package invitations

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/cx-tal-miterani/flight-assistant/internal/llmjson"
	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

const maxBodyChars = 4000

// Oracle answers a natural-language prompt
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Store loads a user's mailbox and records what was found in it
type Store interface {
	ListUserEmails(ctx context.Context, userEmail string) ([]models.Email, error)
	SaveInvitations(ctx context.Context, sessionID string, invitations []models.Invitation) error
}

// Scanner classifies emails one by one
type Scanner struct {
	oracle Oracle
	store  Store
	logger *slog.Logger
}

// NewScanner creates a Scanner
func NewScanner(oracle Oracle, store Store, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{oracle: oracle, store: store, logger: logger}
}

type classification struct {
	IsInvitation  bool   `json:"is_invitation"`
	EventTitle    string `json:"event_title"`
	EventLocation string `json:"event_location"`
	EventTime     string `json:"event_time"`
}

// Scan returns the invitations found in the user's mailbox. Emails the
// oracle cannot classify are skipped. Only failing to read the mailbox
// is an error.
func (s *Scanner) Scan(ctx context.Context, sessionID, userEmail string) ([]models.Invitation, error) {
	emails, err := s.store.ListUserEmails(ctx, userEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to load emails: %w", err)
	}

	found := []models.Invitation{}
	for _, e := range emails {
		c, err := s.classify(ctx, e)
		if err != nil {
			s.logger.Warn("skipping email", slog.Int64("email_id", e.ID), slog.String("error", err.Error()))
			continue
		}
		if !c.IsInvitation {
			continue
		}
		found = append(found, models.Invitation{
			EmailID:       e.ID,
			Subject:       e.Subject,
			EventTitle:    firstNonEmpty(c.EventTitle, e.Subject),
			EventLocation: c.EventLocation,
			EventTime:     c.EventTime,
		})
	}

	if len(found) > 0 {
		if err := s.store.SaveInvitations(ctx, sessionID, found); err != nil {
			s.logger.Warn("failed to save invitations", slog.String("session_id", sessionID), slog.String("error", err.Error()))
		}
	}
	s.logger.Info("invitation scan finished", slog.Int("emails", len(emails)), slog.Int("invitations", len(found)))
	return found, nil
}

func (s *Scanner) classify(ctx context.Context, e models.Email) (classification, error) {
	resp, err := s.oracle.Complete(ctx, buildPrompt(e))
	if err != nil {
		return classification{}, err
	}
	data, err := llmjson.Extract(resp)
	if err != nil {
		return classification{}, err
	}
	var c classification
	if err := json.Unmarshal(data, &c); err != nil {
		return classification{}, fmt.Errorf("invalid classification: %w", err)
	}
	return c, nil
}

func buildPrompt(e models.Email) string {
	body := truncate(e.Body, maxBodyChars)
	var b strings.Builder
	b.WriteString("Decide whether the following email invites the reader to an event.\n\n")
	fmt.Fprintf(&b, "From: %s\nSubject: %s\n\n%s\n\n", e.Sender, e.Subject, body)
	b.WriteString(`Return ONLY a JSON object: {"is_invitation": true|false, "event_title": "", "event_location": "", "event_time": ""}`)
	return b.String()
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
