package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/cx-tal-miterani/flight-assistant/internal/history"
	"github.com/cx-tal-miterani/flight-assistant/internal/observability"
	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

// FormatPrice renders a price, or "n/a" when the offer had none
func FormatPrice(price *float64, currency string) string {
	if price == nil {
		return "n/a"
	}
	if currency == "" {
		return fmt.Sprintf("%.2f", *price)
	}
	return fmt.Sprintf("%.2f %s", *price, currency)
}

// Preferences renders the resolved search parameters on one line
func Preferences(p *models.TravelPreferences) string {
	if p == nil {
		return SubtleStyle.Render("no preferences yet")
	}
	line := fmt.Sprintf("%s → %s  %s – %s (%d days)  %s",
		p.DepartureCode, p.ArrivalCode, p.OutboundDate, p.ReturnDate, p.TripDays, p.Currency)
	if p.Budget != nil {
		line += fmt.Sprintf("  budget %.0f", *p.Budget)
	}
	return line
}

// Shortlist renders the ranked flights as a numbered list. Numbers start
// at 1; the decision prompt maps them back to indexes.
func Shortlist(flights []models.RankedFlight) string {
	if len(flights) == 0 {
		return WarnStyle.Render("No flights matched your preferences.")
	}

	var b strings.Builder
	for i, f := range flights {
		head := fmt.Sprintf("%d. %s  %s", i+1, f.Airline, FormatPrice(f.Price, f.Currency))
		if i == 0 {
			head = SelectedStyle.Render(head)
		}
		b.WriteString(head)
		b.WriteString("\n")

		details := []string{f.Route}
		if f.Duration != "" {
			details = append(details, f.Duration)
		}
		if f.DepartureDate != "" {
			details = append(details, "departs "+f.DepartureDate)
		}
		b.WriteString("   " + SubtleStyle.Render(strings.Join(details, " · ")))
		b.WriteString("\n")
		if f.Justification != "" {
			b.WriteString("   " + f.Justification + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// State renders everything the user needs at the decision point
func State(s *models.PipelineState) string {
	sections := []string{
		TitleStyle.Render(fmt.Sprintf("Session %s · round %d · %s", s.SessionID, s.Round, s.Stage)),
		Preferences(s.Preferences),
	}

	if len(s.Invitations) > 0 {
		lines := []string{"Invitations found:"}
		for _, inv := range s.Invitations {
			line := "  • " + inv.EventTitle
			if inv.EventTime != "" {
				line += " (" + inv.EventTime + ")"
			}
			if inv.EventLocation != "" {
				line += " @ " + inv.EventLocation
			}
			lines = append(lines, line)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if s.SearchStatus == models.SearchStatusFailed {
		sections = append(sections, ErrorStyle.Render("Flight search failed."))
	}
	if s.CalendarStatus != "" {
		sections = append(sections, SubtleStyle.Render("Calendar: "+string(s.CalendarStatus)))
	}

	shortlist := Shortlist(s.Shortlist)
	if s.ShortlistSource == models.SourceFallback {
		shortlist = WarnStyle.Render("Ranking unavailable, showing the cheapest flights.") + "\n" + shortlist
	}
	sections = append(sections, BoxStyle.Render(shortlist))

	if len(s.Reasoning) > 0 {
		lines := []string{"Why these flights:"}
		for _, r := range s.Reasoning {
			lines = append(lines, "  • "+r)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if len(s.Degradations) > 0 {
		lines := make([]string, len(s.Degradations))
		for i, d := range s.Degradations {
			lines[i] = WarnStyle.Render("! " + d)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Booking renders a confirmed booking
func Booking(b *models.Booking) string {
	if b == nil {
		return ErrorStyle.Render("No booking was recorded.")
	}
	lines := []string{
		SuccessStyle.Render("✓ Booking confirmed"),
		fmt.Sprintf("Booking %s · confirmation %s", b.ID, b.ConfirmationNumber),
		fmt.Sprintf("%s  %s  %s", b.Flight.Airline, b.Flight.Route, FormatPrice(b.Flight.Price, b.Flight.Currency)),
	}
	return BoxStyle.Render(strings.Join(lines, "\n"))
}

// Outcome renders the end of a session
func Outcome(s *models.PipelineState) string {
	switch s.Outcome {
	case models.OutcomeBookingConfirmed:
		return Booking(s.Booking)
	case models.OutcomeIncomplete:
		return WarnStyle.Render(fmt.Sprintf("Session ended without a booking after %d round(s).", s.Round))
	default:
		return SubtleStyle.Render(string(s.Outcome))
	}
}

// History renders stored sessions, newest first
func History(entries []history.Entry, now time.Time) string {
	if len(entries) == 0 {
		return SubtleStyle.Render("No sessions recorded yet.")
	}

	rows := []string{TitleStyle.Render(fmt.Sprintf("%-10s %-18s %-7s %-10s %s", "SESSION", "OUTCOME", "ROUNDS", "FINISHED", "ROUTE"))}
	for _, e := range entries {
		route := "-"
		if e.State != nil && e.State.Preferences != nil {
			route = e.State.Preferences.DepartureCode + " → " + e.State.Preferences.ArrivalCode
		}
		outcome := string(e.Outcome)
		if e.Outcome == models.OutcomeBookingConfirmed {
			outcome = SuccessStyle.Render(fmt.Sprintf("%-18s", outcome))
		} else {
			outcome = fmt.Sprintf("%-18s", outcome)
		}
		rows = append(rows, fmt.Sprintf("%-10s %s %-7d %-10s %s", e.SessionID, outcome, e.Rounds, formatAge(now.Sub(e.FinishedAt)), route))
	}
	return strings.Join(rows, "\n")
}

// Metrics renders a metric snapshot
func Metrics(series []observability.Series) string {
	if len(series) == 0 {
		return SubtleStyle.Render("No metrics recorded.")
	}
	rows := []string{TitleStyle.Render("Metrics")}
	for _, s := range series {
		row := fmt.Sprintf("  %s{%s} count=%d", s.Name, s.Attributes, s.Count)
		if s.Sum != float64(s.Count) {
			row += fmt.Sprintf(" sum=%.2f", s.Sum)
		}
		rows = append(rows, row)
	}
	return strings.Join(rows, "\n")
}

// formatAge returns a human-readable relative time string
func formatAge(d time.Duration) string {
	if d < time.Minute {
		return "just now"
	}
	minutes := int(d.Minutes())
	if minutes < 60 {
		return fmt.Sprintf("%dm ago", minutes)
	}
	hours := int(d.Hours())
	if hours < 24 {
		return fmt.Sprintf("%dh ago", hours)
	}
	return fmt.Sprintf("%dd ago", hours/24)
}
