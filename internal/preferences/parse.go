package preferences

import (
	"strconv"
	"strings"

	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

// ParseInput extracts key=value preference tokens from free text.
// Recognized keys: from, to, date, days, budget, currency. Everything
// else, including tokens whose value does not parse, becomes notes.
func ParseInput(text string) models.PreferenceInput {
	var in models.PreferenceInput
	var notes []string

	for _, tok := range strings.Fields(text) {
		key, value, ok := strings.Cut(tok, "=")
		if !ok || value == "" {
			notes = append(notes, tok)
			continue
		}
		v := value
		switch strings.ToLower(key) {
		case "from", "departure":
			in.DepartureCode = &v
		case "to", "arrival":
			in.ArrivalCode = &v
		case "date", "outbound":
			in.OutboundDate = &v
		case "currency":
			in.Currency = &v
		case "days":
			n, err := strconv.Atoi(v)
			if err != nil {
				notes = append(notes, tok)
				continue
			}
			in.TripDays = &n
		case "budget":
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				notes = append(notes, tok)
				continue
			}
			in.Budget = &f
		default:
			notes = append(notes, tok)
		}
	}

	in.Notes = strings.Join(notes, " ")
	return in
}
