package ranking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/cx-tal-miterani/flight-assistant/internal/candidates"
	"github.com/cx-tal-miterani/flight-assistant/internal/llmjson"
	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

const shortlistSchemaURL = "https://flight-assistant.local/schemas/shortlist.json"

const shortlistSchemaJSON = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["airline"],
    "properties": {
      "airline": {"type": "string", "minLength": 1},
      "price": {"type": ["number", "string", "null"]},
      "duration": {"type": ["string", "number", "null"]},
      "route": {"type": ["string", "null"]},
      "justification": {"type": ["string", "null"]},
      "reason": {"type": ["string", "null"]}
    }
  }
}`

var shortlistSchema = mustCompile(shortlistSchemaURL, shortlistSchemaJSON)

func mustCompile(url, schema string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(url, strings.NewReader(schema)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", url, err))
	}
	s, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", url, err))
	}
	return s
}

// OracleFlight is one entry of the oracle's answer
type OracleFlight struct {
	Airline       string
	Price         *float64
	Duration      string
	Route         string
	Justification string
}

// ParseShortlist extracts the oracle's flight list. Markdown fences are
// stripped and a single object is treated as a one-element list.
func ParseShortlist(resp string) ([]OracleFlight, error) {
	data, err := llmjson.Extract(resp)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid oracle JSON: %w", err)
	}

	var list []any
	switch t := v.(type) {
	case map[string]any:
		list = []any{t}
	case []any:
		list = t
	default:
		return nil, fmt.Errorf("unexpected oracle JSON type %T", v)
	}
	if len(list) == 0 {
		return nil, ErrEmptyShortlist
	}
	if err := shortlistSchema.Validate(list); err != nil {
		return nil, fmt.Errorf("oracle JSON has unexpected shape: %w", err)
	}

	out := make([]OracleFlight, 0, len(list))
	for _, item := range list {
		obj := item.(map[string]any)
		f := OracleFlight{
			Airline:  strings.TrimSpace(stringField(obj["airline"])),
			Duration: durationField(obj["duration"]),
			Route:    stringField(obj["route"]),
		}
		f.Justification = stringField(obj["justification"])
		if f.Justification == "" {
			f.Justification = stringField(obj["reason"])
		}
		if p, ok := numberField(obj["price"]); ok {
			f.Price = &p
		}
		out = append(out, f)
	}
	return out, nil
}

// Reconcile maps oracle entries back onto the candidates they describe so
// ids and dates survive. Entries matching no candidate are dropped: the
// shortlist only ever holds screened candidates.
func Reconcile(items []OracleFlight, cands []models.FlightCandidate) []models.RankedFlight {
	used := make([]bool, len(cands))
	out := make([]models.RankedFlight, 0, len(items))

	for _, item := range items {
		idx := match(item, cands, used)
		if idx < 0 {
			continue
		}
		used[idx] = true
		out = append(out, models.RankedFlight{FlightCandidate: cands[idx], Justification: item.Justification})
	}
	return out
}

func match(item OracleFlight, cands []models.FlightCandidate, used []bool) int {
	if item.Price != nil {
		for i, c := range cands {
			if !used[i] && strings.EqualFold(c.Airline, item.Airline) && c.Price != nil && math.Abs(*c.Price-*item.Price) < 0.01 {
				return i
			}
		}
	}
	if item.Route != "" {
		for i, c := range cands {
			if !used[i] && strings.EqualFold(c.Airline, item.Airline) && sameRoute(c.Route, item.Route) {
				return i
			}
		}
	}
	return -1
}

func sameRoute(a, b string) bool {
	norm := func(s string) string {
		s = strings.ReplaceAll(s, "->", "→")
		return strings.ToUpper(strings.Join(strings.Fields(s), ""))
	}
	return norm(a) == norm(b)
}

func stringField(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// durationField accepts "Hh Mm" text or a bare number of minutes
func durationField(v any) string {
	if n, ok := v.(json.Number); ok {
		if m, err := n.Int64(); err == nil && m >= 0 {
			return candidates.FormatDuration(int(m))
		}
		return n.String()
	}
	return stringField(v)
}

func numberField(v any) (float64, bool) {
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = strings.ReplaceAll(strings.TrimLeft(strings.TrimSpace(t), "$€£"), ",", "")
	default:
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
