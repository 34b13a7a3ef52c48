package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cx-tal-miterani/flight-assistant/internal/display"
	"github.com/cx-tal-miterani/flight-assistant/internal/preferences"
	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

const preferencesHelp = `Describe your trip, e.g.
  from=BUD to=LIN date=2025-12-25 days=10 budget=300 currency=EUR morning flights, no red-eye
Anything that is not a key=value pair is passed to the ranking as free text.`

// promptUI runs a session over line-based input
type promptUI struct {
	lines <-chan string
	out   io.Writer
}

// newPromptUI starts reading in. The reader stops once ctx is done; a
// read already blocked on in only returns when in does.
func newPromptUI(ctx context.Context, in io.Reader, out io.Writer) *promptUI {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			if ctx.Err() != nil {
				return
			}
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return &promptUI{lines: lines, out: out}
}

func (p *promptUI) readLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-p.lines:
		if !ok {
			return "", io.EOF
		}
		return strings.TrimSpace(line), nil
	}
}

func (p *promptUI) Preferences(ctx context.Context, state *models.PipelineState) (models.PreferencesSignal, error) {
	if state.Round == 0 {
		fmt.Fprintln(p.out, display.SubtleStyle.Render(preferencesHelp))
		for _, inv := range state.Invitations {
			fmt.Fprintln(p.out, "Found an invitation: "+inv.EventTitle)
		}
		fmt.Fprint(p.out, "> ")
	} else {
		fmt.Fprint(p.out, "Refine (only what changes): ")
	}

	line, err := p.readLine(ctx)
	if err != nil {
		return models.PreferencesSignal{}, err
	}
	return models.PreferencesSignal{Input: preferences.ParseInput(line), Text: line}, nil
}

func (p *promptUI) Present(_ context.Context, state *models.PipelineState) error {
	_, err := fmt.Fprintln(p.out, display.State(state))
	return err
}

func (p *promptUI) Decide(ctx context.Context, state *models.PipelineState) (models.DecisionSignal, error) {
	if len(state.Shortlist) == 0 {
		fmt.Fprint(p.out, "Nothing to book. Press enter to change your preferences: ")
		if _, err := p.readLine(ctx); err != nil {
			return models.DecisionSignal{}, err
		}
		return models.DecisionSignal{Choice: models.ChoiceRefine}, nil
	}

	fmt.Fprintf(p.out, "Book a flight [1-%d, enter for 1] or r to refine: ", len(state.Shortlist))
	line, err := p.readLine(ctx)
	if err != nil {
		return models.DecisionSignal{}, err
	}
	return parseDecision(line), nil
}

// parseDecision maps an answer onto a decision. Numbers are 1-based;
// anything unrecognized is passed through for the pipeline to reject.
func parseDecision(line string) models.DecisionSignal {
	switch strings.ToLower(line) {
	case "":
		return models.DecisionSignal{Choice: models.ChoiceBook}
	case "r", "refine":
		return models.DecisionSignal{Choice: models.ChoiceRefine}
	case "b", "book":
		return models.DecisionSignal{Choice: models.ChoiceBook}
	}
	if n, err := strconv.Atoi(line); err == nil {
		return models.DecisionSignal{Choice: models.ChoiceBook, Index: n - 1}
	}
	return models.DecisionSignal{Choice: models.Choice(line)}
}
