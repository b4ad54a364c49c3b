package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dealpipe/internal/deal"
)

const showHelp = `  show <id>              Show one deal in full`

func cmdShow(ctx context.Context, o *IO, a *app, args []string) error {
	if hasHelpFlag(args) {
		fprintln(o.out, "Usage: dealpipe show <id>")

		return nil
	}

	if len(args) < 1 || args[0] == "" {
		return errIDRequired
	}

	id := args[0]

	st, openErr := a.open()
	if openErr != nil {
		return openErr
	}

	d, getErr := st.GetByID(ctx, id)
	if getErr != nil {
		return getErr
	}

	if d == nil {
		return fmt.Errorf("%w: %s", errNotFound, id)
	}

	printDeal(o, d)

	return nil
}

// printDeal renders every non-empty field as an aligned key/value line.
func printDeal(o *IO, d *deal.Deal) {
	weighted := ""
	if d.Amount != nil {
		weighted = strconv.FormatFloat(d.WeightedAmount(), 'f', -1, 64)
	}

	fields := []struct {
		name  string
		value string
	}{
		{"ID", d.ID},
		{"Name", d.Name},
		{"Owner", d.Owner},
		{"Stage", string(d.Stage)},
		{"Probability", strconv.Itoa(d.Probability) + "%"},
		{"Amount", formatAmount(d.Amount)},
		{"Weighted", weighted},
		{"Location", d.Location},
		{"Area", d.Area},
		{"Region", d.Region},
		{"MapLink", d.MapLink},
		{"Created", formatDate(&d.Created)},
		{"CloseDate", formatDate(d.CloseDate)},
		{"NextStep", d.NextStep},
		{"NextStepDate", formatDate(d.NextStepDate)},
		{"LastContact", formatDate(d.LastContact)},
		{"Tags", strings.Join(d.Tags, ", ")},
		{"Forecast", strconv.FormatBool(d.Forecast)},
		{"PromoterName", d.PromoterName},
		{"PromoterEmail", d.PromoterEmail},
		{"Notes", d.Notes},
	}

	for _, f := range fields {
		if f.value == "" {
			continue
		}

		o.Printf("%-14s %s\n", f.name+":", f.value)
	}
}

func formatAmount(amount *float64) string {
	if amount == nil {
		return ""
	}

	return strconv.FormatFloat(*amount, 'f', -1, 64)
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}

	return t.Format(deal.DateOnly)
}
