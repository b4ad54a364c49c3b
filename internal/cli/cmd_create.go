package cli

import (
	"context"
	"errors"
	"strings"

	flag "github.com/spf13/pflag"

	"dealpipe/internal/deal"
	"dealpipe/internal/patch"
)

var errNameRequired = errors.New("deal name is required")

const createHelp = `  create <name>          Create deal, prints ID
    -o, --owner            Owner
    -s, --stage            Stage (Lead|Qualified|Proposal|Negotiation|Won|Lost) [default: Lead]
    -p, --probability      Win probability 0-100 [default: stage default]
    -a, --amount           Deal value
    -l, --location         Postcode or address (derives area/region/map link)
    --close                Expected close date (YYYY-MM-DD)
    --next-step            Next step text
    --next-step-date       Next step due date
    --last-contact         Last contact date
    --tags                 Comma-separated tags
    --forecast             Include in forecast (true|false)
    --promoter             Promoter name
    --promoter-email       Promoter email
    -n, --notes            Free-form notes`

func cmdCreate(ctx context.Context, o *IO, a *app, args []string) error {
	flagSet := flag.NewFlagSet("create", flag.ContinueOnError)
	flagSet.SetOutput(o.errOut)

	owner := flagSet.StringP("owner", "o", "", "Owner")
	stage := flagSet.StringP("stage", "s", string(deal.StageLead), "Stage")
	probability := flagSet.StringP("probability", "p", "", "Win probability 0-100")
	amount := flagSet.StringP("amount", "a", "", "Deal value")
	location := flagSet.StringP("location", "l", "", "Postcode or address")
	closeDate := flagSet.String("close", "", "Expected close date")
	nextStep := flagSet.String("next-step", "", "Next step text")
	nextStepDate := flagSet.String("next-step-date", "", "Next step due date")
	lastContact := flagSet.String("last-contact", "", "Last contact date")
	tags := flagSet.String("tags", "", "Comma-separated tags")
	forecast := flagSet.String("forecast", "", "Include in forecast")
	promoter := flagSet.String("promoter", "", "Promoter name")
	promoterEmail := flagSet.String("promoter-email", "", "Promoter email")
	notes := flagSet.StringP("notes", "n", "", "Free-form notes")

	if hasHelpFlag(args) {
		fprintln(o.out, "Usage: dealpipe create <name> [options]")
		fprintln(o.out, "")
		fprintln(o.out, "Create a new deal. Prints the generated ID on success.")

		return nil
	}

	parseErr := flagSet.Parse(args)
	if parseErr != nil {
		return parseErr
	}

	name := ""
	if flagSet.NArg() > 0 {
		name = flagSet.Arg(0)
	}

	if name == "" {
		return errNameRequired
	}

	// Route every typed value through the patch whitelist so create and set
	// share one parser and one set of validation messages.
	fields := map[string]string{"Stage": *stage}

	for _, f := range []struct{ field, flagName, value string }{
		{"Owner", "owner", *owner},
		{"Probability", "probability", *probability},
		{"Amount", "amount", *amount},
		{"Location", "location", *location},
		{"CloseDate", "close", *closeDate},
		{"NextStep", "next-step", *nextStep},
		{"NextStepDate", "next-step-date", *nextStepDate},
		{"LastContact", "last-contact", *lastContact},
		{"Tags", "tags", *tags},
		{"Forecast", "forecast", *forecast},
		{"PromoterName", "promoter", *promoter},
		{"PromoterEmail", "promoter-email", *promoterEmail},
		{"Notes", "notes", *notes},
	} {
		if flagSet.Changed(f.flagName) {
			fields[f.field] = f.value
		}
	}

	base := deal.Deal{Name: name}

	result := patch.Apply(&base, fields, a.env)
	if !result.OK {
		for _, rejection := range result.Rejected {
			o.ErrPrintln("error: --"+flagToName(rejection.Field)+":", rejection.Reason)
		}

		return errInvalidFlags
	}

	st, openErr := a.open()
	if openErr != nil {
		return openErr
	}

	stored, _, upsertErr := st.Upsert(ctx, *result.Deal)
	if upsertErr != nil {
		return upsertErr
	}

	saveErr := st.SaveChanges(ctx)
	if saveErr != nil {
		return saveErr
	}

	o.Println(stored.ID)

	return nil
}

// flagToName maps a patched field name back to its create flag.
func flagToName(field string) string {
	names := map[string]string{
		"CloseDate":     "close",
		"NextStep":      "next-step",
		"NextStepDate":  "next-step-date",
		"LastContact":   "last-contact",
		"PromoterName":  "promoter",
		"PromoterEmail": "promoter-email",
	}

	if name, ok := names[field]; ok {
		return name
	}

	return strings.ToLower(field)
}
