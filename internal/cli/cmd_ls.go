package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"dealpipe/internal/deal"
	"dealpipe/internal/repo"
)

const lsHelp = `  ls [filters]           List deals
    --owner                Filter by owner
    --stage                Filter by stage (repeatable)
    --region               Filter by region
    --min-amount           Minimum deal value
    --max-amount           Maximum deal value
    --search               Substring search (name, owner, notes, next step, location)
    --tag                  Require tag (repeatable)
    --overdue              Only deals with an overdue next step
    --no-contact           No contact within the last N days
    --date-field           Date for --from/--to (created|close|nextstep|lastcontact)
    --from, --to           Inclusive date range (YYYY-MM-DD)
    --promoter             Filter by promoter name`

func cmdLs(ctx context.Context, o *IO, a *app, args []string) error {
	if hasHelpFlag(args) {
		fprintln(o.out, "Usage: dealpipe ls [filters]")
		fprintln(o.out, "")
		fprintln(o.out, "List deals, oldest first. All filters are ANDed together.")

		return nil
	}

	flagSet := flag.NewFlagSet("ls", flag.ContinueOnError)
	flagSet.SetOutput(o.errOut)

	owner := flagSet.String("owner", "", "Filter by owner")
	stages := flagSet.StringArray("stage", nil, "Filter by stage (repeatable)")
	region := flagSet.String("region", "", "Filter by region")
	minAmount := flagSet.String("min-amount", "", "Minimum deal value")
	maxAmount := flagSet.String("max-amount", "", "Maximum deal value")
	search := flagSet.String("search", "", "Substring search")
	tags := flagSet.StringArray("tag", nil, "Require tag (repeatable)")
	overdue := flagSet.Bool("overdue", false, "Only overdue next steps")
	noContact := flagSet.Int("no-contact", 0, "No contact within last N days")
	dateField := flagSet.String("date-field", "created", "Date addressed by --from/--to")
	from := flagSet.String("from", "", "Inclusive range start")
	to := flagSet.String("to", "", "Inclusive range end")
	promoter := flagSet.String("promoter", "", "Filter by promoter name")
	promoterEmail := flagSet.String("promoter-email", "", "Filter by promoter email")

	parseErr := flagSet.Parse(args)
	if parseErr != nil {
		return parseErr
	}

	filter, filterErr := buildFilter(lsFlags{
		owner: *owner, stages: *stages, region: *region,
		minAmount: *minAmount, maxAmount: *maxAmount,
		search: *search, tags: *tags,
		overdue: *overdue, noContact: *noContact,
		dateField: *dateField, from: *from, to: *to,
		promoter: *promoter, promoterEmail: *promoterEmail,
	})
	if filterErr != nil {
		return filterErr
	}

	st, openErr := a.open()
	if openErr != nil {
		return openErr
	}

	deals, queryErr := st.Query(ctx, filter, a.env.Now())
	if queryErr != nil {
		return queryErr
	}

	sort.Slice(deals, func(i, j int) bool {
		if !deals[i].Created.Equal(deals[j].Created) {
			return deals[i].Created.Before(deals[j].Created)
		}

		return deals[i].ID < deals[j].ID
	})

	for i := range deals {
		o.Println(formatDealLine(&deals[i]))
	}

	return nil
}

type lsFlags struct {
	owner         string
	stages        []string
	region        string
	minAmount     string
	maxAmount     string
	search        string
	tags          []string
	overdue       bool
	noContact     int
	dateField     string
	from          string
	to            string
	promoter      string
	promoterEmail string
}

func buildFilter(f lsFlags) (repo.Filter, error) {
	filter := repo.Filter{
		Owner:           f.owner,
		Region:          f.region,
		Search:          f.search,
		Tags:            f.tags,
		OverdueNextStep: f.overdue,
		NoContactInDays: f.noContact,
		PromoterName:    f.promoter,
		PromoterEmail:   f.promoterEmail,
	}

	for _, raw := range f.stages {
		stage, ok := deal.ParseStage(raw)
		if !ok {
			return repo.Filter{}, fmt.Errorf("invalid stage: %q", raw)
		}

		filter.Stages = append(filter.Stages, stage)
	}

	var amountErr error

	filter.MinAmount, amountErr = parseAmountFlag("--min-amount", f.minAmount)
	if amountErr != nil {
		return repo.Filter{}, amountErr
	}

	filter.MaxAmount, amountErr = parseAmountFlag("--max-amount", f.maxAmount)
	if amountErr != nil {
		return repo.Filter{}, amountErr
	}

	field, fieldOK := parseDateField(f.dateField)
	if !fieldOK {
		return repo.Filter{}, fmt.Errorf("invalid --date-field: %q", f.dateField)
	}

	filter.DateField = field

	var dateErr error

	filter.DateFrom, dateErr = parseDateFlag("--from", f.from)
	if dateErr != nil {
		return repo.Filter{}, dateErr
	}

	filter.DateTo, dateErr = parseDateFlag("--to", f.to)
	if dateErr != nil {
		return repo.Filter{}, dateErr
	}

	return filter, nil
}

func parseAmountFlag(name, raw string) (*float64, error) {
	if raw == "" {
		return nil, nil //nolint:nilnil // unset flag
	}

	value, parseErr := strconv.ParseFloat(raw, 64)
	if parseErr != nil {
		return nil, fmt.Errorf("%s must be a number: %q", name, raw)
	}

	return &value, nil
}

func parseDateFlag(name, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil //nolint:nilnil // unset flag
	}

	value, parseErr := time.Parse(deal.DateOnly, raw)
	if parseErr != nil {
		return nil, fmt.Errorf("%s must be YYYY-MM-DD: %q", name, raw)
	}

	return &value, nil
}

func parseDateField(raw string) (repo.DateField, bool) {
	switch repo.DateField(strings.ToLower(raw)) {
	case repo.DateCreated:
		return repo.DateCreated, true
	case repo.DateClose:
		return repo.DateClose, true
	case repo.DateNextStep:
		return repo.DateNextStep, true
	case repo.DateLastContact:
		return repo.DateLastContact, true
	default:
		return "", false
	}
}

func formatDealLine(d *deal.Deal) string {
	var builder strings.Builder

	builder.WriteString(d.ID)
	builder.WriteString(" [")
	builder.WriteString(string(d.Stage))
	builder.WriteString(" ")
	builder.WriteString(strconv.Itoa(d.Probability))
	builder.WriteString("%] ")
	builder.WriteString(d.Name)

	if d.Amount != nil {
		builder.WriteString(" ")
		builder.WriteString(strconv.FormatFloat(*d.Amount, 'f', -1, 64))
	}

	if d.Owner != "" {
		builder.WriteString(" (")
		builder.WriteString(d.Owner)
		builder.WriteString(")")
	}

	if d.Region != "" {
		builder.WriteString(" ")
		builder.WriteString(d.Region)
	}

	return builder.String()
}
