package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dealpipe/internal/patch"
)

var errNoFields = errors.New("no Field=Value pairs given")

const setHelp = `  set <id> <Field=Value>...  Update fields (partial success, rejects reported)`

func cmdSet(ctx context.Context, o *IO, a *app, args []string) error {
	if hasHelpFlag(args) {
		fprintln(o.out, "Usage: dealpipe set <id> <Field=Value>...")
		fprintln(o.out, "")
		fprintln(o.out, "Update fields of one deal. Field names are case-insensitive.")
		fprintln(o.out, "Valid fields apply even when others are rejected; every")
		fprintln(o.out, "rejection is reported with its reason.")

		return nil
	}

	if len(args) < 1 || args[0] == "" {
		return errIDRequired
	}

	id := args[0]

	fields := make(map[string]string, len(args)-1)

	for _, arg := range args[1:] {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return fmt.Errorf("expected Field=Value, got %q", arg)
		}

		fields[name] = value
	}

	if len(fields) == 0 {
		return errNoFields
	}

	st, openErr := a.open()
	if openErr != nil {
		return openErr
	}

	result, applyErr := patch.ApplyByID(ctx, st, id, fields, a.env)
	if applyErr != nil {
		return applyErr
	}

	if !result.Found {
		return fmt.Errorf("%w: %s", errNotFound, id)
	}

	for _, name := range result.Applied {
		o.Println("applied:", name)
	}

	for _, change := range result.Changes {
		o.Println("derived:", change.Field, "=", change.New, "("+change.Reason+")")
	}

	// Rejections exit 1 via IO warnings; applied fields above are already
	// committed (partial success).
	for _, rejection := range result.Rejected {
		o.Warn("rejected:", rejection.Field+":", rejection.Reason)
	}

	return nil
}
