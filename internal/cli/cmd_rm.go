package cli

import (
	"context"
	"fmt"
)

const rmHelp = `  rm <id>                Delete a deal`

func cmdRm(ctx context.Context, o *IO, a *app, args []string) error {
	if hasHelpFlag(args) {
		fprintln(o.out, "Usage: dealpipe rm <id>")

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

	// Look up first so removing an unknown ID reports instead of silently
	// succeeding.
	d, getErr := st.GetByID(ctx, id)
	if getErr != nil {
		return getErr
	}

	if d == nil {
		return fmt.Errorf("%w: %s", errNotFound, id)
	}

	deleteErr := st.Delete(ctx, id)
	if deleteErr != nil {
		return deleteErr
	}

	saveErr := st.SaveChanges(ctx)
	if saveErr != nil {
		return saveErr
	}

	o.Println("deleted:", d.ID)

	return nil
}
