package cli

import "errors"

// Argument errors shared across commands.
var (
	errFlagRequiresArg = errors.New("flag requires an argument")
	errUnknownFlag     = errors.New("unknown flag")
	errBadSeed         = errors.New("seed must be an integer")
	errInvalidFlags    = errors.New("invalid flag values")
	errIDRequired      = errors.New("record ID is required")
	errNotFound        = errors.New("no record with ID")
)
