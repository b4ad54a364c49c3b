package cli

import (
	"errors"
	"os"
	"strings"

	"dealpipe/internal/tablefile"
)

var errValidationFailed = errors.New("store file failed validation")

const validateHelp = `  validate               Check store file health without modifying it`

// cmdValidate inspects the raw file directly instead of opening the store,
// so a broken file can still be diagnosed.
func cmdValidate(o *IO, a *app, args []string) error {
	if hasHelpFlag(args) {
		fprintln(o.out, "Usage: dealpipe validate")
		fprintln(o.out, "")
		fprintln(o.out, "Report schema version, record count and structural problems.")
		fprintln(o.out, "Read-only; never repairs or migrates.")

		return nil
	}

	data, readErr := os.ReadFile(a.path) //nolint:gosec // configured store file
	if readErr != nil {
		if os.IsNotExist(readErr) {
			o.Println("file:", a.path, "(not created yet)")
			o.Println("status: ok, empty store")

			return nil
		}

		return readErr
	}

	o.Println("file:", a.path)

	doc, decodeErr := tablefile.Decode(data)
	if decodeErr != nil {
		o.Println("status: corrupt")
		o.ErrPrintln("problem:", decodeErr)

		return errValidationFailed
	}

	result := tablefile.Validate(&doc)

	o.Println("version:", result.Version)
	o.Println("records:", result.RecordCount)

	switch {
	case !result.VersionSupported:
		o.Println("status: unsupported version")
		o.Warn("version", result.Version, "is not supported (supported:",
			strings.Join(tablefile.SupportedVersions(), ", ")+"); open will refuse this file")
	case result.MigrationRequired:
		o.Println("status: migration pending, applied on next open")
	case result.OK:
		o.Println("status: ok")
	default:
		o.Println("status: invalid")
	}

	for _, warning := range result.Warnings {
		o.Warn(warning)
	}

	if !result.OK {
		for _, problem := range result.Problems {
			o.ErrPrintln("problem:", problem)
		}

		return errValidationFailed
	}

	return nil
}
