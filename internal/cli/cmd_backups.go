package cli

import (
	"dealpipe/internal/store"
)

const backupsHelp = `  backups                List retained backups, newest first`

// cmdBackups lists the backup files directly, without opening the store, so
// they stay reachable even when the durable file is corrupt.
func cmdBackups(o *IO, a *app, args []string) error {
	if hasHelpFlag(args) {
		fprintln(o.out, "Usage: dealpipe backups")

		return nil
	}

	backups, listErr := store.ListBackups(a.path)
	if listErr != nil {
		return listErr
	}

	if len(backups) == 0 {
		o.Println("no backups")

		return nil
	}

	for _, backup := range backups {
		o.Println(backup)
	}

	return nil
}
