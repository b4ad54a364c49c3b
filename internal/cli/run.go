// Package cli implements the dealpipe command line: global flag parsing,
// config resolution, and dispatch to the per-command handlers.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dealpipe/internal/env"
	"dealpipe/internal/store"
)

const (
	minArgs      = 2
	consumedOne  = 1
	consumedTwo  = 2
	consumedNone = 0
	helpFlag     = "--help"
)

// app bundles everything a command handler needs: the resolved store path,
// store tuning from config, and the ambient environment.
type app struct {
	path string
	cfg  Config
	env  env.Env
}

func (a *app) open() (*store.FileStore, error) {
	return store.Open(a.path, store.Config{
		MaxBackups:  a.cfg.MaxBackups,
		LockRetries: a.cfg.LockRetries,
		LockBackoff: time.Duration(a.cfg.LockBackoffMS) * time.Millisecond,
	}, a.env)
}

// Run is the main entry point. Returns exit code.
func Run(ctx context.Context, out, errOut io.Writer, args []string, environ map[string]string) int {
	if len(args) < minArgs {
		printUsage(out)

		return 0
	}

	flags, err := parseGlobalFlags(args[1:])
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	workDir := flags.workDir
	if workDir == "" {
		workDir, err = os.Getwd()
		if err != nil {
			fprintln(errOut, "error: cannot get working directory:", err)

			return 1
		}
	}

	cfg, sources, err := LoadConfig(workDir, flags.configPath, flags.storeFile, environ)
	if err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut)

		return 1
	}

	storePath := cfg.StoreFile
	if !filepath.IsAbs(storePath) {
		storePath = filepath.Join(workDir, storePath)
	}

	if len(flags.remaining) == 0 {
		printUsage(out)

		return 0
	}

	cmd := flags.remaining[0]
	if cmd == "-h" || cmd == helpFlag {
		printUsage(out)

		return 0
	}

	ambient := env.Live()
	if flags.hasSeed {
		ambient = env.Seeded(flags.seed)
	}

	a := &app{path: storePath, cfg: cfg, env: ambient}
	o := NewIO(out, errOut)

	var cmdErr error

	switch cmd {
	case "create":
		cmdErr = cmdCreate(ctx, o, a, flags.remaining[1:])
	case "show":
		cmdErr = cmdShow(ctx, o, a, flags.remaining[1:])
	case "ls":
		cmdErr = cmdLs(ctx, o, a, flags.remaining[1:])
	case "set":
		cmdErr = cmdSet(ctx, o, a, flags.remaining[1:])
	case "rm":
		cmdErr = cmdRm(ctx, o, a, flags.remaining[1:])
	case "validate":
		cmdErr = cmdValidate(o, a, flags.remaining[1:])
	case "backups":
		cmdErr = cmdBackups(o, a, flags.remaining[1:])
	case "print-config":
		cmdErr = cmdPrintConfig(o, cfg, sources)
	default:
		fprintln(errOut, "error: unknown command:", cmd)
		printUsage(errOut)

		return 1
	}

	if cmdErr != nil {
		fprintln(errOut, "error:", cmdErr)

		return 1
	}

	return o.Finish()
}

type globalFlags struct {
	workDir    string
	configPath string
	storeFile  string
	seed       int64
	hasSeed    bool
	remaining  []string
}

func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	idx := 0
	for idx < len(args) {
		consumed, err := parseFlag(args, idx, &flags)
		if err != nil {
			return globalFlags{}, err
		}

		if consumed == 0 {
			// Not a flag, this is the command.
			flags.remaining = args[idx:]

			break
		}

		idx += consumed
	}

	return flags, nil
}

// parseFlag tries to parse a flag at args[idx]. Returns number of args
// consumed (0 if not a flag).
func parseFlag(args []string, idx int, flags *globalFlags) (int, error) {
	arg := args[idx]

	if (arg == "-C" || arg == "--cwd") && idx+1 < len(args) {
		flags.workDir = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--cwd="); ok {
		flags.workDir = after

		return consumedOne, nil
	}

	if arg == "-c" || arg == "--config" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("%w: %s", errFlagRequiresArg, arg)
		}

		flags.configPath = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--config="); ok {
		flags.configPath = after

		return consumedOne, nil
	}

	if arg == "--file" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("%w: %s", errFlagRequiresArg, arg)
		}

		flags.storeFile = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--file="); ok {
		flags.storeFile = after

		return consumedOne, nil
	}

	if arg == "--seed" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("%w: %s", errFlagRequiresArg, arg)
		}

		return consumedTwo, parseSeed(args[idx+1], flags)
	}

	if after, ok := strings.CutPrefix(arg, "--seed="); ok {
		return consumedOne, parseSeed(after, flags)
	}

	if arg == "-h" || arg == helpFlag {
		flags.remaining = []string{helpFlag}

		return len(args) - idx, nil
	}

	if strings.HasPrefix(arg, "-") && arg != "-" {
		return consumedNone, fmt.Errorf("%w: %s", errUnknownFlag, arg)
	}

	return consumedNone, nil
}

func parseSeed(raw string, flags *globalFlags) error {
	seed, parseErr := strconv.ParseInt(raw, 10, 64)
	if parseErr != nil {
		return fmt.Errorf("%w: --seed %q", errBadSeed, raw)
	}

	flags.seed = seed
	flags.hasSeed = true

	return nil
}

func cmdPrintConfig(o *IO, cfg Config, sources ConfigSources) error {
	formatted, err := FormatConfig(cfg)
	if err != nil {
		return err
	}

	o.Println(formatted)

	o.Println("")
	o.Println("# Sources:")

	if sources.Global != "" {
		o.Println("#   global:", sources.Global)
	}

	if sources.Project != "" {
		o.Println("#   project:", sources.Project)
	}

	if sources.Global == "" && sources.Project == "" {
		o.Println("#   (using defaults only)")
	}

	return nil
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-h" || arg == helpFlag {
			return true
		}
	}

	return false
}

func printUsage(writer io.Writer) {
	fprintln(writer, `dealpipe - durable deal pipeline store

Usage: dealpipe [options] <command> [args]

Options:
  -C, --cwd <dir>    Run as if started in <dir>
  -c, --config       Use specified config file
  --file <path>      Store file (overrides config)
  --seed <n>         Reproducible identifier sequence

Commands:`)
	fprintln(writer, createHelp)
	fprintln(writer, showHelp)
	fprintln(writer, lsHelp)
	fprintln(writer, setHelp)
	fprintln(writer, rmHelp)
	fprintln(writer, validateHelp)
	fprintln(writer, backupsHelp)
	fprintln(writer, `  print-config           Show resolved configuration`)
}
