package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealpipe/internal/cli"
)

var idPattern = regexp.MustCompile(`^D-\d{8}-[0-9a-f]{8}$`)

// run executes one dealpipe invocation rooted in dir with an isolated
// global config location.
func run(t *testing.T, dir string, args ...string) (stdout, stderr string, code int) {
	t.Helper()

	var out, errOut bytes.Buffer

	argv := append([]string{"dealpipe", "-C", dir}, args...)
	environ := map[string]string{"XDG_CONFIG_HOME": filepath.Join(dir, "xdg")}

	code = cli.Run(context.Background(), &out, &errOut, argv, environ)

	return out.String(), errOut.String(), code
}

func createDeal(t *testing.T, dir string, args ...string) string {
	t.Helper()

	stdout, stderr, code := run(t, dir, append([]string{"create"}, args...)...)
	require.Zero(t, code, "stderr: %s", stderr)

	id := strings.TrimSpace(stdout)
	require.Regexp(t, idPattern, id)

	return id
}

func TestRun_NoArgsPrintsUsage(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer

	code := cli.Run(context.Background(), &out, &errOut, []string{"dealpipe"}, nil)

	assert.Zero(t, code)
	assert.Contains(t, out.String(), "Usage: dealpipe")
}

func TestRun_UnknownCommand(t *testing.T) {
	t.Parallel()

	_, stderr, code := run(t, t.TempDir(), "frobnicate")

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown command")
}

func TestCreateShowRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	id := createDeal(t, dir, "Acme rollout",
		"-o", "Alice", "-s", "Proposal", "-a", "125000", "-l", "SW1A 1AA",
		"--tags", "enterprise,renewal")

	stdout, _, code := run(t, dir, "show", id)
	require.Zero(t, code)

	assert.Contains(t, stdout, "Name:          Acme rollout")
	assert.Contains(t, stdout, "Stage:         Proposal")
	assert.Contains(t, stdout, "Probability:   60%")
	assert.Contains(t, stdout, "Area:          SW")
	assert.Contains(t, stdout, "Region:        London")
	assert.Contains(t, stdout, "Weighted:      75000")
	assert.Contains(t, stdout, "Tags:          enterprise, renewal")
}

func TestCreate_InvalidFlagValue(t *testing.T) {
	t.Parallel()

	_, stderr, code := run(t, t.TempDir(), "create", "Broken", "-p", "150")

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "probability out of range 0-100")
}

func TestLs_Filters(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	createDeal(t, dir, "Big deal", "-o", "Alice", "-a", "80000")
	createDeal(t, dir, "Small deal", "-o", "Bob", "-a", "1000")

	stdout, _, code := run(t, dir, "ls", "--owner", "Alice", "--min-amount", "50000")
	require.Zero(t, code)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "Big deal")
	assert.Contains(t, lines[0], "(Alice)")
}

func TestSet_PartialSuccess(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	id := createDeal(t, dir, "Acme rollout", "-o", "Alice")

	stdout, stderr, code := run(t, dir, "set", id, "Owner=Bob", "Bogus=1")

	assert.Equal(t, 1, code, "rejections must be visible in the exit code")
	assert.Contains(t, stdout, "applied: Owner")
	assert.Contains(t, stderr, "rejected: Bogus: unknown field")

	// The valid field committed despite the rejection.
	shown, _, showCode := run(t, dir, "show", id)
	require.Zero(t, showCode)
	assert.Contains(t, shown, "Owner:         Bob")
}

func TestSet_ProtectedField(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	id := createDeal(t, dir, "Acme rollout")

	_, stderr, code := run(t, dir, "set", id, "ID=D-20990101-deadbeef")

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "identifier cannot be patched")
}

func TestRm(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	id := createDeal(t, dir, "Doomed")

	stdout, _, code := run(t, dir, "rm", id)
	require.Zero(t, code)
	assert.Contains(t, stdout, "deleted: "+id)

	_, stderr, showCode := run(t, dir, "show", id)
	assert.Equal(t, 1, showCode)
	assert.Contains(t, stderr, "no record with ID")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	// Before any file exists.
	stdout, _, code := run(t, dir, "validate")
	require.Zero(t, code)
	assert.Contains(t, stdout, "empty store")

	createDeal(t, dir, "Acme rollout")

	stdout, _, code = run(t, dir, "validate")
	require.Zero(t, code)
	assert.Contains(t, stdout, "version: 1.2")
	assert.Contains(t, stdout, "records: 1")
	assert.Contains(t, stdout, "status: ok")
}

func TestValidate_CorruptFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pipeline.json"), []byte("{ nope"), 0o644))

	stdout, stderr, code := run(t, dir, "validate")

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "status: corrupt")
	assert.Contains(t, stderr, "problem:")
}

func TestBackups(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	stdout, _, code := run(t, dir, "backups")
	require.Zero(t, code)
	assert.Contains(t, stdout, "no backups")

	id := createDeal(t, dir, "Acme rollout")

	// The second commit backs up the first file.
	_, _, setCode := run(t, dir, "set", id, "Owner=Bob")
	require.Zero(t, setCode)

	stdout, _, code = run(t, dir, "backups")
	require.Zero(t, code)
	assert.Contains(t, stdout, ".bak")
}

func TestConfig_StoreFileOverride(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg := `{
  // JSONC is fine here
  "store_file": "deals/pipeline.json",
}`
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "deals"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".dealpipe.json"), []byte(cfg), 0o644))

	createDeal(t, dir, "Configured")

	_, statErr := os.Stat(filepath.Join(dir, "deals", "pipeline.json"))
	assert.NoError(t, statErr, "store file must follow the project config")
}

func TestSeed_ReproducibleIdentifiers(t *testing.T) {
	t.Parallel()

	first, _, code := run(t, t.TempDir(), "--seed", "42", "create", "Deterministic")
	require.Zero(t, code)

	second, _, code := run(t, t.TempDir(), "--seed", "42", "create", "Deterministic")
	require.Zero(t, code)

	assert.Equal(t, first, second, "same seed must yield the same identifier sequence")
}

func TestPrintConfig(t *testing.T) {
	t.Parallel()

	stdout, _, code := run(t, t.TempDir(), "print-config")

	require.Zero(t, code)
	assert.Contains(t, stdout, `"store_file": "pipeline.json"`)
	assert.Contains(t, stdout, "(using defaults only)")
}
