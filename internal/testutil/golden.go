package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// EnvGoldenUpdate rewrites golden files with the current output when set.
const EnvGoldenUpdate = "TASKTRACKER_GOLDEN_UPDATE"

// Golden checks command output against testdata/<name>.golden and reports
// a line diff on mismatch.
func Golden(t *testing.T, name, got string) {
	t.Helper()

	path := filepath.Join("testdata", name+".golden")
	if os.Getenv(EnvGoldenUpdate) != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(got), 0o644); err != nil {
			t.Fatal(err)
		}
		return
	}

	want, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("%v (set %s=1 to create it)", err, EnvGoldenUpdate)
	}
	if diff := cmp.Diff(lines(string(want)), lines(got)); diff != "" {
		t.Errorf("%s mismatch (-want +got):\n%s", path, diff)
	}
}

func lines(s string) []string {
	return strings.SplitAfter(s, "\n")
}
