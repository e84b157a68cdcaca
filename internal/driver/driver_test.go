package driver_test

import (
	"bytes"
	"flag"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/glox/internal/config"
	"github.com/mna/glox/internal/driver"
	"github.com/mna/glox/internal/filetest"
)

var testUpdateDriverTests = flag.Bool("test.update-driver-tests", false, "If set, replace expected driver test results with actual results.")

// TestRunScripts runs every .lox file in testdata/in through the full
// driver.Run entry point, exactly as cmd/glox invokes it for a single
// script argument, and diffs stdout/stderr against testdata/out.
func TestRunScripts(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".lox") {
		t.Run(fi.Name(), func(t *testing.T) {
			var out, errOut bytes.Buffer
			cfg := config.Default()

			_ = driver.Run(&out, &errOut, strings.NewReader(""), cfg, []string{filepath.Join(srcDir, fi.Name())})

			filetest.DiffOutput(t, fi, out.String(), resultDir, testUpdateDriverTests)
			filetest.DiffErrors(t, fi, errOut.String(), resultDir, testUpdateDriverTests)
		})
	}
}

func TestRunUsageError(t *testing.T) {
	var out, errOut bytes.Buffer
	code := driver.Run(&out, &errOut, strings.NewReader(""), config.Default(), []string{"a.lox", "b.lox"})
	require.Equal(t, driver.ExitUsage, code)
	require.Contains(t, errOut.String(), "usage:")
}
