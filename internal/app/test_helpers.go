package app

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adroit-lang/adroit/internal/config"
	"github.com/adroit-lang/adroit/internal/diag"
	"github.com/adroit-lang/adroit/internal/testutil"
)

// SetupAppTest creates an App writing command output and logs to separate
// buffers. stdlib is the standard library directory; mutate adjusts the
// configuration model before validation.
func SetupAppTest(t *testing.T, stdlib string, mutate func(*config.Model)) (*App, *testutil.SafeBuffer, *testutil.SafeBuffer) {
	t.Helper()

	m := config.Default("")
	m.Project.Stdlib = stdlib
	m.Log.Level = "debug"
	if mutate != nil {
		mutate(m)
	}
	cfg, err := NewConfig(m)
	require.NoError(t, err)
	cfg.Color = diag.ColorNever

	out := &testutil.SafeBuffer{}
	errOut := &testutil.SafeBuffer{}
	a, err := NewApp(context.Background(), out, errOut, cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = a.Close(context.Background())
		if os.Getenv("ADROIT_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), errOut.String())
		}
	})
	return a, out, errOut
}
