package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/lwmacct/251216-go-pkg-arbiter/pkg/errors"
)

func TestVersionCmd(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "0.1.dev\n", out.String())
}

func TestCompleteFlagOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arbiterd.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[arbiter]
name = "orders"

[pool]
max-workers = 8

[metrics]
addr = "127.0.0.1:19464"
`), 0o644))

	o := newOptions()
	cmd := &cobra.Command{Use: "run"}
	o.addFlags(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--config", path, "--max-workers", "3"}))
	require.NoError(t, o.complete(cmd))

	assert.Equal(t, "orders", o.cfg.Arbiter.Name)
	assert.Equal(t, 3, o.cfg.Pool.MaxWorkers)
	assert.Equal(t, "127.0.0.1:19464", o.cfg.Metrics.Addr)
	assert.Equal(t, "info", o.cfg.Log.Level)
}

func TestCompleteRejectsInvalidFlag(t *testing.T) {
	o := newOptions()
	cmd := &cobra.Command{Use: "run"}
	o.addFlags(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--max-workers", "0"}))
	err := o.complete(cmd)
	assert.True(t, cerrors.ErrInvalidConfig.Equal(err))
}
