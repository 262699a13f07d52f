package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	for _, sub := range []string{"serve", "seed-admin"} {
		assert.Contains(t, output, sub, "help missing %q command", sub)
	}
}

func TestSeedAdminCmd_TimeoutFlag(t *testing.T) {
	cmd := NewSeedAdminCmd()
	flag := cmd.Flags().Lookup("timeout")
	require.NotNil(t, flag)
	assert.Equal(t, defaultSeedTimeout.String(), flag.DefValue)
}

func TestRunSeedAdmin_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("JWT_EXPIRES_IN", "forever")
	t.Setenv("CONFIG_FILE", "")
	configFile = filepath.Join(dir, "missing.toml")
	t.Cleanup(func() { configFile = "" })

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(&bytes.Buffer{})

	err := runSeedAdmin(cmd, &seedConfig{timeout: time.Second})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.jwt_expires_in")
}
