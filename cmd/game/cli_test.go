package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tatianab/grave-master/internal/config"
	"github.com/tatianab/grave-master/internal/engine"
	"github.com/tatianab/grave-master/internal/store"
)

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	c := config.Default()
	c.DBPath = filepath.Join(dir, "grave.db")
	c.SaveDir = dir
	c.Seed = 7
	cfg = &c
	logger = zap.NewNop()

	st, err := store.Open(cfg.DBPath)
	require.NoError(t, err)
	defer st.Close()
	view, err := engine.New(nil, st, *cfg, logger).NewConversation(context.Background(), engine.NewGameOptions{})
	require.NoError(t, err)
	return view.ID
}

func run(t *testing.T, cmd *cobra.Command, fn func(*cobra.Command, []string) error, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	require.NoError(t, fn(cmd, args))
	return out.String()
}

func TestSessionsListsConversations(t *testing.T) {
	id := setup(t)

	out := run(t, sessionsCmd, runSessions)
	assert.Contains(t, out, id)
	assert.NotContains(t, out, "Exports:")
}

func TestExportThenImport(t *testing.T) {
	id := setup(t)

	out := run(t, exportCmd, runExport, id)
	assert.Contains(t, out, filepath.Join(cfg.SaveDir, "exports", id))

	out = run(t, sessionsCmd, runSessions)
	assert.Contains(t, out, "Exports:")

	out = run(t, importCmd, runImport, id)
	assert.True(t, strings.HasPrefix(out, "Imported as "))
	assert.NotContains(t, out, "as "+id)
}

func TestContextWithoutTurns(t *testing.T) {
	id := setup(t)

	out := run(t, contextCmd, runContext, id, "open", "the", "door")
	assert.Equal(t, "No earlier turns selected.\n", out)
}

func TestExportUnknownConversation(t *testing.T) {
	setup(t)
	exportCmd.SetContext(context.Background())
	err := runExport(exportCmd, []string{"nope"})
	assert.Error(t, err)
}
