package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentmate/internal/modules/admin"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func dbFlags(dir, name string) []string {
	return []string{
		"--database", filepath.Join(dir, name),
		"--settings", filepath.Join(dir, "missing-settings.yaml"),
		"--backend", "http://127.0.0.1:1",
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "rentmatectl dev")
}

func TestMigrateSeedRevenue(t *testing.T) {
	dir := t.TempDir()
	flags := dbFlags(dir, "main.db")

	out, err := run(t, append([]string{"migrate"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Migrated")

	out, err = run(t, append([]string{"seed", "--timezone", "UTC"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 3 users, 4 mitras, 6 bookings, 3 chats")

	_, err = run(t, append([]string{"seed"}, flags...)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--reset")

	out, err = run(t, append([]string{"revenue", "--json"}, flags...)...)
	require.NoError(t, err)
	var report admin.RevenueReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 3, report.Totals.Bookings)
	assert.Equal(t, int64(1090000), report.Totals.Total)
	assert.Equal(t, report.Totals.Total, report.Totals.AppAmount+report.Totals.MitraAmount)

	out, err = run(t, append([]string{"revenue"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Commission: 20%")
	assert.Contains(t, out, "TOTAL")

	_, err = run(t, append([]string{"revenue", "--from", "2026-12-01", "--to", "2026-11-01"}, flags...)...)
	assert.ErrorIs(t, err, admin.ErrInvalidDateRange)

	out, err = run(t, append([]string{"remind", "--lead", "1m"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "due=0 sent=0 failed=0")
}

func TestExportImport(t *testing.T) {
	dir := t.TempDir()
	src := dbFlags(dir, "src.db")
	dst := dbFlags(dir, "dst.db")
	file := filepath.Join(dir, "snapshot.json")

	_, err := run(t, append([]string{"seed", "--timezone", "UTC"}, src...)...)
	require.NoError(t, err)

	out, err := run(t, append([]string{"export", file}, src...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 4 talents, 6 bookings, 3 chats (3 messages)")

	out, err = run(t, append([]string{"import", file}, dst...)...)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Imported 4 talents, 6 bookings, 3 chats"))

	out, err = run(t, append([]string{"revenue", "--json"}, dst...)...)
	require.NoError(t, err)
	var report admin.RevenueReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, int64(1090000), report.Totals.Total)
}

func TestImport_RequiresFileArgument(t *testing.T) {
	_, err := run(t, "import")
	assert.Error(t, err)
}
