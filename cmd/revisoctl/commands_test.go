package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	migrationSet, migrateURL, downSteps, catalogFile = "controlplane", "", 1, ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommandTree(t *testing.T) {
	want := map[string][]string{
		"migrate": {"up", "down", "version"},
		"plans":   {"seed"},
		"tenants": {"provision", "reconcile"},
		"signups": {"purge"},
	}
	for parent, children := range want {
		cmd, _, err := rootCmd.Find([]string{parent})
		require.NoError(t, err, parent)
		for _, child := range children {
			sub, _, err := cmd.Find([]string{child})
			require.NoError(t, err, parent+" "+child)
			assert.Equal(t, child, sub.Name())
		}
	}
}

func TestMigrate_RejectsUnknownSet(t *testing.T) {
	_, err := execute(t, "migrate", "up", "--set", "billing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown migration set "billing"`)
}

func TestMigrate_TenantSetNeedsURL(t *testing.T) {
	_, err := execute(t, "migrate", "version", "--set", "tenant")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--database-url is required")
}

func TestMigrateDown_RejectsZeroSteps(t *testing.T) {
	_, err := execute(t, "migrate", "down", "--steps", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--steps must be at least 1")
}

func TestTenantsProvision_ValidatesAgencyID(t *testing.T) {
	_, err := execute(t, "tenants", "provision", "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid agency id")

	_, err = execute(t, "tenants", "provision")
	require.Error(t, err)
}

func TestHelpListsCommands(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	for _, name := range []string{"migrate", "plans", "tenants", "signups"} {
		assert.Contains(t, out, name)
	}
}
