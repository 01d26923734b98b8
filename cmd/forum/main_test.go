package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommands(t *testing.T) {
	a := newApp()

	for _, name := range []string{"serve", "migrate", "seed", "reconcile"} {
		cmd := a.Command(name)
		require.NotNil(t, cmd, name)
		assert.NotNil(t, cmd.Action, name)
	}

	reconcile := a.Command("reconcile")
	var flags []string
	for _, f := range reconcile.Flags {
		flags = append(flags, f.Names()...)
	}
	assert.ElementsMatch(t, []string{"kind", "id"}, flags)
}

func TestSetupFailsWithoutSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := setup()
	require.Error(t, err)
}
