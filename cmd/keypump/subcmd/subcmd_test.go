package subcmd

import (
	"context"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/keypump/internal/state"
)

func TestParse(t *testing.T) {
	t.Parallel()

	nop := func(context.Context, *state.Config) error { return nil }
	mods := []Mod{{Name: "run", Main: nop}, {Name: "dump", Main: nop}}

	m, err := Parse("dump", mods)
	require.NoError(t, err)
	assert.Equal(t, "dump", m.Name)

	_, err = Parse("", mods)
	assert.Error(t, err)

	_, err = Parse("fly", mods)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), "run, dump")

	assert.Panics(t, func() { _, _ = Parse("x", []Mod{{Main: nop}}) })
}
