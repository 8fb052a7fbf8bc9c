package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motorefacciones/import-service/internal/types"
)

func TestGetOrInit(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.IsRegistered(types.ProviderMRM))

	adapter, err := r.GetOrInit(types.ProviderMRM)
	require.NoError(t, err)
	assert.Equal(t, types.ProviderMRM, adapter.Code())
	assert.True(t, r.IsRegistered(types.ProviderMRM))

	again, err := r.GetOrInit(types.ProviderMRM)
	require.NoError(t, err)
	assert.Same(t, adapter, again)
}

func TestGetOrInitUnknownProvider(t *testing.T) {
	r := NewRegistry()

	_, err := r.GetOrInit("acme")
	assert.Error(t, err)
	assert.False(t, r.IsRegistered("acme"))
}

func TestInitializeDefaultAdapters(t *testing.T) {
	require.NoError(t, InitializeDefaultAdapters())

	assert.Equal(t, []types.ProviderCode{types.ProviderMRM, types.ProviderMotosYEquipos}, DefaultRegistry.List())

	adapter, err := GetAdapter(types.ProviderMotosYEquipos)
	require.NoError(t, err)
	assert.Equal(t, "Motos y Equipos", adapter.Name())
}

func TestRegisterOverrides(t *testing.T) {
	r := NewRegistry()
	mrm, err := newAdapter(types.ProviderMRM)
	require.NoError(t, err)

	r.Register(types.ProviderMotosYEquipos, mrm)

	got, ok := r.Get(types.ProviderMotosYEquipos)
	require.True(t, ok)
	assert.Equal(t, types.ProviderMRM, got.Code())
}
