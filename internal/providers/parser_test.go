package providers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseProviderList(t *testing.T) {
	refs := ParseProviderList("openai:primary|groq|mock")
	require.Len(t, refs, 3)
	require.Equal(t, "openai", refs[0].Name)
	require.Equal(t, "primary", refs[0].KeyAlias)
	require.Equal(t, "groq", refs[1].Name)
	require.Empty(t, refs[1].KeyAlias)
	require.Equal(t, "mock", refs[2].Name)
}

func TestParseProviderListEmptyDefaultsToMock(t *testing.T) {
	refs := ParseProviderList("  ")
	require.Len(t, refs, 1)
	require.Equal(t, "mock", refs[0].Name)
}

func TestManagerPreferredOrderDemotesMock(t *testing.T) {
	m, err := NewManager("mock|groq:alpha")
	require.NoError(t, err)
	order := m.PreferredOrder()
	require.Equal(t, []int{1, 0}, order)

	_, ref := m.ByIndex(order[0])
	require.Equal(t, "groq", ref.Name)
}

func TestManagerRejectsUnknownProvider(t *testing.T) {
	_, err := NewManager("cohere")
	require.Error(t, err)
}
