package fieldvalue

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tabrev/internal/models"
)

func def(t models.FieldType) models.FieldDefinition {
	return models.FieldDefinition{FieldID: "f", Name: "field", Type: t}
}

func TestNormalizeDateFormats(t *testing.T) {
	cases := map[string]string{
		"2024-01-01":                  "2024-01-01",
		"01/01/2024":                  "2024-01-01",
		"January 1, 2024":             "2024-01-01",
		"effective as of 2024-03-15,": "2024-03-15",
	}
	for in, want := range cases {
		got, ok := Normalize(def(models.FieldDate), in)
		require.True(t, ok, "input %q", in)
		require.Equal(t, want, got, "input %q", in)
	}
}

func TestDateEqualityAcrossFormats(t *testing.T) {
	require.True(t, Equal(def(models.FieldDate), "2024-01-01", "01/01/2024"))
	require.False(t, Equal(def(models.FieldDate), "2024-01-01", "01/02/2024"))
}

func TestNormalizeCurrency(t *testing.T) {
	got, ok := Normalize(def(models.FieldCurrency), "$1,250.50")
	require.True(t, ok)
	require.Equal(t, "USD 1250.50", got)

	got, ok = Normalize(def(models.FieldCurrency), "EUR 300")
	require.True(t, ok)
	require.Equal(t, "EUR 300.00", got)

	require.True(t, Equal(def(models.FieldCurrency), "$300", "USD 300.00"))
}

func TestNormalizeBoolean(t *testing.T) {
	got, ok := Normalize(def(models.FieldBoolean), "Yes, as agreed")
	require.True(t, ok)
	require.Equal(t, "true", got)

	got, ok = Normalize(def(models.FieldBoolean), "shall not apply")
	require.True(t, ok)
	require.Equal(t, "false", got)
}

func TestNormalizeEnumCanonicalizesCase(t *testing.T) {
	d := def(models.FieldEnum)
	d.EnumValues = []string{"Net 30", "Net 60"}
	got, ok := Normalize(d, "net 30")
	require.True(t, ok)
	require.Equal(t, "Net 30", got)

	_, ok = Normalize(d, "net 90")
	require.False(t, ok)
}

func TestNormalizeStringCollapsesWhitespace(t *testing.T) {
	got, ok := Normalize(def(models.FieldString), "  Acme   Corp \n Inc ")
	require.True(t, ok)
	require.Equal(t, "Acme Corp Inc", got)
}
