package phone

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeNationalNumber(t *testing.T) {
	n := NewNormalizer("ZA")

	got, err := n.Normalize("0821234567")
	require.NoError(t, err)
	require.Equal(t, "+27821234567", got)
}

func TestNormalizeFormattingVariants(t *testing.T) {
	n := NewNormalizer("za")

	for _, raw := range []string{"+27 82 123 4567", "082 123 4567", "(082) 123-4567", " +27821234567 "} {
		got, err := n.Normalize(raw)
		require.NoError(t, err, raw)
		require.Equal(t, "+27821234567", got, raw)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := NewNormalizer("ZA")

	for _, raw := range []string{"0821234567", "+447911123456", "+14155552671"} {
		once, err := n.Normalize(raw)
		require.NoError(t, err)
		twice, err := n.Normalize(once)
		require.NoError(t, err)
		require.Equal(t, once, twice)
	}
}

func TestNormalizeRejectsInvalid(t *testing.T) {
	n := NewNormalizer("ZA")

	for _, raw := range []string{"", "hello", "123", "+27 12"} {
		_, err := n.Normalize(raw)
		require.ErrorIs(t, err, ErrInvalidPhoneNumber, raw)
	}
}

func TestRegion(t *testing.T) {
	n := NewNormalizer("ZA")

	require.Equal(t, "ZA", n.Region("+27821234567"))
	require.Equal(t, "GB", n.Region("+442071838750"))
	require.Equal(t, "", n.Region("not a number"))
	require.Equal(t, "ZA", n.DefaultRegion())
}
