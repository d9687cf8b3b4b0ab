package env

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetFallsBackOnBlank(t *testing.T) {
	t.Setenv("STOREFRONT_TEST_VALUE", "   ")
	require.Equal(t, "json", Get("STOREFRONT_TEST_VALUE", "json"))

	t.Setenv("STOREFRONT_TEST_VALUE", " console ")
	require.Equal(t, "console", Get("STOREFRONT_TEST_VALUE", "json"))
}

func TestStorefrontPrefersPrefixedKey(t *testing.T) {
	t.Setenv("TEST_FORMAT", "console")
	t.Setenv("STOREFRONT_TEST_FORMAT", "")
	require.Equal(t, "console", Storefront("TEST_FORMAT", "json"))

	t.Setenv("STOREFRONT_TEST_FORMAT", "json")
	require.Equal(t, "json", Storefront("TEST_FORMAT", "text"))

	t.Setenv("TEST_FORMAT", "")
	t.Setenv("STOREFRONT_TEST_FORMAT", "")
	require.Equal(t, "text", Storefront("TEST_FORMAT", "text"))
}
