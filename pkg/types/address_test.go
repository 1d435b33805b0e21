package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressMissingFields(t *testing.T) {
	addr := Address{Name: "Ada", Street: "1 Main", City: "Austin", State: "TX"}
	require.Equal(t, []string{"zip", "country"}, addr.Missing())
	require.False(t, addr.IsComplete())

	addr.Zip = "78701"
	addr.Country = "US"
	require.True(t, addr.IsComplete())
}

func TestAddressValueScanRoundTrip(t *testing.T) {
	phone := "555-0100"
	in := Address{Name: "Ada", Street: "1 Main", City: "Austin", State: "TX", Zip: "78701", Country: "US", Phone: &phone}

	raw, err := in.Value()
	require.NoError(t, err)

	var out Address
	require.NoError(t, out.Scan(raw))
	require.Equal(t, in, out)

	require.NoError(t, out.Scan(nil))
	require.Equal(t, Address{}, out)
	require.Error(t, out.Scan(42))
}

func TestStringListRoundTrip(t *testing.T) {
	value, err := StringList{"a.jpg", "b c.jpg"}.Value()
	require.NoError(t, err)

	var out StringList
	require.NoError(t, out.Scan(value))
	require.Equal(t, StringList{"a.jpg", "b c.jpg"}, out)

	empty, err := StringList(nil).Value()
	require.NoError(t, err)
	require.Equal(t, "{}", empty)
}
