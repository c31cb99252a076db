package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var classify = NewClassifier([]string{"438", "520"})

func TestClassifier_Generation(t *testing.T) {
	tests := []struct {
		productType string
		want        Generation
	}{
		{"438", Advanced},
		{"520", Advanced},
		{" 438 ", Advanced},
		{"475", Legacy},
		{"455", Legacy},
		{"", Legacy},
	}

	for _, tt := range tests {
		t.Run(tt.productType, func(t *testing.T) {
			assert.Equal(t, tt.want, classify.Generation(tt.productType))
		})
	}
}

func TestClassifier_CaseInsensitive(t *testing.T) {
	c := NewClassifier([]string{"438e"})
	assert.Equal(t, Advanced, c.Generation("438E"))
}

func TestCache_SyncAddsInManifestOrder(t *testing.T) {
	c := NewCache()
	res := c.Sync([]Descriptor{
		{Serial: "B", Name: "Bedroom", ProductType: "475"},
		{Serial: "A", Name: "Lounge", ProductType: "438"},
	}, classify)

	assert.Equal(t, []string{"B", "A"}, res.Added)
	require.Equal(t, 2, c.Len())

	devs := c.Devices()
	assert.Equal(t, "B", devs[0].Serial)
	assert.Equal(t, Legacy, devs[0].Generation)
	assert.Equal(t, Advanced, devs[1].Generation)
	assert.ElementsMatch(t, []string{"A", "B"}, c.Unresolved())
}

func TestCache_SyncNeverDuplicatesSerial(t *testing.T) {
	c := NewCache()
	c.Sync([]Descriptor{
		{Serial: "A", Name: "First"},
		{Serial: "A", Name: "Second"},
		{Serial: "", Name: "Blank"},
	}, classify)

	require.Equal(t, 1, c.Len())
	d, ok := c.Get("A")
	require.True(t, ok)
	assert.Equal(t, "First", d.Name)

	c.Sync([]Descriptor{{Serial: "A", Name: "First"}}, classify)
	assert.Equal(t, 1, c.Len())
}

func TestCache_SyncKeepsResolvedIP(t *testing.T) {
	c := NewCache()
	c.Sync([]Descriptor{{Serial: "A", Name: "Lounge", ProductType: "438"}}, classify)
	c.SetIP("A", "192.168.1.20")

	res := c.Sync([]Descriptor{{Serial: "A", Name: "Living room", ProductType: "438"}}, classify)

	assert.Equal(t, []string{"A"}, res.Updated)
	d, _ := c.Get("A")
	assert.Equal(t, "Living room", d.Name)
	assert.Equal(t, "192.168.1.20", d.IP)
	assert.Empty(t, c.Unresolved())
}

func TestCache_SyncResetsIPOnProductTypeChange(t *testing.T) {
	c := NewCache()
	c.Sync([]Descriptor{{Serial: "A", ProductType: "475"}}, classify)
	c.SetIP("A", "192.168.1.20")

	c.Sync([]Descriptor{{Serial: "A", ProductType: "438"}}, classify)

	d, _ := c.Get("A")
	assert.False(t, d.Resolved())
	assert.Equal(t, Advanced, d.Generation)
}

func TestCache_SyncRemovesMissing(t *testing.T) {
	c := NewCache()
	c.Sync([]Descriptor{{Serial: "A"}, {Serial: "B"}}, classify)

	res := c.Sync([]Descriptor{{Serial: "B"}}, classify)

	assert.Equal(t, []string{"A"}, res.Removed)
	_, ok := c.Get("A")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestCache_ClearIP(t *testing.T) {
	c := NewCache()
	c.Sync([]Descriptor{{Serial: "A"}}, classify)
	c.SetIP("A", "10.0.0.5")
	c.ClearIP("A")

	assert.Equal(t, []string{"A"}, c.Unresolved())

	// Unknown serials are a no-op.
	c.SetIP("Z", "10.0.0.9")
	c.ClearIP("Z")
	assert.Equal(t, 1, c.Len())
}

func TestDevice_String(t *testing.T) {
	d := &Device{Serial: "NK6-EU-MHA0000A", Name: "Office"}
	assert.Equal(t, "Office (NK6-EU-MHA0000A)", d.String())
}
