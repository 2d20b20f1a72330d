package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	c, err := NewCatalog(DefaultSites())
	require.NoError(t, err)

	sites := c.Sites()
	require.Len(t, sites, 7)
	assert.Equal(t, 1, sites[0].ID)
	assert.Equal(t, 7, sites[6].ID)

	s, err := c.Lookup(2)
	require.NoError(t, err)
	assert.Equal(t, "RK Puram", s.Name)

	_, err = c.Lookup(8)
	assert.ErrorIs(t, err, ErrUnknownSite)
}

func TestNewCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		sites []Site
	}{
		{"empty", nil},
		{"zero id", []Site{{ID: 0, Name: "nowhere"}}},
		{"duplicate id", []Site{{ID: 1, Name: "a"}, {ID: 1, Name: "b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.sites)
			require.Error(t, err)
		})
	}
}

func TestCatalog_SitesIsACopy(t *testing.T) {
	c, err := NewCatalog([]Site{{ID: 3, Name: "c"}, {ID: 1, Name: "a"}})
	require.NoError(t, err)

	sites := c.Sites()
	assert.Equal(t, 1, sites[0].ID)
	sites[0].Name = "changed"
	assert.Equal(t, "a", c.Sites()[0].Name)
}
