package domain

import (
	"errors"
	"fmt"
	"sort"
)

// Site is a fixed air-quality monitoring location.
type Site struct {
	ID   int     `json:"id" yaml:"id"`
	Name string  `json:"name" yaml:"name"`
	Lat  float64 `json:"lat" yaml:"lat"`
	Lon  float64 `json:"lon" yaml:"lon"`
}

// DefaultSites are the seven Delhi monitoring sites with trained models.
func DefaultSites() []Site {
	return []Site{
		{ID: 1, Name: "Satyawati College", Lat: 28.69572, Lon: 77.181295},
		{ID: 2, Name: "RK Puram", Lat: 28.5244, Lon: 77.1855},
		{ID: 3, Name: "East Delhi", Lat: 28.6124, Lon: 77.3052},
		{ID: 4, Name: "North Delhi", Lat: 28.7515, Lon: 77.2269},
		{ID: 5, Name: "South Delhi", Lat: 28.5355, Lon: 77.2063},
		{ID: 6, Name: "West Delhi", Lat: 28.6692, Lon: 77.0438},
		{ID: 7, Name: "Central Delhi", Lat: 28.6329, Lon: 77.2197},
	}
}

// Catalog is an immutable set of sites indexed by ID.
type Catalog struct {
	sites []Site
	byID  map[int]Site
}

// NewCatalog validates and indexes sites. IDs must be positive and unique.
func NewCatalog(sites []Site) (*Catalog, error) {
	if len(sites) == 0 {
		return nil, errors.New("site catalog is empty")
	}
	c := &Catalog{byID: make(map[int]Site, len(sites))}
	for _, s := range sites {
		if s.ID <= 0 {
			return nil, fmt.Errorf("site %q: id must be positive, got %d", s.Name, s.ID)
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate site id %d", s.ID)
		}
		c.byID[s.ID] = s
		c.sites = append(c.sites, s)
	}
	sort.Slice(c.sites, func(i, j int) bool { return c.sites[i].ID < c.sites[j].ID })
	return c, nil
}

// Lookup returns the site with the given ID or ErrUnknownSite.
func (c *Catalog) Lookup(id int) (Site, error) {
	s, ok := c.byID[id]
	if !ok {
		return Site{}, fmt.Errorf("%w: %d", ErrUnknownSite, id)
	}
	return s, nil
}

// Sites returns the catalog ordered by ID.
func (c *Catalog) Sites() []Site {
	out := make([]Site, len(c.sites))
	copy(out, c.sites)
	return out
}
