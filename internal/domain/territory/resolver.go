package territory

// Resolver turns the raw region and address cells of a sales row into a
// canonical region and territory
type Resolver struct {
	regions  RegionMapping
	patterns *Patterns
}

// NewResolver creates a resolver from a loaded region mapping and territory patterns
func NewResolver(regions RegionMapping, patterns *Patterns) *Resolver {
	return &Resolver{regions: regions, patterns: patterns}
}

// Resolve maps regionText through the region mapping, then searches the
// normalized address for the first territory variation of that region.
// On a match the region becomes the real region of the variation. Without a
// match the territory is empty and the mapped region (possibly empty) is kept.
func (r *Resolver) Resolve(regionText, address string) (region, territory string, ok bool) {
	region = r.regions.Lookup(regionText)
	if region == "" || address == "" || !r.patterns.Has(region) {
		return region, "", false
	}
	realRegion, territory, ok := r.patterns.Match(region, Normalize(address))
	if !ok {
		return region, "", false
	}
	return realRegion, territory, true
}

// Patterns exposes the valid region and territory sets
func (r *Resolver) Patterns() *Patterns {
	return r.patterns
}
