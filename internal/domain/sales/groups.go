package sales

// DrugGroup is a named product group
type DrugGroup struct {
	Name     string
	Products []string
}

// DrugGroups is the ordered product grouping used for column outlines and stage reports
type DrugGroups struct {
	groups []DrugGroup
	index  map[string]string
}

// NewDrugGroups indexes groups; a product listed twice keeps its first group
func NewDrugGroups(groups []DrugGroup) *DrugGroups {
	dg := &DrugGroups{groups: groups, index: make(map[string]string)}
	for _, g := range groups {
		for _, p := range g.Products {
			if _, ok := dg.index[p]; !ok {
				dg.index[p] = g.Name
			}
		}
	}
	return dg
}

// Groups returns the groups in file order
func (dg *DrugGroups) Groups() []DrugGroup {
	return dg.groups
}

// Names returns the group names in file order
func (dg *DrugGroups) Names() []string {
	out := make([]string, 0, len(dg.groups))
	for _, g := range dg.groups {
		out = append(out, g.Name)
	}
	return out
}

// GroupOf returns the group of a product
func (dg *DrugGroups) GroupOf(product string) (string, bool) {
	g, ok := dg.index[product]
	return g, ok
}

// Contains reports whether a product belongs to the named group
func (dg *DrugGroups) Contains(group, product string) bool {
	g, ok := dg.index[product]
	return ok && g == group
}

// Duplicates returns products listed more than once across all groups
func (dg *DrugGroups) Duplicates() []string {
	counts := make(map[string]int)
	var order []string
	for _, g := range dg.groups {
		for _, p := range g.Products {
			if counts[p] == 0 {
				order = append(order, p)
			}
			counts[p]++
		}
	}
	var out []string
	for _, p := range order {
		if counts[p] > 1 {
			out = append(out, p)
		}
	}
	return out
}

// Products returns every grouped product in group then file order
func (dg *DrugGroups) Products() []string {
	var out []string
	for _, g := range dg.groups {
		out = append(out, g.Products...)
	}
	return out
}
