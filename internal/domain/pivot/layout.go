package pivot

import "github.com/pharmdist/salesflow/internal/domain/sales"

// FirstPairColumn is the worksheet column of the first quantity column.
// Column A holds the row index and B–D the client, region and territory.
const FirstPairColumn = 5

// PairKind classifies a (quantity, sales) column pair
type PairKind int

const (
	PairDrug PairKind = iota
	PairGroup
	PairOthers
	PairTotal
)

// Pair is a quantity and sales column pair under a level-0 label
type Pair struct {
	Kind  PairKind
	Label string
	// Group is the owning group of a drug pair
	Group string
}

// Layout is the column order of a report sheet
type Layout struct {
	Pairs []Pair
	// outline lists group names (and Others) in column order
	outline []string
}

// NewLayout orders drug pairs under their groups. Every group gets a pair even
// when none of its drugs appear. Drugs outside all groups go under an Others
// pair, which only exists when such drugs are present. A Total pair comes last.
func NewLayout(drugs []string, groups *sales.DrugGroups, labels sales.Labels) *Layout {
	l := &Layout{}
	placed := make(map[string]struct{}, len(drugs))
	for _, g := range groups.Groups() {
		l.Pairs = append(l.Pairs, Pair{Kind: PairGroup, Label: g.Name})
		l.outline = append(l.outline, g.Name)
		for _, d := range drugs {
			if _, ok := placed[d]; ok {
				continue
			}
			if groups.Contains(g.Name, d) {
				l.Pairs = append(l.Pairs, Pair{Kind: PairDrug, Label: d, Group: g.Name})
				placed[d] = struct{}{}
			}
		}
	}

	var others []string
	for _, d := range drugs {
		if _, ok := placed[d]; !ok {
			others = append(others, d)
		}
	}
	if len(others) > 0 {
		l.Pairs = append(l.Pairs, Pair{Kind: PairOthers, Label: labels.Ungrouped})
		l.outline = append(l.outline, labels.Ungrouped)
		for _, d := range others {
			l.Pairs = append(l.Pairs, Pair{Kind: PairDrug, Label: d, Group: labels.Ungrouped})
		}
	}

	l.Pairs = append(l.Pairs, Pair{Kind: PairTotal, Label: labels.Total})
	return l
}

// QtyColumn returns the worksheet column of pair i's quantity
func (l *Layout) QtyColumn(i int) int {
	return FirstPairColumn + 2*i
}

// SalesColumn returns the worksheet column of pair i's sales
func (l *Layout) SalesColumn(i int) int {
	return FirstPairColumn + 2*i + 1
}

// LastColumn returns the last worksheet column of the layout
func (l *Layout) LastColumn() int {
	return l.SalesColumn(len(l.Pairs) - 1)
}

// OutlineGroups returns the group names, plus Others when present, in column order
func (l *Layout) OutlineGroups() []string {
	return l.outline
}

// HasOthers reports whether ungrouped drugs exist
func (l *Layout) HasOthers() bool {
	for _, p := range l.Pairs {
		if p.Kind == PairOthers {
			return true
		}
	}
	return false
}

// GroupSpan is a group pair and the drug pairs that follow it
type GroupSpan struct {
	Name  string
	Index int
	Drugs []int
}

// Groups returns the span of every group and the Others pair
func (l *Layout) Groups() []GroupSpan {
	var out []GroupSpan
	for i, p := range l.Pairs {
		switch p.Kind {
		case PairGroup, PairOthers:
			out = append(out, GroupSpan{Name: p.Label, Index: i})
		case PairDrug:
			if n := len(out); n > 0 {
				out[n-1].Drugs = append(out[n-1].Drugs, i)
			}
		}
	}
	return out
}

// TotalIndex returns the index of the Total pair
func (l *Layout) TotalIndex() int {
	return len(l.Pairs) - 1
}
