package sales

import (
	"github.com/shopspring/decimal"
)

// Multiplier is a budget-difference cell: a share of sales (0 < v ≤ 1) or a per-unit amount
type Multiplier struct {
	Raw     string
	Value   decimal.Decimal
	Numeric bool
}

// ParseMultiplier builds a multiplier from a raw cell value
func ParseMultiplier(raw string) Multiplier {
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return Multiplier{Raw: raw}
	}
	return Multiplier{Raw: raw, Value: v, Numeric: true}
}

// IsPercentage reports whether the multiplier applies to sales rather than quantity
func (m Multiplier) IsPercentage() bool {
	return m.Numeric && m.Value.IsPositive() && m.Value.LessThanOrEqual(decimal.NewFromInt(1))
}

// String renders the multiplier for a formula
func (m Multiplier) String() string {
	if !m.Numeric {
		return m.Raw
	}
	return m.Value.String()
}

// BudgetEntry holds the reklama multipliers of one drug
type BudgetEntry struct {
	Drug      string
	Vtorichka Multiplier
	ByRegion  Multiplier
}

// Budget maps standard drug names to reklama multipliers
type Budget struct {
	order   []string
	entries map[string]BudgetEntry
}

// NewBudget creates an empty budget
func NewBudget() *Budget {
	return &Budget{entries: make(map[string]BudgetEntry)}
}

// Put adds or replaces a drug entry
func (b *Budget) Put(e BudgetEntry) {
	if _, ok := b.entries[e.Drug]; !ok {
		b.order = append(b.order, e.Drug)
	}
	b.entries[e.Drug] = e
}

// Get returns the entry of a drug
func (b *Budget) Get(drug string) (BudgetEntry, bool) {
	e, ok := b.entries[drug]
	return e, ok
}

// Multiplier returns the multiplier for a drug on a vtorichka or regional sheet
func (b *Budget) Multiplier(drug string, vtorichka bool) (Multiplier, bool) {
	e, ok := b.entries[drug]
	if !ok {
		return Multiplier{}, false
	}
	if vtorichka {
		return e.Vtorichka, true
	}
	return e.ByRegion, true
}

// Drugs returns budget drugs in file order
func (b *Budget) Drugs() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Len returns the number of drugs
func (b *Budget) Len() int {
	return len(b.order)
}
