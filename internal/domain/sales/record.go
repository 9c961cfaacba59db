package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is one sales line of an optovik sheet
type Record struct {
	Drug       string
	Client     string
	Region     string
	Territory  string
	Reserve    string
	Quantity   decimal.Decimal
	TotalSales decimal.Decimal
	Date       *time.Time
	// Row is the source worksheet row, 0 for synthesized records
	Row int
}

// HasLocation reports whether both region and territory are assigned
func (r Record) HasLocation() bool {
	return r.Region != "" && r.Territory != ""
}

// Optovik is a named sheet of sales records
type Optovik struct {
	Name    string
	Records []Record
	// Reserve marks optoviks synthesized from reserve-marked rows
	Reserve bool
}

// Drugs returns the distinct drug names in first-seen order
func (o *Optovik) Drugs() []string {
	seen := make(map[string]struct{}, len(o.Records))
	var out []string
	for _, r := range o.Records {
		if _, ok := seen[r.Drug]; ok {
			continue
		}
		seen[r.Drug] = struct{}{}
		out = append(out, r.Drug)
	}
	return out
}

// Dataset is an ordered collection of optoviks
type Dataset struct {
	order  []string
	byName map[string]*Optovik
}

// NewDataset creates an empty dataset
func NewDataset() *Dataset {
	return &Dataset{byName: make(map[string]*Optovik)}
}

// Add appends an optovik, replacing the records of an existing one with the same name
func (d *Dataset) Add(o *Optovik) {
	if existing, ok := d.byName[o.Name]; ok {
		*existing = *o
		return
	}
	d.order = append(d.order, o.Name)
	d.byName[o.Name] = o
}

// Get returns an optovik by name
func (d *Dataset) Get(name string) (*Optovik, bool) {
	o, ok := d.byName[name]
	return o, ok
}

// Names returns optovik names in insertion order
func (d *Dataset) Names() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Optoviks returns optoviks in insertion order
func (d *Dataset) Optoviks() []*Optovik {
	out := make([]*Optovik, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.byName[name])
	}
	return out
}

// Len returns the number of optoviks
func (d *Dataset) Len() int {
	return len(d.order)
}

// RecordCount returns the total number of records across optoviks
func (d *Dataset) RecordCount() int {
	n := 0
	for _, o := range d.byName {
		n += len(o.Records)
	}
	return n
}

// Drugs returns every distinct drug across the dataset
func (d *Dataset) Drugs() map[string]struct{} {
	out := make(map[string]struct{})
	for _, o := range d.byName {
		for _, r := range o.Records {
			if r.Drug != "" {
				out[r.Drug] = struct{}{}
			}
		}
	}
	return out
}

// Each calls fn for every optovik in insertion order until fn returns false
func (d *Dataset) Each(fn func(*Optovik) bool) {
	for _, name := range d.order {
		if !fn(d.byName[name]) {
			return
		}
	}
}
