package sales

// DictionaryEntry maps a customer-entered drug name to its standard name
type DictionaryEntry struct {
	Row      int
	Customer string
	Standard string
}

// DrugDictionary is the drug-name mapping of one optovik
type DrugDictionary struct {
	Sheet   string
	Entries []DictionaryEntry
}

// DictionaryProblems summarizes data-quality issues of a dictionary sheet
type DictionaryProblems struct {
	MissingCustomer int
	MissingStandard int
	Duplicates      []string
}

// Empty reports whether no problems were found
func (p DictionaryProblems) Empty() bool {
	return p.MissingCustomer == 0 && p.MissingStandard == 0 && len(p.Duplicates) == 0
}

// Inspect counts missing and duplicated customer names
func (d *DrugDictionary) Inspect() DictionaryProblems {
	var p DictionaryProblems
	counts := make(map[string]int)
	var order []string
	for _, e := range d.Entries {
		if e.Customer == "" {
			p.MissingCustomer++
			continue
		}
		if e.Standard == "" {
			p.MissingStandard++
		}
		if counts[e.Customer] == 0 {
			order = append(order, e.Customer)
		}
		counts[e.Customer]++
	}
	for _, name := range order {
		if counts[name] > 1 {
			p.Duplicates = append(p.Duplicates, name)
		}
	}
	return p
}

// Mapping returns customer name → standard name for entries that have both
func (d *DrugDictionary) Mapping() map[string]string {
	m := make(map[string]string, len(d.Entries))
	for _, e := range d.Entries {
		if e.Customer == "" || e.Standard == "" {
			continue
		}
		if _, ok := m[e.Customer]; !ok {
			m[e.Customer] = e.Standard
		}
	}
	return m
}

// Unmapped returns drugs of the optovik with no standard name, in first-seen order
func (d *DrugDictionary) Unmapped(o *Optovik) []string {
	m := d.Mapping()
	var out []string
	seen := make(map[string]struct{})
	for _, r := range o.Records {
		if _, ok := m[r.Drug]; ok {
			continue
		}
		if _, ok := seen[r.Drug]; ok {
			continue
		}
		seen[r.Drug] = struct{}{}
		out = append(out, r.Drug)
	}
	return out
}

// Standardize replaces every drug of the optovik with its standard name.
// Drugs without a mapping become empty.
func (d *DrugDictionary) Standardize(o *Optovik) {
	m := d.Mapping()
	for i := range o.Records {
		o.Records[i].Drug = m[o.Records[i].Drug]
	}
}

// Lookup returns the standard name of a customer-entered drug
func (d *DrugDictionary) Lookup(customer string) (string, bool) {
	for _, e := range d.Entries {
		if e.Customer == customer && e.Customer != "" && e.Standard != "" {
			return e.Standard, true
		}
	}
	return "", false
}
