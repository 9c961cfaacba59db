package validation

import (
	"github.com/pharmdist/salesflow/internal/domain/sales"
	"go.uber.org/zap"
)

// splitReserves moves rows marked with a reserve value out of their sheets into
// an optovik named after the value. Reserve optoviks come first in the result.
func (v *Validator) splitReserves() *sales.Dataset {
	v.log.Info("Extracting reserve rows as new optoviks...")

	dataset := sales.NewDataset()
	for _, value := range v.opts.ReserveValues {
		if value == "" {
			continue
		}
		reserve := &sales.Optovik{Name: value, Reserve: true}
		for _, name := range v.sheets {
			o := v.optoviks[name]
			kept := o.Records[:0]
			for _, r := range o.Records {
				if r.Reserve == value {
					reserve.Records = append(reserve.Records, r)
					continue
				}
				kept = append(kept, r)
			}
			o.Records = kept
		}
		if len(reserve.Records) > 0 {
			dataset.Add(reserve)
		}
	}

	for _, name := range v.sheets {
		dataset.Add(v.optoviks[name])
	}
	v.log.Info("Processed reserve values", zap.Int("reserve_values", len(v.opts.ReserveValues)))
	return dataset
}
