package territory

import "context"

// Location is the region and territory recorded for a customer in the warehouse
type Location struct {
	Customer  string `json:"customer"`
	Region    string `json:"region"`
	Territory string `json:"territory"`
}

// CustomerLocationRepository reads known customer locations from the customer dimension
type CustomerLocationRepository interface {
	// HasCustomers reports whether the customer dimension holds any rows
	HasCustomers(ctx context.Context) (bool, error)
	// FindLocations returns the locations of the given customers, keyed by customer.
	// Customers without a row are absent from the result.
	FindLocations(ctx context.Context, customers []string) (map[string]Location, error)
}
