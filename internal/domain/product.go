package domain

// Product is a catalog entry. The node carries an arbitrary scalar attribute
// bag alongside its id; the API only reads products, seeding happens offline.
type Product struct {
	ID    string         `json:"id"`
	Props map[string]any `json:"props"`
}
