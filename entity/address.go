package entity

// Address is embedded into carts and orders as a delivery snapshot.
type Address struct {
	Street       string `json:"street"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zipCode"`
	Instructions string `json:"instructions,omitempty"`
}
