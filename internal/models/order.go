package models

// Order is the checkout payload sent by the storefront.
type Order struct {
	Value       float64 `json:"value"`
	Description string  `json:"description"`
	Payer       Payer   `json:"payer"`
	Items       []Item  `json:"items"`
}

type Payer struct {
	FullName string  `json:"fullName"`
	Document string  `json:"document"`
	Phone    string  `json:"phone"`
	Email    string  `json:"email"`
	Address  Address `json:"address"`
}

type Address struct {
	ZipCode      string `json:"zipCode"`
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	Country      string `json:"country"`
}

type Item struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Size     string  `json:"size,omitempty"`
	Color    string  `json:"color,omitempty"`
}
