package customers

// CreateCustomerRequest is the payload for adding a customer.
type CreateCustomerRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Phone string `json:"phone" validate:"required,max=50"`
}
