package content

import "context"

// Customer is the content-store record of an end user
type Customer struct {
	ID      string `json:"id"`
	ClerkID string `json:"clerkId"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
}

const getCustomerDocument = `
query GetCustomer($clerkId: String!) {
	customer(where: { clerkId: $clerkId }) {
		id
		clerkId
		email
		name
	}
}`

// GetByClerkID returns the customer with the given clerk id, or nil if
// none exists.
func (s *Store) GetByClerkID(ctx context.Context, clerkID string) (*Customer, error) {
	var resp struct {
		Customer *Customer `json:"customer"`
	}
	if err := s.run(ctx, getCustomerDocument, map[string]interface{}{
		"clerkId": clerkID,
	}, &resp); err != nil {
		return nil, err
	}
	return resp.Customer, nil
}

const createCustomerDocument = `
mutation CreateCustomer($clerkId: String!, $email: String!, $name: String!, $imageUrl: String) {
	createCustomer(data: {
		clerkId: $clerkId,
		email: $email,
		name: $name,
		imageUrl: $imageUrl
	}) {
		id
		clerkId
		email
		name
	}
}
`

// CreateCustomer creates a new customer record.
func (s *Store) CreateCustomer(ctx context.Context, clerkID, email, name, imageURL string) (*Customer, error) {
	var resp struct {
		CreateCustomer *Customer `json:"createCustomer"`
	}
	if err := s.run(ctx, createCustomerDocument, map[string]interface{}{
		"clerkId":  clerkID,
		"email":    email,
		"name":     name,
		"imageUrl": imageURL,
	}, &resp); err != nil {
		return nil, err
	}
	return resp.CreateCustomer, nil
}

// CustomerFields are the mutable profile fields on a customer record.
type CustomerFields struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
}

const updateCustomerDocument = `
mutation UpdateCustomer(
	$clerkId: String!
	$name: String
	$email: String
	$phone: String
	$address: String
	$city: String
	$state: String
	$zip: String
) {
	updateCustomer(
		where: { clerkId: $clerkId }
		data: {
			name: $name
			email: $email
			phone: $phone
			address: $address
			city: $city
			state: $state
			zip: $zip
		}
	) {
		id
		clerkId
		email
		name
		phone
		address
		city
		state
		zip
	}
}`

// UpdateCustomer overwrites the profile fields of an existing customer.
func (s *Store) UpdateCustomer(ctx context.Context, clerkID string, fields CustomerFields) (*Customer, error) {
	var resp struct {
		UpdateCustomer *Customer `json:"updateCustomer"`
	}
	if err := s.run(ctx, updateCustomerDocument, map[string]interface{}{
		"clerkId": clerkID,
		"name":    fields.Name,
		"email":   fields.Email,
		"phone":   fields.Phone,
		"address": fields.Address,
		"city":    fields.City,
		"state":   fields.State,
		"zip":     fields.Zip,
	}, &resp); err != nil {
		return nil, err
	}
	return resp.UpdateCustomer, nil
}
