package content

import "context"

// CartMagazine is one entry in a customer's cart or liked list.
type CartMagazine struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

const addToCartDocument = `
mutation AddToCart($customerId: ID!, $magazineId: ID!) {
	updateCustomer(
		where: { id: $customerId }
		data: {
			cartMagazines: {
				connect: { where: { id: $magazineId } }
			}
		}
	) {
		id
		cartMagazines {
			id
			name
		}
	}
	publishCustomer(where: { id: $customerId }) {
		id
	}
}`

// AddToCart connects a magazine to the customer's cart and returns the
// cart as it stands after the write.
func (s *Store) AddToCart(ctx context.Context, customerID, magazineID string) ([]CartMagazine, error) {
	var resp struct {
		UpdateCustomer struct {
			ID            string         `json:"id"`
			CartMagazines []CartMagazine `json:"cartMagazines"`
		} `json:"updateCustomer"`
	}
	if err := s.run(ctx, addToCartDocument, map[string]interface{}{
		"customerId": customerID,
		"magazineId": magazineID,
	}, &resp); err != nil {
		return nil, err
	}
	return resp.UpdateCustomer.CartMagazines, nil
}

const removeFromCartDocument = `
mutation RemoveFromCart($customerId: ID!, $magazineId: ID!) {
	updateCustomer(
		where: { id: $customerId }
		data: {
			cartMagazines: { disconnect: { id: $magazineId } }
		}
	) {
		id
	}
	publishCustomer(where: { id: $customerId }) {
		id
	}
}`

// RemoveFromCart disconnects a magazine from the customer's cart.
// Disconnecting a magazine that is not in the cart is a no-op upstream.
func (s *Store) RemoveFromCart(ctx context.Context, customerID, magazineID string) error {
	var resp struct {
		UpdateCustomer struct {
			ID string `json:"id"`
		} `json:"updateCustomer"`
	}
	return s.run(ctx, removeFromCartDocument, map[string]interface{}{
		"customerId": customerID,
		"magazineId": magazineID,
	}, &resp)
}

const likeMagazineDocument = `
mutation LikeMagazine($customerId: ID!, $magazineId: ID!) {
	updateCustomer(
		where: { id: $customerId }
		data: {
			likedMagazines: {
				connect: { where: { id: $magazineId } }
			}
		}
	) {
		id
		likedMagazines {
			id
			name
		}
	}
	publishCustomer(where: { id: $customerId }) {
		id
	}
}`

// LikeMagazine connects a magazine to the customer's liked list and
// returns the list as it stands after the write.
func (s *Store) LikeMagazine(ctx context.Context, customerID, magazineID string) ([]CartMagazine, error) {
	var resp struct {
		UpdateCustomer struct {
			ID             string         `json:"id"`
			LikedMagazines []CartMagazine `json:"likedMagazines"`
		} `json:"updateCustomer"`
	}
	if err := s.run(ctx, likeMagazineDocument, map[string]interface{}{
		"customerId": customerID,
		"magazineId": magazineID,
	}, &resp); err != nil {
		return nil, err
	}
	return resp.UpdateCustomer.LikedMagazines, nil
}
