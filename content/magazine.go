package content

import "context"

// Magazine is the sellable catalog item. Price is in whole currency units.
type Magazine struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Price int64  `json:"price"`
}

const magazineDocument = `
query GetMagazinePrice($id: ID!) {
	magazine(where: { id: $id }) {
		id
		title
		price
	}
}`

// Magazine returns the magazine with the given id, or nil if none exists.
func (s *Store) Magazine(ctx context.Context, magazineID string) (*Magazine, error) {
	var resp struct {
		Magazine *Magazine `json:"magazine"`
	}
	if err := s.run(ctx, magazineDocument, map[string]interface{}{
		"id": magazineID,
	}, &resp); err != nil {
		return nil, err
	}
	return resp.Magazine, nil
}
