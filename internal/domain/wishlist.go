package domain

type Wishlist struct {
	UserID   string   `bson:"_id" json:"userId"`
	Products []string `bson:"products" json:"products"`
}

func (w *Wishlist) Contains(productID string) bool {
	for _, id := range w.Products {
		if id == productID {
			return true
		}
	}
	return false
}
