package domain

import "time"

// Product is a catalog entry. Prices are whole currency units.
type Product struct {
	ID          string    `bson:"_id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Category    string    `bson:"category" json:"category"`
	Description []string  `bson:"description" json:"description"`
	Price       int64     `bson:"price" json:"price"`
	OfferPrice  int64     `bson:"offer_price" json:"offerPrice"`
	Stock       int       `bson:"stock" json:"stock"`
	RatingTotal int       `bson:"rating_total" json:"-"`
	NumReviews  int       `bson:"num_reviews" json:"numOfReviews"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
}

func (p *Product) InStock() bool {
	return p.Stock > 0
}

// AverageRating is the mean review rating rounded to one decimal place.
func (p *Product) AverageRating() float64 {
	if p.NumReviews == 0 {
		return 0
	}
	avg := float64(p.RatingTotal) / float64(p.NumReviews)
	return float64(int(avg*10+0.5)) / 10
}

func (p *Product) Validate() error {
	if p.Name == "" {
		return InvalidInput("product name is required")
	}
	if p.Price <= 0 {
		return InvalidInput("price must be positive")
	}
	if p.OfferPrice <= 0 || p.OfferPrice > p.Price {
		return InvalidInput("offer price must be positive and not exceed price")
	}
	if p.Stock < 0 {
		return InvalidInput("stock must not be negative")
	}
	return nil
}

func (p *Product) Clone() *Product {
	c := *p
	c.Description = append([]string(nil), p.Description...)
	return &c
}
