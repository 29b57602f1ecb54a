package domain

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID        string    `bson:"_id" json:"id"`
	ProductID string    `bson:"product_id" json:"productId"`
	UserID    string    `bson:"user_id" json:"userId"`
	Rating    int       `bson:"rating" json:"rating"`
	Comment   string    `bson:"comment" json:"comment"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}
