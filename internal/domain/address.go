package domain

type Address struct {
	ID        string `bson:"_id" json:"id"`
	UserID    string `bson:"user_id" json:"userId"`
	FirstName string `bson:"first_name" json:"firstName" validate:"required"`
	LastName  string `bson:"last_name" json:"lastName" validate:"required"`
	Email     string `bson:"email" json:"email" validate:"required,email"`
	Street    string `bson:"street" json:"street" validate:"required"`
	City      string `bson:"city" json:"city" validate:"required"`
	State     string `bson:"state" json:"state" validate:"required"`
	Zipcode   string `bson:"zipcode" json:"zipcode" validate:"required"`
	Country   string `bson:"country" json:"country" validate:"required"`
	Phone     string `bson:"phone" json:"phone" validate:"required"`
}
