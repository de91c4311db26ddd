package models

import "time"

type User struct {
	ID             int64     `json:"id" bson:"_id" db:"id"`
	Username       string    `json:"username" bson:"username" db:"username"`
	Email          string    `json:"email" bson:"email" db:"email"`
	HashedPassword string    `json:"-" bson:"hashedPassword" db:"hashed_password"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt" db:"created_at"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}
