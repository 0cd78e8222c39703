package database

import "time"

type User struct {
	Id           int
	Username     string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Product struct {
	Id                int
	Name              string
	Price             float64
	Description       string
	Stock             int
	Category          string
	CreatedBy         int
	CreatedByUsername string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type CreateAccountParams struct {
	Username     string
	Email        string
	PasswordHash string
	Role         string
}

type CreateProductParams struct {
	Name        string
	Price       float64
	Description string
	Stock       int
	Category    string
	CreatedBy   int
}

type UpdateProductParams struct {
	ProductId   int
	Name        string
	Price       float64
	Description string
	Stock       int
	Category    string
}
