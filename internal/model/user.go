package model

import "time"

// User is a company employee.
type User struct {
	ID           int64     `json:"id"`
	CompanyID    int64     `json:"companyId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Reputation   int       `json:"reputation"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreateUserInput is the operator input for provisioning an employee.
type CreateUserInput struct {
	CompanyID int64
	Name      string
	Email     string
	Password  string
	Role      Role
}
