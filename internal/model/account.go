package model

import (
	"errors"
	"time"
)

// Account represents an operator who can log in and perform stock movements.
type Account struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Surname      string    `json:"surname"`
	Login        string    `json:"login"`
	PasswordHash string    `json:"-"`
	Admin        bool      `json:"admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// FullName returns the display name of the account.
func (a Account) FullName() string {
	switch {
	case a.Name == "":
		return a.Surname
	case a.Surname == "":
		return a.Name
	}
	return a.Name + " " + a.Surname
}

// MinPasswordLength is the shortest password accepted for an account.
const MinPasswordLength = 8

// ValidatePassword checks a plaintext password against the password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}
