package domain

import "strings"

// CustomerIdentity is the caller's identity; email is the case-insensitive key
type CustomerIdentity struct {
	Email string
	Name  string
	Phone *string
}

// Key returns the normalized email
func (c CustomerIdentity) Key() string {
	return NormalizeEmail(c.Email)
}

// NormalizeEmail case-folds and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
