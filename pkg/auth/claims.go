package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var errNoCustomer = errors.New("token carries no customer id")

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	CustomerID uuid.UUID
	Name       string
	Phone      string
	JTI        string
}

// AccessTokenClaims is the JWT a customer presents. The phone travels with
// the token so order history can fall back to phone lookups.
type AccessTokenClaims struct {
	CustomerID uuid.UUID `json:"customer_id"`
	Name       string    `json:"name,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	jwt.RegisteredClaims
}

// Validate runs after the registered-claim checks during parsing.
func (c AccessTokenClaims) Validate() error {
	if c.CustomerID == uuid.Nil {
		return errNoCustomer
	}
	return nil
}
