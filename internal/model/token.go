package model

import "github.com/google/uuid"

// TokenManager generates and validates access/refresh tokens.
type TokenManager interface {
	GenerateAccessToken(employeeID uuid.UUID) (string, error)
	GenerateRefreshToken(employeeID uuid.UUID) (token string, jti string, err error)
	ParseAccessToken(token string) (uuid.UUID, error)
	ParseRefreshToken(token string) (employeeID uuid.UUID, jti string, err error)
}
