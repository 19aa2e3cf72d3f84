package auth

import "errors"

// Token validation errors. All of them map to 401.
var (
	// ErrInvalidToken indicates the token is malformed or its signature doesn't match
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrTokenNotYetValid indicates the token is not yet valid (nbf or iat in the future)
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrWrongTokenType indicates a well-formed token issued for another purpose
	ErrWrongTokenType = errors.New("wrong token type")
)
