package auth

import "errors"

var (
	ErrKeyNotFound   = errors.New("api key not found")
	ErrKeyGeneration = errors.New("failed to create api key")
)
