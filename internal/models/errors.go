package models

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("operation not permitted for this role")
	ErrRejectedCapacity   = errors.New("user already participates in the maximum number of projects")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
)
