package common

import "errors"

// Общие ошибки для всех репозиториев
var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrStateConflict = errors.New("entity is not in the required state")
	ErrInvalidInput  = errors.New("invalid input")
)
