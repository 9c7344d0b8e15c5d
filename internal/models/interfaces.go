package models

// Validator interface for models that can validate themselves
type Validator interface {
	Validate() error
}
