package models

// OperationResult is the outcome shape of store commands. Failures are reported
// here instead of as Go errors so that views never need error plumbing.
type OperationResult[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    *T     `json:"data,omitempty"`
}
