package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrProductNotFound is returned when a product id has no catalog row.
	ErrProductNotFound = errors.New("product not found")

	// ErrNoSalesHistory marks a product whose observation window is all zeros.
	// It is not a failure: the product is skipped and its stored records are left alone.
	ErrNoSalesHistory = errors.New("no sales history")

	ErrInsufficientData = errors.New("insufficient data for training")

	ErrAlertNotFound = errors.New("alert not found")

	// ErrRunInProgress is returned when a run is requested while another is still going.
	ErrRunInProgress = errors.New("forecast run already in progress")
)

// InsufficientDataError reports how many usable feature rows were available.
type InsufficientDataError struct {
	Rows     int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for training: have %d usable rows, need at least %d", e.Rows, e.Required)
}

func (e *InsufficientDataError) Unwrap() error {
	return ErrInsufficientData
}
