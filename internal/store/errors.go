package store

import (
	"errors"
	"fmt"
)

var (
	errBadQuantity      = errors.New("quantity must be positive")
	errBadPrice         = errors.New("price must be positive")
	errMissingPortfolio = errors.New("daily log has no portfolio section")
)

func errUnknownAction(action string) error {
	return fmt.Errorf("unknown trade action %q", action)
}
