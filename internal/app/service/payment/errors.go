package payment

import "errors"

var (
	// ErrPlanNotFound covers unknown plan codes and test plans requested
	// through the public path.
	ErrPlanNotFound = errors.New("plan not found")
	// ErrNoPaymentMethod: the renewal path needs a saved card token.
	ErrNoPaymentMethod = errors.New("subscription has no saved payment method")
)
