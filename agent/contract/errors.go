package contract

import "errors"

var (
	ErrModelInvoke        = errors.New("model invoke failed")
	ErrValidation         = errors.New("validation failed")
	ErrPreferenceNotFound = errors.New("preference not found")
	ErrDispatchNotFound   = errors.New("dispatch not found")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
)
