package contract

import "errors"

// Module errors.
var (
	ErrContractNotFound   = errors.New("contract not found")
	ErrContractInactive   = errors.New("contract no longer accepts payments")
	ErrEnrollmentExists   = errors.New("enrollment already exists for payment")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
)
