package expense

import "errors"

var (
	// ErrNotFound: expense missing, or not owned by the caller.
	ErrNotFound = errors.New("expense not found")
	// ErrInvalidState: the expense status or the current step status forbids
	// the operation.
	ErrInvalidState = errors.New("expense is not in a valid state for this operation")
	// ErrNoCurrentStep: the chain is empty or the cursor has run past it.
	ErrNoCurrentStep = errors.New("no current approval step")
	// ErrNotAuthorized: acting role does not match the current step's role.
	ErrNotAuthorized = errors.New("approver role not authorized for current step")
	// ErrAlreadyStarted: the chain was already built and restarts are disabled.
	ErrAlreadyStarted = errors.New("approval workflow already started")
	// ErrImmutable: expense can no longer be edited by its owner.
	ErrImmutable = errors.New("expense can no longer be modified")
)
