package statechart

import "errors"

var (
	ErrInvalidDeclaration   = errors.New("invalid declaration")
	ErrDuplicateName        = errors.New("duplicate name")
	ErrMissingInitialState  = errors.New("missing initial substate")
	ErrStateNotFound        = errors.New("state not found")
	ErrAmbiguousState       = errors.New("ambiguous state")
	ErrTransitionSuspended  = errors.New("transition suspended")
	ErrNotSuspended         = errors.New("no transition is suspended")
	ErrNotEntered           = errors.New("state is not entered")
	ErrNotInitialized       = errors.New("statechart is not initialized")
	ErrOrthogonalTransition = errors.New("transition crosses orthogonal regions")
	ErrReservedEvent        = errors.New("event name is reserved by a handler")
)
