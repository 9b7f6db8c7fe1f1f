package enrollment

import "errors"

// Workflow errors surfaced to HTTP handlers. Handlers map them to status
// codes with errors.Is; none are retried here.
var (
	// ErrInvalidImage: the upload has zero or more than one detected face.
	ErrInvalidImage = errors.New("image must contain exactly one person")

	// ErrDuplicatePerson: the face is already enrolled in the corpus.
	ErrDuplicatePerson = errors.New("person already exists")

	// ErrConflict: a unique constraint (email, id number, attendance pair)
	// rejected the write.
	ErrConflict = errors.New("already exists")

	// ErrNotFound: no matching identity or entity.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument: malformed filter combination.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotRegistered: no registration links the identity to the event.
	ErrNotRegistered = errors.New("assistant is not registered for this event")

	// ErrStorage: filesystem or database failure during a write.
	ErrStorage = errors.New("storage failure")
)
