package process

import "errors"

var (
	// ErrNoMoreResults signals the end of a step's output. It is consumed
	// by the pull protocol and never reported as a failure by ToList.
	ErrNoMoreResults = errors.New("process: no more results")
	// ErrInterrupted is returned when a traversal is interrupted or its
	// context is done while it is being drained.
	ErrInterrupted = errors.New("process: traversal interrupted")
	// ErrTraversalLocked is returned when the step sequence or strategies
	// of a traversal are changed after strategies have been applied.
	ErrTraversalLocked = errors.New("process: traversal is locked after strategy application")
	// ErrRequirementViolation reports a traverser or step lacking a
	// capability that a later step depends on.
	ErrRequirementViolation = errors.New("process: requirement violation")
	// ErrCloneFailed is returned when a traversal cannot be deep-copied.
	ErrCloneFailed = errors.New("process: clone failed")
	// ErrStepOwned is returned when adding a step that still belongs to
	// another traversal. Remove it from its owner first.
	ErrStepOwned = errors.New("process: step already belongs to a traversal")
	// ErrUnexpectedValue is returned when a step receives a payload it
	// cannot operate on, such as an expansion step fed a string.
	ErrUnexpectedValue = errors.New("process: unexpected traverser value")
	// ErrBulkOverflow is returned when multiplying bulks exceeds uint64.
	ErrBulkOverflow = errors.New("process: bulk overflow")
)
