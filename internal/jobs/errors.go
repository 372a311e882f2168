package jobs

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrNotClaimable  = errors.New("job not claimable")
	ErrNotResettable = errors.New("job not resettable")
)

const (
	ErrorCodeTimeout   = "ATTEMPT_TIMEOUT"
	ErrorCodeStorage   = "STORAGE_ERROR"
	ErrorCodeAssembler = "ASSEMBLER_ERROR"
	ErrorCodeContract  = "CONTRACT_VIOLATION"
	ErrorCodeInternal  = "INTERNAL_ERROR"
)
