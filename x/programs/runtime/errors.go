package runtime

import "errors"

var (
	ErrInvalidConfig           = errors.New("invalid runtime config")
	ErrProgramNotFound         = errors.New("program not found")
	ErrDuplicateProgram        = errors.New("duplicate program")
	ErrDuplicateInstruction    = errors.New("duplicate instruction selector")
	ErrSignatureCountMismatch  = errors.New("signature count does not match signer accounts")
	ErrInvalidSignature        = errors.New("invalid signature")
	ErrMissingSigningKey       = errors.New("missing signing key")
	ErrAlreadyProcessed        = errors.New("transaction already processed")
	ErrComputeUnitLimitTooHigh = errors.New("requested compute unit limit too high")
	ErrTooManyAccounts         = errors.New("too many accounts")
	ErrNotFound                = errors.New("not found")
	ErrProgramFailed           = errors.New("program failed to complete")
)
