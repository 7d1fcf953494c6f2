package program

import "errors"

var (
	ErrInvalidProgramID             = errors.New("invalid program id")
	ErrInvalidName                  = errors.New("invalid instruction name")
	ErrInstructionMissing           = errors.New("8 byte instruction identifier not provided")
	ErrInstructionFallbackNotFound  = errors.New("fallback functions are not supported")
	ErrInstructionDidNotDeserialize = errors.New("the program could not deserialize the given instruction")
	ErrAccountCountMismatch         = errors.New("account count does not match the instruction")
	ErrAccountNotMutable            = errors.New("the given account is not mutable")
	ErrAccountNotSigner             = errors.New("the given account did not sign")
	ErrDeclaredProgramIDMismatch    = errors.New("the declared program id does not match the actual program id")
	ErrComputeBudgetExceeded        = errors.New("exceeded compute unit budget")
	ErrUnsupportedArgumentType      = errors.New("unsupported argument type")
)

// Anchor-compatible error codes. Errors outside this table have no code.
var errorCodes = []struct {
	err  error
	code uint32
}{
	{ErrInstructionMissing, 100},
	{ErrInstructionFallbackNotFound, 101},
	{ErrInstructionDidNotDeserialize, 102},
	{ErrAccountCountMismatch, 3005},
	{ErrAccountNotMutable, 3006},
	{ErrAccountNotSigner, 3010},
	{ErrDeclaredProgramIDMismatch, 4100},
}

// ErrorCode returns the numeric code of [err], or false if it has none.
func ErrorCode(err error) (uint32, bool) {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code, true
		}
	}
	return 0, false
}
