package program

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/btcsuite/btcd/btcutil/base58"
)

const IDLen = len(ids.Empty)

// ParseID decodes a base58 program identifier. The decoded value must be
// exactly 32 bytes.
func ParseID(s string) (ids.ID, error) {
	b := base58.Decode(s)
	if len(b) != IDLen {
		return ids.Empty, fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidProgramID, s, len(b))
	}
	return ids.ID(b), nil
}

// MustParseID is ParseID for identifiers declared at package level. A
// malformed identifier panics during program initialization.
func MustParseID(s string) ids.ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// FormatID returns the base58 form of a program identifier. Note that
// ids.ID.String uses cb58, which is not the format programs are addressed by.
func FormatID(id ids.ID) string {
	return base58.Encode(id[:])
}
