package program

import (
	"crypto/sha256"
	"encoding/hex"
)

const (
	DiscriminatorLen = 8

	sighashNamespace = "global"
)

// Discriminator is the selector prepended to instruction data to route it to
// a handler.
type Discriminator [DiscriminatorLen]byte

// Sighash returns the selector of the instruction [name]:
// sha256("global:<name>")[:8].
func Sighash(name string) Discriminator {
	h := sha256.Sum256([]byte(sighashNamespace + ":" + name))
	var d Discriminator
	copy(d[:], h[:DiscriminatorLen])
	return d
}

func (d Discriminator) String() string {
	return hex.EncodeToString(d[:])
}

// SplitSelector separates instruction data into its selector and argument
// bytes.
func SplitSelector(data []byte) (Discriminator, []byte, error) {
	var d Discriminator
	if len(data) < DiscriminatorLen {
		return d, nil, ErrInstructionMissing
	}
	copy(d[:], data[:DiscriminatorLen])
	return d, data[DiscriminatorLen:], nil
}
