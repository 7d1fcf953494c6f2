package runtime

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/near/borsh-go"

	"github.com/ava-labs/crank/consts"
	"github.com/ava-labs/crank/crypto/ed25519"
	"github.com/ava-labs/crank/x/programs/program"
)

// Invocation is a single routed request to a program.
type Invocation struct {
	ProgramID ids.ID
	Accounts  []program.AccountMeta
	Data      []byte

	// ComputeUnitLimit overrides the runtime default when non-zero.
	ComputeUnitLimit uint64
}

// Transaction is an invocation plus one signature per signer account, in
// account order.
type Transaction struct {
	Invocation
	Signatures []ed25519.Signature
}

type accountWire struct {
	PublicKey  [ed25519.PublicKeyLen]byte
	IsSigner   bool
	IsWritable bool
}

type messageWire struct {
	ProgramID        [consts.HashLen]byte
	Accounts         []accountWire
	Data             []byte
	ComputeUnitLimit uint64
}

// Message returns the bytes signers sign over.
func (i *Invocation) Message() ([]byte, error) {
	if len(i.Accounts) > int(consts.MaxUint8) {
		return nil, fmt.Errorf("%w: %d", ErrTooManyAccounts, len(i.Accounts))
	}
	accounts := make([]accountWire, len(i.Accounts))
	for j, a := range i.Accounts {
		accounts[j] = accountWire{
			PublicKey:  a.PublicKey,
			IsSigner:   a.IsSigner,
			IsWritable: a.IsWritable,
		}
	}
	return borsh.Serialize(messageWire{
		ProgramID:        i.ProgramID,
		Accounts:         accounts,
		Data:             i.Data,
		ComputeUnitLimit: i.ComputeUnitLimit,
	})
}

// Signers returns the public keys of signer accounts, in account order.
func (i *Invocation) Signers() []ed25519.PublicKey {
	var signers []ed25519.PublicKey
	for _, a := range i.Accounts {
		if a.IsSigner {
			signers = append(signers, a.PublicKey)
		}
	}
	return signers
}

// NewTransaction wraps [inv] and signs it with [keys]. Every signer account
// must have a matching key.
func NewTransaction(inv Invocation, keys ...ed25519.PrivateKey) (*Transaction, error) {
	tx := &Transaction{Invocation: inv}
	signers := inv.Signers()
	if len(signers) == 0 {
		return tx, nil
	}
	msg, err := inv.Message()
	if err != nil {
		return nil, err
	}
	byPublicKey := make(map[ed25519.PublicKey]ed25519.PrivateKey, len(keys))
	for _, k := range keys {
		byPublicKey[k.PublicKey()] = k
	}
	tx.Signatures = make([]ed25519.Signature, len(signers))
	for j, signer := range signers {
		key, ok := byPublicKey[signer]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingSigningKey, signer)
		}
		tx.Signatures[j] = ed25519.Sign(msg, key)
	}
	return tx, nil
}

// VerifySignatures checks every signature against its signer account. More
// than one signature is checked as a batch.
func (tx *Transaction) VerifySignatures(msg []byte) error {
	signers := tx.Signers()
	if len(signers) != len(tx.Signatures) {
		return fmt.Errorf("%w: %d signers, %d signatures", ErrSignatureCountMismatch, len(signers), len(tx.Signatures))
	}
	switch len(signers) {
	case 0:
		return nil
	case 1:
		if !ed25519.Verify(msg, signers[0], tx.Signatures[0]) {
			return fmt.Errorf("%w: %s", ErrInvalidSignature, signers[0])
		}
		return nil
	default:
		batch := ed25519.NewBatch(len(signers))
		for j, signer := range signers {
			batch.Add(msg, signer, tx.Signatures[j])
		}
		if err := batch.Verify(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		return nil
	}
}

// Caller is the first signer, or the empty key for unsigned invocations.
func (tx *Transaction) Caller() ed25519.PublicKey {
	if signers := tx.Signers(); len(signers) > 0 {
		return signers[0]
	}
	return ed25519.EmptyPublicKey
}
