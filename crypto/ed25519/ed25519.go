package ed25519

import (
	"crypto/rand"
	"errors"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/hdevalence/ed25519consensus"
	"github.com/oasisprotocol/curve25519-voi/primitives/ed25519"
)

type (
	PublicKey  [ed25519.PublicKeySize]byte
	PrivateKey [ed25519.PrivateKeySize]byte
	Signature  [ed25519.SignatureSize]byte
)

const (
	PublicKeyLen      = ed25519.PublicKeySize
	PrivateKeyLen     = ed25519.PrivateKeySize
	PrivateKeySeedLen = ed25519.SeedSize
	SignatureLen      = ed25519.SignatureSize
)

var (
	ErrInvalidPublicKey  = errors.New("invalid public key")
	ErrInvalidPrivateKey = errors.New("invalid private key")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrEmptyBatch        = errors.New("empty batch")

	EmptyPublicKey  = PublicKey{}
	EmptyPrivateKey = PrivateKey{}
	EmptySignature  = Signature{}

	verifyOptions ed25519.Options
)

func init() {
	// Signatures accepted by the runtime must be accepted by every batch
	// verifier as well, so single verification uses the same ZIP-215 rules
	// as ed25519consensus.
	verifyOptions.Verify = ed25519.VerifyOptionsZIP_215
}

// String returns the base58 encoding of the public key.
func (p PublicKey) String() string {
	return base58.Encode(p[:])
}

// ParsePublicKey decodes a base58 public key.
func ParsePublicKey(s string) (PublicKey, error) {
	b := base58.Decode(s)
	if len(b) != PublicKeyLen {
		return EmptyPublicKey, ErrInvalidPublicKey
	}
	return PublicKey(b), nil
}

func GeneratePrivateKey() (PrivateKey, error) {
	_, k, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return EmptyPrivateKey, err
	}
	return PrivateKey(k), nil
}

func (p PrivateKey) PublicKey() PublicKey {
	return PublicKey(p[PrivateKeySeedLen:])
}

// String returns the base58 encoding of the full 64-byte keypair, the format
// used by Solana keypair tooling.
func (p PrivateKey) String() string {
	return base58.Encode(p[:])
}

func ParsePrivateKey(s string) (PrivateKey, error) {
	b := base58.Decode(s)
	if len(b) != PrivateKeyLen {
		return EmptyPrivateKey, ErrInvalidPrivateKey
	}
	k := PrivateKey(b)
	expected := ed25519.NewKeyFromSeed(k[:PrivateKeySeedLen])
	if PrivateKey(expected) != k {
		return EmptyPrivateKey, ErrInvalidPrivateKey
	}
	return k, nil
}

func (s Signature) String() string {
	return base58.Encode(s[:])
}

func ParseSignature(s string) (Signature, error) {
	b := base58.Decode(s)
	if len(b) != SignatureLen {
		return EmptySignature, ErrInvalidSignature
	}
	return Signature(b), nil
}

func Sign(msg []byte, pk PrivateKey) Signature {
	return Signature(ed25519.Sign(pk[:], msg))
}

func Verify(msg []byte, p PublicKey, s Signature) bool {
	return ed25519.VerifyWithOptions(p[:], msg, s[:], &verifyOptions)
}

type Batch struct {
	bv    ed25519consensus.BatchVerifier
	items int
}

func NewBatch(numItems int) *Batch {
	if numItems <= 0 {
		return &Batch{bv: ed25519consensus.NewBatchVerifier()}
	}
	return &Batch{bv: ed25519consensus.NewPreallocatedBatchVerifier(numItems)}
}

func (b *Batch) Add(msg []byte, p PublicKey, s Signature) {
	b.bv.Add(p[:], msg, s[:])
	b.items++
}

// Verify checks every signature added to the batch. An empty batch is an
// error rather than a vacuous success.
func (b *Batch) Verify() error {
	if b.items == 0 {
		return ErrEmptyBatch
	}
	if !b.bv.Verify() {
		return ErrInvalidSignature
	}
	return nil
}
