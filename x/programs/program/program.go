package program

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/near/borsh-go"

	"github.com/ava-labs/crank/crypto/ed25519"
)

// Program is a deployable unit registered with the runtime. ID must be
// constant for the lifetime of the process.
type Program interface {
	ID() ids.ID
	Name() string
	Version() string
	Instructions() []*Instruction
}

// AccountSpec declares one account an instruction expects.
type AccountSpec struct {
	Name     string
	Writable bool
	Signer   bool
}

// AccountMeta is an account reference supplied with an invocation.
type AccountMeta struct {
	PublicKey  ed25519.PublicKey
	IsSigner   bool
	IsWritable bool
}

// AccountsOf derives account declarations from the fields of the struct
// [accounts], in field order. Fields are tagged `account:"mut,signer"`.
func AccountsOf(accounts any) []AccountSpec {
	t := reflect.TypeOf(accounts)
	specs := make([]AccountSpec, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		spec := AccountSpec{Name: f.Name}
		for _, opt := range strings.Split(f.Tag.Get("account"), ",") {
			switch opt {
			case "mut":
				spec.Writable = true
			case "signer":
				spec.Signer = true
			}
		}
		specs = append(specs, spec)
	}
	return specs
}

// Handler runs the body of an instruction with its decoded arguments.
type Handler[A any] func(ctx context.Context, call *CallContext, args A) error

// Instruction binds a selector to a handler. Build one with NewInstruction.
type Instruction struct {
	Name     string
	Accounts []AccountSpec

	selector Discriminator
	argsType reflect.Type
	decode   func([]byte) (any, error)
	execute  func(context.Context, *CallContext, any) error
}

// NewInstruction declares an instruction whose arguments are borsh-encoded
// as A. [name] is the snake_case handler name the selector is derived from.
func NewInstruction[A any](name string, accounts []AccountSpec, handler Handler[A]) *Instruction {
	return &Instruction{
		Name:     name,
		Accounts: accounts,
		selector: Sighash(name),
		argsType: reflect.TypeOf((*A)(nil)).Elem(),
		decode: func(data []byte) (any, error) {
			var args A
			if err := borsh.Deserialize(&args, data); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInstructionDidNotDeserialize, err)
			}
			return args, nil
		},
		execute: func(ctx context.Context, call *CallContext, args any) error {
			return handler(ctx, call, args.(A))
		},
	}
}

func (i *Instruction) Selector() Discriminator {
	return i.selector
}

// Data returns the instruction data for invoking this instruction with
// [args]: the selector followed by the borsh encoding of args.
func (i *Instruction) Data(args any) ([]byte, error) {
	if t := reflect.TypeOf(args); t != i.argsType {
		return nil, fmt.Errorf("%w: %s expects %s, got %v", ErrUnsupportedArgumentType, i.Name, i.argsType, t)
	}
	b, err := borsh.Serialize(args)
	if err != nil {
		return nil, err
	}
	data := make([]byte, 0, DiscriminatorLen+len(b))
	data = append(data, i.selector[:]...)
	return append(data, b...), nil
}

// DecodeArgs decodes the argument bytes following the selector. Trailing
// bytes are ignored.
func (i *Instruction) DecodeArgs(data []byte) (any, error) {
	return i.decode(data)
}

// ValidateAccounts checks the supplied accounts against the declared set.
func (i *Instruction) ValidateAccounts(accounts []AccountMeta) error {
	if len(accounts) != len(i.Accounts) {
		return fmt.Errorf("%w: %s declares %d, got %d", ErrAccountCountMismatch, i.Name, len(i.Accounts), len(accounts))
	}
	for j, spec := range i.Accounts {
		meta := accounts[j]
		if spec.Signer && !meta.IsSigner {
			return fmt.Errorf("%w: %s", ErrAccountNotSigner, spec.Name)
		}
		if spec.Writable && !meta.IsWritable {
			return fmt.Errorf("%w: %s", ErrAccountNotMutable, spec.Name)
		}
	}
	return nil
}

func (i *Instruction) Execute(ctx context.Context, call *CallContext, args any) error {
	return i.execute(ctx, call, args)
}
