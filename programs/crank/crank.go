// Package crank is the crank program: a single initialize instruction that
// takes no accounts and no arguments and logs the program id.
package crank

import (
	"context"
	"strings"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/crank/consts"
	"github.com/ava-labs/crank/x/programs/program"
)

// Address is the program identifier. It must stay byte-for-byte stable
// across upgrades of the deployed program.
const Address = "8RT6jMFXpLXcLLNNUUbC57sro7uLJuKHYZkVGRYtzt14"

var (
	ID = program.MustParseID(Address)

	_ program.Program = (*Program)(nil)
)

// InitializeAccounts is the account set of initialize. It is empty.
type InitializeAccounts struct{}

// InitializeArgs is the argument set of initialize. It is empty.
type InitializeArgs struct{}

type Program struct{}

func New() *Program {
	return &Program{}
}

func (*Program) ID() ids.ID {
	return ID
}

func (*Program) Name() string {
	return consts.Name
}

// Version is the release version without its "v" prefix, as the IDL
// expects.
func (*Program) Version() string {
	return strings.TrimPrefix(consts.Version, "v")
}

func (p *Program) Instructions() []*program.Instruction {
	return []*program.Instruction{
		program.NewInstruction("initialize", program.AccountsOf(InitializeAccounts{}), p.Initialize),
	}
}

// Initialize logs a greeting carrying the program id. The runtime has
// already rejected anything that does not match its empty account and
// argument sets, so only an exhausted compute budget can stop it.
func (*Program) Initialize(_ context.Context, call *program.CallContext, _ InitializeArgs) error {
	return call.Log("Greetings from: %s", program.FormatID(call.ProgramID))
}

// InitializeData returns the instruction data for initialize.
func InitializeData() []byte {
	d := program.Sighash("initialize")
	return d[:]
}
