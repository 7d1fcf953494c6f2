package rpc

import (
	"context"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/crank/x/programs/program"
	"github.com/ava-labs/crank/x/programs/runtime"
)

type Runtime interface {
	Invoke(ctx context.Context, tx *runtime.Transaction) (*runtime.Receipt, error)
	Programs() []program.Program
	Lookup(id ids.ID) (program.Program, bool)
	Ledger() runtime.Ledger
	Subscribe(f func(*runtime.Receipt)) func()
}
