package program

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/crank/crypto/ed25519"
)

const (
	// LogBaseCost is the minimum number of compute units charged for a
	// single program log line. Longer lines cost one unit per byte.
	LogBaseCost = 100
)

// CallContext is handed to an instruction handler after the host has
// validated the invocation. Accounts holds exactly the accounts declared by
// the instruction, in declaration order.
type CallContext struct {
	ProgramID ids.ID
	Caller    ed25519.PublicKey
	Accounts  []AccountMeta
	Gas       uint64

	logs []string
}

func NewCallContext(programID ids.ID, caller ed25519.PublicKey, accounts []AccountMeta, gas uint64) *CallContext {
	return &CallContext{
		ProgramID: programID,
		Caller:    caller,
		Accounts:  accounts,
		Gas:       gas,
	}
}

// Consume charges [units] against the remaining compute budget. Once the
// budget is exhausted the remaining gas is zero and every further charge
// fails.
func (c *CallContext) Consume(units uint64) error {
	if units > c.Gas {
		c.Gas = 0
		return fmt.Errorf("%w: need %d units", ErrComputeBudgetExceeded, units)
	}
	c.Gas -= units
	return nil
}

// Log records a program log line, charging LogCost for it.
func (c *CallContext) Log(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if err := c.Consume(LogCost(msg)); err != nil {
		return err
	}
	c.logs = append(c.logs, msg)
	return nil
}

// Logs returns the lines logged by the program so far.
func (c *CallContext) Logs() []string {
	return c.logs
}

func LogCost(msg string) uint64 {
	if l := uint64(len(msg)); l > LogBaseCost {
		return l
	}
	return LogBaseCost
}
