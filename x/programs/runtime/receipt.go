package runtime

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"golang.org/x/crypto/blake2b"

	"github.com/ava-labs/crank/x/programs/program"
)

// Receipt is the host's record of one dispatched invocation.
type Receipt struct {
	ID           string   `json:"id"`
	ProgramID    string   `json:"programId"`
	Instruction  string   `json:"instruction"`
	Logs         []string `json:"logs"`
	ProgramLogs  []string `json:"programLogs"`
	ComputeUnits uint64   `json:"computeUnits"`
	Success      bool     `json:"success"`
	Error        string   `json:"error,omitempty"`
	Timestamp    int64    `json:"timestamp"`
}

// receiptID identifies a signed transaction by its first signature. Unsigned
// invocations have no natural identity, so the host sequence number is mixed
// in to keep repeated invocations distinct.
func receiptID(tx *Transaction, msg []byte, seq uint64) string {
	if len(tx.Signatures) > 0 {
		return tx.Signatures[0].String()
	}
	var seqBytes [8]byte
	binary.BigEndian.PutUint64(seqBytes[:], seq)
	h, _ := blake2b.New256(nil)
	_, _ = h.Write(msg)
	_, _ = h.Write(seqBytes[:])
	return base58.Encode(h.Sum(nil))
}

type transcript struct {
	programID string
	lines     []string
}

func newTranscript(programID string) *transcript {
	return &transcript{
		programID: programID,
		lines:     []string{fmt.Sprintf("Program %s invoke [1]", programID)},
	}
}

func (t *transcript) finish(call *program.CallContext, limit uint64, err error) []string {
	for _, l := range call.Logs() {
		t.lines = append(t.lines, "Program log: "+l)
	}
	t.lines = append(t.lines, fmt.Sprintf("Program %s consumed %d of %d compute units", t.programID, limit-call.Gas, limit))
	if err != nil {
		t.lines = append(t.lines, fmt.Sprintf("Program %s failed: %v", t.programID, err))
	} else {
		t.lines = append(t.lines, fmt.Sprintf("Program %s success", t.programID))
	}
	return t.lines
}
