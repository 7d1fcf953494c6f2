package rpc

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ava-labs/crank/consts"
	"github.com/ava-labs/crank/crypto/ed25519"
	"github.com/ava-labs/crank/x/programs/program"
	"github.com/ava-labs/crank/x/programs/runtime"
)

var ErrUnknownProgram = errors.New("unknown program")

type JSONRPCServer struct {
	rt Runtime
}

func NewJSONRPCServer(rt Runtime) *JSONRPCServer {
	return &JSONRPCServer{rt: rt}
}

type PingReply struct {
	Success bool `json:"success"`
}

func (*JSONRPCServer) Ping(_ *http.Request, _ *struct{}, reply *PingReply) error {
	reply.Success = true
	return nil
}

type HealthReply struct {
	Healthy  bool `json:"healthy"`
	Programs int  `json:"programs"`
}

// Health reports whether any program is registered.
func (j *JSONRPCServer) Health(_ *http.Request, _ *struct{}, reply *HealthReply) error {
	reply.Programs = len(j.rt.Programs())
	reply.Healthy = reply.Programs > 0
	return nil
}

type VersionReply struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func (*JSONRPCServer) Version(_ *http.Request, _ *struct{}, reply *VersionReply) error {
	reply.Name = consts.Name
	reply.Version = consts.Version
	return nil
}

type InstructionInfo struct {
	Name     string `json:"name"`
	Selector string `json:"selector"`
	Accounts int    `json:"accounts"`
}

type ProgramInfo struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Instructions []InstructionInfo `json:"instructions"`
}

type ProgramsReply struct {
	Programs []ProgramInfo `json:"programs"`
}

func (j *JSONRPCServer) Programs(_ *http.Request, _ *struct{}, reply *ProgramsReply) error {
	for _, p := range j.rt.Programs() {
		info := ProgramInfo{
			ID:      program.FormatID(p.ID()),
			Name:    p.Name(),
			Version: p.Version(),
		}
		for _, ix := range p.Instructions() {
			info.Instructions = append(info.Instructions, InstructionInfo{
				Name:     ix.Name,
				Selector: ix.Selector().String(),
				Accounts: len(ix.Accounts),
			})
		}
		reply.Programs = append(reply.Programs, info)
	}
	return nil
}

type ProgramArgs struct {
	ProgramID string `json:"programId"`
}

type IDLReply struct {
	IDL *program.IDL `json:"idl"`
}

func (j *JSONRPCServer) IDL(_ *http.Request, args *ProgramArgs, reply *IDLReply) error {
	p, err := j.lookup(args.ProgramID)
	if err != nil {
		return err
	}
	idl, err := program.BuildIDL(p)
	if err != nil {
		return err
	}
	reply.IDL = idl
	return nil
}

type AccountArgs struct {
	PublicKey  string `json:"publicKey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

type SendTransactionArgs struct {
	ProgramID        string        `json:"programId"`
	Accounts         []AccountArgs `json:"accounts"`
	Data             []byte        `json:"data"`
	ComputeUnitLimit uint64        `json:"computeUnitLimit"`
	Signatures       []string      `json:"signatures"`
}

type ReceiptReply struct {
	Receipt *runtime.Receipt `json:"receipt"`
}

// SendTransaction dispatches a transaction. A program failure is reported in
// the returned receipt; only host rejections are returned as errors.
func (j *JSONRPCServer) SendTransaction(req *http.Request, args *SendTransactionArgs, reply *ReceiptReply) error {
	tx, err := args.Transaction()
	if err != nil {
		return err
	}
	receipt, err := j.rt.Invoke(req.Context(), tx)
	if receipt == nil {
		return err
	}
	reply.Receipt = receipt
	return nil
}

// SimulateInitialize invokes the initialize instruction of a program, with
// no accounts and no arguments.
func (j *JSONRPCServer) SimulateInitialize(req *http.Request, args *ProgramArgs, reply *ReceiptReply) error {
	p, err := j.lookup(args.ProgramID)
	if err != nil {
		return err
	}
	selector := program.Sighash("initialize")
	receipt, err := j.rt.Invoke(req.Context(), &runtime.Transaction{
		Invocation: runtime.Invocation{ProgramID: p.ID(), Data: selector[:]},
	})
	if receipt == nil {
		return err
	}
	reply.Receipt = receipt
	return nil
}

type ReceiptArgs struct {
	ID string `json:"id"`
}

func (j *JSONRPCServer) GetReceipt(req *http.Request, args *ReceiptArgs, reply *ReceiptReply) error {
	receipt, err := j.rt.Ledger().Get(req.Context(), args.ID)
	if err != nil {
		return err
	}
	reply.Receipt = receipt
	return nil
}

func (j *JSONRPCServer) lookup(programID string) (program.Program, error) {
	id, err := program.ParseID(programID)
	if err != nil {
		return nil, err
	}
	p, ok := j.rt.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProgram, programID)
	}
	return p, nil
}

// Transaction converts the wire arguments into a runtime transaction.
func (a *SendTransactionArgs) Transaction() (*runtime.Transaction, error) {
	programID, err := program.ParseID(a.ProgramID)
	if err != nil {
		return nil, err
	}
	tx := &runtime.Transaction{Invocation: runtime.Invocation{
		ProgramID:        programID,
		Data:             a.Data,
		ComputeUnitLimit: a.ComputeUnitLimit,
	}}
	for _, acct := range a.Accounts {
		pk, err := ed25519.ParsePublicKey(acct.PublicKey)
		if err != nil {
			return nil, err
		}
		tx.Accounts = append(tx.Accounts, program.AccountMeta{
			PublicKey:  pk,
			IsSigner:   acct.IsSigner,
			IsWritable: acct.IsWritable,
		})
	}
	for _, s := range a.Signatures {
		sig, err := ed25519.ParseSignature(s)
		if err != nil {
			return nil, err
		}
		tx.Signatures = append(tx.Signatures, sig)
	}
	return tx, nil
}

// NewSendTransactionArgs is the inverse of SendTransactionArgs.Transaction.
func NewSendTransactionArgs(tx *runtime.Transaction) *SendTransactionArgs {
	args := &SendTransactionArgs{
		ProgramID:        program.FormatID(tx.ProgramID),
		Data:             tx.Data,
		ComputeUnitLimit: tx.ComputeUnitLimit,
	}
	for _, a := range tx.Accounts {
		args.Accounts = append(args.Accounts, AccountArgs{
			PublicKey:  a.PublicKey.String(),
			IsSigner:   a.IsSigner,
			IsWritable: a.IsWritable,
		})
	}
	for _, s := range tx.Signatures {
		args.Signatures = append(args.Signatures, s.String())
	}
	return args
}
