package crank

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/crank/consts"
	"github.com/ava-labs/crank/crypto/ed25519"
	"github.com/ava-labs/crank/x/programs/program"
	"github.com/ava-labs/crank/x/programs/runtime"
)

func newRuntime(t *testing.T) *runtime.Runtime {
	t.Helper()
	r, err := runtime.New(logging.NoLog{}, runtime.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, r.Register(New()))
	return r
}

func initializeTx(accounts ...program.AccountMeta) *runtime.Transaction {
	return &runtime.Transaction{Invocation: runtime.Invocation{
		ProgramID: ID,
		Accounts:  accounts,
		Data:      InitializeData(),
	}}
}

func TestProgramID(t *testing.T) {
	require := require.New(t)

	require.Equal(Address, program.FormatID(ID))
	require.Equal(ID, New().ID())
	require.Equal("6e4542060c434dcf67b590f1b0451728afec5014bb1b0a6dde48a9ac77c90f27", hex.EncodeToString(ID[:]))

	parsed, err := program.ParseID(Address)
	require.NoError(err)
	require.Equal(ID[:], parsed[:])
}

func TestVersion(t *testing.T) {
	require := require.New(t)

	require.Equal(consts.Version, "v"+New().Version())
	idl, err := program.BuildIDL(New())
	require.NoError(err)
	require.Equal(New().Version(), idl.Version)
}

func TestInitialize(t *testing.T) {
	require := require.New(t)

	call := program.NewCallContext(ID, ed25519.EmptyPublicKey, nil, runtime.DefaultComputeUnitLimit)
	require.NoError(New().Initialize(context.Background(), call, InitializeArgs{}))
	require.Equal([]string{"Greetings from: " + Address}, call.Logs())
}

func TestInvokeInitialize(t *testing.T) {
	require := require.New(t)
	r := newRuntime(t)

	receipt, err := r.Invoke(context.Background(), initializeTx())
	require.NoError(err)
	require.True(receipt.Success)
	require.Empty(receipt.Error)
	require.Equal(Address, receipt.ProgramID)
	require.Len(receipt.ProgramLogs, 1)
	require.Contains(receipt.ProgramLogs[0], Address)
}

func TestInvokeIdempotent(t *testing.T) {
	require := require.New(t)
	r := newRuntime(t)

	const n = 10
	ids := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		receipt, err := r.Invoke(context.Background(), initializeTx())
		require.NoError(err)
		require.True(receipt.Success)
		require.Equal([]string{"Greetings from: " + Address}, receipt.ProgramLogs)
		ids[receipt.ID] = struct{}{}
	}
	require.Len(ids, n)
}

func TestOnlyInitializeIsRouted(t *testing.T) {
	require := require.New(t)
	r := newRuntime(t)

	instructions := New().Instructions()
	require.Len(instructions, 1)
	require.Equal("initialize", instructions[0].Name)
	require.Empty(instructions[0].Accounts)

	for _, name := range []string{"close", "initialize_v2", "Initialize", "update"} {
		d := program.Sighash(name)
		_, err := r.Invoke(context.Background(), &runtime.Transaction{Invocation: runtime.Invocation{
			ProgramID: ID,
			Data:      d[:],
		}})
		require.ErrorIs(err, program.ErrInstructionFallbackNotFound, name)
	}
}

func TestAccountsRejectedByHost(t *testing.T) {
	require := require.New(t)
	r := newRuntime(t)

	var delivered int
	r.Subscribe(func(*runtime.Receipt) { delivered++ })

	key, err := ed25519.GeneratePrivateKey()
	require.NoError(err)
	receipt, err := r.Invoke(context.Background(), initializeTx(program.AccountMeta{
		PublicKey:  key.PublicKey(),
		IsWritable: true,
	}))
	require.ErrorIs(err, program.ErrAccountCountMismatch)
	require.Nil(receipt)
	require.Zero(delivered)

	code, ok := program.ErrorCode(err)
	require.True(ok)
	require.Equal(uint32(3005), code)
}

func TestTrailingDataIgnored(t *testing.T) {
	require := require.New(t)
	r := newRuntime(t)

	tx := initializeTx()
	tx.Data = append(tx.Data, 0xde, 0xad)
	receipt, err := r.Invoke(context.Background(), tx)
	require.NoError(err)
	require.True(receipt.Success)
}

func TestIDL(t *testing.T) {
	require := require.New(t)

	b, err := program.MarshalIDL(New())
	require.NoError(err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "crank_idl", b)
}
