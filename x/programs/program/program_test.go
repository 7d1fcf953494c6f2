package program

import (
	"context"
	"fmt"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/crank/crypto/ed25519"
)

type transferArgs struct {
	Amount uint64
	Memo   string
}

type testProgram struct {
	id           ids.ID
	instructions []*Instruction
}

func (p *testProgram) ID() ids.ID { return p.id }

func (*testProgram) Name() string { return "test_program" }

func (*testProgram) Version() string { return "0.0.1" }

func (p *testProgram) Instructions() []*Instruction { return p.instructions }

func newTransfer(calls *[]transferArgs) *Instruction {
	return NewInstruction("set_amount", []AccountSpec{
		{Name: "authority", Signer: true},
		{Name: "vault", Writable: true},
	}, func(_ context.Context, call *CallContext, args transferArgs) error {
		*calls = append(*calls, args)
		return call.Log("amount %d", args.Amount)
	})
}

func TestSighash(t *testing.T) {
	require := require.New(t)

	d := Sighash("initialize")
	require.Equal(Discriminator{175, 175, 109, 31, 13, 152, 155, 237}, d)
	require.Equal("afaf6d1f0d989bed", d.String())
	require.NotEqual(d, Sighash("initialize_v2"))
}

func TestSplitSelector(t *testing.T) {
	require := require.New(t)

	_, _, err := SplitSelector([]byte{1, 2, 3})
	require.ErrorIs(err, ErrInstructionMissing)

	d := Sighash("initialize")
	got, rest, err := SplitSelector(append(d[:], 9))
	require.NoError(err)
	require.Equal(d, got)
	require.Equal([]byte{9}, rest)
}

func TestInstructionDataRoundTrip(t *testing.T) {
	require := require.New(t)

	var calls []transferArgs
	ix := newTransfer(&calls)

	data, err := ix.Data(transferArgs{Amount: 42, Memo: "hi"})
	require.NoError(err)

	selector, rest, err := SplitSelector(data)
	require.NoError(err)
	require.Equal(ix.Selector(), selector)

	args, err := ix.DecodeArgs(rest)
	require.NoError(err)

	call := NewCallContext(ids.GenerateTestID(), ed25519.EmptyPublicKey, nil, 1_000)
	require.NoError(ix.Execute(context.Background(), call, args))
	require.Equal([]transferArgs{{Amount: 42, Memo: "hi"}}, calls)
	require.Equal([]string{"amount 42"}, call.Logs())

	_, err = ix.Data(struct{}{})
	require.ErrorIs(err, ErrUnsupportedArgumentType)

	_, err = ix.DecodeArgs([]byte{1, 2})
	require.ErrorIs(err, ErrInstructionDidNotDeserialize)
}

func TestInstructionDataDoesNotAliasSelector(t *testing.T) {
	require := require.New(t)

	ix := NewInstruction("noop", nil, func(context.Context, *CallContext, struct{}) error {
		return nil
	})
	data, err := ix.Data(struct{}{})
	require.NoError(err)
	require.Len(data, DiscriminatorLen)

	data[0] ^= 0xff
	require.Equal(Sighash("noop"), ix.Selector())
}

func TestValidateAccounts(t *testing.T) {
	var calls []transferArgs
	ix := newTransfer(&calls)
	key := ed25519.PublicKey{1}

	tests := []struct {
		name     string
		accounts []AccountMeta
		err      error
	}{
		{
			name: "valid",
			accounts: []AccountMeta{
				{PublicKey: key, IsSigner: true},
				{PublicKey: key, IsWritable: true},
			},
		},
		{
			name:     "missing accounts",
			accounts: []AccountMeta{{PublicKey: key, IsSigner: true}},
			err:      ErrAccountCountMismatch,
		},
		{
			name: "extra accounts",
			accounts: []AccountMeta{
				{PublicKey: key, IsSigner: true},
				{PublicKey: key, IsWritable: true},
				{PublicKey: key},
			},
			err: ErrAccountCountMismatch,
		},
		{
			name: "authority did not sign",
			accounts: []AccountMeta{
				{PublicKey: key},
				{PublicKey: key, IsWritable: true},
			},
			err: ErrAccountNotSigner,
		},
		{
			name: "vault read-only",
			accounts: []AccountMeta{
				{PublicKey: key, IsSigner: true},
				{PublicKey: key},
			},
			err: ErrAccountNotMutable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, ix.ValidateAccounts(tt.accounts), tt.err)
		})
	}
}

func TestAccountsOf(t *testing.T) {
	require := require.New(t)

	type accounts struct {
		Payer         ed25519.PublicKey `account:"mut,signer"`
		State         ed25519.PublicKey `account:"mut"`
		SystemProgram ed25519.PublicKey
	}
	require.Equal([]AccountSpec{
		{Name: "Payer", Writable: true, Signer: true},
		{Name: "State", Writable: true},
		{Name: "SystemProgram"},
	}, AccountsOf(accounts{}))
	require.Empty(AccountsOf(struct{}{}))
}

func TestCallContextBudget(t *testing.T) {
	require := require.New(t)

	call := NewCallContext(ids.Empty, ed25519.EmptyPublicKey, nil, 250)
	require.NoError(call.Log("short"))
	require.Equal(uint64(150), call.Gas)

	require.ErrorIs(call.Log("%0200d", 0), ErrComputeBudgetExceeded)
	require.Zero(call.Gas)
	require.Equal([]string{"short"}, call.Logs())
	require.ErrorIs(call.Consume(1), ErrComputeBudgetExceeded)
}

func TestLogCost(t *testing.T) {
	require := require.New(t)

	require.Equal(uint64(LogBaseCost), LogCost(""))
	require.Equal(uint64(LogBaseCost), LogCost("Greetings"))
	long := fmt.Sprintf("%0300d", 0)
	require.Equal(uint64(300), LogCost(long))
}

func TestParseID(t *testing.T) {
	require := require.New(t)

	const s = "8RT6jMFXpLXcLLNNUUbC57sro7uLJuKHYZkVGRYtzt14"
	id, err := ParseID(s)
	require.NoError(err)
	require.Equal(s, FormatID(id))
	require.Equal(id, MustParseID(s))

	_, err = ParseID("11111111")
	require.ErrorIs(err, ErrInvalidProgramID)
	_, err = ParseID("not base58 0OIl")
	require.ErrorIs(err, ErrInvalidProgramID)
	require.Panics(func() { MustParseID("") })
}

func TestErrorCode(t *testing.T) {
	require := require.New(t)

	code, ok := ErrorCode(fmt.Errorf("%w: extra", ErrInstructionFallbackNotFound))
	require.True(ok)
	require.Equal(uint32(101), code)

	code, ok = ErrorCode(ErrAccountCountMismatch)
	require.True(ok)
	require.Equal(uint32(3005), code)

	_, ok = ErrorCode(ErrComputeBudgetExceeded)
	require.False(ok)
}

func TestBuildIDL(t *testing.T) {
	require := require.New(t)

	var calls []transferArgs
	p := &testProgram{
		id:           MustParseID("8RT6jMFXpLXcLLNNUUbC57sro7uLJuKHYZkVGRYtzt14"),
		instructions: []*Instruction{newTransfer(&calls)},
	}
	idl, err := BuildIDL(p)
	require.NoError(err)
	require.Equal("test_program", idl.Name)
	require.Equal("8RT6jMFXpLXcLLNNUUbC57sro7uLJuKHYZkVGRYtzt14", idl.Metadata.Address)
	require.Len(idl.Instructions, 1)

	ix := idl.Instructions[0]
	require.Equal("setAmount", ix.Name)
	require.Equal([]IDLAccount{
		{Name: "authority", IsSigner: true},
		{Name: "vault", IsMut: true},
	}, ix.Accounts)
	require.Equal([]IDLField{
		{Name: "amount", Type: "u64"},
		{Name: "memo", Type: "string"},
	}, ix.Args)
}

func TestIDLType(t *testing.T) {
	require := require.New(t)

	typ, err := idlType(reflectTypeOf[[32]byte]())
	require.NoError(err)
	require.Equal("publicKey", typ)

	typ, err = idlType(reflectTypeOf[[]uint16]())
	require.NoError(err)
	require.Equal(map[string]any{"vec": "u16"}, typ)

	typ, err = idlType(reflectTypeOf[[4]bool]())
	require.NoError(err)
	require.Equal(map[string]any{"array": []any{"bool", 4}}, typ)

	_, err = idlType(reflectTypeOf[map[string]string]())
	require.ErrorIs(err, ErrUnsupportedArgumentType)
}

func TestCamelCase(t *testing.T) {
	require := require.New(t)

	require.Equal("initialize", camelCase("initialize"))
	require.Equal("setMintFee", camelCase("set_mint_fee"))
	require.Equal("systemProgram", camelCase("SystemProgram"))
}
