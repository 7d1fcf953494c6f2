package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/near/borsh-go"

	"github.com/ava-labs/crank/x/programs/runtime"
)

const receiptPrefix byte = 0x0

var _ runtime.Ledger = (*PebbleLedger)(nil)

type Config struct {
	// Dir is the database directory. An empty Dir keeps the ledger in memory.
	Dir  string `yaml:"dir"`
	Sync bool   `yaml:"sync"`
}

// PebbleLedger persists receipts so they survive restarts of the host.
type PebbleLedger struct {
	db        *pebble.DB
	writeOpts *pebble.WriteOptions
}

func New(cfg Config) (*PebbleLedger, error) {
	opts := &pebble.Options{}
	dir := cfg.Dir
	if dir == "" {
		opts.FS = vfs.NewMem()
		dir = "crank"
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, err
	}
	writeOpts := pebble.NoSync
	if cfg.Sync {
		writeOpts = pebble.Sync
	}
	return &PebbleLedger{db: db, writeOpts: writeOpts}, nil
}

// receiptWire mirrors runtime.Receipt with fixed field order for borsh.
type receiptWire struct {
	ID           string
	ProgramID    string
	Instruction  string
	Logs         []string
	ProgramLogs  []string
	ComputeUnits uint64
	Success      bool
	Error        string
	Timestamp    int64
}

func key(id string) []byte {
	k := make([]byte, 1+len(id))
	k[0] = receiptPrefix
	copy(k[1:], id)
	return k
}

func (l *PebbleLedger) Put(ctx context.Context, r *runtime.Receipt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := borsh.Serialize(receiptWire(*r))
	if err != nil {
		return err
	}
	return l.db.Set(key(r.ID), b, l.writeOpts)
}

func (l *PebbleLedger) Get(ctx context.Context, id string) (*runtime.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, closer, err := l.db.Get(key(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, runtime.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closeQuietly(closer)

	var w receiptWire
	if err := borsh.Deserialize(&w, v); err != nil {
		return nil, fmt.Errorf("corrupt receipt %s: %w", id, err)
	}
	r := runtime.Receipt(w)
	return &r, nil
}

func (l *PebbleLedger) Has(ctx context.Context, id string) (bool, error) {
	_, err := l.Get(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, runtime.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (l *PebbleLedger) Close() error {
	return l.db.Close()
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}
