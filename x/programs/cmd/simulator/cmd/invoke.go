package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ava-labs/crank/programs/crank"
	"github.com/ava-labs/crank/rpc"
	"github.com/ava-labs/crank/x/programs/runtime"
)

var ErrInvalidCount = errors.New("count must be positive")

type invokeOptions struct {
	*rootOptions

	count            int
	interactive      bool
	endpoint         string
	computeUnitLimit uint64
}

func newInvokeCmd(root *rootOptions) *cobra.Command {
	opts := &invokeOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "Invoke initialize and print the receipts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd.Context(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVarP(&opts.count, "count", "n", 1, "number of invocations")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "confirm before invoking")
	cmd.Flags().StringVar(&opts.endpoint, "endpoint", "", "send to a running server instead of a local runtime")
	cmd.Flags().Uint64Var(&opts.computeUnitLimit, "compute-unit-limit", 0, "compute budget per invocation")
	return cmd
}

func (o *invokeOptions) run(ctx context.Context, w io.Writer) error {
	if o.count <= 0 {
		return ErrInvalidCount
	}
	if o.interactive {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Invoke initialize on %s %d time(s)", crank.Address, o.count),
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			if errors.Is(err, promptui.ErrAbort) {
				o.log.Info("invocation aborted")
				return nil
			}
			return err
		}
	}

	var (
		receipts []*runtime.Receipt
		err      error
	)
	if o.endpoint != "" {
		receipts, err = o.invokeRemote(ctx)
	} else {
		receipts, err = o.invokeLocal(ctx)
	}
	for _, r := range receipts {
		if r != nil {
			printReceipt(w, r)
		}
	}
	return err
}

func (o *invokeOptions) transactions() []*runtime.Transaction {
	txs := make([]*runtime.Transaction, o.count)
	for i := range txs {
		txs[i] = &runtime.Transaction{Invocation: runtime.Invocation{
			ProgramID:        crank.ID,
			Data:             crank.InitializeData(),
			ComputeUnitLimit: o.computeUnitLimit,
		}}
	}
	return txs
}

func (o *invokeOptions) invokeLocal(ctx context.Context) ([]*runtime.Receipt, error) {
	rt, err := o.newRuntime()
	if err != nil {
		return nil, err
	}
	return rt.InvokeBatch(ctx, o.transactions())
}

func (o *invokeOptions) invokeRemote(ctx context.Context) ([]*runtime.Receipt, error) {
	cli := rpc.NewJSONRPCClient(o.endpoint)
	txs := o.transactions()
	receipts := make([]*runtime.Receipt, 0, len(txs))
	for _, tx := range txs {
		r, err := cli.SendTransaction(ctx, tx)
		if err != nil {
			return receipts, err
		}
		o.log.Debug("sent transaction",
			zap.String("endpoint", o.endpoint),
			zap.String("receipt", r.ID),
		)
		receipts = append(receipts, r)
	}
	return receipts, nil
}

func printReceipt(w io.Writer, r *runtime.Receipt) {
	status := color.GreenString("success")
	if !r.Success {
		status = color.RedString("failed: %s", r.Error)
	}
	fmt.Fprintf(w, "%s %s (%d compute units)\n", color.CyanString(r.ID), status, r.ComputeUnits)
	for _, l := range r.Logs {
		fmt.Fprintf(w, "  %s\n", l)
	}
}
