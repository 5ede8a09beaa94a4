package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/flash-wallet/flash_ledger/internal/config"
	"github.com/flash-wallet/flash_ledger/internal/fees"
	"github.com/flash-wallet/flash_ledger/internal/infra"
	"github.com/flash-wallet/flash_ledger/internal/ledger"
	"github.com/flash-wallet/flash_ledger/internal/money"
)

func newRootCmd(open opener) *cobra.Command {
	var be *backend

	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operate the wallet ledger: migrations, balances and reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			be, err = open(cmd.Context(), cfg)
			return err
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if be != nil && be.close != nil {
				be.close()
			}
		},
	}

	get := func() *backend { return be }
	root.AddCommand(
		newMigrateCmd(get),
		newBalanceCmd(get),
		newTransactionsCmd(get),
		newImbalanceCmd(get),
	)
	return root
}

func newMigrateCmd(be func() *backend) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the schema migrations",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(infra.MigrateUp), string(infra.MigrateDown)},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := infra.Direction(args[0])
			if err := be().migrate(dir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done\n", dir)
			return nil
		},
	}
}

func newBalanceCmd(be func() *backend) *cobra.Command {
	var account, currency string
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Print credits minus debits for an account path and its sub-accounts",
		Long: `Balance sums every journal line posted to the account path or below it.

Example:
  ledgerctl balance --account "Accounts Payable" --currency USD`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := ledger.ParseAccountPath(account)
			if !path.Valid() {
				return fmt.Errorf("invalid account path %q", account)
			}
			code, err := money.ParseCode(currency)
			if err != nil {
				return err
			}
			bal, err := be().journal.Balance(cmd.Context(), path, code)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", path, bal)
			return nil
		},
	}
	cmd.Flags().StringVarP(&account, "account", "a", "", "account path (required)")
	cmd.Flags().StringVarP(&currency, "currency", "c", "USD", "currency code")
	cmd.MarkFlagRequired("account") // nolint:errcheck
	return cmd
}

func newTransactionsCmd(be func() *backend) *cobra.Command {
	return &cobra.Command{
		Use:   "transactions <walletId>",
		Short: "List the journal entries touching a wallet, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := be().journal.TransactionsByWallet(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tTYPE\tMEMO")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, e.CreatedAt.Format("2006-01-02 15:04:05"), e.TransactionType(), e.Memo)
			}
			return w.Flush()
		},
	}
}

func newImbalanceCmd(be func() *backend) *cobra.Command {
	var currency string
	cmd := &cobra.Command{
		Use:   "imbalance <walletId>",
		Short: "Print the wallet's swap-out imbalance over the lookback window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := money.ParseCode(currency)
			if err != nil {
				return err
			}
			imb, err := be().imbalance.SwapOutImbalance(cmd.Context(), fees.Wallet{ID: args[0], Currency: code})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", args[0], imb)
			return nil
		},
	}
	cmd.Flags().StringVarP(&currency, "currency", "c", "USD", "wallet currency")
	return cmd
}
