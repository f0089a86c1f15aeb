package commands

import (
	"github.com/spf13/cobra"

	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/internal/keyfile"
	"github.com/tendermint/executive/internal/modules/balances"
	"github.com/tendermint/executive/internal/modules/indices"
	"github.com/tendermint/executive/internal/modules/staking"
	"github.com/tendermint/executive/internal/modules/system"
	"github.com/tendermint/executive/libs/log"
	"github.com/tendermint/executive/types"
)

type accountInfo struct {
	Account    types.AccountID     `json:"account"`
	Index      *types.AccountIndex `json:"index,omitempty"`
	Nonce      types.Nonce         `json:"nonce"`
	Free       types.Balance       `json:"free"`
	Usable     types.Balance       `json:"usable"`
	Locks      []balances.Lock     `json:"locks,omitempty"`
	Ledger     *staking.Ledger     `json:"ledger,omitempty"`
	VoteWeight types.VoteWeight    `json:"vote_weight"`
}

// MakeShowAccountCommand returns the command printing the state of an
// account, the author's by default.
func MakeShowAccountCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:     "show-account [account-id]",
		Aliases: []string{"show_account"},
		Short:   "Show the balance, nonce and stake of an account",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var who types.AccountID
			if len(args) == 1 {
				if err := who.UnmarshalText([]byte(args[0])); err != nil {
					return err
				}
			} else {
				key, err := keyfile.LoadFileKey(conf.AuthorKeyFile())
				if err != nil {
					return err
				}
				who = key.AccountID
			}

			rt, err := openRuntime(conf, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			r := rt.Executive.Store()
			number := system.BlockNumber(r)
			info := accountInfo{
				Account:    who,
				Nonce:      system.AccountNonce(r, who),
				Free:       balances.FreeBalance(r, who),
				Usable:     balances.UsableBalance(r, who, number),
				Locks:      balances.Locks(r, who),
				VoteWeight: rt.Staking.VoteWeight(r, who),
			}
			if idx, ok := indices.IndexOf(r, who); ok {
				info.Index = &idx
			}
			if l, ok := staking.LedgerOf(r, who); ok {
				info.Ledger = &l
			}
			return printJSON(cmd.OutOrStdout(), info)
		},
	}
}
