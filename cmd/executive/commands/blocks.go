package commands

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creachadair/atomicfile"
	"github.com/spf13/cobra"

	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/internal/api"
	"github.com/tendermint/executive/internal/modules/timestamp"
	"github.com/tendermint/executive/internal/runtime"
	"github.com/tendermint/executive/libs/log"
	"github.com/tendermint/executive/types"
)

// MakeMetadataCommand returns the command printing the runtime metadata.
func MakeMetadataCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "metadata",
		Short: "Show the modules, calls, events and constants of the runtime",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(conf, logger)
			if err != nil {
				return err
			}
			defer rt.Close()
			return printJSON(cmd.OutOrStdout(), api.New(rt).Metadata())
		},
	}
}

// MakeProduceBlockCommand returns the command authoring one block on top of
// the local chain.
func MakeProduceBlockCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	var (
		txs []string
		out string
	)
	cmd := &cobra.Command{
		Use:   "produce-block",
		Short: "Author and commit the next block",
		Long: `Builds the next block from the local clock, the given hex encoded
extrinsics and the inherents, commits it and prints it as JSON. Extrinsics that
are rejected are reported and left out.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var encoded [][]byte
			for _, tx := range txs {
				bz, err := hex.DecodeString(strings.TrimPrefix(tx, "0x"))
				if err != nil {
					return fmt.Errorf("decode tx %q: %w", tx, err)
				}
				encoded = append(encoded, bz)
			}

			rt, err := openRuntime(conf, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := rt.ProduceBlock(authorInherentData(rt, time.Now()), encoded)
			if err != nil {
				return err
			}
			for i, err := range res.Rejected {
				logger.Info("rejected extrinsic", "tx", txs[i], "err", err)
			}
			return writeBlock(cmd, res.Block, out)
		},
	}
	cmd.Flags().StringArrayVar(&txs, "tx", nil, "hex encoded extrinsic to include (repeatable)")
	cmd.Flags().StringVar(&out, "out", "", "write the block to this file instead of stdout")
	return cmd
}

// MakeExecuteBlockCommand returns the command importing a block produced
// elsewhere.
func MakeExecuteBlockCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	var checkInherents bool
	cmd := &cobra.Command{
		Use:   "execute-block [block.json]",
		Short: "Import a block produced by another node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bz, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var block types.Block
			if err := json.Unmarshal(bz, &block); err != nil {
				return fmt.Errorf("decode block: %w", err)
			}

			rt, err := openRuntime(conf, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			var data *types.InherentData
			if checkInherents {
				data = inherentData(time.Now())
			}
			if err := rt.ImportBlock(&block, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported block %d %v\n", block.Header.Number, block.Hash())
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkInherents, "check-inherents", true, "check the block's inherents against the local clock")
	return cmd
}

// authorInherentData returns the inherent data of a block authored at now.
// The block time is moved to the next free slot when the clock lags the
// chain.
func authorInherentData(rt *runtime.Runtime, now time.Time) *types.InherentData {
	data := inherentData(now)
	ts, _, _ := data.GetUint64(types.TimestampInherent)
	if next := timestamp.Now(rt.Executive.Store()) + rt.Aura.SlotDuration(); ts < next {
		data.PutUint64(types.TimestampInherent, next)
	}
	return data
}

func writeBlock(cmd *cobra.Command, block *types.Block, out string) error {
	if out == "" {
		return printJSON(cmd.OutOrStdout(), block)
	}
	bz, err := json.MarshalIndent(block, "", "  ")
	if err != nil {
		return err
	}
	return atomicfile.WriteData(out, bz, 0644)
}
