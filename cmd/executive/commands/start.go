package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/net/netutil"

	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/internal/executive"
	"github.com/tendermint/executive/internal/keyfile"
	"github.com/tendermint/executive/internal/offchain"
	"github.com/tendermint/executive/internal/runtime"
	"github.com/tendermint/executive/libs/log"
	tmos "github.com/tendermint/executive/libs/os"
)

// MakeStartCommand returns the command running a single authority chain:
// it authors a block every slot, runs the offchain workers after each one
// and includes their submissions in the next block.
func MakeStartCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	var blocks uint64
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Author blocks until stopped",
		RunE: func(cmd *cobra.Command, args []string) error {
			// On a signal, stop authoring and wait until every resource below
			// is released before exiting.
			ctx, cancel := context.WithCancel(cmd.Context())
			done := make(chan struct{})
			defer close(done)
			defer cancel()
			tmos.TrapSignal(logger, func() {
				cancel()
				<-done
			})

			key, err := keyfile.LoadFileKey(conf.AuthorKeyFile())
			if err != nil {
				return err
			}

			var options []executive.Option
			if conf.Instrumentation.Prometheus {
				options = append(options, executive.WithMetrics(executive.PrometheusMetrics(conf.Instrumentation.Namespace)))
			}
			rt, err := openRuntime(conf, logger, options...)
			if err != nil {
				return err
			}
			defer rt.Close()

			if conf.Instrumentation.Prometheus {
				srv, err := startPrometheusServer(conf.Instrumentation, logger)
				if err != nil {
					return err
				}
				defer srv.Close()
			}

			runner := offchain.NewRunner(
				conf.Offchain,
				rt.Executive,
				rt.Executive.Store(),
				key.Key(),
				offchain.NewQueue(conf.Offchain.QueueSize),
				logger.With("module", "offchain"),
			)
			if err := runner.Start(ctx); err != nil {
				return err
			}
			defer func() {
				if runner.IsRunning() {
					_ = runner.Stop()
				}
			}()

			logger.Info("authoring blocks", "moniker", conf.Moniker, "account", runner.Local(), "slot_ms", rt.Aura.SlotDuration())
			return author(ctx, rt, runner, blocks, logger)
		},
	}
	cmd.Flags().Uint64Var(&blocks, "blocks", 0, "stop after authoring this many blocks (0 runs forever)")
	return cmd
}

func author(ctx context.Context, rt *runtime.Runtime, runner *offchain.Runner, limit uint64, logger log.Logger) error {
	slot := time.Duration(rt.Aura.SlotDuration()) * time.Millisecond
	ticker := time.NewTicker(slot)
	defer ticker.Stop()

	var authored uint64
	for limit == 0 || authored < limit {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			var txs [][]byte
			subs := runner.Queue().Drain()
			for _, s := range subs {
				txs = append(txs, s.Extrinsic)
			}

			res, err := rt.ProduceBlock(authorInherentData(rt, now), txs)
			if err != nil {
				return err
			}
			for i, err := range res.Rejected {
				logger.Info("dropped offchain submission", "id", subs[i].ID, "err", err)
			}
			authored++
			runner.BlockImported(res.Block.Header.Number)
		}
	}
	return nil
}

func startPrometheusServer(cfg *config.InstrumentationConfig, logger log.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", cfg.PrometheusListenAddr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	if cfg.MaxOpenConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.MaxOpenConnections)
	}

	srv := &http.Server{
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("prometheus HTTP server Serve", "err", err)
		}
	}()
	return srv, nil
}
