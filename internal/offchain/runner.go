// Package offchain runs the offchain workers of the runtime after each
// imported block and collects the extrinsics they submit.
package offchain

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/crypto"
	"github.com/tendermint/executive/internal/modules/system"
	"github.com/tendermint/executive/internal/storage"
	"github.com/tendermint/executive/libs/log"
	"github.com/tendermint/executive/libs/service"
	"github.com/tendermint/executive/types"
)

// Worker runs the offchain logic of every module for an imported block.
type Worker interface {
	OffchainWorker(ctx context.Context, number types.BlockNumber, local types.AccountID, submit func(types.Call) error) error
}

// Runner is a service that invokes the offchain workers for each block it
// is notified of. Calls submitted by the workers are signed with the local
// key and pushed to the queue, where the block author picks them up.
//
// Runs for different blocks may overlap, bounded by the configured number
// of workers. Blocks notified while every slot is busy and the backlog is
// full are skipped.
type Runner struct {
	service.BaseService

	cfg    *config.OffchainConfig
	worker Worker
	state  storage.Reader
	key    crypto.PrivKey
	local  types.AccountID
	queue  *Queue
	logger log.Logger

	blocks chan types.BlockNumber
	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	cancel context.CancelFunc

	// next nonce to sign with; the committed nonce wins once it catches up
	mtx   sync.Mutex
	nonce types.Nonce
}

// NewRunner returns a runner reading nonces and the genesis hash from state.
func NewRunner(
	cfg *config.OffchainConfig,
	worker Worker,
	state storage.Reader,
	key crypto.PrivKey,
	queue *Queue,
	logger log.Logger,
) *Runner {
	r := &Runner{
		cfg:    cfg,
		worker: worker,
		state:  state,
		key:    key,
		local:  types.AccountIDFromPubKey(key.PubKey()),
		queue:  queue,
		logger: logger,
		blocks: make(chan types.BlockNumber, cfg.QueueSize),
		sem:    semaphore.NewWeighted(int64(cfg.Workers)),
	}
	r.BaseService = *service.NewBaseService(logger, "OffchainRunner", r)
	return r
}

// Queue returns the queue submissions are pushed to.
func (r *Runner) Queue() *Queue { return r.queue }

// Local returns the account submissions are signed by.
func (r *Runner) Local() types.AccountID { return r.local }

// OnStart implements service.Service.
func (r *Runner) OnStart(ctx context.Context) error {
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.loop(ctx)
	return nil
}

// OnStop implements service.Service. It waits for running workers.
func (r *Runner) OnStop() {
	r.cancel()
	r.wg.Wait()
}

// BlockImported notifies the runner that block number was committed. It
// never blocks and reports whether the block was accepted.
func (r *Runner) BlockImported(number types.BlockNumber) bool {
	if !r.cfg.Enabled || !r.IsRunning() {
		return false
	}
	select {
	case r.blocks <- number:
		return true
	default:
		r.logger.Info("offchain backlog full; skipping block", "height", number)
		return false
	}
}

func (r *Runner) loop(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case number := <-r.blocks:
			if err := r.sem.Acquire(ctx, 1); err != nil {
				return
			}
			r.wg.Add(1)
			go func() {
				defer r.wg.Done()
				defer r.sem.Release(1)
				r.run(ctx, number)
			}()
		}
	}
}

func (r *Runner) run(ctx context.Context, number types.BlockNumber) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	submit := func(call types.Call) error {
		return r.submit(number, call)
	}
	if err := r.worker.OffchainWorker(ctx, number, r.local, submit); err != nil {
		r.logger.Error("offchain worker failed", "height", number, "err", err)
		return
	}
	r.logger.Debug("offchain workers done", "height", number)
}

// submit signs call with the next free nonce of the local account and
// queues it.
func (r *Runner) submit(number types.BlockNumber, call types.Call) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	nonce := system.AccountNonce(r.state, r.local)
	if r.nonce > nonce {
		nonce = r.nonce
	}
	xt, err := types.SignExtrinsic(r.key, call, nonce, types.ImmortalEra(), system.GenesisHash(r.state))
	if err != nil {
		return fmt.Errorf("sign %v: %w", call, err)
	}
	id, err := r.queue.Push(Submission{Number: number, Nonce: nonce, Extrinsic: xt.Bytes()})
	if err != nil {
		return err
	}
	r.nonce = nonce + 1
	r.logger.Debug("queued offchain submission", "id", id, "height", number, "nonce", nonce, "call", call)
	return nil
}
