// Package service provides the start/stop lifecycle shared by long running
// components.
package service

import (
	"context"
	"errors"
	"sync"

	"github.com/tendermint/executive/libs/log"
)

var (
	// ErrAlreadyStarted is returned by Start on a running service.
	ErrAlreadyStarted = errors.New("already started")
	// ErrAlreadyStopped is returned by Start and Stop once a service has
	// been stopped. A stopped service cannot be restarted.
	ErrAlreadyStopped = errors.New("already stopped")
	// ErrNotStarted is returned by Stop on a service that never started.
	ErrNotStarted = errors.New("not started")
)

// Service can be started once and stopped once.
type Service interface {
	// Start runs the service until Stop is called or ctx is done.
	Start(context.Context) error
	IsRunning() bool
	String() string
	// Wait blocks until the service is stopped.
	Wait()
}

// Implementation is what a BaseService drives.
type Implementation interface {
	Service

	OnStart(context.Context) error
	OnStop()
}

type state int

const (
	stateIdle state = iota
	stateRunning
	stateStopped
)

// BaseService implements the lifecycle of a Service on top of the OnStart
// and OnStop hooks of its implementation, each of which runs at most once.
// A failed OnStart leaves the service idle so Start may be retried.
//
// Embed it and set it from the constructor:
//
//	type Runner struct {
//		service.BaseService
//		// private fields
//	}
//
//	func NewRunner(logger log.Logger) *Runner {
//		r := &Runner{}
//		r.BaseService = *service.NewBaseService(logger, "Runner", r)
//		return r
//	}
type BaseService struct {
	logger log.Logger
	name   string
	impl   Implementation

	mtx   *sync.Mutex
	state *state
	quit  chan struct{}
}

// NewBaseService returns a BaseService driving impl. A nil logger discards
// lifecycle logs.
func NewBaseService(logger log.Logger, name string, impl Implementation) *BaseService {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	st := stateIdle
	return &BaseService{
		logger: logger,
		name:   name,
		impl:   impl,
		mtx:    &sync.Mutex{},
		state:  &st,
		quit:   make(chan struct{}),
	}
}

// Start calls OnStart and stops the service once ctx is done.
func (bs *BaseService) Start(ctx context.Context) error {
	bs.mtx.Lock()
	defer bs.mtx.Unlock()

	switch *bs.state {
	case stateRunning:
		return ErrAlreadyStarted
	case stateStopped:
		bs.logger.Error("not starting service; already stopped", "service", bs.name)
		return ErrAlreadyStopped
	}

	bs.logger.Info("starting service", "service", bs.name)
	if err := bs.impl.OnStart(ctx); err != nil {
		return err
	}
	*bs.state = stateRunning

	go func() {
		select {
		case <-bs.quit:
		case <-ctx.Done():
			if err := bs.Stop(); err != nil && !errors.Is(err, ErrAlreadyStopped) {
				bs.logger.Error("failed to stop service", "service", bs.name, "err", err)
			}
		}
	}()
	return nil
}

// Stop calls OnStop and releases everyone blocked in Wait.
func (bs *BaseService) Stop() error {
	bs.mtx.Lock()
	switch *bs.state {
	case stateIdle:
		bs.mtx.Unlock()
		return ErrNotStarted
	case stateStopped:
		bs.mtx.Unlock()
		return ErrAlreadyStopped
	}
	*bs.state = stateStopped
	bs.mtx.Unlock()

	// OnStop may wait on goroutines that call IsRunning
	bs.logger.Info("stopping service", "service", bs.name)
	bs.impl.OnStop()
	close(bs.quit)
	return nil
}

// IsRunning reports whether the service started and has not been stopped.
func (bs *BaseService) IsRunning() bool {
	bs.mtx.Lock()
	defer bs.mtx.Unlock()
	return *bs.state == stateRunning
}

// Wait blocks until the service is stopped.
func (bs *BaseService) Wait() { <-bs.quit }

// Quit returns a channel that is closed once the service is stopped.
func (bs *BaseService) Quit() <-chan struct{} { return bs.quit }

func (bs *BaseService) String() string { return bs.name }
