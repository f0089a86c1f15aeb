package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/internal/executive"
	"github.com/tendermint/executive/internal/runtime"
	"github.com/tendermint/executive/libs/log"
	"github.com/tendermint/executive/types"
)

// openRuntime opens the state and block databases of conf and writes the
// genesis state on first use.
func openRuntime(conf *config.Config, logger log.Logger, options ...executive.Option) (*runtime.Runtime, error) {
	genDoc, err := types.GenesisDocFromFile(conf.GenesisFile())
	if err != nil {
		return nil, fmt.Errorf("unable to load genesis file: %w", err)
	}

	stateDB, err := config.DefaultDBProvider(&config.DBContext{ID: "state", Config: conf})
	if err != nil {
		return nil, err
	}
	blockDB, err := config.DefaultDBProvider(&config.DBContext{ID: "blockstore", Config: conf})
	if err != nil {
		_ = stateDB.Close()
		return nil, err
	}

	rt, err := runtime.New(conf.Runtime, stateDB, blockDB, logger, options...)
	if err != nil {
		_ = stateDB.Close()
		_ = blockDB.Close()
		return nil, err
	}

	if _, _, err := rt.Executive.Head(); err != nil {
		if _, err := rt.Executive.InitChain(genDoc); err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("init chain: %w", err)
		}
	}
	return rt, nil
}

// inherentData returns the author's inherent data for a block built at now.
func inherentData(now time.Time) *types.InherentData {
	data := types.NewInherentData()
	data.PutUint64(types.TimestampInherent, uint64(now.UnixNano()/int64(time.Millisecond)))
	return data
}

func printJSON(w io.Writer, v interface{}) error {
	bz, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(bz))
	return err
}
