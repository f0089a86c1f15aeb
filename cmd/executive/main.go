package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/tendermint/executive/cmd/executive/commands"
	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/libs/cli"
	"github.com/tendermint/executive/libs/log"
)

func main() {
	ctx := context.Background()

	conf := config.DefaultConfig()
	logger := log.MustNewDefaultLogger(log.LogFormatPlain, log.LogLevelInfo)

	rcmd := commands.RootCommand(conf, logger)
	rcmd.AddCommand(
		commands.MakeInitFilesCommand(conf, logger),
		commands.VersionCmd,
		commands.MakeMetadataCommand(conf, logger),
		commands.MakeProduceBlockCommand(conf, logger),
		commands.MakeExecuteBlockCommand(conf, logger),
		commands.MakeShowAccountCommand(conf, logger),
		commands.MakeStartCommand(conf, logger),
	)

	cmd := cli.PrepareBaseCmd(rcmd, "EX", os.ExpandEnv(filepath.Join("$HOME", config.DefaultExecutiveDir)))
	if err := cmd.ExecuteContext(ctx); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}
