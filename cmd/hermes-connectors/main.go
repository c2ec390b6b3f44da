package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"

	"github.com/hashicorp-forge/hermes-connectors/internal/cmd"
	"github.com/hashicorp-forge/hermes-connectors/pkg/credhub"
)

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "hermes-connectors",
		Level: hclog.LevelFromString(os.Getenv("LOG_LEVEL")),
	})

	// Values already in the environment win over .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("error loading .env file", "error", err)
	}

	if n := credhub.Bootstrap(logger); n > 0 {
		logger.Debug("exported bound credentials", "count", n)
	}

	os.Exit(cmd.Main(os.Args))
}
