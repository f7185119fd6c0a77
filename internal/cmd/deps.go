package cmd

import (
	"log/slog"
	"os"
	"time"

	"github.com/salmonumbrella/csvprep/internal/logging"
	"github.com/salmonumbrella/csvprep/internal/pipeline"
	"github.com/salmonumbrella/csvprep/internal/secrets"
	"github.com/salmonumbrella/csvprep/internal/source"
)

var (
	openSecretsStore = secrets.OpenDefault
	envGet           = os.Getenv
	setupLogger      = logging.Setup
	nowFunc          = time.Now
	newLoaderFunc    = func(log *slog.Logger, opts ...source.LoaderOption) pipeline.Loader {
		return source.NewLoader(log, opts...)
	}
)
