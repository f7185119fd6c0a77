package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/csvprep/internal/config"
	"github.com/salmonumbrella/csvprep/internal/logging"
	"github.com/salmonumbrella/csvprep/internal/source"
)

// Environment variables read by the CLI.
const (
	envLogLevel        = "CSVPREP_LOG_LEVEL"
	envLogFormat       = "CSVPREP_LOG_FORMAT"
	envSeqURL          = "CSVPREP_SEQ_URL"
	envStorageEndpoint = "CSVPREP_STORAGE_ENDPOINT"
	envAccessKeyID     = "CSVPREP_ACCESS_KEY_ID"
	envSecretAccessKey = "CSVPREP_SECRET_ACCESS_KEY"
	envSessionToken    = "CSVPREP_SESSION_TOKEN"
)

// loadConfigFromFlag loads config from --config if provided, otherwise from default path.
func loadConfigFromFlag() (*config.Config, error) {
	if strings.TrimSpace(configFile) != "" {
		return config.Load(configFile)
	}
	return config.ReadConfig()
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	if cmd.Flags().Changed(name) {
		return true
	}
	return cmd.InheritedFlags().Changed(name)
}

// firstNonEmpty returns the first value that is not blank.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// resolveLogOptions picks logger settings with precedence
// flags > env > config. --debug wins over everything; --quiet raises the
// default level to warn.
func resolveLogOptions(cmd *cobra.Command, cfg *config.Config) (logging.Options, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}

	level := firstNonEmpty(envGet(envLogLevel), cfg.LogLevel)
	if debug {
		level = "debug"
	} else if quietFlag && (level == "" || strings.EqualFold(level, "info")) {
		level = "warn"
	}
	if _, err := logging.ParseLevel(level); err != nil {
		return logging.Options{}, err
	}

	format := firstNonEmpty(envGet(envLogFormat), cfg.LogFormat)
	if flagChanged(cmd, "log-format") {
		format = logFormat
	}

	seq := firstNonEmpty(envGet(envSeqURL), cfg.SeqURL)
	if flagChanged(cmd, "seq-url") {
		seq = seqURL
	}

	return logging.Options{Level: level, Format: format, SeqURL: seq}, nil
}

// objectStoreConfig builds the s3:// settings from env and config.
// Credentials are resolved separately, on first use.
func objectStoreConfig(cfg *config.Config) source.ObjectStoreConfig {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return source.ObjectStoreConfig{
		Endpoint: firstNonEmpty(envGet(envStorageEndpoint), cfg.StorageEndpoint),
		Region:   strings.TrimSpace(cfg.StorageRegion),
		Insecure: cfg.StorageInsecure,
	}
}

// resolveStorageCredentials resolves object store keys with precedence
// env > keyring. It returns nil when neither has them, which leaves the
// client on the standard AWS/MinIO credential chain.
func resolveStorageCredentials(profile string) *source.StaticCredentials {
	id := strings.TrimSpace(envGet(envAccessKeyID))
	secret := strings.TrimSpace(envGet(envSecretAccessKey))
	if id != "" && secret != "" {
		return &source.StaticCredentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    strings.TrimSpace(envGet(envSessionToken)),
		}
	}

	store, err := openSecretsStore()
	if err != nil {
		return nil
	}
	creds, err := store.GetCredentials(profileOrDefault(profile))
	if err != nil {
		return nil
	}
	return &source.StaticCredentials{
		AccessKeyID:     creds.AccessKeyID,
		SecretAccessKey: creds.SecretAccessKey,
		SessionToken:    creds.SessionToken,
	}
}

func profileOrDefault(profile string) string {
	if p := strings.TrimSpace(profile); p != "" {
		return p
	}
	return defaultProfile
}

// loaderOptionsFromConfig wires the configured timeout, object store and
// the command's stdin into the loader.
func loaderOptionsFromConfig(cmd *cobra.Command, cfg *config.Config) []source.LoaderOption {
	if cfg == nil {
		cfg = &config.Config{}
	}
	timeout := cfg.Timeout()
	httpClient := source.NewHTTPClient(
		source.WithHTTPTimeout(timeout),
		source.WithUserAgent("csvprep/"+version),
	)
	profile := profileName
	objects := &credentialedObjectStore{
		cfg:     objectStoreConfig(cfg),
		resolve: func() *source.StaticCredentials { return resolveStorageCredentials(profile) },
	}

	return []source.LoaderOption{
		source.WithOpener(source.SchemeStdin, source.StdinOpener{In: cmd.InOrStdin()}),
		source.WithOpener(source.SchemeHTTP, httpClient),
		source.WithOpener(source.SchemeHTTPS, httpClient),
		source.WithOpener(source.SchemeS3, objects),
		source.WithSource(source.SchemeMySQL, source.NewMySQLSource(timeout)),
	}
}

func formatConfigLoadError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("load config: %w", err)
}
