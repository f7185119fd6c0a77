package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/csvprep/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration stored in ~/.config/csvprep/config.yaml.

You can view, set, or unset keys such as output_format, log_level,
storage_endpoint, and http_timeout. Run 'csvprep config keys' for the
full list.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigFromFlag()
		if err != nil {
			return formatConfigLoadError(err)
		}
		if structuredOutputRequested() {
			return printStructured(configOutput(cfg))
		}

		values := configOutput(cfg)
		out := stdoutFromContext(cmd.Context())
		fmt.Fprintln(out, "Config:")
		for _, key := range supportedConfigKeys() {
			fmt.Fprintf(out, "  %s: %v\n", key, values[key])
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Unset a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List supported configuration keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		keys := supportedConfigKeys()
		sort.Strings(keys)

		if structuredOutputRequested() {
			return printStructured(keys)
		}

		out := stdoutFromContext(cmd.Context())
		fmt.Fprintln(out, "Supported keys:")
		for _, key := range keys {
			fmt.Fprintf(out, "  %s\n", key)
		}
		return nil
	},
}

func configPath() (string, error) {
	if strings.TrimSpace(configFile) != "" {
		return configFile, nil
	}
	return config.DefaultConfigPath()
}

func supportedConfigKeys() []string {
	return []string{
		"output_format",
		"keyring_backend",
		"log_level",
		"log_format",
		"seq_url",
		"storage_endpoint",
		"storage_region",
		"storage_insecure",
		"http_timeout",
	}
}

func applyConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "output_format":
		cfg.OutputFormat = value
	case "keyring_backend":
		cfg.KeyringBackend = value
	case "log_level":
		cfg.LogLevel = value
	case "log_format":
		cfg.LogFormat = value
	case "seq_url":
		cfg.SeqURL = value
	case "storage_endpoint":
		cfg.StorageEndpoint = value
	case "storage_region":
		cfg.StorageRegion = value
	case "storage_insecure":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("storage_insecure must be true or false, got %q", value)
		}
		cfg.StorageInsecure = b
	case "http_timeout":
		cfg.HTTPTimeout = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return cfg.Validate()
}

func clearConfigValue(cfg *config.Config, key string) error {
	switch key {
	case "output_format":
		cfg.OutputFormat = ""
	case "keyring_backend":
		cfg.KeyringBackend = ""
	case "log_level":
		cfg.LogLevel = ""
	case "log_format":
		cfg.LogFormat = ""
	case "seq_url":
		cfg.SeqURL = ""
	case "storage_endpoint":
		cfg.StorageEndpoint = ""
	case "storage_region":
		cfg.StorageRegion = ""
	case "storage_insecure":
		cfg.StorageInsecure = false
	case "http_timeout":
		cfg.HTTPTimeout = ""
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configKeysCmd)

	rootCmd.AddCommand(configCmd)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(strings.TrimSpace(args[0]))
	value := strings.TrimSpace(args[1])

	cfg, err := loadConfigFromFlag()
	if err != nil {
		return formatConfigLoadError(err)
	}

	if err := applyConfigValue(cfg, key, value); err != nil {
		return err
	}

	path, err := configPath()
	if err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	if structuredOutputRequested() {
		return printStructured(map[string]string{
			"status": "updated",
			"key":    key,
			"value":  value,
		})
	}

	fmt.Fprintf(stdoutFromContext(cmd.Context()), "Updated %s\n", key)
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(strings.TrimSpace(args[0]))

	cfg, err := loadConfigFromFlag()
	if err != nil {
		return formatConfigLoadError(err)
	}

	if err := clearConfigValue(cfg, key); err != nil {
		return err
	}

	path, err := configPath()
	if err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	if structuredOutputRequested() {
		return printStructured(map[string]string{
			"status": "unset",
			"key":    key,
		})
	}

	fmt.Fprintf(stdoutFromContext(cmd.Context()), "Unset %s\n", key)
	return nil
}

func configOutput(cfg *config.Config) map[string]interface{} {
	return map[string]interface{}{
		"output_format":    cfg.OutputFormat,
		"keyring_backend":  cfg.KeyringBackend,
		"log_level":        cfg.LogLevel,
		"log_format":       cfg.LogFormat,
		"seq_url":          cfg.SeqURL,
		"storage_endpoint": cfg.StorageEndpoint,
		"storage_region":   cfg.StorageRegion,
		"storage_insecure": cfg.StorageInsecure,
		"http_timeout":     cfg.HTTPTimeout,
	}
}
