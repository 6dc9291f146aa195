package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/restprovider/internal/constants"
)

// Config represents the CLI configuration.
type Config struct {
	API         string            `json:"api,omitempty"          yaml:"api,omitempty"`
	CountHeader string            `json:"count_header,omitempty" yaml:"count_header,omitempty"`
	Keys        map[string]string `json:"keys,omitempty"         yaml:"keys,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"      yaml:"headers,omitempty"`
	UserAgent   string            `json:"user_agent,omitempty"   yaml:"user_agent,omitempty"`
	RetryMax    int               `json:"retry_max"              yaml:"retry_max"`
	RateLimit   float64           `json:"rate_limit"             yaml:"rate_limit"`
	Output      string            `json:"output"                 yaml:"output"`
	Verbose     bool              `json:"verbose"                yaml:"verbose"`
	Debug       bool              `json:"debug"                  yaml:"debug"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the settings stored in the restprov configuration file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration after flags, environment and config file are merged",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			out := cmd.OutOrStdout()

			format, err := outputFormat(out)
			if err != nil {
				return err
			}

			if format != constants.FormatTable {
				return writeValue(out, format, config)
			}

			table := tablewriter.NewWriter(out)
			table.Header("Property", "Value")

			for _, row := range configRows(config) {
				_ = table.Append(row[0], row[1])
			}

			err = table.Render()
			if err != nil {
				return fmt.Errorf("failed to render table: %w", err)
			}

			return nil
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long: `Set a configuration value and save it to the configuration file.

Keys: api, count_header, output, user_agent, retry_max, rate_limit, verbose, debug,
key (VALUE is resource=field), header (VALUE is "Name: value").`,
		Args: cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			err := setConfigValue(config, args[0], args[1])
			if err != nil {
				return err
			}

			path, err := saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s in %s\n", args[0], path)

			return nil
		},
	}
}

// loadConfig reads the merged configuration from viper.
func loadConfig() *Config {
	return &Config{
		API:         viper.GetString("api"),
		CountHeader: viper.GetString("count_header"),
		Keys:        viper.GetStringMapString("keys"),
		Headers:     viper.GetStringMapString("headers"),
		UserAgent:   viper.GetString("user_agent"),
		RetryMax:    viper.GetInt("retry_max"),
		RateLimit:   viper.GetFloat64("rate_limit"),
		Output:      viper.GetString("output"),
		Verbose:     viper.GetBool("verbose"),
		Debug:       viper.GetBool("debug"),
	}
}

// setConfigValue applies a single KEY VALUE pair.
func setConfigValue(config *Config, key, value string) error {
	switch key {
	case "api":
		config.API = value
	case "count_header":
		config.CountHeader = value
	case "output":
		switch value {
		case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
			config.Output = value
		default:
			return fmt.Errorf("%w: %s", constants.ErrUnknownOutputFmt, value)
		}
	case "user_agent":
		config.UserAgent = value
	case "retry_max":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s=%q", constants.ErrInvalidConfigValue, key, value)
		}

		config.RetryMax = n
	case "rate_limit":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s=%q", constants.ErrInvalidConfigValue, key, value)
		}

		config.RateLimit = f
	case "verbose", "debug":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", constants.ErrInvalidConfigValue, key, value)
		}

		if key == "verbose" {
			config.Verbose = b
		} else {
			config.Debug = b
		}
	case "key":
		keys, err := parseKeyMappings([]string{value})
		if err != nil {
			return err
		}

		if config.Keys == nil {
			config.Keys = make(map[string]string)
		}

		for resource, field := range keys {
			config.Keys[resource] = field
		}
	case "header":
		headers, err := parseHeaders([]string{value})
		if err != nil {
			return err
		}

		if config.Headers == nil {
			config.Headers = make(map[string]string)
		}

		for name, content := range headers {
			config.Headers[name] = content
		}
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

// saveConfigStruct writes config to the file viper loaded, or to
// $HOME/.restprov/config.yml. It returns the path written.
func saveConfigStruct(config *Config) (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}

		configDir := filepath.Join(home, ".restprov")

		err = os.MkdirAll(configDir, constants.ConfigDirPerm)
		if err != nil {
			return "", fmt.Errorf("failed to create config directory: %w", err)
		}

		configFile = filepath.Join(configDir, "config.yml")
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configFile, nil
}

func configRows(config *Config) [][2]string {
	rows := [][2]string{
		{"API", config.API},
		{"Count Header", config.CountHeader},
		{"User Agent", config.UserAgent},
		{"Retry Max", strconv.Itoa(config.RetryMax)},
		{"Rate Limit", strconv.FormatFloat(config.RateLimit, 'f', -1, 64)},
		{"Output", config.Output},
		{"Verbose", strconv.FormatBool(config.Verbose)},
		{"Debug", strconv.FormatBool(config.Debug)},
	}

	rows = append(rows, mapRows("Key", config.Keys)...)
	rows = append(rows, mapRows("Header", config.Headers)...)

	return rows
}

func mapRows(label string, values map[string]string) [][2]string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}

	sort.Strings(names)

	rows := make([][2]string, 0, len(names))
	for _, name := range names {
		value := values[name]
		if strings.EqualFold(name, "Authorization") {
			value = "***"
		}

		rows = append(rows, [2]string{label + " " + name, value})
	}

	return rows
}
