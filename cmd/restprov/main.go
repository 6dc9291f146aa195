package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/restprovider/cmd/restprov/commands"
	"github.com/fivetwenty-io/restprovider/internal/constants"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "restprov",
	Short: "Simple REST data provider CLI",
	Long: `A command-line client for backends speaking the simple REST dialect.

Every data provider operation is available as a command: list, get, get-many,
get-many-reference, create, update, update-many, delete and delete-many.
"restprov serve" runs an in-memory backend to try them against.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.restprov/config.yml)")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading RESTPROV_* variables")
	rootCmd.PersistentFlags().StringP("api", "a", "", "API base URL")
	rootCmd.PersistentFlags().String("count-header", "", "response header holding list totals (default Content-Range)")
	rootCmd.PersistentFlags().StringSlice("key", nil, "primary key field per resource (resource=field)")
	rootCmd.PersistentFlags().StringSlice("header", nil, "extra request header (\"Name: value\")")
	rootCmd.PersistentFlags().String("user-agent", "restprov/"+version, "User-Agent header")
	rootCmd.PersistentFlags().Int("retry-max", 0, "retries on connection errors, 429 and 5xx")
	rootCmd.PersistentFlags().Float64("rate-limit", 0, "maximum requests per second (0 disables)")
	rootCmd.PersistentFlags().StringP("output", "o", constants.FormatTable, "output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().Bool("debug", false, "log HTTP requests and responses")

	// Bind flags to viper
	for key, flag := range map[string]string{
		"config":       "config",
		"env_file":     "env-file",
		"api":          "api",
		"count_header": "count-header",
		"key":          "key",
		"header":       "header",
		"user_agent":   "user-agent",
		"retry_max":    "retry-max",
		"rate_limit":   "rate-limit",
		"output":       "output",
		"verbose":      "verbose",
		"debug":        "debug",
	} {
		_ = viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag))
	}

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewGetCommand())
	rootCmd.AddCommand(commands.NewGetManyCommand())
	rootCmd.AddCommand(commands.NewGetManyReferenceCommand())
	rootCmd.AddCommand(commands.NewCreateCommand())
	rootCmd.AddCommand(commands.NewUpdateCommand())
	rootCmd.AddCommand(commands.NewUpdateManyCommand())
	rootCmd.AddCommand(commands.NewDeleteCommand())
	rootCmd.AddCommand(commands.NewDeleteManyCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
}

func initConfig() {
	// Variables already set in the environment win over the dotenv file.
	if envFile := viper.GetString("env_file"); envFile != "" {
		err := godotenv.Load(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", envFile, err)
		}
	}

	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in ~/.restprov/config.yml
		viper.AddConfigPath(filepath.Join(home, ".restprov"))
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match
	viper.SetEnvPrefix("RESTPROV")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
