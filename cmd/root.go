// Package cmd provides the command-line interface for ngssc with configuration
// management supporting multiple configuration sources.
//
// Configuration System:
//
//	Values are resolved with the following precedence:
//	1. Command-line flags (--dist, --ng-env, etc.) - highest priority
//	2. Individual environment variables (NGSSC_WRAP_AOT_DIST, etc.)
//	3. Configuration file: --config, NGSSC_CONFIG_FILE or .ngssc.yml
//	4. Built-in defaults - lowest priority
//
// Environment Variables:
//
//	NGSSC_CONFIG_FILE: Path to custom configuration file
//	NGSSC_VARIANT_NG_ENV: Use the NG_ENV access style
//	NGSSC_LOG_LEVEL: Override the log level
//	And every other key following the NGSSC_<SECTION>_<OPTION> pattern
package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/ngssc/internal/config"
	"github.com/conneroisu/ngssc/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ngssc",
	Short: "Server side configuration for ahead-of-time compiled Angular apps",
	Long: `ngssc lets an ahead-of-time compiled single page application read
environment variables at runtime instead of baking them in at build time.

Commands:
  ngssc wrap-aot -- ng build      Build with environment references preserved
  ngssc insert dist/app           Insert the runtime configuration into index.html
  ngssc config show               Show the effective configuration
  ngssc version                   Show version information`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return bindFlags(cmd) },
}

// Execute adds all child commands to the root command, runs the selected one
// and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if stderrors.As(err, &exitErr) {
		return exitErr.Code
	}
	printError(rootCmd.ErrOrStderr(), err)
	return 1
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .ngssc.yml, can also use NGSSC_CONFIG_FILE env var)")
	flags := rootCmd.PersistentFlags()
	flags.StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.Bool("process-env", false, "read variables from process.env (default)")
	flags.Bool("ng-env", false, "read variables from NG_ENV")
	rootCmd.SetGlobalNormalizationFunc(normalizeFlagName)

	bindKey(flags, "log-level", config.KeyLogLevel)
	bindKey(flags, "log-format", config.KeyLogFormat)
	bindKey(flags, "process-env", config.KeyProcessEnv)
	bindKey(flags, "ng-env", config.KeyNgEnv)
}

// normalizeFlagName accepts underscores in flag names, so --ng_env and
// --ng-env are the same flag.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// initConfig initializes the configuration system.
//
// Configuration file lookup (highest to lowest):
//  1. --config flag
//  2. NGSSC_CONFIG_FILE environment variable
//  3. .ngssc.yml in the current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("NGSSC_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".ngssc")
	}

	viper.SetEnvPrefix("NGSSC")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing configuration file is not an error; defaults apply
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig loads the configuration and builds the logger it describes.
func loadConfig() (*config.Config, logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := cfg.Logger()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
