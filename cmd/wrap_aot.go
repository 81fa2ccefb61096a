package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/ngssc/internal/build"
	"github.com/conneroisu/ngssc/internal/config"
	"github.com/conneroisu/ngssc/internal/services"
)

var wrapAotCmd = &cobra.Command{
	Use:   "wrap-aot [flags] -- <command> [args...]",
	Short: "Run an ahead-of-time build with environment references preserved",
	Long: `Run an ahead-of-time build command while keeping the environment variable
references of the environment file readable at runtime.

The environment file is tokenized before the command runs and restored after it
finished, whatever the outcome. The tokens found in the build output are then
replaced with runtime lookups. The exit code of the command becomes the exit
code of ngssc.

Examples:
  ngssc wrap-aot -- ng build --configuration production
  ngssc wrap-aot --ng-env --dist build -- npm run build
  ngssc wrap-aot --no-tokenize -- ng build`,
	Aliases: []string{"wrap"},
	RunE:    runWrapAot,
}

func init() {
	rootCmd.AddCommand(wrapAotCmd)

	flags := wrapAotCmd.Flags()
	flags.SetInterspersed(false)
	flags.StringP("directory", "d", ".", "Project directory; the command runs in it")
	flags.StringP("environment-file", "e", config.DefaultEnvironmentFile, "Environment file to tokenize, relative to the project directory")
	flags.String("dist", "dist", "Build output directory, relative to the project directory")
	flags.StringSlice("artifact", nil, "Glob selecting the output files to detokenize (repeatable)")
	flags.Bool("no-tokenize", false, "Run the command without tokenizing the environment file")

	bindKey(flags, "directory", config.KeyWrapDirectory)
	bindKey(flags, "environment-file", config.KeyWrapEnvironmentFile)
	bindKey(flags, "dist", config.KeyWrapDist)
	bindKey(flags, "artifact", config.KeyWrapArtifactPatterns)
}

func runWrapAot(cmd *cobra.Command, args []string) error {
	if noTokenize, _ := cmd.Flags().GetBool("no-tokenize"); noTokenize {
		viper.Set(config.KeyWrapTokenize, false)
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	service := services.NewWrapService(cfg, logger)
	result, err := service.Wrap(cmd.Context(), args)
	if err != nil {
		return err
	}
	return reportWrapResult(cmd, result, cfg.Wrap.Tokenize)
}

func reportWrapResult(cmd *cobra.Command, result *build.WrapResult, tokenize bool) error {
	out := cmd.ErrOrStderr()

	if result.CommandErr != nil {
		printError(out, result.CommandErr)
	}
	for _, err := range result.Errors {
		printError(out, err)
	}

	switch {
	case result.ExitCode > 0:
		return &ExitError{Code: result.ExitCode}
	case result.CommandErr != nil || len(result.Errors) > 0:
		return &ExitError{Code: 1}
	}

	if len(result.Variables) > 0 {
		printSuccess(out, "Preserved %d environment references (%d variables), rewrote %d files",
			result.References, len(result.Variables), len(result.Artifacts))
	} else if tokenize {
		printWarning(out, "No environment references found in the environment file")
	}
	return nil
}
