package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/ngssc/internal/config"
	"github.com/conneroisu/ngssc/internal/services"
)

var insertCmd = &cobra.Command{
	Use:   "insert [directory]",
	Short: "Insert the runtime configuration into the built index document",
	Long: `Insert a script that populates the environment variables used by the
application into the index document of a built application. The document must
contain the <!--CONFIG--> marker; an initializer inserted by a previous run is
replaced.

The variables are discovered in the built JavaScript files unless they are
given with --variable. Their values are read from the environment of ngssc;
unset variables are null at runtime.

Examples:
  ngssc insert dist/app                  # Update dist/app/index.html
  ngssc insert dist/app --recursive      # Update every index.html below dist/app
  ngssc insert dist/app --dry            # Print the initializer only
  ngssc insert dist/app --watch          # Keep updating after rebuilds`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInsert,
}

func init() {
	rootCmd.AddCommand(insertCmd)

	flags := insertCmd.Flags()
	flags.BoolP("recursive", "r", false, "Insert into every matching document below the directory")
	flags.Bool("dry", false, "Print the initializer without writing any document")
	flags.StringSlice("variable", nil, "Variable to populate instead of discovering them (repeatable)")
	flags.StringSlice("document", nil, "Glob selecting the documents of a recursive insert (repeatable)")
	flags.Bool("watch", false, "Keep watching and insert again when a document changes")
	flags.Duration("watch-delay", 300*time.Millisecond, "Debounce delay of --watch")

	bindKey(flags, "recursive", config.KeyInsertRecursive)
	bindKey(flags, "dry", config.KeyInsertDry)
	bindKey(flags, "variable", config.KeyInsertVariables)
	bindKey(flags, "document", config.KeyInsertDocuments)
}

func runInsert(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		viper.Set(config.KeyInsertDirectory, args[0])
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	service := services.NewInsertService(cfg, logger)

	watch, _ := cmd.Flags().GetBool("watch")
	if !watch {
		result, err := service.Insert(cmd.Context())
		reportInsertResult(cmd, result, err)
		if err != nil {
			return &ExitError{Code: 1}
		}
		return nil
	}

	if cfg.Insert.Dry {
		return fmt.Errorf("--watch cannot be combined with --dry")
	}
	delay, _ := cmd.Flags().GetDuration("watch-delay")
	return service.Watch(cmd.Context(), delay, func(result *services.InsertResult, err error) {
		reportInsertResult(cmd, result, err)
	})
}

func reportInsertResult(cmd *cobra.Command, result *services.InsertResult, err error) {
	out := cmd.OutOrStdout()

	if result != nil {
		labelColor.Fprintf(out, "Variant: ")
		fmt.Fprintln(out, result.Variant)
		printList(out, "Variables", result.Variables)
		if result.Dry {
			fmt.Fprintln(out, result.Snippet)
		}
		for _, document := range result.Documents {
			printSuccess(out, "Updated %s", document)
		}
	}
	if err != nil {
		printError(cmd.ErrOrStderr(), err)
	}
}
