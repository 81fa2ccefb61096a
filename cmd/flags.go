package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// viperKeyAnnotation marks a flag with the configuration key it overrides.
const viperKeyAnnotation = "ngssc_viper_key"

// bindKey records that flag name of flags overrides the configuration key.
func bindKey(flags *pflag.FlagSet, name, key string) {
	if err := flags.SetAnnotation(name, viperKeyAnnotation, []string{key}); err != nil {
		panic(fmt.Sprintf("flag %q: %v", name, err))
	}
}

// bindFlags binds the annotated flags of cmd, inherited ones included, to
// the global viper instance. Binding happens per run so a reset viper
// instance still sees the flags.
func bindFlags(cmd *cobra.Command) error {
	var bindErr error
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		keys := flag.Annotations[viperKeyAnnotation]
		if len(keys) == 0 || bindErr != nil {
			return
		}
		bindErr = viper.BindPFlag(keys[0], flag)
	})
	return bindErr
}

// ExitError makes the command exit with Code without printing anything
// further; the command already reported the failure.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}
