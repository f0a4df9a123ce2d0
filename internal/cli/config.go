package cli

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides (QFORGE_FORMAT, QFORGE_DIALECT,
// QFORGE_VERBOSE).
const EnvPrefix = "QFORGE"

// configKeys are the global flags that config files and the environment
// may set.
var configKeys = []string{"format", "dialect", "verbose"}

// loadConfig resolves the global options. An explicit --config file must
// exist; the default .qforge.yaml in the working directory is optional.
func loadConfig(cmd *cobra.Command, opts *RootOptions) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	for _, key := range configKeys {
		if f := cmd.Flags().Lookup(key); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	if opts.Config != "" {
		v.SetConfigFile(opts.Config)
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	} else {
		v.SetConfigName(".qforge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return err
			}
		}
	}

	opts.Format = v.GetString("format")
	opts.Dialect = v.GetString("dialect")
	opts.Verbose = v.GetBool("verbose")
	return nil
}
