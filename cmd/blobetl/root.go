package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wdm0006/blobetl/pkg/config"
	"github.com/wdm0006/blobetl/pkg/logger"
)

// envAnnotation marks a flag that overrides an environment variable.
const envAnnotation = "blobetl_env"

type app struct {
	envFile string
	cfg     *config.Config
	log     *logger.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "blobetl",
		Short:         "Validate and repartition daily CSV batches in a blob store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	envFlag(pf, "log-level", "", "log level (debug, info, warn, error)", config.EnvLogLevel)
	envFlag(pf, "log-format", "", "log format (json, console)", config.EnvLogFormat)
	envFlag(pf, "contract", "", "schema contract file (.json, .yaml, .toml)", config.EnvContractPath)
	envFlag(pf, "backend", "", "store backend (memory, fs, s3, gcs, azure)", config.EnvStoreBackend)
	envFlag(pf, "container", "", "bucket, container or root directory", config.EnvStoreContainer)

	root.AddCommand(newRunCmd(a), newCheckCmd(a), newInspectCmd(a), newVersionCmd())
	return root
}

// envFlag declares a string flag that, when set, replaces env.
func envFlag(flags *pflag.FlagSet, name, value, usage, env string) {
	flags.String(name, value, fmt.Sprintf("%s [%s]", usage, env))
	_ = flags.SetAnnotation(name, envAnnotation, []string{env})
}

// setup loads .env, applies flag overrides and builds the config and
// logger. Commands that touch the store call it first.
func (a *app) setup(cmd *cobra.Command) error {
	if err := godotenv.Load(a.envFile); err != nil && !(errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("env-file")) {
		return fmt.Errorf("load %s: %w", a.envFile, err)
	}
	var ferr error
	cmd.Flags().Visit(func(f *pflag.Flag) {
		env, ok := f.Annotations[envAnnotation]
		if !ok || ferr != nil {
			return
		}
		ferr = os.Setenv(env[0], f.Value.String())
	})
	if ferr != nil {
		return ferr
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.New(logger.Options{
		ServiceName: "blobetl",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})
	return nil
}
