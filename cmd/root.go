// Package cmd initializes the CLI and config parsers as well as the logger.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cronokirby/saferith"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
	"github.com/taurusgroup/crt-paillier/internal/params"
	"github.com/taurusgroup/crt-paillier/pkg/keystore"
	"github.com/taurusgroup/crt-paillier/pkg/math/arith"
	"github.com/taurusgroup/crt-paillier/pkg/paillier"
	"github.com/taurusgroup/crt-paillier/pkg/pool"
)

var cfgFile string
var configErr error

// lifecycle owns the arithmetic context of the process.
var lifecycle arith.Lifecycle
var workers *pool.Pool

// rootCmd represents the base command when called without any sub-commands
var rootCmd = &cobra.Command{
	Use:   "crt-paillier",
	Short: "Paillier encryption with CRT decryption and fixed-base encryption tables",
	Long: `crt-paillier generates Paillier keys built on strong primes, and encrypts,
decrypts and adds ciphertexts under a key kept in a CBOR key file.
Numbers are read and printed in the configured io base.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configErr != nil {
			return configErr
		}
		_, err := lifecycle.StartUp(0, 0, viper.GetInt("ioBase"))
		return errors.Wrap(err, "failed to start the arithmetic context")
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return shutdown()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to
// happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if closeErr := shutdown(); err == nil {
		err = closeErr
	}
	if err != nil {
		jww.ERROR.Printf("Exiting with error: %+v", err)
		os.Exit(1)
	}
}

// shutdown releases the worker pool and closes the arithmetic context, if still open.
func shutdown() error {
	workers.TearDown()
	workers = nil
	err := lifecycle.Close()
	if errors.Is(err, arith.ErrUninitialized) || errors.Is(err, arith.ErrAlreadyClosed) {
		return nil
	}
	return errors.Wrap(err, "failed to close the arithmetic context")
}

func init() {
	cobra.OnInitialize(initConfig, initLog)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "", "",
		"config file (default is $HOME/.crt-paillier/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false,
		"Verbose mode for debugging")
	rootCmd.PersistentFlags().StringP("keys", "k", "",
		"Key file (default is $HOME/.crt-paillier/key.cbor)")
	rootCmd.PersistentFlags().Int("ioBase", params.IOBase,
		"Number base used to read and print integers, in [2, 256]")
	rootCmd.PersistentFlags().IntP("workers", "w", 0,
		"Number of workers for parallel work, 0 for one per CPU, -1 for none")

	for _, name := range []string{"verbose", "keys", "ioBase", "workers"} {
		err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
		handleBindingError(err, name)
	}
}

func handleBindingError(err error, flag string) {
	if err != nil {
		jww.FATAL.Panicf("Error on binding flag \"%s\":%+v", flag, err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	configErr = nil
	home, err := homedir.Dir()
	if err != nil {
		configErr = errors.Wrap(err, "failed to find the home directory")
		return
	}
	configDir := filepath.Join(home, ".crt-paillier")
	viper.SetDefault("keys", filepath.Join(configDir, "key.cbor"))
	viper.SetDefault("security", params.SecParam)
	viper.SetDefault("statistical", params.StatParam)
	viper.SetDefault("window", params.BrickWindowBits)
	viper.SetDefault("maxAttempts", params.MaxKeyGenAttempts)

	viper.SetEnvPrefix("CRT_PAILLIER")
	viper.AutomaticEnv()

	explicit := cfgFile != ""
	path := cfgFile
	if !explicit {
		path = filepath.Join(configDir, "config.yaml")
	}
	if _, err = os.Stat(path); err != nil {
		if explicit {
			configErr = errors.Wrapf(err, "invalid config file %s", path)
		} else {
			jww.DEBUG.Printf("No config file at %s, using defaults", path)
		}
		return
	}
	viper.SetConfigFile(path)
	if err = viper.ReadInConfig(); err != nil {
		configErr = errors.Wrapf(err, "unable to read config file %s", path)
	}
}

// initLog initializes logging thresholds and the log path.
func initLog() {
	if viper.GetBool("verbose") {
		jww.SetLogThreshold(jww.LevelDebug)
		jww.SetStdoutThreshold(jww.LevelDebug)
	} else {
		jww.SetLogThreshold(jww.LevelInfo)
		jww.SetStdoutThreshold(jww.LevelWarn)
	}
	if logPath := viper.GetString("logPath"); logPath != "" {
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			fmt.Printf("Invalid log path %s, logging to stdout only.\n", logPath)
		} else {
			jww.SetLogOutput(logFile)
		}
	}
}

// arithContext returns the arithmetic context started for the running command.
func arithContext() (*arith.Context, error) {
	actx, err := lifecycle.Context()
	return actx, errors.Wrap(err, "arithmetic context")
}

// workerPool returns the pool configured by --workers, or nil to work sequentially.
func workerPool() *pool.Pool {
	n := viper.GetInt("workers")
	if n < 0 {
		return nil
	}
	if workers == nil {
		workers = pool.NewPool(n)
		jww.DEBUG.Printf("started %d workers", workers.Workers())
	}
	return workers
}

func keyStore() *keystore.File {
	return keystore.NewFile(viper.GetString("keys"))
}

func loadKeys(actx *arith.Context) (*paillier.PublicKey, *paillier.SecretKey, error) {
	store := keyStore()
	pk, sk, err := paillier.LoadKeypair(actx, store)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to load the key from %s", store.Path())
	}
	return pk, sk, nil
}

// parseNats reads one integer per argument in the io base.
func parseNats(actx *arith.Context, args []string) ([]*saferith.Nat, error) {
	xs := make([]*saferith.Nat, len(args))
	for i, arg := range args {
		x, err := actx.Parse([]byte(arg))
		if err != nil {
			return nil, errors.Wrapf(err, "argument %d", i+1)
		}
		xs[i] = x
	}
	return xs, nil
}

// printNats prints one integer per line in the io base.
func printNats(cmd *cobra.Command, actx *arith.Context, xs ...*saferith.Nat) error {
	for _, x := range xs {
		text, err := actx.Format(x)
		if err != nil {
			return err
		}
		if _, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", text); err != nil {
			return err
		}
	}
	return nil
}
