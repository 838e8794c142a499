package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
	"github.com/taurusgroup/crt-paillier/pkg/paillier"
)

func init() {
	keygenCmd.Flags().Int("security", 0, "Bit length k of each prime P, Q")
	keygenCmd.Flags().Int("statistical", 0, "Statistical parameter l, the nonce bit length")
	keygenCmd.Flags().Int("maxAttempts", 0, "Maximum number of prime candidates to try")
	for _, name := range []string{"security", "statistical", "maxAttempts"} {
		err := viper.BindPFlag(name, keygenCmd.Flags().Lookup(name))
		handleBindingError(err, name)
	}
	rootCmd.AddCommand(keygenCmd)
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a key pair and write it to the key file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		actx, err := arithContext()
		if err != nil {
			return err
		}
		k, l := viper.GetInt("security"), viper.GetInt("statistical")
		jww.INFO.Printf("Generating a key with k = %d, l = %d", k, l)
		g := paillier.NewKeyGenerator(actx,
			paillier.WithPool(workerPool()),
			paillier.WithMaxAttempts(viper.GetInt("maxAttempts")))
		pk, sk, err := g.Generate(context.Background(), k, l)
		if err != nil {
			return errors.Wrap(err, "key generation failed")
		}

		store := keyStore()
		if err = os.MkdirAll(filepath.Dir(store.Path()), 0o700); err != nil {
			return errors.Wrap(err, "failed to create the key directory")
		}
		if err = paillier.SaveKeypair(store, sk); err != nil {
			return errors.Wrapf(err, "failed to save the key to %s", store.Path())
		}
		jww.INFO.Printf("Key written to %s", store.Path())
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", hex.EncodeToString(pk.Fingerprint()))
		return err
	},
}
