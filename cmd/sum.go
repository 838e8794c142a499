package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/taurusgroup/crt-paillier/pkg/paillier"
)

var (
	sumDecrypt bool
	sumDigest  bool
)

func init() {
	sumCmd.Flags().BoolVarP(&sumDecrypt, "decrypt", "d", false,
		"Also print the decrypted sum")
	sumCmd.Flags().BoolVar(&sumDigest, "digest", false,
		"Also print a hex digest binding the key to the summed ciphertexts")
	rootCmd.AddCommand(sumCmd)
}

var sumCmd = &cobra.Command{
	Use:   "sum <ciphertext>...",
	Short: "Add ciphertexts homomorphically",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		actx, err := arithContext()
		if err != nil {
			return err
		}
		cts, err := parseCiphertexts(args)
		if err != nil {
			return err
		}
		pk, sk, err := loadKeys(actx)
		if err != nil {
			return err
		}
		sum, err := pk.Sum(cts...)
		if err != nil {
			return errors.Wrap(err, "failed to add the ciphertexts")
		}
		if err = printCiphertexts(cmd, []*paillier.Ciphertext{sum}); err != nil {
			return err
		}
		if sumDigest {
			digest, err := pk.Digest(cts...)
			if err != nil {
				return errors.Wrap(err, "failed to hash the ciphertexts")
			}
			if _, err = fmt.Fprintf(cmd.OutOrStdout(), "%x\n", digest); err != nil {
				return err
			}
		}
		if !sumDecrypt {
			return nil
		}
		m, err := paillier.NewDecrypter(actx, sk).DecryptFast(sum)
		if err != nil {
			return errors.Wrap(err, "decryption failed")
		}
		return printNats(cmd, actx, m)
	},
}
