package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/taurusgroup/crt-paillier/pkg/paillier"
)

var decryptPath string

func init() {
	decryptCmd.Flags().StringVarP(&decryptPath, "path", "p", paillier.PathFast.String(),
		"Decryption path, generic or fast")
	rootCmd.AddCommand(decryptCmd)
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt <ciphertext>...",
	Short: "Decrypt ciphertexts, printing one plaintext per line",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := paillier.ParsePath(decryptPath)
		if err != nil {
			return err
		}
		actx, err := arithContext()
		if err != nil {
			return err
		}
		cts, err := parseCiphertexts(args)
		if err != nil {
			return err
		}
		_, sk, err := loadKeys(actx)
		if err != nil {
			return err
		}
		ms, err := paillier.DecryptBatch(paillier.NewDecrypter(actx, sk), workerPool(), path, cts)
		if err != nil {
			return errors.Wrap(err, "decryption failed")
		}
		return printNats(cmd, actx, ms...)
	},
}

func parseCiphertexts(args []string) ([]*paillier.Ciphertext, error) {
	actx, err := arithContext()
	if err != nil {
		return nil, err
	}
	xs, err := parseNats(actx, args)
	if err != nil {
		return nil, err
	}
	cts := make([]*paillier.Ciphertext, len(xs))
	for i, x := range xs {
		cts[i] = paillier.NewCiphertext(x)
	}
	return cts, nil
}
