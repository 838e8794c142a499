package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/taurusgroup/crt-paillier/pkg/paillier"
)

var encryptPublic bool

func init() {
	encryptCmd.Flags().Int("window", 0, "Comb window of the encryption tables in bits")
	encryptCmd.Flags().BoolVar(&encryptPublic, "public", false,
		"Encrypt with a single table mod N², without using the secret primes")
	err := viper.BindPFlag("window", encryptCmd.Flags().Lookup("window"))
	handleBindingError(err, "window")
	rootCmd.AddCommand(encryptCmd)
}

var encryptCmd = &cobra.Command{
	Use:   "encrypt <plaintext>...",
	Short: "Encrypt plaintexts in [0, N), printing one ciphertext per line",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		actx, err := arithContext()
		if err != nil {
			return err
		}
		ms, err := parseNats(actx, args)
		if err != nil {
			return err
		}
		pk, sk, err := loadKeys(actx)
		if err != nil {
			return err
		}

		window := paillier.WithWindow(viper.GetInt("window"))
		var enc *paillier.Encrypter
		if encryptPublic {
			enc, err = paillier.NewPublicEncrypter(actx, pk, window)
		} else {
			enc, err = paillier.NewEncrypter(actx, sk, window)
		}
		if err != nil {
			return errors.Wrap(err, "failed to prepare the encryption tables")
		}
		defer enc.Close()

		cts, err := paillier.EncryptBatch(enc, workerPool(), ms)
		if err != nil {
			return errors.Wrap(err, "encryption failed")
		}
		return printCiphertexts(cmd, cts)
	},
}

func printCiphertexts(cmd *cobra.Command, cts []*paillier.Ciphertext) error {
	actx, err := arithContext()
	if err != nil {
		return err
	}
	for _, ct := range cts {
		if err = printNats(cmd, actx, ct.Nat()); err != nil {
			return err
		}
	}
	return nil
}
