package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cronokirby/saferith"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
	"github.com/taurusgroup/crt-paillier/pkg/math/sample"
	"github.com/taurusgroup/crt-paillier/pkg/paillier"
)

var benchCount int

func init() {
	benchCmd.Flags().IntVarP(&benchCount, "count", "n", 100,
		"Number of plaintexts to encrypt and decrypt")
	rootCmd.AddCommand(benchCmd)
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Time key generation, encryption and both decryption paths on a fresh key",
	Long: `Generates a throwaway key with the configured security and statistical
parameters, then times table preparation, batch encryption, and batch decryption
along the generic and fast paths. The key file is not touched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if benchCount < 1 {
			return errors.Errorf("count must be positive, got %d", benchCount)
		}
		actx, err := arithContext()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		pl := workerPool()

		start := time.Now()
		pk, sk, err := paillier.NewKeyGenerator(actx,
			paillier.WithPool(pl),
			paillier.WithMaxAttempts(viper.GetInt("maxAttempts")),
		).Generate(context.Background(), viper.GetInt("security"), viper.GetInt("statistical"))
		if err != nil {
			return errors.Wrap(err, "key generation failed")
		}
		report(out, "keygen", 1, time.Since(start))

		start = time.Now()
		enc, err := paillier.NewEncrypter(actx, sk, paillier.WithWindow(viper.GetInt("window")))
		if err != nil {
			return errors.Wrap(err, "failed to prepare the encryption tables")
		}
		defer enc.Close()
		report(out, "tables", 1, time.Since(start))

		ms := make([]*saferith.Nat, benchCount)
		for i := range ms {
			if ms[i], err = sample.ModN(actx.Rand(), pk.N()); err != nil {
				return err
			}
		}

		start = time.Now()
		cts, err := paillier.EncryptBatch(enc, pl, ms)
		if err != nil {
			return errors.Wrap(err, "encryption failed")
		}
		report(out, "encrypt", benchCount, time.Since(start))

		dec := paillier.NewDecrypter(actx, sk)
		for _, path := range []paillier.Path{paillier.PathGeneric, paillier.PathFast} {
			start = time.Now()
			res, err := paillier.DecryptBatch(dec, pl, path, cts)
			if err != nil {
				return errors.Wrapf(err, "%s decryption failed", path)
			}
			report(out, "decrypt/"+path.String(), benchCount, time.Since(start))
			for i := range ms {
				if res[i].Eq(ms[i]) != 1 {
					return errors.Errorf("%s decryption of item %d does not match", path, i)
				}
			}
		}
		return nil
	},
}

func report(w io.Writer, name string, n int, d time.Duration) {
	jww.DEBUG.Printf("bench %s: %d in %s", name, n, d)
	fmt.Fprintf(w, "%-16s %6d op %14s %14s/op\n", name, n, d.Round(time.Microsecond), (d / time.Duration(n)).Round(time.Nanosecond))
}
