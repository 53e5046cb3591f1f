// MIT License
//
// # Copyright (c) 2024 sphinx-core
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// go/src/cli/cli/keys.go
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/sphinx-core/qvault/src/common"
	logger "github.com/sphinx-core/qvault/src/log"
)

func newKeygenCommand(opts *options) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an SLH-DSA-SHA2-128s key pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, km, err := opts.keyStore()
			if err != nil {
				return err
			}
			if _, err := os.Stat(ks.Path()); err == nil && !force {
				return fmt.Errorf("key file %s already exists (use --force to replace it)", ks.Path())
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			sk, pk, err := km.GenerateKey()
			if err != nil {
				return fmt.Errorf("failed to generate keys: %w", err)
			}
			skBytes, pkBytes, err := km.SerializeKeyPair(sk, pk)
			if err != nil {
				return err
			}
			if err := ks.SaveKeyPair(skBytes, pkBytes); err != nil {
				return err
			}
			logger.Infof("key pair written to %s", ks.Path())

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "public key:  %s\n", common.BytesToHexWithPrefix(pkBytes))
			fmt.Fprintf(w, "fingerprint: %s\n", common.Fingerprint(pkBytes))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing key")
	return cmd
}

func newPubkeyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "pubkey",
		Short: "Print the public key and its fingerprint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := opts.loadKey()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "public key:  %s\n", common.BytesToHexWithPrefix(k.pkBytes))
			fmt.Fprintf(w, "fingerprint: %s\n", common.Fingerprint(k.pkBytes))
			return nil
		},
	}
}
