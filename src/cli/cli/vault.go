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

// go/src/cli/cli/vault.go
package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sphinx-core/qvault/src/common"
	sign "github.com/sphinx-core/qvault/src/core/sphincs/sign/backend"
	"github.com/sphinx-core/qvault/src/core/vault"
)

func newRegisterCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "register <vault-id>",
		Short: "Bind a vault to the owner and the local public key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireOwner(); err != nil {
				return err
			}
			k, err := opts.loadKey()
			if err != nil {
				return err
			}
			fp, err := opts.client().Register(cmd.Context(), args[0], opts.owner, k.pkBytes)
			if errors.Is(err, vault.ErrAlreadyRegistered) {
				return fmt.Errorf("vault %s is already bound to a different owner or key", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "vault %s registered to %s (key %s)\n", args[0], opts.owner, fp)
			return nil
		},
	}
}

func newLockCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "lock <vault-id>",
		Short: "Lock a vault and print its challenge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireOwner(); err != nil {
				return err
			}
			c, err := opts.client().Lock(cmd.Context(), args[0], opts.owner)
			if err != nil {
				return err
			}
			printChallenge(cmd.OutOrStdout(), args[0], c)
			return nil
		},
	}
}

func newRechallengeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rechallenge <vault-id>",
		Short: "Replace the challenge of a locked vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireOwner(); err != nil {
				return err
			}
			c, err := opts.client().Rechallenge(cmd.Context(), args[0], opts.owner)
			if err != nil {
				return err
			}
			printChallenge(cmd.OutOrStdout(), args[0], c)
			return nil
		},
	}
}

func newUnlockCommand(opts *options) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "unlock <vault-id>",
		Short: "Sign the vault's challenge and run every verification step",
		Long: `unlock signs the current challenge with the local key, uploads the
signature in chunks and drives the server through every verification step.
A vault whose last session was aborted needs a fresh "qvault lock" first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]
			k, err := opts.loadKey()
			if err != nil {
				return err
			}
			client := opts.client()
			st, err := client.Status(ctx, id)
			if err != nil {
				return err
			}
			switch {
			case st.Lock != vault.Locked || st.Challenge == nil:
				return fmt.Errorf("vault %s is not locked", id)
			case st.Phase == vault.PhaseAborted:
				return fmt.Errorf("vault %s: last session aborted (%s); lock it again for a fresh challenge", id, st.AbortReason)
			case st.Phase != vault.PhaseEmpty:
				return fmt.Errorf("vault %s: a session is already in phase %s", id, st.Phase)
			}
			if string(st.PublicKey) != string(k.pkBytes) {
				return fmt.Errorf("vault %s is bound to key %s, local key is %s",
					id, common.Fingerprint(st.PublicKey), common.Fingerprint(k.pkBytes))
			}

			sig, err := sign.NewSphincsManager(k.km, k.km.Params).SignMessage(st.Challenge, k.sk)
			if err != nil {
				return fmt.Errorf("failed to sign challenge: %w", err)
			}

			w := cmd.OutOrStdout()
			err = vault.Drive(ctx, client, id, sig, func(done, total int, op string) {
				if !quiet {
					fmt.Fprintf(w, "[%2d/%d] %s\n", done, total, op)
				}
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "vault %s unlocked\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print step progress")
	return cmd
}

func newStatusCommand(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status <vault-id>",
		Short: "Show the lock state and session progress of a vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.client().Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}
			printStatus(cmd.OutOrStdout(), st)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw status as JSON")
	return cmd
}

func newAbortCommand(opts *options) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "abort <vault-id>",
		Short: "Abort the in-flight unlock session of a vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().Abort(cmd.Context(), args[0], reason); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "vault %s: session aborted\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "aborted by operator", "reason recorded with the abort")
	return cmd
}
