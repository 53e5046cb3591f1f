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

// go/src/cli/cli/cli.go
package cli

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/sphinx-core/qvault/src/common"
	logger "github.com/sphinx-core/qvault/src/log"
)

// Execute runs the qvault command line.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "qvault",
		Short: "Post-quantum vault locking with stepwise SLH-DSA verification",
		Long: `qvault locks vaults behind a fresh challenge and unlocks them only after
an SLH-DSA-SHA2-128s signature over that challenge has been uploaded in
chunks and verified step by step.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "config file (default ~/.qvault/config.yaml)")
	f.StringVar(&opts.serverURL, "server", "", "vault server URL")
	f.StringVar(&opts.keyDir, "key-dir", "", "directory holding the signing key")
	f.StringVar(&opts.dataDir, "data-dir", "", "server data directory")
	f.StringVar(&opts.logLevel, "log-level", "", "log level (DEBUG, INFO, WARN, ERROR)")
	f.StringVar(&opts.owner, "owner", defaultOwner(), "owner identity presented to the server")

	root.AddCommand(
		newKeygenCommand(opts),
		newPubkeyCommand(opts),
		newServeCommand(opts),
		newRegisterCommand(opts),
		newLockCommand(opts),
		newRechallengeCommand(opts),
		newUnlockCommand(opts),
		newStatusCommand(opts),
		newAbortCommand(opts),
	)
	return root
}

// load resolves the config file and applies flag overrides.
func (o *options) load(cmd *cobra.Command) error {
	var (
		cfg *common.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = common.LoadFile(o.configPath)
	} else {
		cfg, err = common.LoadGlobal()
	}
	if err != nil {
		return err
	}
	if o.serverURL != "" {
		cfg.Server.URL = o.serverURL
	}
	if o.keyDir != "" {
		cfg.KeyDir = o.keyDir
	}
	if o.dataDir != "" {
		cfg.DataDir = o.dataDir
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	lvl, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetLevel(lvl)
	o.cfg = cfg
	return nil
}

func defaultOwner() string {
	if owner := os.Getenv("QVAULT_OWNER"); owner != "" {
		return owner
	}
	return os.Getenv("USER")
}
