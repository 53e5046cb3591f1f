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

// go/src/cli/cli/serve.go
package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	logger "github.com/sphinx-core/qvault/src/log"
	"github.com/sphinx-core/qvault/src/server"
)

func newServeCommand(opts *options) *cobra.Command {
	var listen, driver string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the vault server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if listen != "" {
				cfg.Server.Listen = listen
			}
			if driver != "" {
				cfg.Store.Driver = driver
			}
			srv, err := server.NewServer(cfg)
			if err != nil {
				return err
			}
			logger.Infof("Starting vault server on %s (%s store in %s)", cfg.Server.Listen, cfg.Store.Driver, cfg.DataDir)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address")
	cmd.Flags().StringVar(&driver, "store", "", "store driver (leveldb, sqlite, memory)")
	return cmd
}
