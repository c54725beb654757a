// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/datacopilot-tui/internal/server"
)

func newServeDevCommand(e *env) *cobra.Command {
	var (
		addr   string
		users  []string
		rate   float64
		burst  int
		noRate bool
	)
	cmd := &cobra.Command{
		Use:   "serve-dev",
		Short: "Run an in-memory research service for local development",
		Long: `Run an in-memory server with the same endpoints as the research service.
Answers echo the question; nothing is persisted.`,
		Example: `  datacopilot serve-dev --user ada:lovelace
  datacopilot --server http://127.0.0.1:8000 tui`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := e.logger.Named("server")

			store := server.NewStore()
			for _, u := range users {
				name, password, ok := strings.Cut(u, ":")
				if !ok || name == "" || password == "" {
					return NewUsageError("--user must be NAME:PASSWORD, got %q", u)
				}
				if err := store.AddUser(name, password); err != nil {
					return NewCommandError("serve-dev", "could not add user "+name, err)
				}
			}

			srv := server.NewServer(store).WithLogger(logger)
			if !noRate {
				srv = srv.WithRateLimiter(server.NewRateLimiter(rate, burst))
			}

			l, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", addr, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s http://%s\n", SuccessStyle.Render("Dev server listening on"), l.Addr())

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Serve(l) }()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("Shutdown failed", zap.Error(err))
			}
			l.Close()

			if err := <-errCh; err != nil && !errors.Is(err, net.ErrClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().StringArrayVar(&users, "user", nil, "pre-registered NAME:PASSWORD (repeatable)")
	cmd.Flags().Float64Var(&rate, "rate", 20, "requests per second per client")
	cmd.Flags().IntVar(&burst, "burst", 50, "request burst per client")
	cmd.Flags().BoolVar(&noRate, "no-rate-limit", false, "disable rate limiting")
	return cmd
}
