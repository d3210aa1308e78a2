// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/istvan-fodor/r2a/server"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve schemas and conversions over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "listen address")
	cmd.Flags().String("prefix", "", "URL prefix")
	bindFlag(cmd, "addr", "serve.addr")
	bindFlag(cmd, "prefix", "serve.prefix")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	handler := server.New(a.registry,
		server.WithPrefix(a.cfg.Serve.Prefix),
		server.WithLogger(a.logger),
	)
	srv := &http.Server{
		Addr:              a.cfg.Serve.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	a.logger.Info("serving", zap.String("addr", srv.Addr), zap.String("prefix", a.cfg.Serve.Prefix))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
