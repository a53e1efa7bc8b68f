package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evantbyrne/folio"
	"github.com/evantbyrne/folio/internal/server"
	"github.com/evantbyrne/folio/redistokens"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a table page by page over HTTP",
		Long: `Serve exposes GET /rows (JSON page envelope), GET /rows.html (HTML table with
page navigation) and GET /health. Continuation tokens are persisted in Redis
when redis.addr is configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.HTTP.Addr = addr
			}
			if cfg.Table == "" {
				return fmt.Errorf("folio: no table configured")
			}

			db, dialect, err := openSQL(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			view := folio.AllowSort("*").
				AllowPageSize(cfg.Pagination.MaxPageSize).
				PageSize(cfg.Pagination.PageSize)
			for _, column := range cfg.Pagination.Filters {
				view.AllowFilter(column, "*")
			}

			options := server.Options{
				DB:      db,
				Dialect: dialect,
				Logger:  a.logger,
				Primary: cfg.Primary,
				Table:   cfg.Table,
				View:    view,
				Window:  cfg.Pagination.Window,
			}
			if cfg.Redis.Addr != "" {
				client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
				defer client.Close()
				if err := client.Ping(cmd.Context()).Err(); err != nil {
					return fmt.Errorf("folio: redis: %w", err)
				}
				options.Tokens = redistokens.New(client, cfg.Redis.Prefix, cfg.Redis.TTL)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			srv := &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           server.NewRouter(options),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errs := make(chan error, 1)
			go func() {
				a.logger.Info().Str("addr", cfg.HTTP.Addr).Str("table", cfg.Table).Msg("listening")
				errs <- srv.ListenAndServe()
			}()

			select {
			case err := <-errs:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				a.logger.Info().Msg("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
	cmd.Flags().String("addr", "", "listen address, overrides http.addr")
	return cmd
}
