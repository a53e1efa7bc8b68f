package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/evantbyrne/folio"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newPageCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "page",
		Short: "Print one page of a table",
		Example: `  # Third page of posts, 10 per page, newest first
  folio page --driver pq --dsn postgres://localhost/blog --table posts --page 3 --size 10 --sort -id

  # Same as YAML from a Mongo collection
  folio page --driver mongo --table posts --output yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			flags := cmd.Flags()
			if flags.Changed("driver") {
				cfg.Database.Driver, _ = flags.GetString("driver")
			}
			if flags.Changed("dsn") {
				cfg.Database.DSN, _ = flags.GetString("dsn")
			}
			if flags.Changed("table") {
				cfg.Table, _ = flags.GetString("table")
			}
			if flags.Changed("primary") {
				cfg.Primary, _ = flags.GetString("primary")
			}
			if flags.Changed("size") {
				cfg.Pagination.PageSize, _ = flags.GetInt("size")
			}
			pageNumber, _ := flags.GetInt("page")
			output, _ := flags.GetString("output")
			sort, _ := flags.GetStringSlice("sort")
			if output != "json" && output != "yaml" {
				return fmt.Errorf("folio: unsupported output format '%s'", output)
			}

			ctx := cmd.Context()
			source, closeSource, err := a.open(ctx, cfg, sort)
			if err != nil {
				return err
			}
			defer closeSource()

			paginator, err := folio.New(ctx, source, cfg.Pagination.PageSize)
			if err != nil {
				return err
			}
			paginator = paginator.
				WithCurrentPage(pageNumber).
				WithTokenGenerator(folio.OffsetTokens(paginator.PageSize()))
			zerolog.Ctx(ctx).Debug().
				Int("page", paginator.CurrentPage()).
				Int("pages", paginator.TotalPages()).
				Msg("reading page")

			page, err := paginator.Page(ctx).Collect()
			if err != nil {
				return err
			}
			return writePage(cmd.OutOrStdout(), output, page)
		},
	}

	cmd.Flags().String("driver", "", "database driver: pq, mysql, sqlite or mongo")
	cmd.Flags().String("dsn", "", "SQL data source name")
	cmd.Flags().String("table", "", "table or collection to read")
	cmd.Flags().String("primary", "", "SQL column that orders pages when no sort is given")
	cmd.Flags().Int("page", 1, "page number, clamped to the available pages")
	cmd.Flags().Int("size", folio.DefaultPageSize, "page size")
	cmd.Flags().StringSlice("sort", nil, "sort columns, prefix with - for descending")
	cmd.Flags().StringP("output", "o", "json", "output format: json or yaml")
	return cmd
}

func writePage[T any](w io.Writer, output string, page *folio.Page[T]) error {
	if output == "yaml" {
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(page); err != nil {
			return err
		}
		return encoder.Close()
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(page)
}
