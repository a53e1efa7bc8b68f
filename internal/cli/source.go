package cli

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/evantbyrne/folio"
	"github.com/evantbyrne/folio/internal/config"
	"github.com/evantbyrne/folio/mongosource"
	"github.com/evantbyrne/folio/mysqldialect"
	"github.com/evantbyrne/folio/pqdialect"
	"github.com/evantbyrne/folio/sqlitedialect"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Row = map[string]any

type sourceOpener func(ctx context.Context, cfg config.Cfg, sort []string) (folio.Source[*Row], func(), error)

// openSQL connects to the configured SQL database and returns the dialect
// matching its driver.
func openSQL(cfg config.Cfg) (*sql.DB, folio.Dialect, error) {
	switch cfg.Database.Driver {
	case "pq", "postgres", "pgx":
		db, err := pqdialect.Open(cfg.Database.DSN)
		return db, pqdialect.PqDialect{}, err
	case "mysql":
		db, err := mysqldialect.Open(cfg.Database.DSN)
		return db, mysqldialect.MysqlDialect{}, err
	case "sqlite", "sqlite3":
		db, err := sqlitedialect.Open(cfg.Database.DSN)
		return db, sqlitedialect.SqliteDialect{}, err
	}
	return nil, nil, fmt.Errorf("folio: unsupported SQL driver '%s'", cfg.Database.Driver)
}

func openSource(ctx context.Context, cfg config.Cfg, sort []string) (folio.Source[*Row], func(), error) {
	if cfg.Table == "" {
		return nil, nil, fmt.Errorf("folio: no table configured")
	}

	if cfg.Database.Driver == "mongo" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return nil, nil, err
		}
		order := make([]bson.E, 0, len(sort))
		for _, column := range sort {
			if name, desc := strings.CutPrefix(column, "-"); desc {
				order = append(order, bson.E{Key: name, Value: -1})
			} else {
				order = append(order, bson.E{Key: column, Value: 1})
			}
		}
		collection := client.Database(cfg.Mongo.Database).Collection(cfg.Table)
		return mongosource.New[*Row](collection, nil, order...), func() { client.Disconnect(context.Background()) }, nil
	}

	db, dialect, err := openSQL(cfg)
	if err != nil {
		return nil, nil, err
	}
	query := folio.QueryWith[Row](folio.WeaveConfig{Primary: cfg.Primary, Table: cfg.Table}).
		Database(db).
		Dialect(dialect)
	if len(sort) > 0 {
		query = query.Sort(sort...)
	}
	return query, func() { db.Close() }, nil
}
