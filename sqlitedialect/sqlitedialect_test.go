package sqlitedialect

import (
	"testing"

	"github.com/evantbyrne/folio"
	"golang.org/x/exp/slices"
)

func TestColumn(t *testing.T) {
	dialect := SqliteDialect{}
	expected := map[string]folio.SqlColumn{
		"`x`":     folio.Column("x"),
		"`x`.`y`": folio.Column("x.y"),
		"`x```":   folio.Column("x`"),
	}
	for expected, column := range expected {
		sql := column.StringForDialect(dialect)
		if expected != sql {
			t.Errorf("Expected '%+v', got '%+v'", expected, sql)
		}
	}
}

func TestBuildSelect(t *testing.T) {
	type testModel struct {
		Id    int64  `@:"id" @primary:"true"`
		Title string `@:"title"`
	}
	defer folio.PurgeWeaves()

	dialect := SqliteDialect{}
	query := folio.QueryWith[testModel](folio.WeaveConfig{NoCache: true, Table: "posts"}).
		Select("id", folio.As("title", "t")).
		Filter("id", "IN", []int64{3, 5, 8}).
		Offset(4)

	config := query.Config
	config.Fields = query.Weave.Fields
	config.Table = query.Weave.Table

	expectedArgs := []any{int64(3), int64(5), int64(8), -1, 4}
	expectedSql := "SELECT `id`,`title` AS `t` FROM `posts` WHERE `id` IN (?,?,?) LIMIT ? OFFSET ?"
	queryString, args, err := dialect.BuildSelect(config)
	if err != nil {
		t.Fatalf("Unexpected error %s", err.Error())
	}
	if queryString != expectedSql {
		t.Errorf("Expected '%s', got '%s'", expectedSql, queryString)
	}
	if !slices.Equal(args, expectedArgs) {
		t.Errorf("Expected '%v', got '%v'", expectedArgs, args)
	}

	// Count keeps neither the implicit LIMIT nor the OFFSET.
	config.Count = true
	expectedArgs = []any{int64(3), int64(5), int64(8)}
	expectedSql = "SELECT count(*) FROM `posts` WHERE `id` IN (?,?,?)"
	queryString, args, err = dialect.BuildSelect(config)
	if err != nil {
		t.Fatalf("Unexpected error %s", err.Error())
	}
	if queryString != expectedSql {
		t.Errorf("Expected '%s', got '%s'", expectedSql, queryString)
	}
	if !slices.Equal(args, expectedArgs) {
		t.Errorf("Expected '%v', got '%v'", expectedArgs, args)
	}
}

func TestBuildSelectInvalidOperator(t *testing.T) {
	dialect := SqliteDialect{}
	config := folio.QueryConfig{
		Filters: []folio.FilterClause{folio.Q("id", "; DROP TABLE posts", 1)},
		Table:   "posts",
	}
	if _, _, err := dialect.BuildSelect(config); err == nil {
		t.Error("Expected error for invalid operator")
	}
}
