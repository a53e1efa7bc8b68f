package mysqldialect

import (
	"testing"

	"github.com/evantbyrne/folio"
	"golang.org/x/exp/slices"
)

func TestAs(t *testing.T) {
	dialect := MysqlDialect{}
	expected := map[string]folio.SqlAs{
		"`x` AS `alias1`":        folio.As("x", "alias1"),
		"`x` AS `y` AS `alias2`": folio.As(folio.As("x", "y"), "alias2"),
		"count(*) AS `alias3`":   folio.As(folio.Unsafe("count(*)"), "alias3"),
	}
	for expected, alias := range expected {
		sql := alias.StringForDialect(dialect)
		if expected != sql {
			t.Errorf("Expected '%+v', got '%+v'", expected, sql)
		}
	}
}

func TestColumn(t *testing.T) {
	dialect := MysqlDialect{}
	expected := map[string]folio.SqlColumn{
		"`x`":         folio.Column("x"),
		"`x`.`y`":     folio.Column("x.y"),
		"`x`.`y`.`z`": folio.Column("x.y.z"),
		"`x```":       folio.Column("x`"),
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
		Id     int64  `@:"test_id" @primary:"true"`
		Value1 string `@:"test_value_1"`
	}
	defer folio.PurgeWeaves()

	dialect := MysqlDialect{}
	query := folio.QueryWith[testModel](folio.WeaveConfig{NoCache: true})
	config := func() folio.QueryConfig {
		config := query.Config
		config.Fields = query.Weave.Fields
		config.Table = query.Weave.Table
		return config
	}

	expectedArgs := []any{}
	expectedSql := "SELECT * FROM `testmodel`"
	queryString, args, err := dialect.BuildSelect(config())
	if err != nil {
		t.Errorf("Unexpected error %s", err.Error())
	}
	if queryString != expectedSql {
		t.Errorf("Expected '%s', got '%s'", expectedSql, queryString)
	}
	if !slices.Equal(args, expectedArgs) {
		t.Errorf("Expected '%v', got '%v'", expectedArgs, args)
	}

	// WHERE
	query.Filter("test_id", ">", 1).FilterOr(folio.Q("test_value_1", "=", "a"), folio.Q("test_value_1", "IS NULL", nil))
	expectedArgs = []any{1, "a"}
	expectedSql = "SELECT * FROM `testmodel` WHERE `test_id` > ? AND ( `test_value_1` = ? OR `test_value_1` IS NULL )"
	queryString, args, err = dialect.BuildSelect(config())
	if err != nil {
		t.Errorf("Unexpected error %s", err.Error())
	}
	if queryString != expectedSql {
		t.Errorf("Expected '%s', got '%s'", expectedSql, queryString)
	}
	if !slices.Equal(args, expectedArgs) {
		t.Errorf("Expected '%v', got '%v'", expectedArgs, args)
	}

	// OFFSET without LIMIT
	query.Sort("-test_id").Offset(20)
	expectedArgs = []any{1, "a", maxLimit, 20}
	expectedSql = "SELECT * FROM `testmodel` WHERE `test_id` > ? AND ( `test_value_1` = ? OR `test_value_1` IS NULL ) ORDER BY `test_id` DESC LIMIT ? OFFSET ?"
	queryString, args, err = dialect.BuildSelect(config())
	if err != nil {
		t.Errorf("Unexpected error %s", err.Error())
	}
	if queryString != expectedSql {
		t.Errorf("Expected '%s', got '%s'", expectedSql, queryString)
	}
	if !slices.Equal(args, expectedArgs) {
		t.Errorf("Expected '%v', got '%v'", expectedArgs, args)
	}

	// LIMIT + OFFSET
	query.Limit(10)
	expectedArgs = []any{1, "a", 10, 20}
	queryString, args, err = dialect.BuildSelect(config())
	if err != nil {
		t.Errorf("Unexpected error %s", err.Error())
	}
	if queryString != expectedSql {
		t.Errorf("Expected '%s', got '%s'", expectedSql, queryString)
	}
	if !slices.Equal(args, expectedArgs) {
		t.Errorf("Expected '%v', got '%v'", expectedArgs, args)
	}

	// COUNT
	countConfig := config()
	countConfig.Count = true
	expectedArgs = []any{1, "a"}
	expectedSql = "SELECT count(*) FROM `testmodel` WHERE `test_id` > ? AND ( `test_value_1` = ? OR `test_value_1` IS NULL )"
	queryString, args, err = dialect.BuildSelect(countConfig)
	if err != nil {
		t.Errorf("Unexpected error %s", err.Error())
	}
	if queryString != expectedSql {
		t.Errorf("Expected '%s', got '%s'", expectedSql, queryString)
	}
	if !slices.Equal(args, expectedArgs) {
		t.Errorf("Expected '%v', got '%v'", expectedArgs, args)
	}
}

func TestOpenInvalidDsn(t *testing.T) {
	if _, err := Open("not a dsn"); err == nil {
		t.Error("Expected error for malformed DSN")
	}
}
