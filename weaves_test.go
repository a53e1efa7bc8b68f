package folio

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeaveScanMap(t *testing.T) {
	type testAccounts struct {
		EditedAt sql.NullTime `@:"edited_at"`
		Id       int64        `@:"id" @primary:"true"`
		Logins   int32        `@:"logins"`
		Name     string       `@:"name"`
	}
	defer PurgeWeaves()
	weave := UseWith[testAccounts](WeaveConfig{NoCache: true})

	assert.Equal(t, "testaccounts", weave.Table)
	assert.Equal(t, "id", weave.PrimaryColumn)
	assert.Len(t, weave.Fields, 4)

	data := []map[string]any{
		{
			"id":        int64(1),
			"name":      "foo",
			"edited_at": time.Date(2009, time.January, 2, 3, 0, 0, 0, time.UTC),
			"logins":    int64(7),
		},
		{
			"id":        int64(2),
			"name":      []byte("bar"),
			"edited_at": nil,
		},
	}
	expected := []testAccounts{
		{
			EditedAt: sql.NullTime{
				Time:  time.Date(2009, time.January, 2, 3, 0, 0, 0, time.UTC),
				Valid: true,
			},
			Id:     1,
			Logins: 7,
			Name:   "foo",
		},
		{Id: 2, Name: "bar"},
	}
	for i, row := range data {
		actual, err := weave.ScanMap(row)
		require.NoError(t, err)
		assert.Equal(t, expected[i], *actual)
	}
}

func TestWeavePrimaryConfig(t *testing.T) {
	defer PurgeWeaves()
	assert.Equal(t, "event_id", UseWith[map[string]any](WeaveConfig{NoCache: true, Primary: "event_id", Table: "events"}).PrimaryColumn)
	assert.Empty(t, UseWith[map[string]any](WeaveConfig{NoCache: true, Table: "events"}).PrimaryColumn)

	type testUntagged struct {
		Id int64 `@:"id"`
	}
	assert.Empty(t, UseWith[testUntagged](WeaveConfig{NoCache: true}).PrimaryColumn)
	assert.Equal(t, "uuid", UseWith[testUntagged](WeaveConfig{NoCache: true, Primary: "uuid"}).PrimaryColumn)
}

func TestWeaveScanMapInvalidColumn(t *testing.T) {
	type testAccounts struct {
		Id int64 `@:"id"`
	}
	defer PurgeWeaves()
	weave := UseWith[testAccounts](WeaveConfig{NoCache: true, Table: "accounts"})

	_, err := weave.ScanMap(map[string]any{"id": int64(1), "missing": "x"})
	var invalid ErrorInvalidColumn
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, ErrorInvalidColumn{Column: "missing", Table: "accounts"}, invalid)

	_, err = weave.ScanMap(map[string]any{"id": "not a number"})
	assert.Error(t, err)
}

func TestWeaveScanMapModel(t *testing.T) {
	defer PurgeWeaves()
	weave := UseWith[map[string]any](WeaveConfig{NoCache: true, Table: "anything"})
	assert.Equal(t, "anything", weave.Table)

	row, err := weave.ScanMap(map[string]any{"a": 1, "b": "two"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1, "b": "two"}, *row)
}

type testConfigurable struct {
	Id int64 `@:"id"`
}

func (testConfigurable) WeaveConfig() WeaveConfig {
	return WeaveConfig{Table: "configured"}
}

func TestUseCache(t *testing.T) {
	defer PurgeWeaves()
	first := Use[testConfigurable]()
	assert.Equal(t, "configured", first.Table)
	assert.Same(t, first, Use[testConfigurable](), "expected cached weave")

	PurgeWeaves()
	assert.NotSame(t, first, Use[testConfigurable](), "expected new weave after purge")
	assert.NotSame(t,
		UseWith[testConfigurable](WeaveConfig{NoCache: true}),
		UseWith[testConfigurable](WeaveConfig{NoCache: true}),
		"expected NoCache to build a new weave")
}

func TestWeaveScan(t *testing.T) {
	type testPosts struct {
		Id    int64  `@:"id"`
		Title string `@:"title"`
	}
	defer PurgeWeaves()
	weave := UseWith[testPosts](WeaveConfig{NoCache: true})

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery("SELECT").WillReturnRows(mock.NewRows([]string{"id", "title"}).AddRow(int64(4), "hello"))

	rows, err := db.Query("SELECT")
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next(), "expected a row")

	row, err := weave.Scan(rows)
	require.NoError(t, err)
	assert.Equal(t, testPosts{Id: 4, Title: "hello"}, *row)
}
