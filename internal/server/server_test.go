package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/evantbyrne/folio"
	"github.com/evantbyrne/folio/pqdialect"
	"github.com/evantbyrne/folio/redistokens"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, tokens *redistokens.Store) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	return newTestRouterWith(t, Options{Tokens: tokens})
}

func newTestRouterWith(t *testing.T, options Options) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	options.DB = db
	options.Dialect = pqdialect.PqDialect{}
	options.Logger = zerolog.Nop()
	options.Table = "posts"
	options.View = folio.AllowSort("*").AllowFilter("title", "eq", "like").AllowPageSize(10)
	options.Window = 1
	return NewRouter(options), mock
}

func expectPage(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT count(*) FROM "posts"`).
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(int64(5)))
	mock.ExpectQuery(`SELECT * FROM "posts" LIMIT $1 OFFSET $2`).
		WithArgs(2, 2).
		WillReturnRows(mock.NewRows([]string{"id", "title"}).
			AddRow(int64(3), "c").
			AddRow(int64(4), "d"))
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRowsJson(t *testing.T) {
	router, mock := newTestRouter(t, nil)
	expectPage(mock)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/rows?page=2&size=2", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body struct {
		CurrentPage   int              `json:"current_page"`
		HasNext       bool             `json:"has_next"`
		HasPrevious   bool             `json:"has_previous"`
		Items         []map[string]any `json:"items"`
		NextToken     string           `json:"next_token"`
		PreviousToken string           `json:"previous_token"`
		TotalCount    int              `json:"total_count"`
		TotalPages    int              `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.CurrentPage)
	assert.Equal(t, 3, body.TotalPages)
	assert.Equal(t, 5, body.TotalCount)
	assert.True(t, body.HasNext)
	assert.True(t, body.HasPrevious)
	assert.Equal(t, folio.EncodeCursor(4, 2), body.NextToken)
	assert.Equal(t, folio.EncodeCursor(0, 2), body.PreviousToken)
	assert.Equal(t, []map[string]any{{"id": float64(3), "title": "c"}, {"id": float64(4), "title": "d"}}, body.Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRowsJsonToken(t *testing.T) {
	router, mock := newTestRouter(t, nil)
	expectPage(mock)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/rows?token="+folio.EncodeCursor(2, 2), nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRowsJsonErrors(t *testing.T) {
	router, mock := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/rows?size=1000", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/rows?page=x", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid page number"}`, w.Body.String())

	for _, sort := range []string{"id,", "-", ",title"} {
		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/rows?sort="+sort, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, sort)
		assert.JSONEq(t, `{"error":"Invalid sort column"}`, w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/rows?token="+folio.EncodeCursor(1e300, 2), nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid page token"}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())

	mock.ExpectQuery(`SELECT count(*) FROM "posts"`).WillReturnError(errors.New("connection refused"))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/rows", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRowsOrderByPrimary(t *testing.T) {
	router, mock := newTestRouterWith(t, Options{Primary: "id"})
	mock.ExpectQuery(`SELECT count(*) FROM "posts"`).
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(int64(5)))
	mock.ExpectQuery(`SELECT * FROM "posts" ORDER BY "id" ASC LIMIT $1 OFFSET $2`).
		WithArgs(2, 2).
		WillReturnRows(mock.NewRows([]string{"id", "title"}).AddRow(int64(3), "c"))
	mock.ExpectQuery(`SELECT count(*) FROM "posts"`).
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(int64(5)))
	mock.ExpectQuery(`SELECT * FROM "posts" ORDER BY "title" DESC LIMIT $1 OFFSET $2`).
		WithArgs(2, 0).
		WillReturnRows(mock.NewRows([]string{"id", "title"}).AddRow(int64(4), "d"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/rows?page=2&size=2", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/rows?size=2&sort=-title", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRowsHtml(t *testing.T) {
	router, mock := newTestRouter(t, nil)
	expectPage(mock)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/rows.html?page=2&size=2", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	html := w.Body.String()
	assert.Contains(t, html, "<caption>posts: page 2 of 3</caption>")
	assert.Contains(t, html, "<th>id</th><th>title</th>")
	assert.Contains(t, html, "<tr><td>3</td><td>c</td></tr>")
	assert.Contains(t, html, `aria-current="page">2</a>`)
	assert.Contains(t, html, `rel="next"`)
	assert.True(t, strings.HasSuffix(html, "</body></html>"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRowsPersistTokens(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	mr.HSet("test:posts:2", "3", "remembered")

	router, mock := newTestRouter(t, redistokens.New(client, "test", time.Hour))
	expectPage(mock)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/rows?page=2&size=2", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "remembered", body["next_token"])
	assert.Equal(t, "remembered", mr.HGet("test:posts:2", "3"))
	assert.Equal(t, folio.EncodeCursor(0, 2), mr.HGet("test:posts:2", "1"))
	assert.Equal(t, time.Hour, mr.TTL("test:posts:2"))
	assert.Equal(t, "2:3", mr.HGet("test:posts:index", "remembered"))

	// The remembered token is accepted on the way back in.
	mock.ExpectQuery(`SELECT count(*) FROM "posts"`).
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(int64(5)))
	mock.ExpectQuery(`SELECT * FROM "posts" LIMIT $1 OFFSET $2`).
		WithArgs(2, 4).
		WillReturnRows(mock.NewRows([]string{"id", "title"}).AddRow(int64(5), "e"))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/rows?token=remembered", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(3), body["current_page"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/rows?token=forgotten", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
