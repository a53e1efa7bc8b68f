package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/evantbyrne/folio"
	"github.com/evantbyrne/folio/redistokens"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type Row = map[string]any

// Options holds everything the router needs. Tokens is optional; without it
// continuation tokens are only generated, never persisted. Primary orders
// pages when the request has no sort.
type Options struct {
	DB      *sql.DB
	Dialect folio.Dialect
	Logger  zerolog.Logger
	Primary string
	Table   string
	Tokens  *redistokens.Store
	View    *folio.View
	Window  int
}

type server struct {
	Options
}

func NewRouter(options Options) http.Handler {
	if options.View == nil {
		options.View = folio.Deny()
	}
	s := &server{Options: options}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(s.withLogger)
	r.Use(chimw.Recoverer)

	r.Get("/health", s.health)
	r.Get("/rows", s.rowsJson)
	r.Get("/rows.html", s.rowsHtml)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		renderJsonError(w, r, folio.ErrorNotFound{})
	})
	return r
}

func (s *server) withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := s.Logger.With().Str("request_id", chimw.GetReqID(r.Context())).Logger()
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
	})
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.DB.PingContext(r.Context()); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
		writeJson(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}

// paginate builds the request's paginator and reads its page. Tokens handed
// out for the neighbouring pages are persisted when a store is configured.
func (s *server) paginate(r *http.Request) (*folio.Paginator[*Row], *folio.Page[*Row], error) {
	ctx := r.Context()
	query := folio.QueryWith[Row](folio.WeaveConfig{Primary: s.Primary, Table: s.Table}).
		Database(s.DB).
		Dialect(s.Dialect)

	stream := folio.QueryView(r, query, s.View).Filter().Sort()
	if s.Tokens != nil {
		stream = stream.ResolveTokens(s.Tokens.Resolver(s.Table))
	}
	paginator, err := stream.Paginator()
	if err != nil {
		return nil, nil, err
	}
	if s.Tokens != nil {
		if paginator, err = redistokens.Restore(ctx, s.Tokens, s.Table, paginator); err != nil {
			return nil, nil, err
		}
	}

	page, err := paginator.Page(ctx).Collect()
	if err != nil {
		return nil, nil, err
	}
	if s.Tokens != nil {
		s.saveTokens(ctx, paginator.WithPreviousPageToken(page.PreviousToken).WithNextPageToken(page.NextToken))
	}
	return paginator, page, nil
}

func (s *server) saveTokens(ctx context.Context, paginator *folio.Paginator[*Row]) {
	if err := s.Tokens.Save(ctx, s.Table, paginator); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("could not persist page tokens")
	}
}

func (s *server) rowsJson(w http.ResponseWriter, r *http.Request) {
	_, page, err := s.paginate(r)
	if err != nil {
		renderJsonError(w, r, err)
		return
	}
	writeJson(w, http.StatusOK, page)
}

func (s *server) rowsHtml(w http.ResponseWriter, r *http.Request) {
	paginator, page, err := s.paginate(r)
	if err != nil {
		renderHtmlError(w, r, err)
		return
	}
	data, err := folio.NavData(paginator, r.URL.String(), s.Window)
	if err != nil {
		renderHtmlError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := rowsPage(s.Table, rowColumns(page.Items), page, data).Render(r.Context(), w); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("render rows page")
	}
}

func errorStatus(r *http.Request, err error) (int, string) {
	status := http.StatusInternalServerError
	message := err.Error()
	if ev, ok := err.(folio.ErrorWithStatus); ok {
		status = ev.Status()
	}
	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		message = "Internal server error"
	}
	return status, message
}

func renderHtmlError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := errorStatus(r, err)
	http.Error(w, message, status)
}

func renderJsonError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := errorStatus(r, err)
	writeJson(w, status, map[string]string{"error": message})
}

func writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
