// Package nbatest provides an in-process fake of the NBA REST API for tests.
//
// Every request is recorded. Query-like endpoints echo what they received so
// tests can assert on the URL and spec the client produced; metadata
// endpoints return small canned documents.
package nbatest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// PingResponse is the body of a healthy /ping.
const PingResponse = "NBA Service is up and running!"

// ArchiveBody is served by the DwCA endpoints.
const ArchiveBody = "PK\x03\x04fake-dwca-archive"

// Request is a recorded request.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   string
}

// QuerySpec returns the spec carried by the request: the _querySpec
// parameter for GET, the body for POST.
func (r Request) QuerySpec() string {
	if r.Method == http.MethodPost {
		return r.Body
	}
	return r.Query.Get("_querySpec")
}

// Echo is the document returned by query-like endpoints.
type Echo struct {
	Service   string          `json:"service"`
	Operation string          `json:"operation"`
	Param     string          `json:"param,omitempty"`
	Method    string          `json:"method"`
	QuerySpec json.RawMessage `json:"querySpec,omitempty"`
}

// Server is a fake NBA.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	requests  []Request
	overrides map[string]http.HandlerFunc
}

// New starts a fake NBA and stops it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{overrides: make(map[string]http.HandlerFunc)}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

// BaseURL returns the API root with a trailing slash.
func (s *Server) BaseURL() string { return s.URL + "/" }

// Override replaces the handler for an exact request path such as
// "/specimen/query/".
func (s *Server) Override(path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[path] = h
}

// Requests returns the recorded requests in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns the number of recorded requests.
func (s *Server) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Reset clears recorded requests and overrides.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
	s.overrides = make(map[string]http.HandlerFunc)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Body:   string(body),
		})
		h := s.overrides[r.URL.Path]
		s.mu.Unlock()

		if h != nil {
			h(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Use(middleware.StripSlashes)

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, PingResponse)
	})

	r.Route("/metadata", func(r chi.Router) {
		r.Get("/getSettings", writeJSONFunc(map[string]any{
			"operator.contains.min_term_length": 3,
			"operator.contains.max_term_length": 15,
		}))
		r.Get("/getAllowedDateFormats", writeJSONFunc([]string{"yyyy-MM-dd", "yyyy-MM-dd'T'HH:mm:ssZ", "yyyy"}))
		r.Get("/getSourceSystems", writeJSONFunc([]map[string]string{
			{"code": "CRS", "name": "Naturalis - Zoology and Geology catalogues"},
			{"code": "BRAHMS", "name": "Naturalis - Botany catalogues"},
		}))
		r.Get("/getControlledLists", writeJSONFunc([]string{"PhaseOrStage", "Sex", "SpecimenTypeStatus", "TaxonomicStatus"}))
		r.Get("/getControlledList/{field}", func(w http.ResponseWriter, r *http.Request) {
			switch chi.URLParam(r, "field") {
			case "Sex":
				writeJSON(w, http.StatusOK, []string{"male", "female", "mixed", "hermaphrodite"})
			default:
				writeJSON(w, http.StatusOK, []string{"value"})
			}
		})
		r.Get("/getRestServices", writeJSONFunc([]map[string]string{
			{"endPoint": "/specimen/query", "method": "GET"},
		}))
	})

	r.Get("/geo/getGeoJsonForLocality/{locality}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "locality") == "Nowhere" {
			writeJSON(w, http.StatusOK, map[string]any{})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"type":        "MultiPolygon",
			"coordinates": [][][][]float64{{{{4.9, 52.3}, {5.0, 52.3}, {5.0, 52.4}, {4.9, 52.3}}}},
		})
	})
	r.Get("/specimen/getNamedCollections", writeJSONFunc([]string{"Living Dinos", "Strange Beasts"}))

	r.Route("/{service}", func(r chi.Router) {
		r.Get("/query", s.echo("query"))
		r.Post("/query", s.echo("query"))
		r.Get("/groupByScientificName", s.echo("groupByScientificName"))
		r.Post("/groupByScientificName", s.echo("groupByScientificName"))
		r.Get("/count", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "42")
		})
		r.Get("/getDistinctValues/{field}", s.echo("getDistinctValues"))
		r.Get("/find/{id}", s.echo("find"))
		r.Get("/findByIds/{ids}", s.echo("findByIds"))

		r.Get("/metadata/getSettings", func(w http.ResponseWriter, r *http.Request) {
			svc := chi.URLParam(r, "service")
			writeJSON(w, http.StatusOK, map[string]any{
				"index.max_result_window": 10000,
				svc + ".group_by_scientific_name.max_num_buckets": 10000,
			})
		})
		r.Get("/metadata/getPaths", writeJSONFunc([]string{
			"unitID", "sourceSystem.code", "gatheringEvent.country",
			"identifications.scientificName.genusOrMonomial",
		}))
		r.Get("/metadata/getFieldInfo", s.echo("getFieldInfo"))
		r.Get("/metadata/isOperatorAllowed/{field}/{operator}", func(w http.ResponseWriter, r *http.Request) {
			allowed := chi.URLParam(r, "operator") != "MATCHES"
			writeJSON(w, http.StatusOK, allowed)
		})

		r.Get("/dwca/getDataSetNames", writeJSONFunc([]string{"amphibia-and-reptilia", "aves", "mammalia"}))
		r.Get("/dwca/getDataSet/{name}", writeArchive)
		r.Get("/dwca/query", writeArchive)
	})

	return r
}

func (s *Server) echo(operation string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e := Echo{
			Service:   chi.URLParam(r, "service"),
			Operation: operation,
			Method:    r.Method,
		}
		for _, key := range []string{"field", "id", "ids"} {
			if v := chi.URLParam(r, key); v != "" {
				e.Param = v
			}
		}

		var raw string
		if r.Method == http.MethodPost {
			b, _ := io.ReadAll(r.Body)
			raw = string(b)
		} else {
			raw = r.URL.Query().Get("_querySpec")
		}
		if raw != "" {
			if !json.Valid([]byte(raw)) {
				writeJSON(w, http.StatusBadRequest, map[string]any{
					"httpStatus": map[string]any{"code": http.StatusBadRequest, "message": "invalid querySpec"},
				})
				return
			}
			e.QuerySpec = json.RawMessage(raw)
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func writeArchive(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/zip")
	_, _ = io.WriteString(w, ArchiveBody)
}

func writeJSONFunc(v any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) { writeJSON(w, http.StatusOK, v) }
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteJSON is a helper for override handlers.
func WriteJSON(w http.ResponseWriter, status int, v any) { writeJSON(w, status, v) }
