package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/songrec/internal/models"
	"github.com/desertthunder/songrec/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicRouter(t *testing.T) {
	t.Run("Method Filtering", func(t *testing.T) {
		router := NewBasicRouter()
		router.HandleFunc(http.MethodPost, "/things", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/things", nil))
		assert.Equal(t, http.StatusCreated, rec.Code)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mw("first"), mw("second"))
		router.HandleFunc(http.MethodGet, "/", func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		})

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, []string{"first", "second", "handler"}, order)
	})

	t.Run("Custom Handler Routes", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handler(NewAPIHandler(&fakeRecommender{}, nil, nil))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})
}

func TestMiddleware(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("RequestID Generated", func(t *testing.T) {
		var seen string
		h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFromContext(r.Context())
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Len(t, seen, 36)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	})

	t.Run("RequestID Propagated", func(t *testing.T) {
		h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
	})

	t.Run("RequestID Outside Request", func(t *testing.T) {
		assert.Empty(t, RequestIDFromContext(context.Background()))
	})

	t.Run("Logging", func(t *testing.T) {
		var buf bytes.Buffer
		h := Logging(shared.NewLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew", nil))

		out := buf.String()
		assert.Contains(t, out, "path=/brew")
		assert.Contains(t, out, "status=418")
	})

	t.Run("Recover", func(t *testing.T) {
		h := Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		assert.NotPanics(t, func() {
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New("127.0.0.1:0", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "hello")
	}), shared.NewLogger(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String())
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "hello", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

type fakeRecommender struct {
	tracks    []models.Track
	recs      []models.Recommendation
	searchErr error
	recErr    error
	panicOn   bool

	queries  []string
	trackIDs []string
}

func (f *fakeRecommender) Search(_ context.Context, query string) ([]models.Track, error) {
	f.queries = append(f.queries, query)
	return f.tracks, f.searchErr
}

func (f *fakeRecommender) Recommend(_ context.Context, trackID string) ([]models.Recommendation, error) {
	if f.panicOn {
		panic("unexpected")
	}
	f.trackIDs = append(f.trackIDs, trackID)
	return f.recs, f.recErr
}

type fakeRequestLog struct {
	searches   []string
	recommends []string
	err        error
}

func (f *fakeRequestLog) RecordSearch(_ context.Context, query string, n int) error {
	f.searches = append(f.searches, fmt.Sprintf("%s:%d", query, n))
	return f.err
}

func (f *fakeRequestLog) RecordRecommend(_ context.Context, trackID string, n int) error {
	f.recommends = append(f.recommends, fmt.Sprintf("%s:%d", trackID, n))
	return f.err
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAPIHandler(t *testing.T) {
	t.Run("Search", func(t *testing.T) {
		t.Run("Returns Tracks And Records", func(t *testing.T) {
			rec := &fakeRecommender{tracks: []models.Track{{ID: "1", Name: "Imagine", Artist: "John Lennon"}}}
			requests := &fakeRequestLog{}
			h := NewAPIHandler(rec, requests, nil)

			resp := post(t, h, "/search", `{"query":"  Imagine "}`)

			assert.Equal(t, http.StatusOK, resp.Code)
			assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))
			assert.JSONEq(t, `{"success":true,"tracks":[{"id":"1","name":"Imagine","artist":"John Lennon"}]}`, resp.Body.String())
			assert.Equal(t, []string{"Imagine"}, rec.queries)
			assert.Equal(t, []string{"Imagine:1"}, requests.searches)
		})

		t.Run("Missing Query", func(t *testing.T) {
			for _, body := range []string{`{}`, `{"query":""}`, `{"query":"   "}`} {
				rec := &fakeRecommender{}
				resp := post(t, NewAPIHandler(rec, nil, nil), "/search", body)

				assert.Equal(t, http.StatusOK, resp.Code)
				assert.JSONEq(t, `{"success":false,"error":"No search query provided"}`, resp.Body.String())
				assert.Empty(t, rec.queries)
			}
		})

		t.Run("Upstream Failure", func(t *testing.T) {
			resp := post(t, NewAPIHandler(&fakeRecommender{searchErr: shared.ErrAPIRequest}, nil, nil), "/search", `{"query":"x"}`)
			assert.JSONEq(t, `{"success":false,"error":"Error searching for songs"}`, resp.Body.String())
		})

		t.Run("Request Log Failure Is Ignored", func(t *testing.T) {
			requests := &fakeRequestLog{err: errors.New("disk full")}
			resp := post(t, NewAPIHandler(&fakeRecommender{}, requests, nil), "/search", `{"query":"x"}`)
			assert.JSONEq(t, `{"success":true}`, resp.Body.String())
		})

		t.Run("Malformed Body", func(t *testing.T) {
			resp := post(t, NewAPIHandler(&fakeRecommender{}, nil, nil), "/search", `{"query":`)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.JSONEq(t, `{"success":false,"error":"Invalid request body"}`, resp.Body.String())
		})
	})

	t.Run("Recommend", func(t *testing.T) {
		t.Run("Returns Recommendations And Records", func(t *testing.T) {
			rec := &fakeRecommender{recs: []models.Recommendation{
				{ID: "2", Name: "Let It Be", Artist: "The Beatles", Similarity: 85, Reason: "Top track by similar artist The Beatles"},
			}}
			requests := &fakeRequestLog{}

			resp := post(t, NewAPIHandler(rec, requests, nil), "/recommend", `{"track_id":"T1"}`)

			assert.Equal(t, http.StatusOK, resp.Code)
			assert.JSONEq(t, `{"success":true,"recommendations":[{"id":"2","name":"Let It Be","artist":"The Beatles","similarity":85,"reason":"Top track by similar artist The Beatles"}]}`, resp.Body.String())
			assert.Equal(t, []string{"T1"}, rec.trackIDs)
			assert.Equal(t, []string{"T1:1"}, requests.recommends)
		})

		tc := []struct {
			name string
			body string
			rec  *fakeRecommender
			want string
		}{
			{"Missing Track ID", `{}`, &fakeRecommender{}, ErrMsgNoTrackID},
			{"Blank Track ID", `{"track_id":"  "}`, &fakeRecommender{}, ErrMsgNoTrackID},
			{"Unknown Track", `{"track_id":"x"}`, &fakeRecommender{recErr: shared.ErrTrackNotFound}, ErrMsgInvalidTrack},
			{"Nothing Similar", `{"track_id":"x"}`, &fakeRecommender{}, ErrMsgNoSimilar},
			{"Deadline", `{"track_id":"x"}`, &fakeRecommender{recErr: context.DeadlineExceeded}, ErrMsgRecommendFailed},
			{"Panic", `{"track_id":"x"}`, &fakeRecommender{panicOn: true}, ErrMsgRecommendFailed},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				resp := post(t, NewAPIHandler(tt.rec, nil, nil), "/recommend", tt.body)

				assert.Equal(t, http.StatusOK, resp.Code)
				assert.JSONEq(t, fmt.Sprintf(`{"success":false,"error":%q}`, tt.want), resp.Body.String())
			})
		}

		t.Run("Malformed Body", func(t *testing.T) {
			resp := post(t, NewAPIHandler(&fakeRecommender{}, nil, nil), "/recommend", `not json`)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
		})
	})

	t.Run("Wrong Method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewAPIHandler(&fakeRecommender{}, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
