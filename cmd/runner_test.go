package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/songrec/internal/models"
	"github.com/desertthunder/songrec/internal/repositories"
	"github.com/desertthunder/songrec/internal/services"
	"github.com/desertthunder/songrec/internal/shared"
	tu "github.com/desertthunder/songrec/internal/testing"
	"github.com/urfave/cli/v3"
)

// newTestRunner returns a runner whose API client talks to handler.
func newTestRunner(t *testing.T, handler http.HandlerFunc) (*Runner, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	output := &bytes.Buffer{}
	return NewRunner(RunnerOpts{
		API:    services.NewAPIService(srv.URL, srv.Client()),
		Logger: shared.NewLogger(io.Discard),
		Output: output,
	}), output
}

func run(t *testing.T, cmd *cli.Command, args ...string) error {
	t.Helper()
	return cmd.Run(context.Background(), append([]string{cmd.Name}, args...))
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			api := services.NewAPIService("http://example.test", nil)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				API:        api,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil api uses configured base URL", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.API.BaseURL = "http://music.local:9000/"
			runner := NewRunner(RunnerOpts{Config: config})

			if runner.api.BaseURL() != "http://music.local:9000" {
				t.Errorf("expected configured base URL, got %s", runner.api.BaseURL())
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, true)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"serve", "search", "recommend", "batch", "history", "status", "setup", "tui"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})
}

func TestSearchCommand(t *testing.T) {
	tracks := `{"success":true,"tracks":[{"id":"t1","name":"Imagine","artist":"John Lennon"}]}`

	t.Run("prints tracks as text", func(t *testing.T) {
		var body models.SearchRequest
		runner, output := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/search" {
				t.Errorf("expected /search, got %s", r.URL.Path)
			}
			if err := decodeBody(r, &body); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}
			jsonHandler(tracks)(w, r)
		})

		if err := run(t, searchCommand(runner), "  Imagine  "); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if body.Query != "Imagine" {
			t.Errorf("expected normalized query, got %q", body.Query)
		}
		if !strings.Contains(output.String(), "1. John Lennon - Imagine [t1]") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("renders json format", func(t *testing.T) {
		runner, output := newTestRunner(t, jsonHandler(tracks))

		if err := run(t, searchCommand(runner), "--format", "JSON", "Imagine"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), `"name": "Imagine"`) {
			t.Errorf("expected JSON output, got %q", output.String())
		}
	})

	t.Run("writes output file", func(t *testing.T) {
		runner, output := newTestRunner(t, jsonHandler(tracks))
		path := filepath.Join(t.TempDir(), "out", "tracks.csv")

		if err := run(t, searchCommand(runner), "--format", "csv", "--output", path, "Imagine"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		data := tu.MustReadFile(t, path)
		if !strings.HasPrefix(string(data), "ID,Name,Artist,Preview\n") {
			t.Errorf("unexpected file contents %q", data)
		}
		if !strings.Contains(output.String(), "Saved to") {
			t.Errorf("expected confirmation, got %q", output.String())
		}
	})

	t.Run("no results", func(t *testing.T) {
		runner, output := newTestRunner(t, jsonHandler(`{"success":true,"tracks":[]}`))

		if err := run(t, searchCommand(runner), "zzzz"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "No songs found") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("missing query", func(t *testing.T) {
		runner, _ := newTestRunner(t, jsonHandler(tracks))

		err := run(t, searchCommand(runner))
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("server reports failure", func(t *testing.T) {
		runner, _ := newTestRunner(t, jsonHandler(`{"success":false,"error":"Error searching for songs"}`))

		err := run(t, searchCommand(runner), "Imagine")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if err != nil && !strings.Contains(err.Error(), "Error searching for songs") {
			t.Errorf("expected server message, got %v", err)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		runner, _ := newTestRunner(t, jsonHandler(tracks))

		err := run(t, searchCommand(runner), "--format", "yaml", "Imagine")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("server unreachable", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{
			API:    services.NewAPIService("http://127.0.0.1:1", nil),
			Logger: shared.NewLogger(io.Discard),
			Output: &bytes.Buffer{},
		})

		err := run(t, searchCommand(runner), "Imagine")
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestRecommendCommand(t *testing.T) {
	recs := `{"success":true,"recommendations":[{"name":"Let It Be","artist":"The Beatles","similarity":87,"reason":"Similar tempo"}]}`

	t.Run("prints recommendations", func(t *testing.T) {
		var body models.RecommendRequest
		runner, output := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/recommend" {
				t.Errorf("expected /recommend, got %s", r.URL.Path)
			}
			decodeBody(r, &body)
			jsonHandler(recs)(w, r)
		})

		if err := run(t, recommendCommand(runner), "t1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if body.TrackID != "t1" {
			t.Errorf("expected track_id t1, got %q", body.TrackID)
		}
		out := output.String()
		for _, want := range []string{"The Beatles - Let It Be (Match: 87%)", "Similar tempo", "No preview available"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output %q", want, out)
			}
		}
	})

	t.Run("markdown format", func(t *testing.T) {
		runner, output := newTestRunner(t, jsonHandler(recs))

		if err := run(t, recommendCommand(runner), "--format", "markdown", "t1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "# Recommendations for `t1`") {
			t.Errorf("expected markdown heading, got %q", output.String())
		}
	})

	t.Run("missing track id", func(t *testing.T) {
		runner, _ := newTestRunner(t, jsonHandler(recs))

		err := run(t, recommendCommand(runner))
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("server reports failure", func(t *testing.T) {
		runner, _ := newTestRunner(t, jsonHandler(`{"success":false,"error":"No track ID provided"}`))

		err := run(t, recommendCommand(runner), "t1")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestStatusCommand(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		runner, output := newTestRunner(t, jsonHandler(`{"status":"ok"}`))

		if err := run(t, statusCommand(runner)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "✓ Service is healthy") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("unhealthy", func(t *testing.T) {
		runner, _ := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		err := run(t, statusCommand(runner))
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestHistoryCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "songrec.db")
	config := shared.DefaultConfig()
	config.Database.Path = dbPath

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	searches := repositories.NewSearchLogRepository(db)
	for _, q := range []string{"Imagine", "Yesterday"} {
		if _, err := searches.Record(context.Background(), q, 3); err != nil {
			t.Fatalf("failed to seed search log: %v", err)
		}
	}
	db.Close()

	t.Run("prints recent searches", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(io.Discard), Output: output})

		if err := run(t, historyCommand(runner)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := output.String()
		if !strings.Contains(out, "Recent searches (2)") {
			t.Errorf("expected header, got %q", out)
		}
		if !strings.Contains(out, "Imagine") || !strings.Contains(out, "Yesterday") {
			t.Errorf("expected both queries, got %q", out)
		}
	})

	t.Run("json output honours limit", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(io.Discard), Output: output})

		if err := run(t, historyCommand(runner), "--json", "--limit", "1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if n := strings.Count(output.String(), `"Query"`); n != 1 {
			t.Errorf("expected one entry, got %d in %s", n, output.String())
		}
	})

	t.Run("rejects non-positive limit", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}})

		err := run(t, historyCommand(runner), "--limit", "0")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: output})
		setup := setupCommand(runner)

		if err := run(t, setup, "config", "--config", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)

		if _, err := shared.LoadConfig(path); err != nil {
			t.Errorf("expected written config to load, got %v", err)
		}

		err := run(t, setupCommand(runner), "config", "--config", path)
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for existing file, got %v", err)
		}
	})

	t.Run("config defaults to working directory", func(t *testing.T) {
		wd := tu.MustGetwd(t)
		tu.MustChdir(t, t.TempDir())
		t.Cleanup(func() { tu.MustChdir(t, wd) })

		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}})
		if err := run(t, setupCommand(runner), "config"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, defaultConfigPath)
	})

	t.Run("database", func(t *testing.T) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "config.toml")
		dbPath := filepath.Join(dir, "songrec.db")

		config := shared.DefaultConfig()
		config.Database.Path = dbPath
		if err := os.WriteFile(configPath, []byte("[database]\npath = \""+filepath.ToSlash(dbPath)+"\"\n"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: output})

		if err := run(t, setupCommand(runner), "database", "--config", configPath); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, dbPath)
		if !strings.Contains(output.String(), "Database ready") {
			t.Errorf("unexpected output %q", output.String())
		}
	})
}

func TestServe(t *testing.T) {
	t.Run("requires credentials", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}})

		err := run(t, serveCommand(runner))
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("loopbackURL", func(t *testing.T) {
		tc := []struct {
			addr string
			want string
		}{
			{"127.0.0.1:5000", "http://127.0.0.1:5000"},
			{"0.0.0.0:8080", "http://127.0.0.1:8080"},
			{"[::]:8080", "http://127.0.0.1:8080"},
			{"[::1]:9000", "http://[::1]:9000"},
		}

		for _, tt := range tc {
			addr, err := net.ResolveTCPAddr("tcp", tt.addr)
			if err != nil {
				t.Fatalf("failed to resolve %s: %v", tt.addr, err)
			}
			if got := loopbackURL(addr); got != tt.want {
				t.Errorf("loopbackURL(%s) = %s, want %s", tt.addr, got, tt.want)
			}
		}
	})
}

func TestBatchCommand(t *testing.T) {
	runner, output := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			jsonHandler(`{"success":true,"tracks":[{"id":"t1","name":"Imagine","artist":"John Lennon"}]}`)(w, r)
		case "/recommend":
			jsonHandler(`{"success":true,"recommendations":[{"name":"Let It Be","artist":"The Beatles","similarity":85,"reason":"r"}]}`)(w, r)
		default:
			http.NotFound(w, r)
		}
	})

	dir := t.TempDir()
	input := filepath.Join(dir, "queries.txt")
	if err := os.WriteFile(input, []byte("Imagine\n# skipped\nJealous Guy\n"), 0644); err != nil {
		t.Fatalf("failed to write queries: %v", err)
	}
	outDir := filepath.Join(dir, "out")

	if err := run(t, batchCommand(runner), "--input", input, "--dir", outDir, "--format", "csv", "--rate", "100"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	tu.AssertDirExists(t, outDir)
	tu.AssertFileExists(t, filepath.Join(outDir, "001_imagine.csv"))
	tu.AssertFileExists(t, filepath.Join(outDir, "002_jealous-guy.csv"))
	tu.AssertFileExists(t, filepath.Join(outDir, "manifest.json"))
	if !strings.Contains(output.String(), "Succeeded: 2/2") {
		t.Errorf("unexpected output %q", output.String())
	}

	t.Run("missing input file", func(t *testing.T) {
		err := run(t, batchCommand(runner), "--input", filepath.Join(dir, "nope.txt"))
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
