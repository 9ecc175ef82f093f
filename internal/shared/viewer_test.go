package shared

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/sakif/playground-cli/internal/api"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestViewer(handler http.HandlerFunc) (*Viewer, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := api.New(srv.URL, api.StaticToken(""), testLogger())
	return NewViewer(client, testLogger()), srv
}

func TestOpen_ResolvesSnippet(t *testing.T) {
	var gotPath string
	v, srv := newTestViewer(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"status":"success","data":{"snippet":{"id":"sn-1","title":"Shared","code":"1+1","username":"ada"}}}`))
	})
	defer srv.Close()

	sn, err := v.Open(context.Background(), "tok-xyz")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if gotPath != "/api/snippets/share/tok-xyz" {
		t.Errorf("path = %q", gotPath)
	}
	if sn.Title != "Shared" {
		t.Errorf("Title = %q", sn.Title)
	}
	if v.Snippet() == nil || v.Snippet().ID != "sn-1" {
		t.Error("Snippet() should return the opened snippet")
	}
}

func TestOpen_DeadLinkIsTerminal(t *testing.T) {
	v, srv := newTestViewer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status":"error","message":"Snippet not found"}`))
	})
	defer srv.Close()

	_, err := v.Open(context.Background(), "dead-token")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !Terminal(err) {
		t.Error("a 404 share lookup is a dead link, Terminal should be true")
	}
	if got := UserMessage(err); got != "Snippet not found or is no longer available" {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestOpen_NetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	client := api.New(srv.URL, api.StaticToken(""), testLogger())
	v := NewViewer(client, testLogger())

	_, err := v.Open(context.Background(), "tok")
	if err == nil {
		t.Fatal("expected an error")
	}
	if Terminal(err) {
		t.Error("a network failure is transient, Terminal should be false")
	}
	if got := UserMessage(err); got != "Failed to load shared snippet" {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestRun_ExecutesAnonymously(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	v, srv := newTestViewer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/execute" {
			gotAuth = r.Header.Get("Authorization")
			json.NewDecoder(r.Body).Decode(&gotBody)
			w.Write([]byte(`{"status":"success","data":{"output":"2","hasError":false,"executionTime":1}}`))
			return
		}
		w.Write([]byte(`{"status":"success","data":{"snippet":{"id":"sn-1","code":"1+1"}}}`))
	})
	defer srv.Close()

	if _, err := v.Open(context.Background(), "tok"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	res, err := v.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Output != "2" {
		t.Errorf("Output = %q", res.Output)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want none", gotAuth)
	}
	if gotBody["code"] != "1+1" {
		t.Errorf("code = %v, want the shared snippet's code", gotBody["code"])
	}
	if _, ok := gotBody["snippetId"]; ok {
		t.Error("shared runs must not carry a snippet id")
	}
}

func TestRun_BeforeOpen(t *testing.T) {
	v, srv := newTestViewer(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should go out before Open")
	})
	defer srv.Close()

	res, err := v.Run(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if res.Output != "Error: No code to execute" || !res.HasError {
		t.Errorf("Result = %+v", res)
	}
}
