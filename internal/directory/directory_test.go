package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matheus3301/hrchat/internal/store"
)

const usersJSON = `[
  {"_id": "u1", "email": "me@x.test", "fullname": {"firstname": "Me", "lastname": "Self"}},
  {"_id": "u2", "email": "ann@x.test", "fullname": {"firstname": "Ann", "lastname": "Lee"}},
  {"_id": "u3", "email": "bo@x.test", "fullname": {"firstname": "", "lastname": ""}},
  {"_id": "", "email": "", "fullname": {}}
]`

func newDirectory(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/all" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(usersJSON))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAllExcludesSelfAndAppliesFallbacks(t *testing.T) {
	srv := newDirectory(t)

	tests := []struct {
		name string
		self Self
	}{
		{"by id", Self{ID: "u1"}},
		{"by email", Self{Email: "me@x.test"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(srv.URL+"/", nil, nil).All(context.Background(), tt.self)
			if err != nil {
				t.Fatalf("All: %v", err)
			}
			if len(got) != 3 {
				t.Fatalf("got %d contacts, want 3: %+v", len(got), got)
			}
			if got[0].ID != "u2" || got[0].Name != "Ann Lee" {
				t.Errorf("contact 0 = %+v, want u2 Ann Lee", got[0])
			}
			if got[1].Name != "bo@x.test" {
				t.Errorf("contact 1 name = %q, want email fallback", got[1].Name)
			}
			if got[2].Name != "Unknown" || !strings.HasPrefix(got[2].ID, "anon-") {
				t.Errorf("contact 2 = %+v, want Unknown anon id", got[2])
			}
		})
	}
}

func TestAllCachesContacts(t *testing.T) {
	srv := newDirectory(t)
	db, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}

	c := New(srv.URL, db, nil)
	if _, err := c.All(context.Background(), Self{ID: "u1"}); err != nil {
		t.Fatal(err)
	}
	cached, err := c.Cached("u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(cached) != 3 {
		t.Errorf("cached %d contacts, want 3", len(cached))
	}
}

func TestAllReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := New(srv.URL, nil, nil).All(context.Background(), Self{}); err == nil {
		t.Error("All() = nil error, want failure on 500")
	}
}
