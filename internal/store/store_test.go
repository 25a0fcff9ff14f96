package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/matheus3301/hrchat/internal/status"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testDB(t)

	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 1 {
		t.Errorf("version = %d, want 1", result.Version)
	}
}

func TestMigrateFreshDatabase(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "fresh.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.From != 0 || result.Version != 1 || !result.Changed {
		t.Errorf("got %+v, want 0 -> 1 changed", *result)
	}
}

func TestMigrateRefusesDirtySchema(t *testing.T) {
	db := testDB(t)
	if _, err := db.Exec(`UPDATE schema_migrations SET dirty = 1`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); !errors.Is(err, ErrDirtySchema) {
		t.Fatalf("err = %v, want ErrDirtySchema", err)
	}
}

func TestSaveLoadRoundTripPreservesOrder(t *testing.T) {
	db := testDB(t)

	msgs := []Message{
		{ID: "b_2_x", Signature: "bhello2", From: "b", To: "a", Text: "hello", Time: 2, Status: status.Received},
		{ID: "a_1_y", Signature: "ahi1", From: "a", To: "b", Text: "hi", Time: 1, Status: status.Pending, Deleting: true},
		{ID: "a_3_z", Signature: "ayo3", From: "a", To: "c", Text: "yo", Time: 3, Status: status.Read, CannotDelete: true},
	}
	if err := db.SaveMessages("a", msgs); err != nil {
		t.Fatal(err)
	}

	got, err := db.LoadMessages("a")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(msgs) {
		t.Fatalf("got %d messages, want %d", len(got), len(msgs))
	}
	for i := range msgs {
		if got[i] != msgs[i] {
			t.Errorf("message %d = %+v, want %+v", i, got[i], msgs[i])
		}
	}
}

func TestSaveReplacesPreviousList(t *testing.T) {
	db := testDB(t)

	if err := db.SaveMessages("a", []Message{
		{ID: "m1", From: "a", To: "b", Text: "one", Status: status.Sent},
		{ID: "m2", From: "a", To: "b", Text: "two", Status: status.Sent},
	}); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMessages("a", []Message{
		{ID: "m2", From: "a", To: "b", Text: "two", Status: status.Read},
	}); err != nil {
		t.Fatal(err)
	}

	got, err := db.LoadMessages("a")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "m2" || got[0].Status != status.Read {
		t.Errorf("after replace = %+v, want only m2 read", got)
	}
}

func TestOwnersAreIsolated(t *testing.T) {
	db := testDB(t)

	if err := db.SaveMessages("a", []Message{{ID: "m1", From: "a", To: "b", Status: status.Sent}}); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMessages("b", nil); err != nil {
		t.Fatal(err)
	}

	n, err := db.MessageCount("a")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("MessageCount(a) = %d, want 1", n)
	}
}

func TestListConversationReturnsTail(t *testing.T) {
	db := testDB(t)

	msgs := []Message{
		{ID: "1", From: "a", To: "b", Text: "1", Status: status.Sent},
		{ID: "2", From: "b", To: "a", Text: "2", Status: status.Received},
		{ID: "3", From: "a", To: "c", Text: "3", Status: status.Sent},
		{ID: "4", From: "a", To: "b", Text: "4", Status: status.Pending},
	}
	if err := db.SaveMessages("a", msgs); err != nil {
		t.Fatal(err)
	}

	got, err := db.ListConversation("a", "b", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "2" || got[1].ID != "4" {
		t.Errorf("ListConversation = %+v, want [2 4]", got)
	}
}

func TestContacts(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertContacts("a", []Contact{
		{ID: "u2", Email: "zoe@x", Name: "Zoe"},
		{ID: "u1", Email: "bob@x", Name: "Bob"},
	}); err != nil {
		t.Fatal(err)
	}
	// Empty fields keep the cached value.
	if err := db.UpsertContacts("a", []Contact{{ID: "u1", Name: "Bobby"}}); err != nil {
		t.Fatal(err)
	}

	got, err := db.ListContacts("a")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d contacts, want 2", len(got))
	}
	if got[0].Name != "Bobby" || got[0].Email != "bob@x" {
		t.Errorf("contact = %+v, want Bobby/bob@x", got[0])
	}
	if got[1].ID != "u2" {
		t.Errorf("second contact = %q, want u2", got[1].ID)
	}
}

func TestSearchMessages(t *testing.T) {
	db := testDB(t)

	if err := db.SaveMessages("a", []Message{
		{ID: "m1", From: "a", To: "b", Text: "hello world", Status: status.Sent},
		{ID: "m2", From: "c", To: "a", Text: "goodbye world", Status: status.Received},
		{ID: "m3", From: "a", To: "b", Text: "100% sure", Status: status.Sent},
	}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		query string
		peer  string
		want  []string
	}{
		{"single match", "hello", "", []string{"m1"}},
		{"newest first", "world", "", []string{"m2", "m1"}},
		{"peer filter", "world", "b", []string{"m1"}},
		{"literal percent", "0%", "", []string{"m3"}},
		{"no match", "nope", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := db.SearchMessages("a", tt.query, tt.peer, 10)
			if err != nil {
				t.Fatal(err)
			}
			if len(results) != len(tt.want) {
				t.Fatalf("got %d results, want %d", len(results), len(tt.want))
			}
			for i, id := range tt.want {
				if results[i].Message.ID != id {
					t.Errorf("result %d = %q, want %q", i, results[i].Message.ID, id)
				}
			}
		})
	}
}

func TestSnippet(t *testing.T) {
	if got := snippet("hello world", "WORLD"); got != "hello <<world>>" {
		t.Errorf("snippet = %q", got)
	}
}
