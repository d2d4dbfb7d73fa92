package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/noted-app/noted-api/internal/engine"
	"github.com/noted-app/noted-api/internal/storage/diskv"
)

func newTestRouter(t *testing.T) (*mux.Router, *engine.Engine) {
	t.Helper()
	store, err := diskv.Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	e := engine.New(store, nil)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	router := mux.NewRouter()
	NewNoteHandler(e, nil).RegisterRoutes(router.PathPrefix("/api/notes").Subrouter())
	NewTaskHandler(e, nil).RegisterRoutes(router.PathPrefix("/api/tasks").Subrouter())
	NewFolderHandler(e, nil).RegisterRoutes(router.PathPrefix("/api/folders").Subrouter())
	return router, e
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func doRequest(t *testing.T, router *mux.Router, method, path, body string) (int, envelope) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec.Code, env
}

func createNote(t *testing.T, router *mux.Router, title string) string {
	t.Helper()
	status, env := doRequest(t, router, "POST", "/api/notes", `{"title":"`+title+`"}`)
	if status != http.StatusCreated {
		t.Fatalf("create note: status %d", status)
	}
	var note struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &note); err != nil {
		t.Fatalf("decode note: %v", err)
	}
	return note.ID
}

func TestNoteHandler_CreateAndGet(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t)

	id := createNote(t, router, "Meeting notes")

	status, env := doRequest(t, router, "GET", "/api/notes/"+id, "")
	if status != http.StatusOK {
		t.Fatalf("get note: status %d", status)
	}
	var note struct {
		Title   string            `json:"title"`
		Entries []json.RawMessage `json:"entries"`
	}
	if err := json.Unmarshal(env.Data, &note); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if note.Title != "Meeting notes" {
		t.Errorf("title = %q", note.Title)
	}
	if len(note.Entries) != 0 {
		t.Errorf("new note has %d entries, want 0", len(note.Entries))
	}
}

func TestNoteHandler_CreateRejectsEmptyTitle(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t)

	status, env := doRequest(t, router, "POST", "/api/notes", `{"title":"   "}`)
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
	if env.Success {
		t.Error("expected error envelope")
	}
}

func TestNoteHandler_EntryWithHashtagCreatesFolder(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t)

	id := createNote(t, router, "Groceries")
	status, _ := doRequest(t, router, "POST", "/api/notes/"+id+"/entries",
		`{"content":"buy milk #shopping"}`)
	if status != http.StatusCreated {
		t.Fatalf("add entry: status %d", status)
	}

	status, env := doRequest(t, router, "GET", "/api/folders", "")
	if status != http.StatusOK {
		t.Fatalf("list folders: status %d", status)
	}
	var folders []struct {
		Name            string `json:"name"`
		IsAutoGenerated bool   `json:"is_auto_generated"`
	}
	if err := json.Unmarshal(env.Data, &folders); err != nil {
		t.Fatalf("decode folders: %v", err)
	}
	if len(folders) != 1 || folders[0].Name != "shopping" || !folders[0].IsAutoGenerated {
		t.Errorf("folders = %+v, want one auto folder named shopping", folders)
	}
}

func TestNoteHandler_SearchByQuery(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t)

	planID := createNote(t, router, "Quarterly planning")
	createNote(t, router, "Garden ideas")
	if status, _ := doRequest(t, router, "POST", "/api/notes/"+planID+"/entries",
		`{"content":"budget review #work"}`); status != http.StatusCreated {
		t.Fatal("add entry failed")
	}

	status, env := doRequest(t, router, "GET", "/api/notes?q=budget", "")
	if status != http.StatusOK {
		t.Fatalf("search: status %d", status)
	}
	var notes []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &notes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(notes) != 1 || notes[0].ID != planID {
		t.Errorf("search matched %d notes, want only the planning note", len(notes))
	}
}

func TestNoteHandler_UpdateEntryMarksEdited(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t)

	noteID := createNote(t, router, "Journal")
	status, env := doRequest(t, router, "POST", "/api/notes/"+noteID+"/entries",
		`{"content":"first draft"}`)
	if status != http.StatusCreated {
		t.Fatalf("add entry: status %d", status)
	}
	var created struct {
		EntryID string `json:"entry_id"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	status, env = doRequest(t, router, "PATCH",
		"/api/notes/"+noteID+"/entries/"+created.EntryID, `{"content":"second draft"}`)
	if status != http.StatusOK {
		t.Fatalf("update entry: status %d", status)
	}
	var note struct {
		Entries []struct {
			Content  string `json:"content"`
			IsEdited bool   `json:"is_edited"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(env.Data, &note); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(note.Entries) != 1 {
		t.Fatalf("note has %d entries", len(note.Entries))
	}
	if note.Entries[0].Content != "second draft" || !note.Entries[0].IsEdited {
		t.Errorf("entry = %+v, want edited second draft", note.Entries[0])
	}
}

func TestNoteHandler_NotFound(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t)

	status, _ := doRequest(t, router, "GET", "/api/notes/missing", "")
	if status != http.StatusNotFound {
		t.Errorf("get missing note: status %d, want 404", status)
	}
	status, _ = doRequest(t, router, "DELETE", "/api/notes/missing", "")
	if status != http.StatusNotFound {
		t.Errorf("delete missing note: status %d, want 404", status)
	}
}

func TestFolderHandler_DuplicateName(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t)

	if status, _ := doRequest(t, router, "POST", "/api/folders", `{"name":"Recipes"}`); status != http.StatusCreated {
		t.Fatalf("create folder: status %d", status)
	}
	status, _ := doRequest(t, router, "POST", "/api/folders", `{"name":"recipes"}`)
	if status != http.StatusConflict {
		t.Errorf("duplicate folder: status %d, want 409", status)
	}
}
