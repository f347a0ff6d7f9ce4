package service_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
)

func TestBackground_AutosaveOnlyWhenDirty(t *testing.T) {
	db, err := storage.New(filepath.Join(t.TempDir(), "pages.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	store := storage.NewDocumentStore(db)
	s := service.NewEditorService(service.EditorConfig{Tree: newTree(), Store: store}, nil, nil)
	bg := service.NewBackground(s, nil, nil)

	mustAdd(t, s, domain.KindText)
	if !bg.Autosave() {
		t.Fatal("dirty document was not saved")
	}
	if bg.Autosave() {
		t.Error("clean document saved again")
	}
	if _, err := store.LoadDocument(s.Document().ID); err != nil {
		t.Errorf("autosaved document not found: %v", err)
	}
}

func TestBackground_InvalidSchedule(t *testing.T) {
	s, _ := newEditor(t)
	bg := service.NewBackground(s, nil, nil)
	defer bg.Stop()
	if err := bg.StartAutosave("every now and then"); err == nil {
		t.Error("expected schedule error")
	}
	if err := bg.StartAutosave(""); err != nil {
		t.Errorf("default schedule: %v", err)
	}
}

func TestBackground_ImportFile(t *testing.T) {
	src, _ := newEditor(t)
	mustAdd(t, src, domain.KindHero)
	data, err := json.Marshal(src.Document())
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "site.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	dst, _ := newEditor(t)
	bg := service.NewBackground(dst, nil, nil)
	doc, err := bg.ImportFile(path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if doc.ID != src.Document().ID || len(dst.Document().Elements) != 1 {
		t.Errorf("imported %s with %d elements", doc.ID, len(dst.Document().Elements))
	}
	if h := dst.History(); len(h.Labels) != 1 || h.Labels[0] != "open" {
		t.Errorf("history after import = %v", h.Labels)
	}
}

func TestDecodeDocument_Rejects(t *testing.T) {
	tests := []struct {
		name string
		json string
		want error
	}{
		{"not json", `{`, nil},
		{"no id", `{"pages":[{"id":"p"}]}`, nil},
		{"no pages", `{"id":"d","pages":[]}`, nil},
		{"dangling root", `{"id":"d","pages":[{"id":"p","elementIds":["x"]}]}`, domain.ErrElementNotFound},
		{"null element", `{"id":"d","pages":[{"id":"p","elementIds":[]}],"elements":{"x":null}}`, domain.ErrMalformedTree},
		{"key mismatch", `{"id":"d","pages":[{"id":"p","elementIds":["x"]}],
			"elements":{"x":{"id":"y","kind":"text","pageId":"p"}}}`, domain.ErrMalformedTree},
		{"cyclic containers", `{"id":"d","pages":[{"id":"p","elementIds":["a"]}],"elements":{
			"a":{"id":"a","kind":"container","pageId":"p","children":["b"]},
			"b":{"id":"b","kind":"container","pageId":"p","parentId":"a","children":["a"]}}}`, domain.ErrMalformedTree},
		{"dangling child", `{"id":"d","pages":[{"id":"p","elementIds":["a"]}],"elements":{
			"a":{"id":"a","kind":"container","pageId":"p","children":["z"]}}}`, domain.ErrElementNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.DecodeDocument([]byte(tt.json))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	doc, err := service.DecodeDocument([]byte(`{"id":"d","pages":[{"id":"p"}]}`))
	if err != nil {
		t.Fatalf("minimal document: %v", err)
	}
	if doc.Status != domain.StatusDraft || doc.Elements == nil || doc.Pages[0].ElementIDs == nil {
		t.Errorf("defaults not filled: %+v", doc)
	}
}
