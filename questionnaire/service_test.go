package questionnaire

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lordjav/use-your-brains/store"
)

const validQuestionnaire = `{
	"id": "anatomia-1",
	"title": "Anatomía básica",
	"description": "Repaso de anatomía",
	"read_time": 12,
	"questions": [
		{
			"type": "multiple_choice",
			"difficulty": "easy",
			"points": 5,
			"question": "¿Cuántas cámaras tiene el corazón?",
			"correct": "cuatro",
			"incorrect_1": "dos",
			"incorrect_2": "tres",
			"incorrect_3": "cinco"
		},
		{
			"type": "list",
			"difficulty": "hard",
			"points": 10,
			"question": "Nombra las válvulas cardíacas",
			"answer_1": "mitral",
			"answer_2": "tricúspide",
			"answer_3": "aórtica",
			"answer_4": "pulmonar"
		}
	]
}`

// missing title, rejected at load time
const invalidQuestionnaire = `{
	"id": "roto",
	"questions": [
		{
			"type": "true_false",
			"difficulty": "easy",
			"points": 5,
			"question": "¿Verdadero?",
			"correct": true
		}
	]
}`

func writeFixtures(t *testing.T, manifest string, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, manifestFile), []byte(manifest), 0644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	return dir
}

func testService(t *testing.T, dir string) *Service {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return NewService(dir, s, time.Hour)
}

func TestLoadFromFiles(t *testing.T) {
	dir := writeFixtures(t,
		`{"questionnaires": [{"id": "anatomia-1", "jsonFile": "anatomia.json", "pdfFile": "anatomia.pdf"}]}`,
		map[string]string{"anatomia.json": validQuestionnaire})

	service := testService(t, dir)
	if err := service.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	all := service.All()
	if len(all) != 1 {
		t.Fatalf("loaded %d questionnaires, want 1", len(all))
	}

	q := all[0]
	if q.ID != "anatomia-1" || q.Title != "Anatomía básica" {
		t.Errorf("got %q/%q, want anatomia-1/Anatomía básica", q.ID, q.Title)
	}
	if q.QuestionCount() != 2 || q.TotalPoints() != 15 {
		t.Errorf("questions/points = %d/%d, want 2/15", q.QuestionCount(), q.TotalPoints())
	}
	if want := filepath.Join(dir, "anatomia.pdf"); q.PDFPath != want {
		t.Errorf("pdf path = %q, want %q", q.PDFPath, want)
	}

	got, err := service.GetByID("anatomia-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ID != "anatomia-1" {
		t.Errorf("GetByID returned %q", got.ID)
	}

	if _, err := service.GetByID("no-existe"); err != ErrNotFound {
		t.Errorf("GetByID on unknown id: err = %v, want ErrNotFound", err)
	}
}

func TestLoadSkipsInvalidQuestionnaires(t *testing.T) {
	dir := writeFixtures(t,
		`{"questionnaires": [
			{"id": "roto", "jsonFile": "roto.json"},
			{"id": "falta", "jsonFile": "no-such-file.json"},
			{"id": "anatomia-1", "jsonFile": "anatomia.json"}
		]}`,
		map[string]string{
			"roto.json":     invalidQuestionnaire,
			"anatomia.json": validQuestionnaire,
		})

	service := testService(t, dir)
	if err := service.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	all := service.All()
	if len(all) != 1 || all[0].ID != "anatomia-1" {
		t.Fatalf("loaded %v, want just anatomia-1", all)
	}
}

func TestLoadFailsWithoutManifest(t *testing.T) {
	service := testService(t, t.TempDir())
	if err := service.Load(); err == nil {
		t.Fatalf("Load succeeded without a manifest")
	}
}

func TestCacheServesSecondLoad(t *testing.T) {
	dir := writeFixtures(t,
		`{"questionnaires": [{"id": "anatomia-1", "jsonFile": "anatomia.json"}]}`,
		map[string]string{"anatomia.json": validQuestionnaire})

	kv, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	defer kv.Close()

	first := NewService(dir, kv, time.Hour)
	if err := first.Load(); err != nil {
		t.Fatalf("first Load: %v", err)
	}

	// Remove the data files; a fresh service over the same store must now
	// come up from cache alone.
	if err := os.Remove(filepath.Join(dir, "anatomia.json")); err != nil {
		t.Fatalf("removing data file: %v", err)
	}

	second := NewService(dir, kv, time.Hour)
	if err := second.Load(); err != nil {
		t.Fatalf("cached Load: %v", err)
	}

	all := second.All()
	if len(all) != 1 || all[0].ID != "anatomia-1" {
		t.Fatalf("cached load returned %v, want anatomia-1", all)
	}
	// The duck-typed question payloads must survive the cache round trip.
	if all[0].QuestionCount() != 2 || all[0].Questions[1].List == nil {
		t.Errorf("cached questionnaire lost its question payloads: %+v", all[0].Questions)
	}
}

func TestCacheInvalidatedBySchemaVersion(t *testing.T) {
	dir := writeFixtures(t,
		`{"questionnaires": [{"id": "anatomia-1", "jsonFile": "anatomia.json"}]}`,
		map[string]string{"anatomia.json": validQuestionnaire})

	kv, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	defer kv.Close()

	first := NewService(dir, kv, time.Hour)
	if err := first.Load(); err != nil {
		t.Fatalf("first Load: %v", err)
	}

	// Simulate data written by an older build.
	if err := kv.Set(store.KeyCacheVersion, SchemaVersion-1); err != nil {
		t.Fatalf("Set: %v", err)
	}

	second := NewService(dir, kv, time.Hour)
	if err := second.Load(); err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if len(second.All()) != 1 {
		t.Fatalf("reload after version bump returned %d questionnaires", len(second.All()))
	}

	// The current version must have been written back.
	var version int
	if found, err := kv.Get(store.KeyCacheVersion, &version); err != nil || !found {
		t.Fatalf("Get version: found=%t err=%v", found, err)
	}
	if version != SchemaVersion {
		t.Errorf("stored schema version = %d, want %d", version, SchemaVersion)
	}
}

func TestCacheExpires(t *testing.T) {
	dir := writeFixtures(t,
		`{"questionnaires": [{"id": "anatomia-1", "jsonFile": "anatomia.json"}]}`,
		map[string]string{"anatomia.json": validQuestionnaire})

	kv, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	defer kv.Close()

	first := NewService(dir, kv, time.Hour)
	if err := first.Load(); err != nil {
		t.Fatalf("first Load: %v", err)
	}

	// Age the cache past the TTL.
	stale := time.Now().Add(-2 * time.Hour).Unix()
	if err := kv.Set(store.KeyCacheTimestamp, stale); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := os.Remove(filepath.Join(dir, "anatomia.json")); err != nil {
		t.Fatalf("removing data file: %v", err)
	}

	second := NewService(dir, kv, time.Hour)
	if err := second.Load(); err != nil {
		t.Fatalf("expired Load: %v", err)
	}
	// The only data file is gone and the cache is stale, so nothing loads.
	if count := len(second.All()); count != 0 {
		t.Errorf("expired cache still served %d questionnaires", count)
	}
}

func TestReloadPicksUpNewFiles(t *testing.T) {
	dir := writeFixtures(t,
		`{"questionnaires": [{"id": "anatomia-1", "jsonFile": "anatomia.json"}]}`,
		map[string]string{"anatomia.json": validQuestionnaire})

	service := testService(t, dir)
	if err := service.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(service.All()) != 1 {
		t.Fatalf("loaded %d questionnaires, want 1", len(service.All()))
	}

	manifest := `{"questionnaires": [
		{"id": "anatomia-1", "jsonFile": "anatomia.json"},
		{"id": "anatomia-2", "jsonFile": "anatomia2.json"}
	]}`
	if err := os.WriteFile(filepath.Join(dir, manifestFile), []byte(manifest), 0644); err != nil {
		t.Fatalf("rewriting manifest: %v", err)
	}
	second := strings.ReplaceAll(validQuestionnaire, "anatomia-1", "anatomia-2")
	if err := os.WriteFile(filepath.Join(dir, "anatomia2.json"), []byte(second), 0644); err != nil {
		t.Fatalf("writing second questionnaire: %v", err)
	}

	if err := service.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if len(service.All()) != 2 {
		t.Errorf("after reload %d questionnaires, want 2", len(service.All()))
	}
}
