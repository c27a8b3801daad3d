package questionnaire

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lordjav/use-your-brains/models"
	"github.com/lordjav/use-your-brains/store"
	"github.com/lordjav/use-your-brains/utils"
)

// SchemaVersion invalidates cached questionnaire payloads wholesale when
// the stored shape changes. Bump it when the question format does.
const SchemaVersion = 3

const manifestFile = "manifest.json"

var ErrNotFound = errors.New("questionnaire not found")

// Manifest lists the available questionnaires and which files hold them.
type Manifest struct {
	Questionnaires []ManifestEntry `json:"questionnaires"`
}

type ManifestEntry struct {
	ID       string `json:"id"`
	JSONFile string `json:"jsonFile"`
	PDFFile  string `json:"pdfFile,omitempty"`
}

// Service resolves the manifest into validated in-memory questionnaires,
// with a store-backed cache so repeated startups skip the file parsing.
type Service struct {
	baseDir  string
	store    store.Store
	cacheTTL time.Duration

	mu             sync.RWMutex
	questionnaires []*models.Questionnaire
	loaded         bool
}

func NewService(baseDir string, s store.Store, cacheTTL time.Duration) *Service {
	return &Service{
		baseDir:  baseDir,
		store:    s,
		cacheTTL: cacheTTL,
	}
}

// Load makes the questionnaires available, from cache when it is fresh and
// the schema version matches, from the data files otherwise.
func (s *Service) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return nil
	}

	if cached := s.fromCache(); cached != nil {
		s.questionnaires = cached
		s.loaded = true
		utils.LogCache("Using %d cached questionnaires", len(cached))
		return nil
	}

	loaded, err := s.loadFromFiles()
	if err != nil {
		return err
	}

	s.questionnaires = loaded
	s.loaded = true
	s.cache(loaded)
	return nil
}

// Reload clears the cache and re-reads the data files.
func (s *Service) Reload() error {
	s.mu.Lock()
	s.store.Remove(store.KeyCachedData)
	s.store.Remove(store.KeyCacheTimestamp)
	s.loaded = false
	s.mu.Unlock()

	utils.LogCache("Cache cleared, reloading questionnaires")
	return s.Load()
}

// fromCache returns the cached questionnaires if the schema version
// matches and the cache has not expired, nil otherwise. Caller holds the
// lock.
func (s *Service) fromCache() []*models.Questionnaire {
	var version int
	if found, err := s.store.Get(store.KeyCacheVersion, &version); err != nil || !found || version != SchemaVersion {
		if found && version != SchemaVersion {
			utils.LogCache("Cache schema version changed (%d -> %d), invalidating", version, SchemaVersion)
		}
		s.store.Remove(store.KeyCachedData)
		s.store.Remove(store.KeyCacheTimestamp)
		s.store.Set(store.KeyCacheVersion, SchemaVersion)
		return nil
	}

	var cachedAt int64
	if found, err := s.store.Get(store.KeyCacheTimestamp, &cachedAt); err != nil || !found {
		return nil
	}
	if time.Since(time.Unix(cachedAt, 0)) >= s.cacheTTL {
		utils.LogCache("Questionnaire cache expired")
		return nil
	}

	var cached []*models.Questionnaire
	if found, err := s.store.Get(store.KeyCachedData, &cached); err != nil || !found || len(cached) == 0 {
		return nil
	}
	return cached
}

func (s *Service) cache(questionnaires []*models.Questionnaire) {
	if len(questionnaires) == 0 {
		return
	}
	// Best-effort: a failed cache write only costs the next startup a
	// re-parse.
	s.store.Set(store.KeyCachedData, questionnaires)
	s.store.Set(store.KeyCacheTimestamp, time.Now().Unix())
	s.store.Set(store.KeyCacheVersion, SchemaVersion)
}

// loadFromFiles reads the manifest and every questionnaire it references.
// A malformed questionnaire is excluded with a logged error rather than
// failing the whole load.
func (s *Service) loadFromFiles() ([]*models.Questionnaire, error) {
	manifestPath := filepath.Join(s.baseDir, manifestFile)
	utils.LogInfo("Loading questionnaire manifest from %s", manifestPath)

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	var questionnaires []*models.Questionnaire
	for _, entry := range manifest.Questionnaires {
		q, err := s.loadOne(entry)
		if err != nil {
			utils.LogError("Skipping questionnaire %q: %v", entry.ID, err)
			continue
		}
		questionnaires = append(questionnaires, q)
	}

	utils.LogInfo("Loaded %d/%d questionnaires", len(questionnaires), len(manifest.Questionnaires))
	return questionnaires, nil
}

func (s *Service) loadOne(entry ManifestEntry) (*models.Questionnaire, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, entry.JSONFile))
	if err != nil {
		return nil, err
	}

	var q models.Questionnaire
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, err
	}

	if entry.PDFFile != "" {
		q.PDFPath = filepath.Join(s.baseDir, entry.PDFFile)
	}

	if err := q.Validate(); err != nil {
		return nil, err
	}
	return &q, nil
}

// All returns the loaded questionnaires in manifest order.
func (s *Service) All() []*models.Questionnaire {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*models.Questionnaire(nil), s.questionnaires...)
}

func (s *Service) GetByID(id string) (*models.Questionnaire, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, q := range s.questionnaires {
		if q.ID == id {
			return q, nil
		}
	}
	return nil, ErrNotFound
}
