package reconciliation

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"invoice-reconciliation-backend/internal/models"
	"invoice-reconciliation-backend/internal/repository"
	"invoice-reconciliation-backend/internal/services/matching"
	"invoice-reconciliation-backend/internal/services/normalizer"
)

// Progress is the in-flight state of a run, served while the background
// goroutine works.
type Progress struct {
	Stage  string `json:"stage"`
	Status string `json:"status"`
}

// Service orchestrates a reconciliation session: load and normalize both
// sources, run the matching pipeline in the background, build the matched
// and unmatched views and the statistics.
type Service struct {
	store      *repository.SessionStore
	normalizer *normalizer.Normalizer
	engine     *matching.Engine
	log        zerolog.Logger

	mu            sync.Mutex
	progressCache sync.Map // session id -> *Progress
}

func NewService(store *repository.SessionStore, norm *normalizer.Normalizer, engine *matching.Engine, log zerolog.Logger) *Service {
	return &Service{
		store:      store,
		normalizer: norm,
		engine:     engine,
		log:        log.With().Str("component", "reconciliation").Logger(),
	}
}

func (s *Service) CreateSession() *models.Session {
	session := &models.Session{
		ID:        uuid.New(),
		Status:    models.SessionPending,
		CreatedAt: time.Now(),
	}
	s.store.Put(session)
	s.log.Info().Stringer("session", session.ID).Msg("session created")
	return session
}

// GetSession returns a point-in-time copy of the session. The background
// run mutates session fields under s.mu; handing callers a snapshot taken
// under the same lock keeps polling during a run race-free. The tables and
// views hanging off the copy are immutable once published.
func (s *Service) GetSession(id uuid.UUID) (*models.Session, error) {
	session, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := *session
	return &snapshot, nil
}

// LoadSource normalizes one raw table and attaches it to the session.
// Reloading a source replaces the previous one as long as no run is in
// progress.
func (s *Service) LoadSource(id uuid.UUID, source models.Source, filename string, raw *models.Table) (*models.SourceInfo, error) {
	session, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if session.Status == models.SessionProcessing {
		return nil, models.ErrRunInProgress
	}

	table, quality, err := s.normalizer.Normalize(raw, source)
	if err != nil {
		return nil, err
	}

	info := &models.SourceInfo{
		Filename: filename,
		Rows:     table.RowCount(),
		Columns:  table.ColumnCount(),
		Quality:  quality,
	}
	if source == models.SourceDIAN {
		session.Dian = table
		session.DianInfo = info
	} else {
		session.Contable = table
		session.ContableInfo = info
	}

	s.log.Info().
		Stringer("session", id).
		Str("source", string(source)).
		Str("file", filename).
		Int("rows", info.Rows).
		Msg("source loaded")
	return info, nil
}

// Start validates the session and launches the run in the background. The
// caller gets an immediate answer; progress and results are polled.
func (s *Service) Start(id uuid.UUID) error {
	session, err := s.store.Get(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if session.Status == models.SessionProcessing {
		return models.ErrRunInProgress
	}
	if session.Dian == nil || session.Contable == nil {
		return models.ErrSourceMissing
	}

	session.Status = models.SessionProcessing
	session.Error = ""
	s.progressCache.Store(id, &Progress{Stage: "matching", Status: models.SessionProcessing})

	// Hand the goroutine its inputs while still under the lock; it never
	// reads session fields unguarded.
	go s.run(session, session.Dian, session.Contable)
	return nil
}

func (s *Service) run(session *models.Session, dian, contable *models.Table) {
	result, err := s.engine.Match(dian, contable)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		session.Status = models.SessionFailed
		session.Error = err.Error()
		s.progressCache.Store(session.ID, &Progress{Stage: "matching", Status: models.SessionFailed})
		s.log.Error().Err(err).Stringer("session", session.ID).Msg("reconciliation failed")
		return
	}

	s.progressCache.Store(session.ID, &Progress{Stage: "reporting", Status: models.SessionProcessing})

	session.Result = result
	session.Matched = BuildMatchedView(dian, contable, result)
	session.Unmatched = BuildUnmatchedView(dian, contable, result)
	session.Statistics = ComputeStatistics(session.Matched, session.Unmatched)

	now := time.Now()
	session.CompletedAt = &now
	session.Status = models.SessionCompleted
	s.progressCache.Store(session.ID, &Progress{Stage: "done", Status: models.SessionCompleted})

	s.log.Info().
		Stringer("session", session.ID).
		Int("matched", len(session.Matched)).
		Int("unmatched", len(session.Unmatched)).
		Int("quality_score", session.Statistics.QualityScore).
		Msg("reconciliation completed")
}

// Progress returns the cached run progress; before any run it reflects the
// session status.
func (s *Service) Progress(id uuid.UUID) (*Progress, error) {
	session, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if val, ok := s.progressCache.Load(id); ok {
		return val.(*Progress), nil
	}
	s.mu.Lock()
	status := session.Status
	s.mu.Unlock()
	return &Progress{Stage: "idle", Status: status}, nil
}
