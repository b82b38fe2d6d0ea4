package reconciliation

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-reconciliation-backend/internal/models"
	"invoice-reconciliation-backend/internal/repository"
	"invoice-reconciliation-backend/internal/services/columns"
	"invoice-reconciliation-backend/internal/services/matching"
	"invoice-reconciliation-backend/internal/services/normalizer"
)

func newTestService() *Service {
	log := zerolog.Nop()
	resolver := columns.NewResolver(log)
	return NewService(
		repository.NewSessionStore(),
		normalizer.New(resolver, 4, log),
		matching.NewEngine(matching.DefaultParams(), resolver, log),
		log,
	)
}

func rawDian() *models.Table {
	t := models.NewTable(models.SourceDIAN, []string{"Folio", "Valor Total", "Fecha Emision", "Descripcion"})
	t.Rows = [][]models.Cell{
		{models.TextCell("800100"), models.TextCell("150.00"), models.TextCell("15-03-2024"), models.TextCell("factura uno")},
		{models.TextCell("800200"), models.TextCell("320.00"), models.TextCell("16-03-2024"), models.TextCell("factura dos")},
	}
	return t
}

func rawContable() *models.Table {
	t := models.NewTable(models.SourceContable, []string{"numero_documento", "valor", "fecha", "descripcion"})
	t.Rows = [][]models.Cell{
		{models.TextCell("800100"), models.TextCell("150.00"), models.TextCell("15-03-2024"), models.TextCell("causacion uno")},
		{models.TextCell("999999"), models.TextCell("5000.00"), models.TextCell("20-03-2024"), models.TextCell("otro asiento")},
	}
	return t
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestService()
	session := s.CreateSession()
	assert.Equal(t, models.SessionPending, session.Status)

	_, err := s.LoadSource(session.ID, models.SourceDIAN, "dian.csv", rawDian())
	require.NoError(t, err)
	_, err = s.LoadSource(session.ID, models.SourceContable, "libro.xlsx", rawContable())
	require.NoError(t, err)

	require.NoError(t, s.Start(session.ID))

	require.Eventually(t, func() bool {
		got, err := s.GetSession(session.ID)
		return err == nil && got.Status == models.SessionCompleted
	}, 2*time.Second, 10*time.Millisecond)

	got, err := s.GetSession(session.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Statistics)
	require.NotNil(t, got.CompletedAt)
	assert.Len(t, got.Matched, 1)
	assert.Len(t, got.Unmatched, 2)

	progress, err := s.Progress(session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, progress.Status)
}

func TestStartRequiresBothSources(t *testing.T) {
	s := newTestService()
	session := s.CreateSession()

	_, err := s.LoadSource(session.ID, models.SourceDIAN, "dian.csv", rawDian())
	require.NoError(t, err)

	assert.ErrorIs(t, s.Start(session.ID), models.ErrSourceMissing)
}

func TestUnknownSession(t *testing.T) {
	s := newTestService()
	_, err := s.GetSession(uuid.New())
	assert.ErrorIs(t, err, models.ErrSessionNotFound)

	assert.ErrorIs(t, s.Start(uuid.New()), models.ErrSessionNotFound)
}

func TestLoadSourceRejectsBrokenTable(t *testing.T) {
	s := newTestService()
	session := s.CreateSession()

	empty := models.NewTable(models.SourceDIAN, []string{"Folio"})
	_, err := s.LoadSource(session.ID, models.SourceDIAN, "vacio.csv", empty)
	assert.ErrorIs(t, err, models.ErrEmptyTable)
}

// Polling session state while the background run publishes results must be
// safe; this is what the race detector checks here.
func TestConcurrentPollingDuringRun(t *testing.T) {
	s := newTestService()
	session := s.CreateSession()

	_, err := s.LoadSource(session.ID, models.SourceDIAN, "dian.csv", rawDian())
	require.NoError(t, err)
	_, err = s.LoadSource(session.ID, models.SourceContable, "libro.csv", rawContable())
	require.NoError(t, err)

	require.NoError(t, s.Start(session.ID))

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				got, err := s.GetSession(session.ID)
				require.NoError(t, err)
				_ = got.Status
				_, err = s.Progress(session.ID)
				require.NoError(t, err)
			}
		}()
	}

	require.Eventually(t, func() bool {
		got, err := s.GetSession(session.ID)
		return err == nil && got.Status == models.SessionCompleted
	}, 2*time.Second, 5*time.Millisecond)
	close(done)
	wg.Wait()

	got, err := s.GetSession(session.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Statistics)
}

func TestProgressBeforeRun(t *testing.T) {
	s := newTestService()
	session := s.CreateSession()

	progress, err := s.Progress(session.ID)
	require.NoError(t, err)
	assert.Equal(t, "idle", progress.Stage)
	assert.Equal(t, models.SessionPending, progress.Status)
}
