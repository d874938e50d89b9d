package service

import (
	"context"
	"time"

	"vetpos-service/internal/models"
	"vetpos-service/internal/redisclient"
	"vetpos-service/internal/store"
	"vetpos-service/internal/util"

	"go.uber.org/zap"
)

// TutorService manages tutors, patients and clinical histories. The tutor
// list goes through a Redis cache with a fixed freshness window; every write
// invalidates it.
type TutorService struct {
	store    *store.Store
	redis    *redisclient.Client
	logger   *zap.Logger
	cacheTTL time.Duration
}

// NewTutorService creates a new tutor service
func NewTutorService(store *store.Store, redis *redisclient.Client, cacheTTL time.Duration) *TutorService {
	return &TutorService{
		store:    store,
		redis:    redis,
		logger:   util.GetLogger(),
		cacheTTL: cacheTTL,
	}
}

// ListTutores returns the tutor list, served from cache when fresh.
func (ts *TutorService) ListTutores(ctx context.Context) ([]models.Tutor, error) {
	ctx, span := util.StartSpan(ctx, "TutorService.ListTutores")
	defer span.End()

	cached, hit, err := ts.redis.GetCachedTutores(ctx)
	if err != nil {
		ts.logger.Warn("Tutor cache read failed, falling back to DB", zap.Error(err))
	}
	if hit {
		util.TutorCacheHitsTotal.WithLabelValues("hit").Inc()
		return cached, nil
	}
	util.TutorCacheHitsTotal.WithLabelValues("miss").Inc()

	tutores, err := ts.store.GetTutores(ctx)
	if err != nil {
		return nil, err
	}

	if err := ts.redis.CacheTutores(ctx, tutores, ts.cacheTTL); err != nil {
		ts.logger.Warn("Failed to populate tutor cache", zap.Error(err))
	}
	return tutores, nil
}

// GetTutor retrieves a tutor by ID.
func (ts *TutorService) GetTutor(ctx context.Context, id int64) (*models.Tutor, error) {
	return ts.store.GetTutorByID(ctx, id)
}

// CreateTutor inserts a tutor and invalidates the list cache.
func (ts *TutorService) CreateTutor(ctx context.Context, tutor *models.Tutor) error {
	if tutor.Name == "" {
		return models.NewValidationError("tutor name is required")
	}
	if err := ts.store.CreateTutor(ctx, tutor); err != nil {
		return &models.RemoteWriteError{Op: "create tutor", Err: err}
	}
	ts.invalidate(ctx)
	return nil
}

// UpdateTutor edits a tutor's contact fields and invalidates the list cache.
func (ts *TutorService) UpdateTutor(ctx context.Context, tutor *models.Tutor) error {
	if tutor.Name == "" {
		return models.NewValidationError("tutor name is required")
	}
	if _, err := ts.store.GetTutorByID(ctx, tutor.ID); err != nil {
		return err
	}
	if err := ts.store.UpdateTutor(ctx, tutor); err != nil {
		return &models.RemoteWriteError{Op: "update tutor", Err: err}
	}
	ts.invalidate(ctx)
	return nil
}

// PayDebt credits a debt payment to the tutor's account balance.
func (ts *TutorService) PayDebt(ctx context.Context, tutorID int64, amount float64) (*models.Tutor, error) {
	if amount <= 0 {
		return nil, models.NewValidationError("debt payment must be positive")
	}
	if _, err := ts.store.GetTutorByID(ctx, tutorID); err != nil {
		return nil, err
	}

	if err := ts.store.CreditTutorBalance(ctx, tutorID, Round2(amount)); err != nil {
		return nil, &models.RemoteWriteError{Op: "credit tutor balance", Err: err}
	}
	ts.invalidate(ctx)

	ts.logger.Info("Debt payment received",
		zap.Int64("tutor_id", tutorID),
		zap.Float64("amount", amount))

	return ts.store.GetTutorByID(ctx, tutorID)
}

func (ts *TutorService) invalidate(ctx context.Context) {
	if err := ts.redis.InvalidateTutores(ctx); err != nil {
		ts.logger.Warn("Failed to invalidate tutor cache", zap.Error(err))
	}
}

// GetPaciente retrieves a patient by ID.
func (ts *TutorService) GetPaciente(ctx context.Context, id int64) (*models.Paciente, error) {
	return ts.store.GetPacienteByID(ctx, id)
}

// ListPacientes returns the patients of one tutor.
func (ts *TutorService) ListPacientes(ctx context.Context, tutorID int64) ([]models.Paciente, error) {
	if _, err := ts.store.GetTutorByID(ctx, tutorID); err != nil {
		return nil, err
	}
	return ts.store.GetPacientesByTutorID(ctx, tutorID)
}

// CreatePaciente inserts a patient under an existing tutor.
func (ts *TutorService) CreatePaciente(ctx context.Context, paciente *models.Paciente) error {
	if paciente.Name == "" {
		return models.NewValidationError("paciente name is required")
	}
	if _, err := ts.store.GetTutorByID(ctx, paciente.TutorID); err != nil {
		return err
	}
	if err := ts.store.CreatePaciente(ctx, paciente); err != nil {
		return &models.RemoteWriteError{Op: "create paciente", Err: err}
	}
	return nil
}

// CreateHistoria inserts a manual clinical-history entry.
func (ts *TutorService) CreateHistoria(ctx context.Context, h *models.HistoriaClinica) error {
	if h.Motivo == "" {
		return models.NewValidationError("historia motivo is required")
	}
	paciente, err := ts.store.GetPacienteByID(ctx, h.PacienteID)
	if err != nil {
		return err
	}
	h.TutorID = paciente.TutorID
	h.VentaID = nil // manual entries never join a sale cascade

	if err := ts.store.CreateHistoria(ctx, h); err != nil {
		return &models.RemoteWriteError{Op: "create historia", Err: err}
	}
	return nil
}

// ListHistorias returns a patient's clinical history.
func (ts *TutorService) ListHistorias(ctx context.Context, pacienteID int64) ([]models.HistoriaClinica, error) {
	if _, err := ts.store.GetPacienteByID(ctx, pacienteID); err != nil {
		return nil, err
	}
	return ts.store.GetHistoriasByPacienteID(ctx, pacienteID)
}

// UpdateHistoria edits the free-text fields of an entry.
func (ts *TutorService) UpdateHistoria(ctx context.Context, h *models.HistoriaClinica) error {
	if h.Motivo == "" {
		return models.NewValidationError("historia motivo is required")
	}
	if _, err := ts.store.GetHistoriaByID(ctx, h.ID); err != nil {
		return err
	}
	if err := ts.store.UpdateHistoria(ctx, h); err != nil {
		return &models.RemoteWriteError{Op: "update historia", Err: err}
	}
	return nil
}

// DeleteHistoria removes an entry by staff action.
func (ts *TutorService) DeleteHistoria(ctx context.Context, id int64) error {
	if _, err := ts.store.GetHistoriaByID(ctx, id); err != nil {
		return err
	}
	return ts.store.DeleteHistoria(ctx, id)
}
