package store

import (
	"context"
	"database/sql"

	"vetpos-service/internal/models"
)

// GetTutorByID retrieves a tutor by ID
func (s *Store) GetTutorByID(ctx context.Context, id int64) (*models.Tutor, error) {
	var tutor models.Tutor
	err := s.db.GetContext(ctx, &tutor, "SELECT * FROM tutores WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Kind: "tutor", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &tutor, nil
}

// GetTutores retrieves all tutors
func (s *Store) GetTutores(ctx context.Context) ([]models.Tutor, error) {
	var tutores []models.Tutor
	err := s.db.SelectContext(ctx, &tutores, "SELECT * FROM tutores ORDER BY name")
	return tutores, err
}

// CreateTutor inserts a tutor
func (s *Store) CreateTutor(ctx context.Context, tutor *models.Tutor) error {
	query := `
		INSERT INTO tutores (name, phone, email, balance)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, tutor, query,
		tutor.Name, tutor.Phone, tutor.Email, tutor.Balance)
}

// UpdateTutor updates contact fields of a tutor
func (s *Store) UpdateTutor(ctx context.Context, tutor *models.Tutor) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE tutores SET name = $1, phone = $2, email = $3 WHERE id = $4",
		tutor.Name, tutor.Phone, tutor.Email, tutor.ID)
	return err
}

// CreditTutorBalance adds amount to a tutor's balance (debt payments)
func (s *Store) CreditTutorBalance(ctx context.Context, tutorID int64, amount float64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE tutores SET balance = balance + $1 WHERE id = $2",
		amount, tutorID)
	return err
}

// GetPacienteByID retrieves a patient by ID
func (s *Store) GetPacienteByID(ctx context.Context, id int64) (*models.Paciente, error) {
	var paciente models.Paciente
	err := s.db.GetContext(ctx, &paciente, "SELECT * FROM pacientes WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Kind: "paciente", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &paciente, nil
}

// GetPacientesByTutorID retrieves the patients of a tutor
func (s *Store) GetPacientesByTutorID(ctx context.Context, tutorID int64) ([]models.Paciente, error) {
	var pacientes []models.Paciente
	err := s.db.SelectContext(ctx, &pacientes,
		"SELECT * FROM pacientes WHERE tutor_id = $1 ORDER BY name", tutorID)
	return pacientes, err
}

// CreatePaciente inserts a patient
func (s *Store) CreatePaciente(ctx context.Context, paciente *models.Paciente) error {
	query := `
		INSERT INTO pacientes (tutor_id, name, species, breed)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, paciente, query,
		paciente.TutorID, paciente.Name, paciente.Species, paciente.Breed)
}

// CreateHistoria inserts a clinical history entry
func (s *Store) CreateHistoria(ctx context.Context, h *models.HistoriaClinica) error {
	query := `
		INSERT INTO historias_clinicas
			(paciente_id, tutor_id, motivo, diagnosis, treatment, media, venta_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, h, query,
		h.PacienteID, h.TutorID, h.Motivo, h.Diagnosis, h.Treatment, h.Media, h.VentaID)
}

// GetHistoriaByID retrieves a clinical history entry
func (s *Store) GetHistoriaByID(ctx context.Context, id int64) (*models.HistoriaClinica, error) {
	var h models.HistoriaClinica
	err := s.db.GetContext(ctx, &h, "SELECT * FROM historias_clinicas WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Kind: "historia clinica", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// GetHistoriasByPacienteID retrieves a patient's clinical history
func (s *Store) GetHistoriasByPacienteID(ctx context.Context, pacienteID int64) ([]models.HistoriaClinica, error) {
	var historias []models.HistoriaClinica
	err := s.db.SelectContext(ctx, &historias,
		"SELECT * FROM historias_clinicas WHERE paciente_id = $1 ORDER BY created_at DESC",
		pacienteID)
	return historias, err
}

// UpdateHistoria edits the free-text fields of a clinical history entry
func (s *Store) UpdateHistoria(ctx context.Context, h *models.HistoriaClinica) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE historias_clinicas SET motivo = $1, diagnosis = $2, treatment = $3, media = $4 WHERE id = $5",
		h.Motivo, h.Diagnosis, h.Treatment, h.Media, h.ID)
	return err
}

// DeleteHistoria deletes a clinical history entry
func (s *Store) DeleteHistoria(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM historias_clinicas WHERE id = $1", id)
	return err
}
