package store

import (
	"context"
	"database/sql"
	"time"

	"vetpos-service/internal/models"
)

// CreateVencimientos inserts a batch of tracking records in one transaction.
// Local validation runs before this call; a failing insert aborts the batch.
func (s *Store) CreateVencimientos(ctx context.Context, vencimientos []models.Vencimiento) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return &models.RemoteWriteError{Op: "begin vencimientos batch", Err: err}
	}
	defer tx.Rollback()

	for i := range vencimientos {
		v := &vencimientos[i]
		err = tx.GetContext(ctx, v, `
			INSERT INTO vencimientos
				(venta_id, producto_id, producto_name, tutor_id, paciente_id,
				 applied_date, due_date, status, supplied, supplied_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id, created_at`,
			v.VentaID, v.ProductoID, v.ProductoName, v.TutorID, v.PacienteID,
			v.AppliedDate, v.DueDate, v.Status, v.Supplied, v.SuppliedDate)
		if err != nil {
			return &models.RemoteWriteError{Op: "insert vencimiento", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &models.RemoteWriteError{Op: "commit vencimientos batch", Err: err}
	}
	return nil
}

// GetVencimientoByID retrieves a tracking record
func (s *Store) GetVencimientoByID(ctx context.Context, id int64) (*models.Vencimiento, error) {
	var v models.Vencimiento
	err := s.db.GetContext(ctx, &v, "SELECT * FROM vencimientos WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Kind: "vencimiento", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetVencimientos retrieves all tracking records ordered by due date
func (s *Store) GetVencimientos(ctx context.Context) ([]models.Vencimiento, error) {
	var vencimientos []models.Vencimiento
	err := s.db.SelectContext(ctx, &vencimientos,
		"SELECT * FROM vencimientos ORDER BY due_date")
	return vencimientos, err
}

// GetVencimientosByPacienteID retrieves a patient's tracking records
func (s *Store) GetVencimientosByPacienteID(ctx context.Context, pacienteID int64) ([]models.Vencimiento, error) {
	var vencimientos []models.Vencimiento
	err := s.db.SelectContext(ctx, &vencimientos,
		"SELECT * FROM vencimientos WHERE paciente_id = $1 ORDER BY due_date", pacienteID)
	return vencimientos, err
}

// UpdateVencimientoSupplied flips the supplied state of a tracking record
func (s *Store) UpdateVencimientoSupplied(ctx context.Context, id int64, supplied bool, suppliedDate *time.Time, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE vencimientos SET supplied = $1, supplied_date = $2, status = $3 WHERE id = $4",
		supplied, suppliedDate, status, id)
	return err
}

// DeleteVencimiento deletes a tracking record
func (s *Store) DeleteVencimiento(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM vencimientos WHERE id = $1", id)
	return err
}
