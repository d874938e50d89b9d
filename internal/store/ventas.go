package store

import (
	"context"
	"database/sql"
	"time"

	"vetpos-service/internal/models"
)

// VentaCommit bundles everything the commit transaction writes: the sale
// record, its frozen lines and payments, an optional consolidated clinical
// history entry, and the expiration schedules derived at the final wizard
// step. Debt has already been attributed by the payment allocator.
type VentaCommit struct {
	Venta        models.Venta
	Items        []models.CartItem
	Payments     []models.PaymentEntry
	Historia     *models.HistoriaClinica
	Vencimientos []models.Vencimiento
}

// CommitVenta persists a finalized sale and every dependent record in a
// single transaction. Any sub-write failing rolls back the whole batch.
func (s *Store) CommitVenta(ctx context.Context, commit *VentaCommit) (*models.Venta, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, &models.RemoteWriteError{Op: "begin commit transaction", Err: err}
	}
	defer tx.Rollback()

	venta := commit.Venta
	err = tx.GetContext(ctx, &venta, `
		INSERT INTO ventas (tutor_id, paciente_id, tutor_name, paciente_name, total, debt)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		venta.TutorID, venta.PacienteID, venta.TutorName, venta.PacienteName,
		venta.Total, venta.Debt)
	if err != nil {
		return nil, &models.RemoteWriteError{Op: "insert venta", Err: err}
	}

	for _, item := range commit.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO venta_items
				(venta_id, producto_id, source, name, quantity, unit, dose,
				 original_price, price_before_discount,
				 discount_type, discount_value, discount_amount, price)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			venta.ID, item.ProductoID, item.Source, item.Name, item.Quantity,
			item.Unit, item.Dose, item.OriginalPrice, item.PriceBeforeDiscount,
			item.DiscountType, item.DiscountValue, item.DiscountAmount, item.Price)
		if err != nil {
			return nil, &models.RemoteWriteError{Op: "insert venta item", Err: err}
		}

		// Online non-dose lines consume tracked stock inside the same batch.
		if item.Source == models.SourceOnline && !item.Dose {
			_, err = tx.ExecContext(ctx,
				"UPDATE productos SET stock = stock - $1 WHERE id = $2",
				int(item.Quantity), item.ProductoID)
			if err != nil {
				return nil, &models.RemoteWriteError{Op: "decrement stock", Err: err}
			}
		}
	}

	for _, p := range commit.Payments {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO pagos
				(venta_id, method, amount, card_brand, surcharge_percent, surcharge_amount, is_vuelto)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			venta.ID, p.Method, p.Amount, p.CardBrand,
			p.SurchargePercent, p.SurchargeAmount, p.IsVuelto)
		if err != nil {
			return nil, &models.RemoteWriteError{Op: "insert pago", Err: err}
		}
	}

	if commit.Historia != nil {
		h := commit.Historia
		_, err = tx.ExecContext(ctx, `
			INSERT INTO historias_clinicas
				(paciente_id, tutor_id, motivo, diagnosis, treatment, media, venta_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			h.PacienteID, h.TutorID, h.Motivo, h.Diagnosis, h.Treatment, h.Media, venta.ID)
		if err != nil {
			return nil, &models.RemoteWriteError{Op: "insert historia clinica", Err: err}
		}
	}

	if venta.Debt > 0 && venta.TutorID != nil {
		_, err = tx.ExecContext(ctx,
			"UPDATE tutores SET balance = balance - $1 WHERE id = $2",
			venta.Debt, *venta.TutorID)
		if err != nil {
			return nil, &models.RemoteWriteError{Op: "decrement tutor balance", Err: err}
		}
	}

	for _, v := range commit.Vencimientos {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO vencimientos
				(venta_id, producto_id, producto_name, tutor_id, paciente_id,
				 applied_date, due_date, status, supplied, supplied_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			venta.ID, v.ProductoID, v.ProductoName, v.TutorID, v.PacienteID,
			v.AppliedDate, v.DueDate, v.Status, v.Supplied, v.SuppliedDate)
		if err != nil {
			return nil, &models.RemoteWriteError{Op: "insert vencimiento", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, &models.RemoteWriteError{Op: "commit venta transaction", Err: err}
	}

	return &venta, nil
}

// CancelVenta reverses a committed sale in one transaction: restores stock
// for online non-dose lines, deletes dependent clinical histories and
// expiration records, credits back generated debt, and deletes the sale.
// Returns the cancelled sale with its payments for event publishing.
func (s *Store) CancelVenta(ctx context.Context, ventaID int64) (*models.Venta, []models.Pago, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, &models.RemoteWriteError{Op: "begin cancel transaction", Err: err}
	}
	defer tx.Rollback()

	var venta models.Venta
	err = tx.GetContext(ctx, &venta, "SELECT * FROM ventas WHERE id = $1 FOR UPDATE", ventaID)
	if err == sql.ErrNoRows {
		return nil, nil, &models.NotFoundError{Kind: "venta", ID: ventaID}
	}
	if err != nil {
		return nil, nil, err
	}

	var items []models.VentaItem
	if err := tx.SelectContext(ctx, &items,
		"SELECT * FROM venta_items WHERE venta_id = $1", ventaID); err != nil {
		return nil, nil, err
	}

	var pagos []models.Pago
	if err := tx.SelectContext(ctx, &pagos,
		"SELECT * FROM pagos WHERE venta_id = $1", ventaID); err != nil {
		return nil, nil, err
	}

	for _, item := range items {
		if item.Source == models.SourceOnline && !item.Dose {
			_, err = tx.ExecContext(ctx,
				"UPDATE productos SET stock = stock + $1 WHERE id = $2",
				int(item.Quantity), item.ProductoID)
			if err != nil {
				return nil, nil, &models.RemoteWriteError{Op: "restore stock", Err: err}
			}
		}
	}

	if _, err = tx.ExecContext(ctx,
		"DELETE FROM historias_clinicas WHERE venta_id = $1", ventaID); err != nil {
		return nil, nil, &models.RemoteWriteError{Op: "delete historias", Err: err}
	}

	if _, err = tx.ExecContext(ctx,
		"DELETE FROM vencimientos WHERE venta_id = $1", ventaID); err != nil {
		return nil, nil, &models.RemoteWriteError{Op: "delete vencimientos", Err: err}
	}

	if venta.Debt > 0 && venta.TutorID != nil {
		_, err = tx.ExecContext(ctx,
			"UPDATE tutores SET balance = balance + $1 WHERE id = $2",
			venta.Debt, *venta.TutorID)
		if err != nil {
			return nil, nil, &models.RemoteWriteError{Op: "credit tutor balance", Err: err}
		}
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM pagos WHERE venta_id = $1", ventaID); err != nil {
		return nil, nil, &models.RemoteWriteError{Op: "delete pagos", Err: err}
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM venta_items WHERE venta_id = $1", ventaID); err != nil {
		return nil, nil, &models.RemoteWriteError{Op: "delete venta items", Err: err}
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM ventas WHERE id = $1", ventaID); err != nil {
		return nil, nil, &models.RemoteWriteError{Op: "delete venta", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, &models.RemoteWriteError{Op: "commit cancel transaction", Err: err}
	}

	return &venta, pagos, nil
}

// GetVentaByID retrieves a sale by ID
func (s *Store) GetVentaByID(ctx context.Context, id int64) (*models.Venta, error) {
	var venta models.Venta
	err := s.db.GetContext(ctx, &venta, "SELECT * FROM ventas WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Kind: "venta", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &venta, nil
}

// GetVentaItems retrieves the frozen lines of a sale
func (s *Store) GetVentaItems(ctx context.Context, ventaID int64) ([]models.VentaItem, error) {
	var items []models.VentaItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM venta_items WHERE venta_id = $1 ORDER BY id", ventaID)
	return items, err
}

// GetPagosByVentaID retrieves the payments of a sale
func (s *Store) GetPagosByVentaID(ctx context.Context, ventaID int64) ([]models.Pago, error) {
	var pagos []models.Pago
	err := s.db.SelectContext(ctx, &pagos,
		"SELECT * FROM pagos WHERE venta_id = $1 ORDER BY id", ventaID)
	return pagos, err
}

// GetVentasByDay retrieves the sales committed on one register day
func (s *Store) GetVentasByDay(ctx context.Context, day time.Time) ([]models.Venta, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var ventas []models.Venta
	err := s.db.SelectContext(ctx, &ventas,
		"SELECT * FROM ventas WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at",
		start, end)
	return ventas, err
}

// GetVentasByTutorID retrieves sales for a tutor
func (s *Store) GetVentasByTutorID(ctx context.Context, tutorID int64) ([]models.Venta, error) {
	var ventas []models.Venta
	err := s.db.SelectContext(ctx, &ventas,
		"SELECT * FROM ventas WHERE tutor_id = $1 ORDER BY created_at DESC", tutorID)
	return ventas, err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
