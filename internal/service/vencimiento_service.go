package service

import (
	"context"
	"time"

	"vetpos-service/internal/broker"
	"vetpos-service/internal/models"
	"vetpos-service/internal/store"
	"vetpos-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultSoonDays is the window within which a pending record shows as
// "proximo".
const DefaultSoonDays = 7

// DueDate derives a due date from the applied date plus a day offset.
func DueDate(applied time.Time, daysAmount int) time.Time {
	return applied.AddDate(0, 0, daysAmount)
}

// truncateDay drops the time-of-day component for date-only comparisons.
func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DisplayStatus classifies a record for display. Derived, never stored:
// suministrado wins, then vencido for past-due, proximo inside the soon
// window, pendiente otherwise.
func DisplayStatus(v *models.Vencimiento, today time.Time, soonDays int) string {
	if v.Supplied {
		return models.VencimientoSuministrado
	}
	due := truncateDay(v.DueDate)
	day := truncateDay(today)
	if due.Before(day) {
		return models.VencimientoVencido
	}
	if !due.After(day.AddDate(0, 0, soonDays)) {
		return models.VencimientoProximo
	}
	return models.VencimientoPendiente
}

// VencimientoService manages expiration tracking records.
type VencimientoService struct {
	store          *store.Store
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
	soonDays       int
}

// NewVencimientoService creates a new vencimiento service
func NewVencimientoService(store *store.Store, eventPublisher *broker.EventPublisher, soonDays int) *VencimientoService {
	if soonDays <= 0 {
		soonDays = DefaultSoonDays
	}
	return &VencimientoService{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
		soonDays:       soonDays,
	}
}

// ScheduleRequest is a manual scheduling request. One of DueDate or
// DaysAmount selects the due date; WithSuministro adds a paired
// already-supplied record per item.
type ScheduleRequest struct {
	ProductoIDs    []int64    `json:"producto_ids" binding:"required,min=1"`
	TutorID        int64      `json:"tutor_id" binding:"required"`
	PacienteID     int64      `json:"paciente_id" binding:"required"`
	AppliedDate    *time.Time `json:"applied_date,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	DaysAmount     int        `json:"days_amount,omitempty"`
	WithSuministro bool       `json:"with_suministro"`
}

// ScheduleManual creates pending records (and optional paired suministros)
// for a set of catalog items. The whole batch is validated first and written
// atomically.
func (vs *VencimientoService) ScheduleManual(ctx context.Context, req *ScheduleRequest) ([]models.Vencimiento, error) {
	ctx, span := util.StartSpan(ctx, "VencimientoService.ScheduleManual")
	defer span.End()

	applied := time.Now()
	if req.AppliedDate != nil {
		applied = *req.AppliedDate
	}
	applied = truncateDay(applied)

	var due time.Time
	switch {
	case req.DueDate != nil:
		due = truncateDay(*req.DueDate)
	case req.DaysAmount > 0:
		due = DueDate(applied, req.DaysAmount)
	default:
		return nil, models.NewValidationError("either a due date or a positive day amount is required")
	}

	if _, err := vs.store.GetPacienteByID(ctx, req.PacienteID); err != nil {
		return nil, err
	}

	productos, err := vs.store.GetProductosByIDs(ctx, req.ProductoIDs)
	if err != nil {
		return nil, err
	}
	if len(productos) != len(req.ProductoIDs) {
		return nil, models.NewValidationError("some selected products were not found")
	}

	now := truncateDay(time.Now())
	vencimientos := make([]models.Vencimiento, 0, len(productos)*2)
	for _, p := range productos {
		vencimientos = append(vencimientos, models.Vencimiento{
			ProductoID:   p.ID,
			ProductoName: p.Name,
			TutorID:      req.TutorID,
			PacienteID:   req.PacienteID,
			AppliedDate:  applied,
			DueDate:      due,
			Status:       models.VencimientoPendiente,
		})
		if req.WithSuministro {
			suppliedDate := now
			vencimientos = append(vencimientos, models.Vencimiento{
				ProductoID:   p.ID,
				ProductoName: p.Name,
				TutorID:      req.TutorID,
				PacienteID:   req.PacienteID,
				AppliedDate:  applied,
				DueDate:      applied,
				Status:       models.VencimientoSuministrado,
				Supplied:     true,
				SuppliedDate: &suppliedDate,
			})
		}
	}

	if err := vs.store.CreateVencimientos(ctx, vencimientos); err != nil {
		return nil, err
	}

	util.VencimientosCreadosTotal.Add(float64(len(vencimientos)))
	vs.logger.Info("Vencimientos scheduled",
		zap.Int("count", len(vencimientos)),
		zap.Int64("paciente_id", req.PacienteID))

	for _, v := range vencimientos {
		if v.Supplied {
			continue
		}
		event := &models.VencimientoCreadoEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeVencimientoCreado,
				Timestamp: time.Now(),
			},
			VencimientoID: v.ID,
			ProductoID:    v.ProductoID,
			PacienteID:    v.PacienteID,
			DueDate:       v.DueDate.Format("2006-01-02"),
		}
		if err := vs.eventPublisher.PublishVencimientoCreado(ctx, event); err != nil {
			vs.logger.Error("Failed to publish VencimientoCreado event", zap.Error(err))
		}
	}

	return vencimientos, nil
}

// ForSaleItems derives the pending records for sale lines tagged with a
// positive day offset. Zero or negative offsets skip the line.
func ForSaleItems(items []models.CartItem, tutorID, pacienteID int64, applied time.Time) []models.Vencimiento {
	applied = truncateDay(applied)
	var vencimientos []models.Vencimiento
	for _, item := range items {
		if item.VencimientoDays <= 0 {
			continue
		}
		vencimientos = append(vencimientos, models.Vencimiento{
			ProductoID:   item.ProductoID,
			ProductoName: item.Name,
			TutorID:      tutorID,
			PacienteID:   pacienteID,
			AppliedDate:  applied,
			DueDate:      DueDate(applied, item.VencimientoDays),
			Status:       models.VencimientoPendiente,
		})
	}
	return vencimientos
}

// VencimientoView is a record annotated with its derived display status.
type VencimientoView struct {
	models.Vencimiento
	DisplayStatus string `json:"display_status"`
}

// List returns every record with its display classification.
func (vs *VencimientoService) List(ctx context.Context) ([]VencimientoView, error) {
	vencimientos, err := vs.store.GetVencimientos(ctx)
	if err != nil {
		return nil, err
	}
	return vs.annotate(vencimientos), nil
}

// ListByPaciente returns one patient's records with display classification.
func (vs *VencimientoService) ListByPaciente(ctx context.Context, pacienteID int64) ([]VencimientoView, error) {
	vencimientos, err := vs.store.GetVencimientosByPacienteID(ctx, pacienteID)
	if err != nil {
		return nil, err
	}
	return vs.annotate(vencimientos), nil
}

func (vs *VencimientoService) annotate(vencimientos []models.Vencimiento) []VencimientoView {
	today := time.Now()
	views := make([]VencimientoView, 0, len(vencimientos))
	for i := range vencimientos {
		views = append(views, VencimientoView{
			Vencimiento:   vencimientos[i],
			DisplayStatus: DisplayStatus(&vencimientos[i], today, vs.soonDays),
		})
	}
	return views
}

// ToggleSupplied marks a record supplied or reverts it. Reverting always
// resets the stored status to pendiente without recomputing against the due
// date; DisplayStatus reclassifies on read.
func (vs *VencimientoService) ToggleSupplied(ctx context.Context, id int64, supplied bool) (*models.Vencimiento, error) {
	v, err := vs.store.GetVencimientoByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if supplied {
		suppliedDate := truncateDay(time.Now())
		v.Supplied = true
		v.SuppliedDate = &suppliedDate
		v.Status = models.VencimientoSuministrado
		util.VencimientosSuministradosTotal.Inc()
	} else {
		v.Supplied = false
		v.SuppliedDate = nil
		v.Status = models.VencimientoPendiente
	}

	if err := vs.store.UpdateVencimientoSupplied(ctx, v.ID, v.Supplied, v.SuppliedDate, v.Status); err != nil {
		return nil, &models.RemoteWriteError{Op: "update vencimiento", Err: err}
	}
	return v, nil
}

// Delete removes a record by staff action.
func (vs *VencimientoService) Delete(ctx context.Context, id int64) error {
	if _, err := vs.store.GetVencimientoByID(ctx, id); err != nil {
		return err
	}
	return vs.store.DeleteVencimiento(ctx, id)
}
