package models

import "time"

// Event types
const (
	EventTypeVentaConfirmada   = "VENTA_CONFIRMADA"
	EventTypeVentaAnulada      = "VENTA_ANULADA"
	EventTypeVencimientoCreado = "VENCIMIENTO_CREADO"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// PagoData represents a payment entry in events
type PagoData struct {
	Method   string  `json:"method"`
	Amount   float64 `json:"amount"`
	IsVuelto bool    `json:"is_vuelto"`
}

// VentaConfirmadaEvent published after a sale commits
type VentaConfirmadaEvent struct {
	BaseEvent
	VentaID  int64      `json:"venta_id"`
	TutorID  *int64     `json:"tutor_id,omitempty"`
	Fecha    string     `json:"fecha"` // YYYY-MM-DD register day
	Total    float64    `json:"total"`
	Debt     float64    `json:"debt"`
	Payments []PagoData `json:"payments"`
}

// VentaAnuladaEvent published after a sale is cancelled (compensation)
type VentaAnuladaEvent struct {
	BaseEvent
	VentaID  int64      `json:"venta_id"`
	TutorID  *int64     `json:"tutor_id,omitempty"`
	Fecha    string     `json:"fecha"` // register day of the original sale
	Total    float64    `json:"total"`
	Debt     float64    `json:"debt"`
	Payments []PagoData `json:"payments"`
}

// VencimientoCreadoEvent published when a tracking record is scheduled
type VencimientoCreadoEvent struct {
	BaseEvent
	VencimientoID int64  `json:"vencimiento_id"`
	ProductoID    int64  `json:"producto_id"`
	PacienteID    int64  `json:"paciente_id"`
	DueDate       string `json:"due_date"` // YYYY-MM-DD
}
