package models

import (
	"time"

	"github.com/lib/pq"
)

// Catalog sources
const (
	SourceOnline     = "online"
	SourcePresencial = "presencial"
)

// Discount types
const (
	DiscountNone       = "none"
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Payment methods
const (
	PaymentEfectivo      = "efectivo"
	PaymentDebito        = "debito"
	PaymentCredito       = "credito"
	PaymentTransferencia = "transferencia"
)

// Vencimiento stored statuses
const (
	VencimientoPendiente    = "pendiente"
	VencimientoSuministrado = "suministrado"
)

// Vencimiento derived display statuses (never stored)
const (
	VencimientoVencido = "vencido"
	VencimientoProximo = "proximo"
)

// Cupon statuses
const (
	CuponActivo  = "activo"
	CuponUsado   = "usado"
	CuponVencido = "vencido"
)

// Producto is a catalog item. Online products carry tracked stock; presencial
// items are sold in person and may be dosed continuously (Dose + Unit).
type Producto struct {
	ID        int64     `db:"id" json:"id"`
	Source    string    `db:"source" json:"source"`
	Name      string    `db:"name" json:"name"`
	Price     float64   `db:"price" json:"price"`
	Stock     int       `db:"stock" json:"stock"`
	Dose      bool      `db:"dose" json:"dose"`
	Unit      string    `db:"unit" json:"unit,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Tutor is a customer (pet owner). Balance is signed: negative means the
// customer owes the clinic.
type Tutor struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	Email     string    `db:"email" json:"email,omitempty"`
	Balance   float64   `db:"balance" json:"balance"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Paciente is an animal patient linked to a tutor.
type Paciente struct {
	ID        int64     `db:"id" json:"id"`
	TutorID   int64     `db:"tutor_id" json:"tutor_id"`
	Name      string    `db:"name" json:"name"`
	Species   string    `db:"species" json:"species,omitempty"`
	Breed     string    `db:"breed" json:"breed,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CartItem is an in-memory sale line. Derived fields keep the invariants
// PriceBeforeDiscount == OriginalPrice * Quantity and
// Price == PriceBeforeDiscount - DiscountAmount after every mutation.
type CartItem struct {
	ProductoID          int64   `json:"producto_id"`
	Source              string  `json:"source"`
	Name                string  `json:"name"`
	Quantity            float64 `json:"quantity"`
	Unit                string  `json:"unit,omitempty"`
	Dose                bool    `json:"dose"`
	OriginalPrice       float64 `json:"original_price"`
	PriceBeforeDiscount float64 `json:"price_before_discount"`
	DiscountType        string  `json:"discount_type"`
	DiscountValue       float64 `json:"discount_value"`
	DiscountAmount      float64 `json:"discount_amount"`
	Price               float64 `json:"price"`
	ClinicalTag         bool    `json:"clinical_tag"`
	VencimientoDays     int     `json:"vencimiento_days"`
}

// PaymentEntry is one payment against a sale. IsVuelto marks the synthetic
// negative cash entry injected when the customer overpays.
type PaymentEntry struct {
	Method           string  `json:"method"`
	Amount           float64 `json:"amount"`
	CardBrand        string  `json:"card_brand,omitempty"`
	SurchargePercent float64 `json:"surcharge_percent"`
	SurchargeAmount  float64 `json:"surcharge_amount"`
	IsVuelto         bool    `json:"is_vuelto"`
}

// Venta is a committed sale. Immutable after creation except via
// cancellation, which reverses its side effects and deletes it.
type Venta struct {
	ID           int64     `db:"id" json:"id"`
	TutorID      *int64    `db:"tutor_id" json:"tutor_id,omitempty"`
	PacienteID   *int64    `db:"paciente_id" json:"paciente_id,omitempty"`
	TutorName    string    `db:"tutor_name" json:"tutor_name"`
	PacienteName string    `db:"paciente_name" json:"paciente_name,omitempty"`
	Total        float64   `db:"total" json:"total"`
	Debt         float64   `db:"debt" json:"debt"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// VentaItem is a frozen snapshot of a cart line at commit time.
type VentaItem struct {
	ID                  int64   `db:"id" json:"id"`
	VentaID             int64   `db:"venta_id" json:"venta_id"`
	ProductoID          int64   `db:"producto_id" json:"producto_id"`
	Source              string  `db:"source" json:"source"`
	Name                string  `db:"name" json:"name"`
	Quantity            float64 `db:"quantity" json:"quantity"`
	Unit                string  `db:"unit" json:"unit,omitempty"`
	Dose                bool    `db:"dose" json:"dose"`
	OriginalPrice       float64 `db:"original_price" json:"original_price"`
	PriceBeforeDiscount float64 `db:"price_before_discount" json:"price_before_discount"`
	DiscountType        string  `db:"discount_type" json:"discount_type"`
	DiscountValue       float64 `db:"discount_value" json:"discount_value"`
	DiscountAmount      float64 `db:"discount_amount" json:"discount_amount"`
	Price               float64 `db:"price" json:"price"`
}

// Pago is a persisted payment entry for a sale.
type Pago struct {
	ID               int64   `db:"id" json:"id"`
	VentaID          int64   `db:"venta_id" json:"venta_id"`
	Method           string  `db:"method" json:"method"`
	Amount           float64 `db:"amount" json:"amount"`
	CardBrand        string  `db:"card_brand" json:"card_brand,omitempty"`
	SurchargePercent float64 `db:"surcharge_percent" json:"surcharge_percent"`
	SurchargeAmount  float64 `db:"surcharge_amount" json:"surcharge_amount"`
	IsVuelto         bool    `db:"is_vuelto" json:"is_vuelto"`
}

// HistoriaClinica is a clinical history note for a patient. VentaID links
// entries created at sale confirmation so cancellation can cascade.
type HistoriaClinica struct {
	ID         int64          `db:"id" json:"id"`
	PacienteID int64          `db:"paciente_id" json:"paciente_id"`
	TutorID    int64          `db:"tutor_id" json:"tutor_id"`
	Motivo     string         `db:"motivo" json:"motivo"`
	Diagnosis  string         `db:"diagnosis" json:"diagnosis,omitempty"`
	Treatment  string         `db:"treatment" json:"treatment,omitempty"`
	Media      pq.StringArray `db:"media" json:"media,omitempty"`
	VentaID    *int64         `db:"venta_id" json:"venta_id,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// Vencimiento tracks an expiration/due date for a recurring treatment.
// Invariant: Supplied == true <=> Status == suministrado <=> SuppliedDate != nil.
type Vencimiento struct {
	ID           int64      `db:"id" json:"id"`
	VentaID      *int64     `db:"venta_id" json:"venta_id,omitempty"`
	ProductoID   int64      `db:"producto_id" json:"producto_id"`
	ProductoName string     `db:"producto_name" json:"producto_name"`
	TutorID      int64      `db:"tutor_id" json:"tutor_id"`
	PacienteID   int64      `db:"paciente_id" json:"paciente_id"`
	AppliedDate  time.Time  `db:"applied_date" json:"applied_date"`
	DueDate      time.Time  `db:"due_date" json:"due_date"`
	Status       string     `db:"status" json:"status"`
	Supplied     bool       `db:"supplied" json:"supplied"`
	SuppliedDate *time.Time `db:"supplied_date" json:"supplied_date,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Cupon is a loyalty coupon redeemable as a fixed or percentage discount.
type Cupon struct {
	ID        int64     `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Type      string    `db:"type" json:"type"`
	Value     float64   `db:"value" json:"value"`
	Status    string    `db:"status" json:"status"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ProcessedEvent for consumer idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
