package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vetpos-service/internal/broker"
	"vetpos-service/internal/models"
	"vetpos-service/internal/redisclient"
	"vetpos-service/internal/store"
	"vetpos-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SaleService runs the point-of-sale pipeline: cart construction, pricing,
// payment reconciliation and the atomic commit with its dependent records.
type SaleService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewSaleService creates a new sale service
func NewSaleService(
	store *store.Store,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
) *SaleService {
	return &SaleService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// ListProductos returns the catalog for one sale source.
func (s *SaleService) ListProductos(ctx context.Context, source string) ([]models.Producto, error) {
	return s.store.GetProductos(ctx, source)
}

// CreateProducto inserts a catalog item and seeds its advisory stock snapshot.
func (s *SaleService) CreateProducto(ctx context.Context, p *models.Producto) error {
	if p.Name == "" {
		return models.NewValidationError("producto name is required")
	}
	if p.Price < 0 {
		return models.NewValidationError("producto price cannot be negative")
	}
	if p.Source != models.SourceOnline && p.Source != models.SourcePresencial {
		return models.NewValidationError("producto source must be online or presencial")
	}

	if err := s.store.CreateProducto(ctx, p); err != nil {
		return &models.RemoteWriteError{Op: "create producto", Err: err}
	}

	if p.Source == models.SourceOnline && !p.Dose {
		if err := s.redis.InitStockSnapshot(ctx, p.ID, p.Stock); err != nil {
			s.logger.Warn("Failed to seed stock snapshot",
				zap.Int64("producto_id", p.ID), zap.Error(err))
		}
	}
	return nil
}

// UpdateStock sets the absolute stock of an online product and refreshes its
// advisory snapshot.
func (s *SaleService) UpdateStock(ctx context.Context, productoID int64, stock int) error {
	if stock < 0 {
		return models.NewValidationError("stock cannot be negative")
	}
	p, err := s.store.GetProducto(ctx, productoID)
	if err != nil {
		return err
	}
	if p.Source != models.SourceOnline {
		return models.NewValidationError("stock is only tracked for online products")
	}

	if err := s.store.UpdateProductoStock(ctx, productoID, stock); err != nil {
		return &models.RemoteWriteError{Op: "update stock", Err: err}
	}

	if !p.Dose {
		if err := s.redis.InitStockSnapshot(ctx, productoID, stock); err != nil {
			s.logger.Warn("Failed to refresh stock snapshot",
				zap.Int64("producto_id", productoID), zap.Error(err))
		}
	}

	s.logger.Info("Stock adjusted",
		zap.Int64("producto_id", productoID),
		zap.Int("stock", stock))
	return nil
}

// SeedStockSnapshots pushes the current online stock counts into Redis at
// startup so the advisory snapshots start from the database truth.
func (s *SaleService) SeedStockSnapshots(ctx context.Context) error {
	productos, err := s.store.GetProductos(ctx, models.SourceOnline)
	if err != nil {
		return err
	}
	for _, p := range productos {
		if p.Dose {
			continue
		}
		if err := s.redis.InitStockSnapshot(ctx, p.ID, p.Stock); err != nil {
			return err
		}
	}
	s.logger.Info("Stock snapshots seeded", zap.Int("productos", len(productos)))
	return nil
}

// CartLineRequest describes one requested sale line.
type CartLineRequest struct {
	ProductoID      int64    `json:"producto_id" binding:"required"`
	Quantity        int      `json:"quantity,omitempty"`
	DoseAmount      float64  `json:"dose_amount,omitempty"`
	UnitPrice       *float64 `json:"unit_price,omitempty"`
	DiscountType    string   `json:"discount_type,omitempty"`
	DiscountValue   float64  `json:"discount_value,omitempty"`
	ClinicalTag     bool     `json:"clinical_tag"`
	VencimientoDays int      `json:"vencimiento_days"`
}

// PaymentRequest describes one payment entry.
type PaymentRequest struct {
	Method    string  `json:"method" binding:"required"`
	Amount    float64 `json:"amount"`
	CardBrand string  `json:"card_brand,omitempty"`
}

// BrandChangeRequest retargets one credit card payment to a new brand while
// quoting. The card's amount is recomputed to close the remaining gap after
// the other payments.
type BrandChangeRequest struct {
	Index     int    `json:"index"`
	CardBrand string `json:"card_brand"`
}

// QuoteVentaRequest prices a cart and reconciles payments without writing.
type QuoteVentaRequest struct {
	TutorID     *int64              `json:"tutor_id,omitempty"`
	Items       []CartLineRequest   `json:"items" binding:"required,min=1"`
	Payments    []PaymentRequest    `json:"payments"`
	BrandChange *BrandChangeRequest `json:"brand_change,omitempty"`
	CuponCode   string              `json:"cupon_code,omitempty"`
}

// QuoteVentaResponse is the priced cart with the reconciled payments.
type QuoteVentaResponse struct {
	Items    []models.CartItem     `json:"items"`
	Summary  CartSummary           `json:"summary"`
	Payments []models.PaymentEntry `json:"payments"`
	Balance  Balance               `json:"balance"`
}

// CommitVentaRequest finalizes a sale.
type CommitVentaRequest struct {
	TutorID    *int64            `json:"tutor_id,omitempty"`
	PacienteID *int64            `json:"paciente_id,omitempty"`
	Items      []CartLineRequest `json:"items" binding:"required,min=1"`
	Payments   []PaymentRequest  `json:"payments" binding:"required,min=1"`
	CuponCode  string            `json:"cupon_code,omitempty"`
	Motivo     string            `json:"motivo,omitempty"`
	Diagnosis  string            `json:"diagnosis,omitempty"`
	Treatment  string            `json:"treatment,omitempty"`
}

// CommitVentaResponse reports the committed sale.
type CommitVentaResponse struct {
	VentaID int64   `json:"venta_id"`
	Total   float64 `json:"total"`
	Debt    float64 `json:"debt"`
	Vuelto  float64 `json:"vuelto"`
}

// buildCart assembles a cart from catalog reads, applying per-line quantity,
// price override and discount through the cart engine so every derived field
// stays consistent.
func (s *SaleService) buildCart(ctx context.Context, lines []CartLineRequest) (*Cart, error) {
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductoID)
	}

	productos, err := s.store.GetProductosByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*models.Producto, len(productos))
	for i := range productos {
		byID[productos[i].ID] = &productos[i]
	}

	cart := &Cart{}
	for _, line := range lines {
		p, ok := byID[line.ProductoID]
		if !ok {
			return nil, &models.NotFoundError{Kind: "producto", ID: line.ProductoID}
		}

		stock := p.Stock
		if p.Source == models.SourceOnline && !p.Dose {
			if snap, found, err := s.redis.GetStockSnapshot(ctx, p.ID); err == nil {
				stock = effectiveStock(p.Stock, snap, found)
			}
		}
		pc := *p
		pc.Stock = stock

		if err := cart.AddItem(&pc, line.DoseAmount); err != nil {
			return nil, err
		}

		idx := lastLineIndex(cart, &pc)
		if !pc.Dose && line.Quantity > 1 {
			if err := cart.ChangeQuantity(idx, line.Quantity, stock); err != nil {
				if _, conflict := err.(*models.StockConflictError); conflict {
					util.StockConflictsTotal.Inc()
				}
				return nil, err
			}
		}
		if line.UnitPrice != nil {
			if err := cart.SetUnitPrice(idx, *line.UnitPrice); err != nil {
				return nil, err
			}
		}
		if line.DiscountType != "" && line.DiscountType != models.DiscountNone {
			if err := cart.ApplyDiscount(idx, line.DiscountType, line.DiscountValue); err != nil {
				return nil, err
			}
		}

		cart.Items[idx].ClinicalTag = line.ClinicalTag
		cart.Items[idx].VencimientoDays = line.VencimientoDays
	}

	return cart, nil
}

// lastLineIndex locates the cart line a catalog item landed on: the last
// appended line for dosed items, the merged discrete line otherwise.
func lastLineIndex(cart *Cart, p *models.Producto) int {
	if p.Dose {
		return len(cart.Items) - 1
	}
	for i := len(cart.Items) - 1; i >= 0; i-- {
		if cart.Items[i].ProductoID == p.ID && !cart.Items[i].Dose {
			return i
		}
	}
	return len(cart.Items) - 1
}

// effectiveStock picks the advisory stock for cart validation: the Redis
// snapshot when one exists, the catalog value otherwise.
func effectiveStock(dbStock, snapshot int, hasSnapshot bool) int {
	if hasSnapshot {
		return snapshot
	}
	return dbStock
}

// price applies the coupon (if any) and the card surcharges, then reconciles
// the payment set. Shared by Quote and Commit.
func (s *SaleService) price(ctx context.Context, cart *Cart, paymentReqs []PaymentRequest, brandChange *BrandChangeRequest, cuponCode string, hasTutor bool) ([]models.PaymentEntry, Balance, *models.Cupon, error) {
	baseTotal := cart.Summary().Total

	var cupon *models.Cupon
	if cuponCode != "" {
		var err error
		cupon, err = s.store.GetCuponByCode(ctx, cuponCode)
		if err != nil {
			return nil, Balance{}, nil, err
		}
		if cupon == nil {
			return nil, Balance{}, nil, models.NewValidationError("coupon %s does not exist", cuponCode)
		}
		baseTotal, err = ApplyCupon(baseTotal, cupon, time.Now())
		if err != nil {
			return nil, Balance{}, nil, err
		}
	}

	payments, balance, err := allocatePayments(baseTotal, paymentReqs, brandChange, hasTutor)
	if err != nil {
		return nil, Balance{}, nil, err
	}
	return payments, balance, cupon, nil
}

// allocatePayments validates the payment set, applies surcharges and the
// optional brand change, then reconciles against the surcharged total.
func allocatePayments(baseTotal float64, reqs []PaymentRequest, brandChange *BrandChangeRequest, hasTutor bool) ([]models.PaymentEntry, Balance, error) {
	payments := make([]models.PaymentEntry, 0, len(reqs))
	for _, pr := range reqs {
		switch pr.Method {
		case models.PaymentEfectivo, models.PaymentDebito, models.PaymentCredito, models.PaymentTransferencia:
		default:
			return nil, Balance{}, models.NewValidationError("unknown payment method %q", pr.Method)
		}
		entry := models.PaymentEntry{
			Method:    pr.Method,
			Amount:    Round2(pr.Amount),
			CardBrand: pr.CardBrand,
		}
		ApplySurcharge(&entry, baseTotal)
		payments = append(payments, entry)
	}

	if brandChange != nil {
		var err error
		payments, err = SetCardBrand(payments, brandChange.Index, baseTotal, brandChange.CardBrand)
		if err != nil {
			return nil, Balance{}, err
		}
	}

	total := TotalWithSurcharges(baseTotal, payments)
	return ComputeBalance(payments, total, hasTutor)
}

// Quote prices a cart and reconciles payments without committing anything.
func (s *SaleService) Quote(ctx context.Context, req *QuoteVentaRequest) (*QuoteVentaResponse, error) {
	ctx, span := util.StartSpan(ctx, "SaleService.Quote")
	defer span.End()

	cart, err := s.buildCart(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	payments, balance, _, err := s.price(ctx, cart, req.Payments, req.BrandChange, req.CuponCode, req.TutorID != nil)
	if err != nil {
		return nil, err
	}

	return &QuoteVentaResponse{
		Items:    cart.Items,
		Summary:  cart.Summary(),
		Payments: payments,
		Balance:  balance,
	}, nil
}

// Commit validates the whole sale, then persists it and every dependent
// record in one transaction. Nothing is written when validation fails; a
// failing transaction leaves no sub-write applied and the operator retries.
func (s *SaleService) Commit(ctx context.Context, req *CommitVentaRequest) (*CommitVentaResponse, error) {
	ctx, span := util.StartSpan(ctx, "SaleService.Commit")
	defer span.End()

	start := time.Now()
	defer func() {
		util.VentaCommitLatency.Observe(time.Since(start).Seconds())
	}()

	venta := models.Venta{TutorID: req.TutorID, PacienteID: req.PacienteID}

	if req.TutorID != nil {
		tutor, err := s.store.GetTutorByID(ctx, *req.TutorID)
		if err != nil {
			return nil, err
		}
		venta.TutorName = tutor.Name
	}

	if req.PacienteID != nil {
		if req.TutorID == nil {
			return nil, models.NewValidationError("a patient cannot be attached without its tutor")
		}
		paciente, err := s.store.GetPacienteByID(ctx, *req.PacienteID)
		if err != nil {
			return nil, err
		}
		if paciente.TutorID != *req.TutorID {
			return nil, models.NewValidationError("paciente %d does not belong to tutor %d",
				*req.PacienteID, *req.TutorID)
		}
		venta.PacienteName = paciente.Name
	}

	cart, err := s.buildCart(ctx, req.Items)
	if err != nil {
		util.VentasFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, err
	}

	payments, balance, cupon, err := s.price(ctx, cart, req.Payments, nil, req.CuponCode, req.TutorID != nil)
	if err != nil {
		util.VentasFailedTotal.WithLabelValues("payment_rejected").Inc()
		return nil, err
	}

	venta.Total = balance.TotalWithSurcharges
	venta.Debt = balance.Debt

	commit := &store.VentaCommit{
		Venta:    venta,
		Items:    cart.Items,
		Payments: payments,
	}

	if historia := s.consolidateHistoria(cart.Items, req); historia != nil {
		commit.Historia = historia
	}

	if req.PacienteID != nil {
		commit.Vencimientos = ForSaleItems(cart.Items, *req.TutorID, *req.PacienteID, time.Now())
	} else {
		for _, item := range cart.Items {
			if item.VencimientoDays > 0 {
				util.VentasFailedTotal.WithLabelValues("vencimiento_without_paciente").Inc()
				return nil, models.NewValidationError("scheduling a vencimiento requires a patient")
			}
		}
	}

	committed, err := s.store.CommitVenta(ctx, commit)
	if err != nil {
		util.VentasFailedTotal.WithLabelValues("commit_failed").Inc()
		return nil, err
	}

	util.VentasConfirmadasTotal.Inc()
	if committed.Debt > 0 {
		util.VentasConDeudaTotal.Inc()
	}
	util.VencimientosCreadosTotal.Add(float64(len(commit.Vencimientos)))

	s.logger.Info("Venta committed",
		zap.Int64("venta_id", committed.ID),
		zap.Float64("total", committed.Total),
		zap.Float64("debt", committed.Debt))

	s.syncStockSnapshots(ctx, cart.Items, -1)

	if cupon != nil {
		if err := s.store.UpdateCuponStatus(ctx, cupon.ID, models.CuponUsado); err != nil {
			s.logger.Error("Failed to mark coupon as used",
				zap.String("code", cupon.Code), zap.Error(err))
		}
	}

	if req.TutorID != nil && committed.Debt > 0 {
		if err := s.redis.InvalidateTutores(ctx); err != nil {
			s.logger.Warn("Failed to invalidate tutor cache", zap.Error(err))
		}
	}

	s.publishConfirmada(ctx, committed, payments)

	return &CommitVentaResponse{
		VentaID: committed.ID,
		Total:   committed.Total,
		Debt:    committed.Debt,
		Vuelto:  balance.Vuelto,
	}, nil
}

// consolidateHistoria builds the single clinical-history entry for every
// tagged line, or nil when no patient is attached or nothing is tagged.
func (s *SaleService) consolidateHistoria(items []models.CartItem, req *CommitVentaRequest) *models.HistoriaClinica {
	if req.PacienteID == nil {
		return nil
	}

	var tagged []string
	for _, item := range items {
		if item.ClinicalTag {
			tagged = append(tagged, item.Name)
		}
	}
	if len(tagged) == 0 {
		return nil
	}

	motivo := req.Motivo
	if motivo == "" {
		motivo = fmt.Sprintf("Venta: %s", strings.Join(tagged, ", "))
	}

	return &models.HistoriaClinica{
		PacienteID: *req.PacienteID,
		TutorID:    *req.TutorID,
		Motivo:     motivo,
		Diagnosis:  req.Diagnosis,
		Treatment:  req.Treatment,
	}
}

// Cancel reverses a committed sale as one compensating transaction and
// publishes the reversal for register reconciliation.
func (s *SaleService) Cancel(ctx context.Context, ventaID int64) error {
	ctx, span := util.StartSpan(ctx, "SaleService.Cancel")
	defer span.End()

	venta, pagos, err := s.store.CancelVenta(ctx, ventaID)
	if err != nil {
		return err
	}

	util.VentasAnuladasTotal.Inc()
	s.logger.Info("Venta cancelled",
		zap.Int64("venta_id", venta.ID),
		zap.Float64("total", venta.Total),
		zap.Float64("debt", venta.Debt))

	items, err := s.store.GetVentaItems(ctx, ventaID)
	if err == nil {
		cartItems := ventaItemsToCart(items)
		s.syncStockSnapshots(ctx, cartItems, 1)
	}

	if venta.TutorID != nil && venta.Debt > 0 {
		if err := s.redis.InvalidateTutores(ctx); err != nil {
			s.logger.Warn("Failed to invalidate tutor cache", zap.Error(err))
		}
	}

	event := &models.VentaAnuladaEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeVentaAnulada,
			Timestamp: time.Now(),
		},
		VentaID:  venta.ID,
		TutorID:  venta.TutorID,
		Fecha:    venta.CreatedAt.Format("2006-01-02"),
		Total:    venta.Total,
		Debt:     venta.Debt,
		Payments: pagosToEventData(pagos),
	}
	if err := s.eventPublisher.PublishVentaAnulada(ctx, event); err != nil {
		s.logger.Error("Failed to publish VentaAnulada event", zap.Error(err))
	}

	return nil
}

// ReopenPrefill is the data a cancelled sale hands back to the wizard so the
// operator can edit and explicitly re-confirm a fresh sale.
type ReopenPrefill struct {
	TutorID      *int64            `json:"tutor_id,omitempty"`
	PacienteID   *int64            `json:"paciente_id,omitempty"`
	TutorName    string            `json:"tutor_name"`
	PacienteName string            `json:"paciente_name,omitempty"`
	Items        []models.CartItem `json:"items"`
}

// CancelAndReopen cancels a sale and returns the wizard prefill built from
// it. The new sale only exists once the operator commits again.
func (s *SaleService) CancelAndReopen(ctx context.Context, ventaID int64) (*ReopenPrefill, error) {
	venta, err := s.store.GetVentaByID(ctx, ventaID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.GetVentaItems(ctx, ventaID)
	if err != nil {
		return nil, err
	}

	if err := s.Cancel(ctx, ventaID); err != nil {
		return nil, err
	}

	return &ReopenPrefill{
		TutorID:      venta.TutorID,
		PacienteID:   venta.PacienteID,
		TutorName:    venta.TutorName,
		PacienteName: venta.PacienteName,
		Items:        ventaItemsToCart(items),
	}, nil
}

// ListVentasByTutor returns a tutor's sales, newest first.
func (s *SaleService) ListVentasByTutor(ctx context.Context, tutorID int64) ([]models.Venta, error) {
	if _, err := s.store.GetTutorByID(ctx, tutorID); err != nil {
		return nil, err
	}
	return s.store.GetVentasByTutorID(ctx, tutorID)
}

// GetVenta retrieves a sale with its lines and payments.
func (s *SaleService) GetVenta(ctx context.Context, ventaID int64) (*models.Venta, []models.VentaItem, []models.Pago, error) {
	venta, err := s.store.GetVentaByID(ctx, ventaID)
	if err != nil {
		return nil, nil, nil, err
	}
	items, err := s.store.GetVentaItems(ctx, ventaID)
	if err != nil {
		return nil, nil, nil, err
	}
	pagos, err := s.store.GetPagosByVentaID(ctx, ventaID)
	if err != nil {
		return nil, nil, nil, err
	}
	return venta, items, pagos, nil
}

// syncStockSnapshots mirrors committed stock movement into the advisory
// Redis snapshots. direction is -1 on commit, +1 on cancellation. Failures
// only log; the database already holds the truth.
func (s *SaleService) syncStockSnapshots(ctx context.Context, items []models.CartItem, direction int) {
	for _, item := range items {
		if item.Source != models.SourceOnline || item.Dose {
			continue
		}
		qty := int(item.Quantity)
		var err error
		if direction < 0 {
			_, err = s.redis.DecrementStockSnapshot(ctx, item.ProductoID, qty)
		} else {
			err = s.redis.IncrementStockSnapshot(ctx, item.ProductoID, qty)
		}
		if err != nil {
			s.logger.Warn("Failed to sync stock snapshot",
				zap.Int64("producto_id", item.ProductoID),
				zap.Error(err))
		}
	}
}

func (s *SaleService) publishConfirmada(ctx context.Context, venta *models.Venta, payments []models.PaymentEntry) {
	data := make([]models.PagoData, 0, len(payments))
	for _, p := range payments {
		data = append(data, models.PagoData{Method: p.Method, Amount: p.Amount, IsVuelto: p.IsVuelto})
	}

	event := &models.VentaConfirmadaEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeVentaConfirmada,
			Timestamp: time.Now(),
		},
		VentaID:  venta.ID,
		TutorID:  venta.TutorID,
		Fecha:    venta.CreatedAt.Format("2006-01-02"),
		Total:    venta.Total,
		Debt:     venta.Debt,
		Payments: data,
	}
	if err := s.eventPublisher.PublishVentaConfirmada(ctx, event); err != nil {
		s.logger.Error("Failed to publish VentaConfirmada event", zap.Error(err))
	}
}

func ventaItemsToCart(items []models.VentaItem) []models.CartItem {
	cartItems := make([]models.CartItem, 0, len(items))
	for _, it := range items {
		cartItems = append(cartItems, models.CartItem{
			ProductoID:          it.ProductoID,
			Source:              it.Source,
			Name:                it.Name,
			Quantity:            it.Quantity,
			Unit:                it.Unit,
			Dose:                it.Dose,
			OriginalPrice:       it.OriginalPrice,
			PriceBeforeDiscount: it.PriceBeforeDiscount,
			DiscountType:        it.DiscountType,
			DiscountValue:       it.DiscountValue,
			DiscountAmount:      it.DiscountAmount,
			Price:               it.Price,
		})
	}
	return cartItems
}

func pagosToEventData(pagos []models.Pago) []models.PagoData {
	data := make([]models.PagoData, 0, len(pagos))
	for _, p := range pagos {
		data = append(data, models.PagoData{Method: p.Method, Amount: p.Amount, IsVuelto: p.IsVuelto})
	}
	return data
}
