package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"vetpos-service/internal/models"
	"vetpos-service/internal/service"
	"vetpos-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	sales        *service.SaleService
	vencimientos *service.VencimientoService
	tutores      *service.TutorService
	cupones      *service.CuponService
	caja         *service.CajaService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	sales *service.SaleService,
	vencimientos *service.VencimientoService,
	tutores *service.TutorService,
	cupones *service.CuponService,
	caja *service.CajaService,
) *Handler {
	return &Handler{
		sales:        sales,
		vencimientos: vencimientos,
		tutores:      tutores,
		cupones:      cupones,
		caja:         caja,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/productos", h.listProductos)
		v1.POST("/productos", h.createProducto)
		v1.PUT("/productos/:id/stock", h.updateProductoStock)

		v1.POST("/ventas/quote", h.quoteVenta)
		v1.POST("/ventas", h.commitVenta)
		v1.GET("/ventas/:id", h.getVenta)
		v1.DELETE("/ventas/:id", h.cancelVenta)
		v1.POST("/ventas/:id/reopen", h.reopenVenta)

		v1.GET("/vencimientos", h.listVencimientos)
		v1.POST("/vencimientos", h.scheduleVencimientos)
		v1.PUT("/vencimientos/:id/supplied", h.toggleVencimiento)
		v1.DELETE("/vencimientos/:id", h.deleteVencimiento)

		v1.GET("/tutores", h.listTutores)
		v1.POST("/tutores", h.createTutor)
		v1.GET("/tutores/:id", h.getTutor)
		v1.PUT("/tutores/:id", h.updateTutor)
		v1.POST("/tutores/:id/pagos", h.payDebt)
		v1.GET("/tutores/:id/pacientes", h.listPacientes)
		v1.GET("/tutores/:id/ventas", h.listVentasByTutor)

		v1.POST("/pacientes", h.createPaciente)
		v1.GET("/pacientes/:id", h.getPaciente)
		v1.GET("/pacientes/:id/historias", h.listHistorias)
		v1.GET("/pacientes/:id/vencimientos", h.listVencimientosByPaciente)

		v1.POST("/historias", h.createHistoria)
		v1.PUT("/historias/:id", h.updateHistoria)
		v1.DELETE("/historias/:id", h.deleteHistoria)

		v1.GET("/cupones", h.listCupones)
		v1.POST("/cupones", h.createCupon)
		v1.GET("/cupones/:code", h.validateCupon)

		v1.GET("/caja/:fecha", h.cajaReport)
	}
}

// respondError maps domain error kinds to HTTP statuses. Every error path
// keeps the service interactive; nothing here is fatal.
func respondError(c *gin.Context, err error) {
	var (
		validation *models.ValidationError
		stock      *models.StockConflictError
		notFound   *models.NotFoundError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Msg})
	case errors.As(err, &stock):
		c.JSON(http.StatusConflict, gin.H{
			"error":     stock.Error(),
			"requested": stock.Requested,
			"available": stock.Available,
		})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) listProductos(c *gin.Context) {
	source := c.DefaultQuery("source", models.SourcePresencial)
	if source != models.SourceOnline && source != models.SourcePresencial {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source must be online or presencial"})
		return
	}

	productos, err := h.sales.ListProductos(c.Request.Context(), source)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"productos": productos})
}

func (h *Handler) createProducto(c *gin.Context) {
	var p models.Producto
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if err := h.sales.CreateProducto(c.Request.Context(), &p); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) updateProductoStock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var body struct {
		Stock *int `json:"stock" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.sales.UpdateStock(c.Request.Context(), id, *body.Stock); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"producto_id": id, "stock": *body.Stock})
}

func (h *Handler) quoteVenta(c *gin.Context) {
	var req service.QuoteVentaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	resp, err := h.sales.Quote(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) commitVenta(c *gin.Context) {
	var req service.CommitVentaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	resp, err := h.sales.Commit(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) getVenta(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	venta, items, pagos, err := h.sales.GetVenta(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"venta": venta, "items": items, "pagos": pagos})
}

func (h *Handler) cancelVenta(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.sales.Cancel(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": id})
}

func (h *Handler) reopenVenta(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	prefill, err := h.sales.CancelAndReopen(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefill)
}

func (h *Handler) listVencimientos(c *gin.Context) {
	views, err := h.vencimientos.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vencimientos": views})
}

func (h *Handler) listVencimientosByPaciente(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	views, err := h.vencimientos.ListByPaciente(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vencimientos": views})
}

func (h *Handler) scheduleVencimientos(c *gin.Context) {
	var req service.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	created, err := h.vencimientos.ScheduleManual(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"vencimientos": created})
}

func (h *Handler) toggleVencimiento(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var body struct {
		Supplied bool `json:"supplied"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	v, err := h.vencimientos.ToggleSupplied(c.Request.Context(), id, body.Supplied)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) deleteVencimiento(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.vencimientos.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) listTutores(c *gin.Context) {
	tutores, err := h.tutores.ListTutores(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tutores": tutores})
}

func (h *Handler) createTutor(c *gin.Context) {
	var tutor models.Tutor
	if err := c.ShouldBindJSON(&tutor); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if err := h.tutores.CreateTutor(c.Request.Context(), &tutor); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tutor)
}

func (h *Handler) getTutor(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	tutor, err := h.tutores.GetTutor(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tutor)
}

func (h *Handler) updateTutor(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var tutor models.Tutor
	if err := c.ShouldBindJSON(&tutor); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	tutor.ID = id

	if err := h.tutores.UpdateTutor(c.Request.Context(), &tutor); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tutor)
}

func (h *Handler) payDebt(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var body struct {
		Amount float64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	tutor, err := h.tutores.PayDebt(c.Request.Context(), id, body.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tutor)
}

func (h *Handler) listVentasByTutor(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ventas, err := h.sales.ListVentasByTutor(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ventas": ventas})
}

func (h *Handler) listPacientes(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	pacientes, err := h.tutores.ListPacientes(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pacientes": pacientes})
}

func (h *Handler) createPaciente(c *gin.Context) {
	var paciente models.Paciente
	if err := c.ShouldBindJSON(&paciente); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if err := h.tutores.CreatePaciente(c.Request.Context(), &paciente); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, paciente)
}

func (h *Handler) getPaciente(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	paciente, err := h.tutores.GetPaciente(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paciente)
}

func (h *Handler) listHistorias(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	historias, err := h.tutores.ListHistorias(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"historias": historias})
}

func (h *Handler) createHistoria(c *gin.Context) {
	var historia models.HistoriaClinica
	if err := c.ShouldBindJSON(&historia); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if err := h.tutores.CreateHistoria(c.Request.Context(), &historia); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, historia)
}

func (h *Handler) updateHistoria(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var historia models.HistoriaClinica
	if err := c.ShouldBindJSON(&historia); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	historia.ID = id

	if err := h.tutores.UpdateHistoria(c.Request.Context(), &historia); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, historia)
}

func (h *Handler) deleteHistoria(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.tutores.DeleteHistoria(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) listCupones(c *gin.Context) {
	cupones, err := h.cupones.ListActivos(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cupones": cupones})
}

func (h *Handler) createCupon(c *gin.Context) {
	var cupon models.Cupon
	if err := c.ShouldBindJSON(&cupon); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if err := h.cupones.Create(c.Request.Context(), &cupon); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cupon)
}

func (h *Handler) validateCupon(c *gin.Context) {
	cupon, err := h.cupones.Validate(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cupon)
}

func (h *Handler) cajaReport(c *gin.Context) {
	report, err := h.caja.Report(c.Request.Context(), c.Param("fecha"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
