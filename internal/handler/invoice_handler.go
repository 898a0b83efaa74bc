package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"kertas/internal/domain"
	"kertas/internal/model"
	"kertas/internal/service"
)

// InvoiceHandler handles HTTP requests for invoices
type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
	}
}

// RegisterRoutes registers the handler's routes with the given router
func (h *InvoiceHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/v1/invoices", h.CreateInvoice)
	router.GET("/v1/invoices", h.ListInvoices)
	router.GET("/v1/invoices/:id", h.GetInvoice)
	router.DELETE("/v1/invoices/:id", h.DeleteInvoice)
	router.POST("/v1/invoices/:id/payments", h.RecordPayment)
}

// CreateInvoice handles a request to create an invoice
// @Summary Create an invoice
// @Description Create a new invoice; the invoice number is allocated server-side
// @Tags invoices
// @Accept json
// @Produce json
// @Param invoice body model.CreateInvoiceRequest true "Invoice to create"
// @Success 201 {object} domain.Invoice "Created invoice with its allocated number"
// @Failure 400 {object} model.ErrorResponse "Validation error"
// @Failure 409 {object} model.ErrorResponse "Number allocation exhausted under contention"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req model.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, ErrInvalidInput+": "+err.Error())
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), req.ToDomain())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			respondBadRequest(c, err.Error())
		case errors.Is(err, domain.ErrAllocationExhausted):
			respondConflict(c, "Could not allocate an invoice number, please retry")
		default:
			respondInternalServerError(c, ErrInternalServer)
		}
		return
	}

	respondCreated(c, invoice)
}

// GetInvoice handles a request to fetch a single invoice
// @Summary Get an invoice
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} domain.Invoice
// @Failure 404 {object} model.ErrorResponse
// @Router /v1/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	invoiceID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	invoice, err := h.invoiceService.GetInvoiceByID(c.Request.Context(), invoiceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondNotFound(c, ErrResourceNotFound)
		} else {
			respondInternalServerError(c, ErrInternalServer)
		}
		return
	}

	respondOK(c, invoice)
}

// ListInvoices handles a request to list invoices with filters
// @Summary List invoices
// @Tags invoices
// @Produce json
// @Param customer_id query string false "Filter by customer"
// @Param status query string false "Filter by status (unpaid, partial, paid)"
// @Param start_date query string false "Created on or after (YYYY-MM-DD)"
// @Param end_date query string false "Created on or before (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} domain.PaginatedInvoices
// @Failure 400 {object} model.ErrorResponse
// @Router /v1/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	page, err := getQueryInt(c, "page", 1)
	if err != nil {
		respondBadRequest(c, ErrInvalidQueryParams+": "+err.Error())
		return
	}
	limit, err := getQueryInt(c, "limit", 10)
	if err != nil {
		respondBadRequest(c, ErrInvalidQueryParams+": "+err.Error())
		return
	}
	startDate, err := parseDate(c.Query("start_date"))
	if err != nil {
		respondBadRequest(c, ErrInvalidQueryParams+": "+err.Error())
		return
	}
	endDate, err := parseDate(c.Query("end_date"))
	if err != nil {
		respondBadRequest(c, ErrInvalidQueryParams+": "+err.Error())
		return
	}

	filter := domain.InvoiceFilter{
		CustomerID: c.Query("customer_id"),
		Status:     domain.InvoiceStatus(c.Query("status")),
		StartDate:  startDate,
		EndDate:    endDate,
		Page:       page,
		Limit:      limit,
	}

	result, err := h.invoiceService.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		respondInternalServerError(c, ErrInternalServer)
		return
	}

	respondOK(c, result)
}

// DeleteInvoice handles a request to delete an invoice
// @Summary Delete an invoice
// @Tags invoices
// @Param id path string true "Invoice ID"
// @Success 204
// @Failure 404 {object} model.ErrorResponse
// @Router /v1/invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	invoiceID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), invoiceID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondNotFound(c, ErrResourceNotFound)
		} else {
			respondInternalServerError(c, ErrInternalServer)
		}
		return
	}

	respondNoContent(c)
}

// RecordPayment handles a request to record a payment against an invoice
// @Summary Record a payment
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param payment body model.RecordPaymentRequest true "Payment to record"
// @Success 200 {object} domain.Invoice "Invoice with updated balance and status"
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /v1/invoices/{id}/payments [post]
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	invoiceID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	var req model.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, ErrInvalidInput+": "+err.Error())
		return
	}

	invoice, err := h.invoiceService.RecordPayment(c.Request.Context(), &domain.Payment{
		InvoiceID: invoiceID,
		Amount:    req.Amount,
		Method:    req.Method,
		Note:      req.Note,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			respondBadRequest(c, err.Error())
		case errors.Is(err, domain.ErrNotFound):
			respondNotFound(c, ErrResourceNotFound)
		default:
			respondInternalServerError(c, ErrInternalServer)
		}
		return
	}

	respondOK(c, invoice)
}
