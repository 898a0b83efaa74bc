package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"kertas/internal/domain"
	"kertas/internal/model"
	"kertas/internal/repository"
)

// CustomerHandler handles HTTP requests for customers
type CustomerHandler struct {
	customers repository.CustomerRepository
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customers repository.CustomerRepository) *CustomerHandler {
	return &CustomerHandler{
		customers: customers,
	}
}

// RegisterRoutes registers the handler's routes with the given router
func (h *CustomerHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/v1/customers", h.CreateCustomer)
	router.GET("/v1/customers", h.ListCustomers)
	router.GET("/v1/customers/:id", h.GetCustomer)
	router.PUT("/v1/customers/:id", h.UpdateCustomer)
	router.DELETE("/v1/customers/:id", h.DeleteCustomer)
}

// CreateCustomer handles a request to create a customer
// @Summary Create a customer
// @Tags customers
// @Accept json
// @Produce json
// @Param customer body model.CustomerRequest true "Customer to create"
// @Success 201 {object} domain.Customer
// @Failure 400 {object} model.ErrorResponse
// @Router /v1/customers [post]
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req model.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, ErrInvalidInput+": "+err.Error())
		return
	}

	customer, err := h.customers.CreateCustomer(c.Request.Context(), &domain.Customer{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		respondInternalServerError(c, ErrInternalServer)
		return
	}

	respondCreated(c, customer)
}

// GetCustomer handles a request to fetch a single customer
// @Summary Get a customer
// @Tags customers
// @Produce json
// @Param id path string true "Customer ID"
// @Success 200 {object} domain.Customer
// @Failure 404 {object} model.ErrorResponse
// @Router /v1/customers/{id} [get]
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	customerID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	customer, err := h.customers.GetCustomerByID(c.Request.Context(), customerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondNotFound(c, ErrResourceNotFound)
		} else {
			respondInternalServerError(c, ErrInternalServer)
		}
		return
	}

	respondOK(c, customer)
}

// ListCustomers handles a request to list customers
// @Summary List customers
// @Tags customers
// @Produce json
// @Param name query string false "Filter by name (partial match)"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} domain.PaginatedCustomers
// @Router /v1/customers [get]
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
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

	result, err := h.customers.ListCustomers(c.Request.Context(), domain.CustomerFilter{
		Name:  c.Query("name"),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		respondInternalServerError(c, ErrInternalServer)
		return
	}

	respondOK(c, result)
}

// UpdateCustomer handles a request to update a customer
// @Summary Update a customer
// @Tags customers
// @Accept json
// @Produce json
// @Param id path string true "Customer ID"
// @Param customer body model.CustomerRequest true "Customer fields"
// @Success 200 {object} domain.Customer
// @Failure 404 {object} model.ErrorResponse
// @Router /v1/customers/{id} [put]
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	customerID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	var req model.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, ErrInvalidInput+": "+err.Error())
		return
	}

	customer, err := h.customers.UpdateCustomer(c.Request.Context(), &domain.Customer{
		ID:      customerID,
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondNotFound(c, ErrResourceNotFound)
		} else {
			respondInternalServerError(c, ErrInternalServer)
		}
		return
	}

	respondOK(c, customer)
}

// DeleteCustomer handles a request to delete a customer
// @Summary Delete a customer
// @Tags customers
// @Param id path string true "Customer ID"
// @Success 204
// @Failure 404 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse "Customer still has invoices"
// @Router /v1/customers/{id} [delete]
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	customerID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	if err := h.customers.DeleteCustomer(c.Request.Context(), customerID); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			respondNotFound(c, ErrResourceNotFound)
		case errors.Is(err, domain.ErrCustomerHasInvoices):
			respondConflict(c, "Customer still has invoices")
		default:
			respondInternalServerError(c, ErrInternalServer)
		}
		return
	}

	respondNoContent(c)
}
