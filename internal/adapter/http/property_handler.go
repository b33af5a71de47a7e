package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"comortgage/internal/domain/mortgage"
	"comortgage/internal/usecase/property"
)

type PropertyHandler struct{ uc *property.Usecase }

func NewPropertyHandler(uc *property.Usecase) *PropertyHandler {
	return &PropertyHandler{uc: uc}
}

type createPropertyReq struct {
	PurchaseCost        float64            `json:"purchase_cost"          validate:"required,gt=0,dec2"`
	PurchaseDownPayment float64            `json:"purchase_down_payment"  validate:"gte=0,dec2"`
	AnnualRate          float64            `json:"annual_rate"            validate:"gte=0"`
	TotalPeriods        int                `json:"total_periods"          validate:"required,gte=1"`
	Stakeholders        []string           `json:"stakeholders"           validate:"required,min=1,dive,required"`
	DownPayments        map[string]float64 `json:"down_payments,omitempty"`
}

type paymentReq struct {
	Stakeholder string  `json:"stakeholder" validate:"required"`
	Amount      float64 `json:"amount"      validate:"dec2"`
	Period      int     `json:"period"      validate:"gte=0"`
	Date        string  `json:"date,omitempty"`
}

type propertyPath struct {
	PropertyID string `validate:"required,hex32"`
}

// Map domain errors → HTTP codes. Verification failures mean the engine's
// own bookkeeping no longer balances, which is our bug, not the caller's.
func statusFor(err error) int {
	switch {
	case errors.Is(err, property.ErrPropertyNotFound),
		errors.Is(err, mortgage.ErrUnknownStakeholder):
		return http.StatusNotFound
	case errors.Is(err, mortgage.ErrVerificationFailed):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func (h *PropertyHandler) CreateProperty(c echo.Context) error {
	var req createPropertyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.Create(c.Request().Context(), property.CreatePropertyInput(req))
	if err != nil {
		return c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *PropertyHandler) GetProperty(c echo.Context) error {
	propertyID, ok := h.propertyID(c)
	if !ok {
		return nil
	}
	dto, err := h.uc.Get(c.Request().Context(), propertyID)
	if err != nil {
		return c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *PropertyHandler) AcceptPayment(c echo.Context) error {
	propertyID, ok := h.propertyID(c)
	if !ok {
		return nil
	}
	var req paymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	if err := h.uc.AcceptPayment(c.Request().Context(), propertyID, property.PaymentInput(req)); err != nil {
		return c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (h *PropertyHandler) AdvancePeriod(c echo.Context) error {
	propertyID, ok := h.propertyID(c)
	if !ok {
		return nil
	}
	if err := h.uc.AdvancePeriod(c.Request().Context(), propertyID); err != nil {
		return c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
	}
	dto, err := h.uc.Get(c.Request().Context(), propertyID)
	if err != nil {
		return c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *PropertyHandler) GetSchedules(c echo.Context) error {
	propertyID, ok := h.propertyID(c)
	if !ok {
		return nil
	}
	tableType := c.QueryParam("type")
	if tableType == "" {
		tableType = "full"
	}
	schedules, err := h.uc.Schedules(c.Request().Context(), propertyID, tableType)
	if err != nil {
		return c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, schedules)
}

// propertyID validates the path param, writing the error response itself
// when validation fails.
func (h *PropertyHandler) propertyID(c echo.Context) (string, bool) {
	p := propertyPath{PropertyID: c.Param("property_id")}
	if err := c.Validate(&p); err != nil {
		_ = c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid property_id path param",
			Details: ToFieldErrors(err),
		})
		return "", false
	}
	return p.PropertyID, true
}
