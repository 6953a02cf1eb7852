package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopsphere/shopsphere-backend/api/responses"
	"github.com/shopsphere/shopsphere-backend/api/validators"
	checkoutsvc "github.com/shopsphere/shopsphere-backend/internal/checkout"
	"github.com/shopsphere/shopsphere-backend/pkg/enums"
	pkgerrors "github.com/shopsphere/shopsphere-backend/pkg/errors"
	"github.com/shopsphere/shopsphere-backend/pkg/logger"
)

// Checkout places an order from the customer's cart or from ad-hoc lines.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := checkoutsvc.PlaceOrderInput{
			UseCart:       payload.UseCart,
			AddressID:     payload.AddressID,
			PaymentMethod: enums.PaymentMethod(payload.PaymentMethod),
			TransactionID: payload.TransactionID,
		}
		for _, line := range payload.Lines {
			price := decimal.Zero
			if line.Price != "" {
				parsed, parseErr := decimal.NewFromString(line.Price)
				if parseErr != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid line price"))
					return
				}
				price = parsed
			}
			input.Lines = append(input.Lines, checkoutsvc.LineInput{
				ProductID: line.ProductID,
				VendorID:  line.VendorID,
				Name:      line.Name,
				Price:     price,
				Quantity:  line.Quantity,
			})
		}

		order, err := svc.PlaceOrder(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

type checkoutRequest struct {
	UseCart       bool                  `json:"use_cart"`
	Lines         []checkoutLineRequest `json:"lines,omitempty" validate:"omitempty,dive"`
	AddressID     *uuid.UUID            `json:"address_id,omitempty" validate:"omitempty,uuid4"`
	PaymentMethod string                `json:"payment_method" validate:"required"`
	TransactionID string                `json:"transaction_id,omitempty"`
}

type checkoutLineRequest struct {
	ProductID *uuid.UUID `json:"product_id,omitempty" validate:"omitempty,uuid4"`
	VendorID  *uuid.UUID `json:"vendor_id,omitempty" validate:"omitempty,uuid4"`
	Name      string     `json:"name,omitempty"`
	Price     string     `json:"price,omitempty"`
	Quantity  int        `json:"quantity" validate:"required,min=1"`
}
