package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/shopsphere/shopsphere-backend/api/responses"
	"github.com/shopsphere/shopsphere-backend/api/validators"
	"github.com/shopsphere/shopsphere-backend/internal/commission"
	"github.com/shopsphere/shopsphere-backend/pkg/enums"
	pkgerrors "github.com/shopsphere/shopsphere-backend/pkg/errors"
	"github.com/shopsphere/shopsphere-backend/pkg/logger"
)

// AdminListCommissions returns every commission setting.
func AdminListCommissions(svc commission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "commission service unavailable"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := make([]commissionResponse, 0, len(list))
		for i := range list {
			resp = append(resp, newCommissionResponse(&list[i]))
		}
		responses.WriteSuccess(w, resp)
	}
}

// AdminUpsertCommission creates or replaces the setting for a category.
// A missing category targets the global fallback row.
func AdminUpsertCommission(svc commission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "commission service unavailable"))
			return
		}

		var payload commissionUpsertRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		percentage, err := decimal.NewFromString(payload.Percentage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid percentage"))
			return
		}
		basicFee := decimal.Zero
		if payload.BasicFee != "" {
			basicFee, err = decimal.NewFromString(payload.BasicFee)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid basic fee"))
				return
			}
		}

		setting, err := svc.Upsert(r.Context(), commission.UpsertInput{
			Category:       payload.Category,
			Percentage:     percentage,
			BasicFee:       basicFee,
			CommissionType: enums.CommissionType(payload.CommissionType),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCommissionResponse(setting))
	}
}

// AdminDeactivateCommission retires a setting; orders fall back to the
// global row afterwards.
func AdminDeactivateCommission(svc commission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "commission service unavailable"))
			return
		}

		settingID, err := pathUUID(r, "settingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Deactivate(r.Context(), settingID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

// VendorCommissionInfo reports the rate a vendor would be charged for a
// category, falling back to the global row when no override exists.
func VendorCommissionInfo(svc commission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "commission service unavailable"))
			return
		}

		rate, err := svc.Resolve(r.Context(), r.URL.Query().Get("category"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{
			"commission_type": string(rate.Type),
			"percentage":      money(rate.Rate),
			"basic_fee":       money(rate.BasicFee),
			"source":          rate.Source,
		})
	}
}

type commissionUpsertRequest struct {
	Category       *string `json:"category,omitempty" validate:"omitempty,min=1,max=100"`
	Percentage     string  `json:"percentage" validate:"required"`
	BasicFee       string  `json:"basic_fee,omitempty"`
	CommissionType string  `json:"commission_type" validate:"required,oneof=percentage fixed"`
}
