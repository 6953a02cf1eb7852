package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/shopsphere/shopsphere-backend/internal/orders"
	"github.com/shopsphere/shopsphere-backend/pkg/db/models"
	"github.com/shopsphere/shopsphere-backend/pkg/enums"
	pkgerrors "github.com/shopsphere/shopsphere-backend/pkg/errors"
	"github.com/shopsphere/shopsphere-backend/pkg/pagination"
)

type testOrdersService struct {
	vendorActionFn func(ctx context.Context, orderID, vendorUserID uuid.UUID, action orders.Action, notes string) (*orders.ActionResult, error)
}

func (s *testOrdersService) VendorAction(ctx context.Context, orderID, vendorUserID uuid.UUID, action orders.Action, notes string) (*orders.ActionResult, error) {
	if s.vendorActionFn != nil {
		return s.vendorActionFn(ctx, orderID, vendorUserID, action, notes)
	}
	return nil, nil
}

func (s *testOrdersService) VendorItems(context.Context, uuid.UUID, int) ([]models.OrderItem, error) {
	return nil, nil
}

func (s *testOrdersService) UnassignedOrders(context.Context) ([]models.Order, error) {
	return nil, nil
}

func (s *testOrdersService) Get(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	return nil, nil
}

func (s *testOrdersService) Detail(context.Context, uuid.UUID) (*models.Order, error) {
	return nil, nil
}

func (s *testOrdersService) ListMine(context.Context, uuid.UUID, pagination.Params) (*orders.Page, error) {
	return &orders.Page{}, nil
}

func TestVendorOrderActionPackReportsAssignmentNote(t *testing.T) {
	vendorID := uuid.New()
	orderID := uuid.New()
	svc := &testOrdersService{
		vendorActionFn: func(_ context.Context, oid, vid uuid.UUID, action orders.Action, notes string) (*orders.ActionResult, error) {
			if oid != orderID || vid != vendorID {
				t.Fatalf("unexpected ids %s %s", oid, vid)
			}
			if action != orders.ActionPack {
				t.Fatalf("unexpected action %s", action)
			}
			return &orders.ActionResult{
				Order:          &models.Order{ID: oid, OrderNumber: "ORD-1A2B3C4D", Status: enums.OrderStatusPacked},
				AssignmentNote: "delivery agent Ravi Kumar assigned",
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vendor/orders/"+orderID.String()+"/action", strings.NewReader(`{"action":"pack"}`))
	req = authenticated(req, vendorID)
	req = withURLParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	VendorOrderAction(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data struct {
			AssignmentNote string `json:"assignment_note"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !strings.Contains(envelope.Data.AssignmentNote, "Ravi Kumar") {
		t.Fatalf("missing assignment note: %q", envelope.Data.AssignmentNote)
	}
}

func TestVendorOrderActionRejectsUnknownAction(t *testing.T) {
	svc := &testOrdersService{
		vendorActionFn: func(context.Context, uuid.UUID, uuid.UUID, orders.Action, string) (*orders.ActionResult, error) {
			t.Fatal("service should not run")
			return nil, nil
		},
	}

	orderID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vendor/orders/"+orderID.String()+"/action", strings.NewReader(`{"action":"ship"}`))
	req = authenticated(req, uuid.New())
	req = withURLParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	VendorOrderAction(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestVendorOrderActionPropagatesServiceError(t *testing.T) {
	svc := &testOrdersService{
		vendorActionFn: func(context.Context, uuid.UUID, uuid.UUID, orders.Action, string) (*orders.ActionResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot move order from rejected to packed")
		},
	}

	orderID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vendor/orders/"+orderID.String()+"/action", strings.NewReader(`{"action":"pack"}`))
	req = authenticated(req, uuid.New())
	req = withURLParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	VendorOrderAction(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
}
