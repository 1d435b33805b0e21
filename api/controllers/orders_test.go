package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/pawpantry/storefront-api/internal/orders"
	pkgauth "github.com/pawpantry/storefront-api/pkg/auth"
	"github.com/pawpantry/storefront-api/pkg/enums"
	pkgerrors "github.com/pawpantry/storefront-api/pkg/errors"
	"github.com/pawpantry/storefront-api/pkg/pagination"
)

type stubOrdersService struct {
	order *orders.OrderDTO
	list  *orders.OrderList
	err   error

	trackNumber string
	trackEmail  string
	listUser    uuid.UUID
	listStatus  *enums.OrderStatus
	listParams  pagination.Params
	actorID     uuid.UUID
	status      string
}

func (s *stubOrdersService) Track(ctx context.Context, orderNumber, email string) (*orders.OrderDTO, error) {
	s.trackNumber, s.trackEmail = orderNumber, email
	return s.order, s.err
}

func (s *stubOrdersService) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*orders.OrderList, error) {
	s.listUser, s.listParams = userID, params
	return s.list, s.err
}

func (s *stubOrdersService) ListAll(ctx context.Context, status *enums.OrderStatus, params pagination.Params) (*orders.OrderList, error) {
	s.listStatus, s.listParams = status, params
	return s.list, s.err
}

func (s *stubOrdersService) Get(ctx context.Context, orderID uuid.UUID) (*orders.OrderDTO, error) {
	return s.order, s.err
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, actorID, orderID uuid.UUID, status string) (*orders.OrderDTO, error) {
	s.actorID, s.status = actorID, status
	return s.order, s.err
}

func TestTrackOrder(t *testing.T) {
	svc := &stubOrdersService{order: &orders.OrderDTO{ID: uuid.New(), OrderNumber: "ORD-20260101-000001", Status: enums.OrderStatusShipped}}
	rec := httptest.NewRecorder()
	req := newRequest(http.MethodGet, "/api/v1/orders/track?order_number=%20ORD-20260101-000001%20&email=Buyer@Example.com", "")

	TrackOrder(svc, testLogger()).ServeHTTP(rec, req)

	assertStatus(t, rec, http.StatusOK)
	if svc.trackNumber != "ORD-20260101-000001" || svc.trackEmail != "Buyer@Example.com" {
		t.Fatalf("unexpected lookup %q %q", svc.trackNumber, svc.trackEmail)
	}
	var body orders.OrderDTO
	decodeData(t, rec, &body)
	if body.Status != enums.OrderStatusShipped {
		t.Fatalf("unexpected status %s", body.Status)
	}
}

func TestTrackOrderNotFound(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	rec := httptest.NewRecorder()

	TrackOrder(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/orders/track?order_number=x&email=y@z.com", ""))

	assertStatus(t, rec, http.StatusNotFound)
}

func TestListMyOrdersRequiresCaller(t *testing.T) {
	rec := httptest.NewRecorder()

	ListMyOrders(&stubOrdersService{}, testLogger()).ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/orders", ""))

	assertStatus(t, rec, http.StatusUnauthorized)
}

func TestListMyOrdersPassesPaging(t *testing.T) {
	userID := uuid.New()
	svc := &stubOrdersService{list: &orders.OrderList{Orders: []orders.OrderDTO{}}}
	rec := httptest.NewRecorder()
	req := asUser(newRequest(http.MethodGet, "/api/v1/orders?limit=5&cursor=abc", ""), userID, pkgauth.RoleCustomer)

	ListMyOrders(svc, testLogger()).ServeHTTP(rec, req)

	assertStatus(t, rec, http.StatusOK)
	if svc.listUser != userID || svc.listParams.Limit != 5 || svc.listParams.Cursor != "abc" {
		t.Fatalf("unexpected call: %v %+v", svc.listUser, svc.listParams)
	}
}

func TestAdminListOrdersStatusFilter(t *testing.T) {
	svc := &stubOrdersService{list: &orders.OrderList{}}
	rec := httptest.NewRecorder()

	AdminListOrders(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodGet, "/api/admin/v1/orders?status=Processing", ""))

	assertStatus(t, rec, http.StatusOK)
	if svc.listStatus == nil || *svc.listStatus != enums.OrderStatusProcessing {
		t.Fatalf("expected processing filter, got %v", svc.listStatus)
	}

	rec = httptest.NewRecorder()
	AdminListOrders(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodGet, "/api/admin/v1/orders?status=lost", ""))
	assertStatus(t, rec, http.StatusBadRequest)
}

func TestAdminUpdateOrderStatus(t *testing.T) {
	adminID := uuid.New()
	orderID := uuid.New()
	svc := &stubOrdersService{order: &orders.OrderDTO{ID: orderID, Status: enums.OrderStatusShipped}}
	rec := httptest.NewRecorder()
	req := newRequest(http.MethodPatch, "/api/admin/v1/orders/"+orderID.String()+"/status", `{"status":"shipped"}`)
	req = asUser(withParams(req, map[string]string{"orderId": orderID.String()}), adminID, pkgauth.RoleAdmin)

	AdminUpdateOrderStatus(svc, testLogger()).ServeHTTP(rec, req)

	assertStatus(t, rec, http.StatusOK)
	if svc.actorID != adminID || svc.status != "shipped" {
		t.Fatalf("unexpected call: %v %q", svc.actorID, svc.status)
	}
}

func TestAdminUpdateOrderStatusRejectsBadID(t *testing.T) {
	rec := httptest.NewRecorder()
	req := newRequest(http.MethodPatch, "/api/admin/v1/orders/nope/status", `{"status":"shipped"}`)
	req = asUser(withParams(req, map[string]string{"orderId": "nope"}), uuid.New(), pkgauth.RoleAdmin)

	AdminUpdateOrderStatus(&stubOrdersService{}, testLogger()).ServeHTTP(rec, req)

	assertStatus(t, rec, http.StatusBadRequest)
}
