package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aamersadiq/cart-pricing/internal/coupon"
	"github.com/aamersadiq/cart-pricing/internal/domain"
	"github.com/aamersadiq/cart-pricing/internal/pricing"
)

type opsMock struct {
	cart      *domain.Cart
	err       error
	lastOwner domain.Actor
}

func (m *opsMock) result() (*domain.Cart, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.cart, nil
}

func (m *opsMock) GetCart(_ context.Context, owner domain.Actor) (*domain.Cart, error) {
	m.lastOwner = owner
	return m.result()
}

func (m *opsMock) AddItem(_ context.Context, owner domain.Actor, _, _ string, _ int) (*domain.Cart, error) {
	m.lastOwner = owner
	return m.result()
}

func (m *opsMock) UpdateItemQuantity(_ context.Context, owner domain.Actor, _, _ string, _ int) (*domain.Cart, error) {
	m.lastOwner = owner
	return m.result()
}

func (m *opsMock) RemoveItem(_ context.Context, owner domain.Actor, _, _ string) (*domain.Cart, error) {
	m.lastOwner = owner
	return m.result()
}

func (m *opsMock) ClearCart(_ context.Context, owner domain.Actor) (*domain.Cart, error) {
	m.lastOwner = owner
	return m.result()
}

func (m *opsMock) ApplyCoupon(_ context.Context, owner domain.Actor, _ string) (*domain.Cart, error) {
	m.lastOwner = owner
	return m.result()
}

func (m *opsMock) RemoveCoupon(_ context.Context, owner domain.Actor) (*domain.Cart, error) {
	m.lastOwner = owner
	return m.result()
}

func newTestRouter(ops CartOps) http.Handler {
	return NewRouter(NewCartHandler(ops, 5*time.Second), 5*time.Second)
}

func testCart(owner domain.Actor) *domain.Cart {
	cart, _ := domain.NewCart(owner)
	return cart
}

func TestGetCart_UserHeader(t *testing.T) {
	owner := domain.Actor{UserID: "user-1"}
	mock := &opsMock{cart: testCart(owner)}
	router := newTestRouter(mock)

	req := httptest.NewRequest("GET", "/api/v1/cart", nil)
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", mock.lastOwner.UserID)

	var resp domain.Cart
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, mock.cart.ID, resp.ID)
}

func TestGetCart_MintsSessionCookie(t *testing.T) {
	mock := &opsMock{cart: testCart(domain.Actor{SessionID: "x"})}
	router := newTestRouter(mock)

	req := httptest.NewRequest("GET", "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, mock.lastOwner.SessionID)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookie, cookies[0].Name)
	assert.Equal(t, mock.lastOwner.SessionID, cookies[0].Value)
}

func TestGetCart_ReusesSessionCookie(t *testing.T) {
	mock := &opsMock{cart: testCart(domain.Actor{SessionID: "sess-77"})}
	router := newTestRouter(mock)

	req := httptest.NewRequest("GET", "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "sess-77"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sess-77", mock.lastOwner.SessionID)
	assert.Empty(t, rec.Result().Cookies(), "existing session must not be reissued")
}

func TestAddItem_Created(t *testing.T) {
	owner := domain.Actor{UserID: "user-1"}
	mock := &opsMock{cart: testCart(owner)}
	router := newTestRouter(mock)

	body, _ := json.Marshal(AddItemRequestDTO{ProductID: "p1", Quantity: 2})
	req := httptest.NewRequest("POST", "/api/v1/cart/items", bytes.NewReader(body))
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAddItem_MissingProductID(t *testing.T) {
	router := newTestRouter(&opsMock{})

	body, _ := json.Marshal(AddItemRequestDTO{Quantity: 2})
	req := httptest.NewRequest("POST", "/api/v1/cart/items", bytes.NewReader(body))
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddItem_BadJSON(t *testing.T) {
	router := newTestRouter(&opsMock{})

	req := httptest.NewRequest("POST", "/api/v1/cart/items", bytes.NewReader([]byte("{nope")))
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid quantity", pricing.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
		{"item not found", pricing.ErrItemNotFound, http.StatusNotFound, "item_not_found"},
		{"coupon not found", coupon.ErrNotFound, http.StatusNotFound, "coupon_not_found"},
		{"coupon expired", pricing.ErrCouponExpired, http.StatusUnprocessableEntity, "coupon_expired"},
		{"limit reached", coupon.ErrLimitReached, http.StatusUnprocessableEntity, "coupon_limit_reached"},
		{"minimum purchase", pricing.ErrMinimumPurchaseNotMet, http.StatusUnprocessableEntity, "minimum_purchase_not_met"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&opsMock{err: tc.err})

			body, _ := json.Marshal(ApplyCouponRequestDTO{Code: "SAVE20"})
			req := httptest.NewRequest("POST", "/api/v1/cart/coupon", bytes.NewReader(body))
			req.Header.Set("X-User-ID", "user-1")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tc.wantCode, resp.Code)
		})
	}
}

func TestUpdateQuantity_RoutesProductID(t *testing.T) {
	owner := domain.Actor{UserID: "user-1"}
	mock := &opsMock{cart: testCart(owner)}
	router := newTestRouter(mock)

	body, _ := json.Marshal(UpdateQuantityRequestDTO{Quantity: 3})
	req := httptest.NewRequest("PUT", "/api/v1/cart/items/p1", bytes.NewReader(body))
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRemoveItem_VariantQuery(t *testing.T) {
	owner := domain.Actor{UserID: "user-1"}
	mock := &opsMock{cart: testCart(owner)}
	router := newTestRouter(mock)

	req := httptest.NewRequest("DELETE", "/api/v1/cart/items/p1?variant=blue", nil)
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClearCartAndRemoveCoupon(t *testing.T) {
	owner := domain.Actor{UserID: "user-1"}
	mock := &opsMock{cart: testCart(owner)}
	router := newTestRouter(mock)

	for _, target := range []string{"/api/v1/cart", "/api/v1/cart/coupon"} {
		req := httptest.NewRequest("DELETE", target, nil)
		req.Header.Set("X-User-ID", "user-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, target)
	}
}

func TestApplyCoupon_MissingCode(t *testing.T) {
	router := newTestRouter(&opsMock{})

	body, _ := json.Marshal(ApplyCouponRequestDTO{})
	req := httptest.NewRequest("POST", "/api/v1/cart/coupon", bytes.NewReader(body))
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&opsMock{})

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
