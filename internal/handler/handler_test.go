package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"go-receipts-api/internal/model"
	"go-receipts-api/internal/repository"
	"go-receipts-api/internal/service"
	"go-receipts-api/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	app   *fiber.App
	store *repository.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := repository.NewMemoryStore()
	tokens := jwt.NewManager("test-secret", 30*time.Minute)
	authService := service.NewAuthService(store.Users(), tokens, nil)
	receiptService := service.NewReceiptService(store.Receipts(), store.Users(), nil, nil)

	app := fiber.New()
	SetupRoutes(app, Deps{
		AuthService:       authService,
		ReceiptService:    receiptService,
		DefaultLineLength: 40,
	})
	return &testServer{app: app, store: store}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

// signup registers a user and returns a fresh access token.
func (s *testServer) signup(t *testing.T, username, name string) string {
	t.Helper()
	status, _ := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username, "password": "password", "name": name,
	})
	require.Equal(t, http.StatusCreated, status)

	status, raw := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username, "password": "password",
	})
	require.Equal(t, http.StatusOK, status)
	var login service.LoginResponse
	require.NoError(t, json.Unmarshal(raw, &login))
	return login.AccessToken
}

func detailOf(t *testing.T, raw []byte) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return body.Detail
}

func receiptBody(price float64, quantity int, paymentType string, amount float64) map[string]interface{} {
	return map[string]interface{}{
		"products":       []map[string]interface{}{{"name": "Product 1", "price": price, "quantity": quantity}},
		"payment_type":   paymentType,
		"payment_amount": amount,
	}
}

func (s *testServer) createReceipt(t *testing.T, token string, body interface{}) model.ReceiptResponse {
	t.Helper()
	status, raw := s.do(t, http.MethodPost, "/api/receipts", token, body)
	require.Equal(t, http.StatusCreated, status, string(raw))
	var receipt model.ReceiptResponse
	require.NoError(t, json.Unmarshal(raw, &receipt))
	return receipt
}

func TestRegisterAndMe(t *testing.T) {
	s := newTestServer(t)

	status, raw := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "User 1", "password": "password", "name": "Test User",
	})
	require.Equal(t, http.StatusCreated, status)
	var user model.UserResponse
	require.NoError(t, json.Unmarshal(raw, &user))
	assert.Equal(t, "User 1", user.Username)
	assert.NotContains(t, string(raw), "password")

	status, raw = s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "User 1", "password": "password", "name": "Test User",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Username already registered", detailOf(t, raw))

	status, raw = s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "ab", "password": "password", "name": "Test User",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Username length must be between 3 and 20 characters", detailOf(t, raw))

	status, raw = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "User 1", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid username or password", detailOf(t, raw))

	token := s.signup(t, "User 2", "Second User")
	status, raw = s.do(t, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &user))
	assert.Equal(t, "Second User", user.Name)
}

func TestAuthenticationFailures(t *testing.T) {
	s := newTestServer(t)

	status, raw := s.do(t, http.MethodGet, "/api/receipts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Not authenticated", detailOf(t, raw))

	status, raw = s.do(t, http.MethodGet, "/api/receipts", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid or expired token", detailOf(t, raw))

	old := s.signup(t, "User 1", "Test User")
	status, raw = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "User 1", "password": "password",
	})
	require.Equal(t, http.StatusOK, status, string(raw))

	status, raw = s.do(t, http.MethodGet, "/api/users/me", old, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Session expired (logged in on another device)", detailOf(t, raw))
}

func TestCreateReceipt(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "User 1", "Test User")

	receipt := s.createReceipt(t, token, receiptBody(5.0, 2, "cash", 10.0))

	assert.NotZero(t, receipt.ID)
	assert.Equal(t, "10", receipt.Total.String())
	assert.Equal(t, "0", receipt.Rest.String())
	assert.Equal(t, model.PaymentCash, receipt.PaymentType)
	assert.False(t, receipt.CreatedAt.IsZero())
	require.Len(t, receipt.Products, 1)
	assert.Equal(t, "Product 1", receipt.Products[0].Name)
}

func TestCreateReceiptRejectsInvalidInput(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "User 1", "Test User")

	tests := []struct {
		name   string
		body   interface{}
		status int
		detail string
	}{
		{"bad payment type", receiptBody(5.0, 2, "invalid", 10.0), http.StatusBadRequest, "Payment type must be 'cash' or 'cashless'"},
		{"insufficient payment", receiptBody(5.0, 2, "cash", 5.0), http.StatusBadRequest, "Insufficient payment amount"},
		{"zero price", receiptBody(0, 2, "cash", 10.0), http.StatusBadRequest, "Price for product 'Product 1' must be greater than 0"},
		{"zero quantity", receiptBody(5.0, 0, "cash", 10.0), http.StatusBadRequest, "Quantity for product 'Product 1' must be greater than 0"},
		{"no products", map[string]interface{}{"products": []interface{}{}, "payment_type": "cash", "payment_amount": 10}, http.StatusBadRequest, "Product list must contain at least one item"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := s.do(t, http.MethodPost, "/api/receipts", token, tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.detail, detailOf(t, raw))
		})
	}

	status, _ := s.do(t, http.MethodPost, "/api/receipts", token, `{"products": "nope"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, raw := s.do(t, http.MethodGet, "/api/receipts", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestGetReceipts(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "User 1", "Test User")
	other := s.signup(t, "User 2", "Other User")

	s.createReceipt(t, token, receiptBody(5.0, 2, "cash", 10.0))
	s.createReceipt(t, token, receiptBody(10.0, 2, "cashless", 20.0))
	s.createReceipt(t, other, receiptBody(1.0, 1, "cash", 1.0))

	var receipts []model.ReceiptResponse
	list := func(query string) int {
		status, raw := s.do(t, http.MethodGet, "/api/receipts"+query, token, nil)
		if status == http.StatusOK {
			require.NoError(t, json.Unmarshal(raw, &receipts))
		}
		return status
	}

	require.Equal(t, http.StatusOK, list(""))
	require.Len(t, receipts, 2)
	assert.Less(t, receipts[0].ID, receipts[1].ID)

	require.Equal(t, http.StatusOK, list("?payment_type=cashless"))
	require.Len(t, receipts, 1)
	assert.Equal(t, "20", receipts[0].Total.String())

	require.Equal(t, http.StatusOK, list("?min_total=15&max_total=25"))
	require.Len(t, receipts, 1)

	require.Equal(t, http.StatusOK, list("?page=2&page_size=1"))
	require.Len(t, receipts, 1)
	assert.Equal(t, model.PaymentCashless, receipts[0].PaymentType)

	from := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	require.Equal(t, http.StatusOK, list("?created_from="+from))
	assert.Len(t, receipts, 2)

	assert.Equal(t, http.StatusBadRequest, list("?min_total=20&max_total=10"))
	assert.Equal(t, http.StatusBadRequest, list("?page=0"))
	assert.Equal(t, http.StatusBadRequest, list("?payment_type=card"))
	assert.Equal(t, http.StatusUnprocessableEntity, list("?min_total=abc"))
	assert.Equal(t, http.StatusUnprocessableEntity, list("?page=one"))
	assert.Equal(t, http.StatusUnprocessableEntity, list("?created_from=yesterday"))
}

func TestGetReceiptByID(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "User 1", "Test User")
	other := s.signup(t, "User 2", "Other User")
	created := s.createReceipt(t, token, receiptBody(5.0, 2, "cash", 10.0))
	path := "/api/receipts/" + itoa(created.ID)

	status, raw := s.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, status)
	var got model.ReceiptResponse
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, created.ID, got.ID)

	status, raw = s.do(t, http.MethodGet, path, other, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Receipt not found", detailOf(t, raw))

	status, raw = s.do(t, http.MethodGet, "/api/receipts/9999", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Receipt not found", detailOf(t, raw))

	status, _ = s.do(t, http.MethodGet, "/api/receipts/abc", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestGetPublicReceipt(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "User 1", "Test User")
	created := s.createReceipt(t, token, receiptBody(5.0, 2, "cash", 10.0))
	path := "/api/receipts/public/" + itoa(created.ID)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	text := string(raw)
	assert.True(t, strings.HasPrefix(text, strings.Repeat(" ", 15)+"Test User\n"), text)
	assert.Contains(t, text, "Product 1"+strings.Repeat(" ", 26)+"10.00\n")
	assert.Contains(t, text, "Thank you for your purchase!")

	status, raw := s.do(t, http.MethodGet, path+"?line_length=30", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, strings.HasPrefix(string(raw), strings.Repeat(" ", 10)+"Test User\n"))

	status, raw = s.do(t, http.MethodGet, path+"?line_length=29", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Line length should be at least 30 characters", detailOf(t, raw))

	status, raw = s.do(t, http.MethodGet, "/api/receipts/public/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Receipt not found", detailOf(t, raw))
}

func TestGetSummary(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "User 1", "Test User")
	other := s.signup(t, "User 2", "Other User")
	s.createReceipt(t, token, receiptBody(5.0, 2, "cash", 10.0))
	s.createReceipt(t, token, receiptBody(2.5, 2, "cashless", 5.0))
	s.createReceipt(t, other, receiptBody(100, 1, "cash", 100))

	status, raw := s.do(t, http.MethodGet, "/api/receipts/summary", token, nil)
	require.Equal(t, http.StatusOK, status, string(raw))

	var summary model.ReceiptSummary
	require.NoError(t, json.Unmarshal(raw, &summary))
	assert.Equal(t, int64(2), summary.Count)
	assert.Equal(t, "15", summary.Total.String())
	require.Len(t, summary.ByPayment, 2)
	assert.Equal(t, model.PaymentCash, summary.ByPayment[0].PaymentType)

	status, _ = s.do(t, http.MethodGet, "/api/receipts/summary?min_total=0", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
