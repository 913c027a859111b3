package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpay-mock-upi/config"
	"gpay-mock-upi/internal/guard"
	"gpay-mock-upi/internal/handlers"
	"gpay-mock-upi/internal/ledger"
	"gpay-mock-upi/internal/notify"
	"gpay-mock-upi/internal/routes"
	"gpay-mock-upi/internal/storage/memory"
)

// newTestServer поднимает полный роутер на хранилище в памяти.
func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.JwtKey = []byte("test-secret")

	store := memory.New()
	g := guard.NewMemory(guard.DefaultTTL)
	t.Cleanup(g.Close)

	hub := notify.NewHub()
	go hub.Run()

	svc := ledger.NewService(store, g, hub, nil)
	h := &handlers.UPIHandler{Store: store, Ledger: svc, Hub: hub}

	r := gin.New()
	routes.SetupRoutes(r, h)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type authResponse struct {
	Token   string          `json:"token"`
	UpiID   string          `json:"upiId"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

func register(t *testing.T, r *gin.Engine, userID, name string, balance string) authResponse {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/upi/register", "", gin.H{
		"userId":         userID,
		"name":           name,
		"password":       "secret123",
		"initialBalance": json.Number(balance),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp
}

func TestRegister_DerivesUpiIDAndRejectsDuplicate(t *testing.T) {
	r := newTestServer(t)

	resp := register(t, r, "alice", "Alice", "100")
	assert.Equal(t, "alice@finzen", resp.UpiID)
	assert.True(t, resp.Balance.Equal(decimal.NewFromInt(100)))

	w := doJSON(t, r, http.MethodPost, "/upi/register", "", gin.H{
		"userId": "alice", "name": "Clone", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegister_MissingFields(t *testing.T) {
	r := newTestServer(t)
	w := doJSON(t, r, http.MethodPost, "/upi/register", "", gin.H{"userId": "alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	r := newTestServer(t)
	register(t, r, "alice", "Alice", "0")

	w := doJSON(t, r, http.MethodPost, "/upi/login", "", gin.H{"userId": "alice", "password": "secret123"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/upi/login", "", gin.H{"userId": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/upi/login", "", gin.H{"userId": "ghost", "password": "secret123"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthWithUpiID(t *testing.T) {
	r := newTestServer(t)
	register(t, r, "alice", "Alice", "0")

	w := doJSON(t, r, http.MethodPost, "/upi/auth", "", gin.H{"upiId": "alice@finzen", "password": "secret123"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/upi/auth", "", gin.H{"upiId": "alice@finzen", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestServer(t)
	w := doJSON(t, r, http.MethodGet, "/upi/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/upi/send", "", gin.H{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetBalance_OwnerOnly(t *testing.T) {
	r := newTestServer(t)
	alice := register(t, r, "alice", "Alice", "100")
	register(t, r, "bob", "Bob", "0")

	w := doJSON(t, r, http.MethodGet, "/upi/balance/alice@finzen", alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Balance decimal.Decimal `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Balance.Equal(decimal.NewFromInt(100)))

	// Чужой адрес - Forbidden.
	w = doJSON(t, r, http.MethodGet, "/upi/balance/bob@finzen", alice.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSendMoney_EndToEnd(t *testing.T) {
	r := newTestServer(t)
	alice := register(t, r, "alice", "Alice", "100")
	bob := register(t, r, "bob", "Bob", "0")

	send := gin.H{
		"receiverUpi": "bob@finzen",
		"amount":      json.Number("40"),
		"category":    "food",
		"note":        "lunch",
		"paymentId":   "r1",
	}
	w := doJSON(t, r, http.MethodPost, "/upi/send", alice.Token, send)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Message string `json:"message"`
		SenderTx struct {
			Type      string          `json:"type"`
			PaymentID string          `json:"paymentId"`
			Amount    decimal.Decimal `json:"amount"`
		} `json:"senderTx"`
		ReceiverTx struct {
			Type      string `json:"type"`
			PaymentID string `json:"paymentId"`
		} `json:"receiverTx"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Payment successful", resp.Message)
	assert.Equal(t, "expense", resp.SenderTx.Type)
	assert.Equal(t, "income", resp.ReceiverTx.Type)
	assert.Equal(t, resp.SenderTx.PaymentID, resp.ReceiverTx.PaymentID)

	// Повтор того же paymentId - дубль.
	w = doJSON(t, r, http.MethodPost, "/upi/send", alice.Token, send)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Балансы после перевода.
	w = doJSON(t, r, http.MethodGet, "/upi/balance/alice@finzen", alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "60")

	w = doJSON(t, r, http.MethodGet, "/upi/balance/bob@finzen", bob.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "40")
}

func TestSendMoney_DomainErrorsMapToStatuses(t *testing.T) {
	r := newTestServer(t)
	alice := register(t, r, "alice", "Alice", "60")
	register(t, r, "bob", "Bob", "0")

	cases := []struct {
		name   string
		body   gin.H
		status int
	}{
		{"missing payment id", gin.H{
			"receiverUpi": "bob@finzen", "amount": json.Number("10"), "category": "food",
		}, http.StatusBadRequest},
		{"insufficient balance", gin.H{
			"receiverUpi": "bob@finzen", "amount": json.Number("1000"), "category": "food", "paymentId": "r2",
		}, http.StatusBadRequest},
		{"self transfer", gin.H{
			"receiverUpi": "alice@finzen", "amount": json.Number("10"), "category": "food", "paymentId": "r3",
		}, http.StatusBadRequest},
		{"unknown receiver", gin.H{
			"receiverUpi": "ghost@finzen", "amount": json.Number("10"), "category": "food", "paymentId": "r4",
		}, http.StatusNotFound},
		{"negative amount", gin.H{
			"receiverUpi": "bob@finzen", "amount": json.Number("-1"), "category": "food", "paymentId": "r5",
		}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/upi/send", alice.Token, tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}

	// Ни одна из неудачных попыток не изменила баланс.
	w := doJSON(t, r, http.MethodGet, "/upi/balance/alice@finzen", alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Balance decimal.Decimal `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Balance.Equal(decimal.NewFromInt(60)))
}

func TestGetTransactions_OwnerOnlyAndNewestFirst(t *testing.T) {
	r := newTestServer(t)
	alice := register(t, r, "alice", "Alice", "100")
	bob := register(t, r, "bob", "Bob", "0")

	for _, id := range []string{"t1", "t2"} {
		w := doJSON(t, r, http.MethodPost, "/upi/send", alice.Token, gin.H{
			"receiverUpi": "bob@finzen", "amount": json.Number("10"), "category": "food", "paymentId": id,
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(t, r, http.MethodGet, "/upi/transactions/alice@finzen", alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var txs []struct {
		Type      string `json:"type"`
		PaymentID string `json:"paymentId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &txs))
	require.Len(t, txs, 2)
	assert.Equal(t, "t2", txs[0].PaymentID)
	assert.Equal(t, "expense", txs[0].Type)

	// Боб видит свои зачисления, но не список Алисы.
	w = doJSON(t, r, http.MethodGet, "/upi/transactions/alice@finzen", bob.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestFinzenFetch_DisabledWithoutClient(t *testing.T) {
	r := newTestServer(t)
	alice := register(t, r, "alice", "Alice", "0")

	w := doJSON(t, r, http.MethodGet, "/upi/transactions/alice@finzen/finzen", alice.Token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMe(t *testing.T) {
	r := newTestServer(t)
	alice := register(t, r, "alice", "Alice", "50")

	w := doJSON(t, r, http.MethodGet, "/upi/me", alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"alice@finzen"`)
	assert.Contains(t, w.Body.String(), `"Alice"`)
}
