// gpay-mock-upi/internal/finzen/client.go

// Package finzen - клиент внешнего сервиса учёта финансов. Все вызовы
// best-effort: до трёх попыток с линейной задержкой, ограниченный таймаут,
// ошибки логируются и никогда не влияют на исход перевода.
package finzen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"gpay-mock-upi/models"
)

const (
	maxRetries     = 3
	requestTimeout = 10 * time.Second
)

// Transaction - запись операции в формате Finzen API.
type Transaction struct {
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	PaymentID   string          `json:"paymentId"`
	SenderUpi   string          `json:"senderUpi"`
	ReceiverUpi string          `json:"receiverUpi"`
}

// forwardPayload - тело POST /transactions: операция вместе с контекстом
// пользователя, от имени которого она записывается.
type forwardPayload struct {
	User struct {
		UserID string `json:"userId"`
		UpiID  string `json:"upiId"`
		Name   string `json:"name"`
	} `json:"user"`
	Transaction Transaction `json:"transaction"`
}

// Client ходит в Finzen API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	if apiKey == "" {
		apiKey = "default-key"
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// Forward отправляет одну ногу перевода в Finzen от имени её владельца.
func (c *Client) Forward(ctx context.Context, user models.UPIUser, tx models.Transaction) error {
	var payload forwardPayload
	payload.User.UserID = user.UserID
	payload.User.UpiID = user.UpiID
	payload.User.Name = user.Name
	payload.Transaction = Transaction{
		Type:        tx.Type,
		Amount:      tx.Amount,
		Category:    tx.Category,
		Description: tx.Description,
		Date:        tx.Date,
		PaymentID:   tx.PaymentID,
		SenderUpi:   tx.SenderUpi,
		ReceiverUpi: tx.ReceiverUpi,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return c.withRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transactions", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return fmt.Errorf("finzen api: HTTP %d", resp.StatusCode)
		}
		return nil
	})
}

// FetchTransactions запрашивает операции пользователя из Finzen.
func (c *Client) FetchTransactions(ctx context.Context, user models.UPIUser) ([]Transaction, error) {
	var result []Transaction
	err := c.withRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transactions", nil)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("User-ID", user.UserID)
		req.Header.Set("UPI-ID", user.UpiID)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return fmt.Errorf("finzen api: HTTP %d", resp.StatusCode)
		}

		result = result[:0]
		return json.NewDecoder(resp.Body).Decode(&result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// withRetry выполняет вызов до maxRetries раз с линейной задержкой
// (1с, 2с) между попытками.
func (c *Client) withRetry(ctx context.Context, call func() error) error {
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err = call(); err == nil {
			return nil
		}
		slog.Warn("Finzen API attempt failed", "attempt", attempt, "error", err)
		if attempt == maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return err
}
