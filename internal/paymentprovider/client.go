// Package paymentprovider содержит клиент платёжного шлюза: инициализацию оплаты
// и проверку подписи входящих уведомлений.
package paymentprovider

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/magabrotheeeer/servicehub/internal/config"
)

// SignatureHeader — заголовок с HMAC-SHA512 тела уведомления.
const SignatureHeader = "X-Paystack-Signature"

// Client отправляет запросы в API шлюза с ключом в заголовке Authorization.
type Client struct {
	baseURL     string
	secretKey   string
	callbackURL string
	httpClient  *http.Client
}

// NewClient создаёт клиент по настройкам шлюза.
func NewClient(cfg config.PaymentProvider) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		secretKey:   cfg.SecretKey,
		callbackURL: cfg.CallbackURL,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// Initiate регистрирует оплату в шлюзе и возвращает ссылку на страницу оплаты.
// Reference — идентификатор платежа, он вернётся в уведомлении.
func (c *Client) Initiate(ctx context.Context, in InitiateRequest) (*Authorization, error) {
	const op = "paymentprovider.Initiate"

	body := initializeBody{
		Email:       in.Email,
		Amount:      MinorUnits(in.Amount),
		Currency:    in.Currency,
		Reference:   in.Reference,
		CallbackURL: c.callbackURL,
		Metadata:    in.Metadata,
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/transaction/initialize", body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var out initializeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%s: decode response (status %d): %w", op, resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !out.Status {
		return nil, fmt.Errorf("%s: unexpected status %s: %s", op, resp.Status, out.Message)
	}
	return &out.Data, nil
}

// MinorUnits переводит сумму в минимальные единицы валюты.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Sign вычисляет подпись тела уведомления в hex.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature сравнивает подпись за постоянное время.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(secret, body)), []byte(strings.ToLower(signature)))
}
