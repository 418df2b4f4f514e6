package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/generalexpress/booking-backend/internal/config"
	"github.com/generalexpress/booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// FlutterwaveService handles payment gateway integration with Flutterwave v3
type FlutterwaveService struct {
	config *config.FlutterwaveConfig
	logger *logrus.Logger
	client *http.Client
}

// FlutterwaveCustomer identifies the paying customer
type FlutterwaveCustomer struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phonenumber,omitempty"`
	Name        string `json:"name,omitempty"`
}

// flutterwavePaymentRequest is the body for the hosted payment page handshake
type flutterwavePaymentRequest struct {
	TxRef          string                 `json:"tx_ref"`
	Amount         string                 `json:"amount"`
	Currency       string                 `json:"currency"`
	RedirectURL    string                 `json:"redirect_url,omitempty"`
	Customer       FlutterwaveCustomer    `json:"customer"`
	Customizations map[string]string      `json:"customizations,omitempty"`
	Meta           map[string]interface{} `json:"meta,omitempty"`
}

// flutterwaveChargeRequest is the body for a francophone mobile money charge
type flutterwaveChargeRequest struct {
	TxRef       string `json:"tx_ref"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Country     string `json:"country"`
	FullName    string `json:"fullname,omitempty"`
}

// FlutterwaveInitResponse is the parsed result of a payment handshake
type FlutterwaveInitResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Link string `json:"link"`
	} `json:"data"`
}

// FlutterwaveChargeResponse is the parsed result of a mobile money charge
type FlutterwaveChargeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID     int64  `json:"id"`
		TxRef  string `json:"tx_ref"`
		Status string `json:"status"`
	} `json:"data"`
	Meta struct {
		Authorization struct {
			Redirect string `json:"redirect,omitempty"`
			Mode     string `json:"mode,omitempty"`
		} `json:"authorization"`
	} `json:"meta"`
}

// FlutterwaveVerification is the parsed result of a transaction verification
type FlutterwaveVerification struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID       int64   `json:"id"`
		TxRef    string  `json:"tx_ref"`
		Status   string  `json:"status"`
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	} `json:"data"`
}

// FlutterwaveWebhookEvent is the parsed webhook payload. The raw body must be
// signature-checked before this struct is ever populated.
type FlutterwaveWebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID       int64   `json:"id"`
		TxRef    string  `json:"tx_ref"`
		Status   string  `json:"status"`
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	} `json:"data"`
}

// NewFlutterwaveService creates a new Flutterwave payment service
func NewFlutterwaveService(cfg *config.FlutterwaveConfig, logger *logrus.Logger) *FlutterwaveService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FlutterwaveService{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// GenerateReference generates a payment reference (our tx_ref)
// Format: PAY-YYYYMMDD-XXXXXXXX
// Example: PAY-20260829-A1B2C3D4
func (s *FlutterwaveService) GenerateReference() (string, error) {
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return fmt.Sprintf("PAY-%s-%s",
		time.Now().Format("20060102"),
		strings.ToUpper(hex.EncodeToString(randomBytes)),
	), nil
}

// InitializePaymentParams contains all parameters needed to start a payment
type InitializePaymentParams struct {
	Reference   string
	Amount      float64
	Currency    string
	Customer    FlutterwaveCustomer
	Description string
}

// InitializePayment creates a hosted payment page session and returns its link
func (s *FlutterwaveService) InitializePayment(params *InitializePaymentParams) (*FlutterwaveInitResponse, error) {
	if s.config.SecretKey == "" {
		return nil, &models.GatewayError{Op: "initialize", Err: fmt.Errorf("gateway not configured: missing secret key")}
	}

	request := &flutterwavePaymentRequest{
		TxRef:       params.Reference,
		Amount:      formatAmount(params.Amount),
		Currency:    params.Currency,
		RedirectURL: s.config.RedirectURL,
		Customer:    params.Customer,
		Customizations: map[string]string{
			"title":       "General Express",
			"description": params.Description,
		},
	}

	s.logger.WithFields(logrus.Fields{
		"tx_ref":   params.Reference,
		"amount":   request.Amount,
		"currency": params.Currency,
	}).Info("Initializing Flutterwave payment")

	var initResp FlutterwaveInitResponse
	if err := s.post("/payments", request, &initResp); err != nil {
		return nil, err
	}

	if initResp.Status != "success" {
		return nil, &models.GatewayError{Op: "initialize", Err: fmt.Errorf("gateway rejected payment: %s", initResp.Message)}
	}
	if initResp.Data.Link == "" {
		return nil, &models.GatewayError{Op: "initialize", Err: fmt.Errorf("no payment link returned")}
	}

	return &initResp, nil
}

// ChargeMobileMoney starts a francophone mobile money charge. The customer
// approves the charge on their handset, then the gateway notifies us by
// webhook.
func (s *FlutterwaveService) ChargeMobileMoney(params *InitializePaymentParams) (*FlutterwaveChargeResponse, error) {
	if s.config.SecretKey == "" {
		return nil, &models.GatewayError{Op: "charge", Err: fmt.Errorf("gateway not configured: missing secret key")}
	}

	request := &flutterwaveChargeRequest{
		TxRef:       params.Reference,
		Amount:      formatAmount(params.Amount),
		Currency:    params.Currency,
		Email:       params.Customer.Email,
		PhoneNumber: params.Customer.PhoneNumber,
		Country:     "CM",
		FullName:    params.Customer.Name,
	}

	s.logger.WithFields(logrus.Fields{
		"tx_ref":   params.Reference,
		"amount":   request.Amount,
		"currency": params.Currency,
	}).Info("Initiating mobile money charge")

	var chargeResp FlutterwaveChargeResponse
	if err := s.post("/charges?type=mobile_money_franco", request, &chargeResp); err != nil {
		return nil, err
	}

	if chargeResp.Status != "success" {
		return nil, &models.GatewayError{Op: "charge", Err: fmt.Errorf("gateway rejected charge: %s", chargeResp.Message)}
	}

	return &chargeResp, nil
}

// VerifyTransaction fetches the authoritative state of a transaction from the
// gateway. Callers must still compare the returned amount against the charged
// amount before treating the payment as verified.
func (s *FlutterwaveService) VerifyTransaction(transactionID string) (*FlutterwaveVerification, error) {
	url := fmt.Sprintf("%s/transactions/%s/verify", strings.TrimRight(s.config.BaseURL, "/"), transactionID)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, &models.GatewayError{Op: "verify", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+s.config.SecretKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &models.GatewayError{Op: "verify", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.GatewayError{Op: "verify", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &models.GatewayError{Op: "verify", Err: fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))}
	}

	var verification FlutterwaveVerification
	if err := json.Unmarshal(body, &verification); err != nil {
		return nil, &models.GatewayError{Op: "verify", Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	return &verification, nil
}

// VerifyWebhookSignature checks the verif-hash header against an HMAC-SHA256
// of the raw body. Constant-time comparison; this runs before any parsing of
// the payload.
func (s *FlutterwaveService) VerifyWebhookSignature(body []byte, signature string) bool {
	if s.config.WebhookSecret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(s.config.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

// ParseWebhookEvent parses a signature-verified webhook body. Only charge
// events must carry tx_ref; other event types ship different data shapes and
// are acknowledged without being acted on.
func (s *FlutterwaveService) ParseWebhookEvent(body []byte) (*FlutterwaveWebhookEvent, error) {
	var event FlutterwaveWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}
	if event.Event == "charge.completed" && event.Data.TxRef == "" {
		return nil, fmt.Errorf("charge event missing tx_ref")
	}
	return &event, nil
}

// IsConfigured returns true if the gateway credentials are present
func (s *FlutterwaveService) IsConfigured() bool {
	return s.config.SecretKey != ""
}

// post sends an authenticated JSON request to the gateway
func (s *FlutterwaveService) post(path string, request, response interface{}) error {
	jsonBody, err := json.Marshal(request)
	if err != nil {
		return &models.GatewayError{Op: "request", Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	url := strings.TrimRight(s.config.BaseURL, "/") + path
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return &models.GatewayError{Op: "request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.SecretKey)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.WithError(err).Error("Failed to call Flutterwave endpoint")
		return &models.GatewayError{Op: "request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &models.GatewayError{Op: "request", Err: err}
	}

	s.logger.WithFields(logrus.Fields{
		"status_code": resp.StatusCode,
		"path":        path,
	}).Debug("Flutterwave response received")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &models.GatewayError{Op: "request", Err: fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))}
	}

	if err := json.Unmarshal(body, response); err != nil {
		return &models.GatewayError{Op: "request", Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	return nil
}

// formatAmount renders an amount the way the gateway expects. XAF has no
// fractional unit, so whole amounts drop the decimals.
func formatAmount(amount float64) string {
	if amount == float64(int64(amount)) {
		return fmt.Sprintf("%d", int64(amount))
	}
	return fmt.Sprintf("%.2f", amount)
}
