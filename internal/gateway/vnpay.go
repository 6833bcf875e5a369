// Package gateway holds the payment-gateway adapters. The VNPay adapter
// signs outgoing pay-URL parameters and verifies incoming IPN callbacks;
// the card adapter tokenizes card details through Stripe.
package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"tutorpay/internal/config"
)

var ErrInvalidSignature = errors.New("invalid gateway signature")

// VNPayConfig carries the merchant credentials and endpoint settings.
type VNPayConfig struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
}

// VNPayConfigFromEnv loads the gateway settings from the environment.
func VNPayConfigFromEnv() VNPayConfig {
	return VNPayConfig{
		TmnCode:    config.GetEnv("VNPAY_TMN_CODE", ""),
		HashSecret: config.GetEnv("VNPAY_HASH_SECRET", ""),
		PayURL:     config.GetEnv("VNPAY_PAY_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
		ReturnURL:  config.GetEnv("VNPAY_RETURN_URL", "http://localhost:8080/deposits/return"),
	}
}

// CallbackParams is the subset of IPN query parameters the deposit flow
// consumes after signature verification.
type CallbackParams struct {
	OrderRef        string
	GatewayTxnCode  string
	ResponseCode    string
	ConfirmedAmount float64
}

// Succeeded reports whether the gateway confirmed the payment.
func (p CallbackParams) Succeeded() bool {
	return p.ResponseCode == "00"
}

// VNPay builds signed payment URLs and validates signed callbacks.
type VNPay struct {
	cfg VNPayConfig
}

func NewVNPay(cfg VNPayConfig) *VNPay {
	return &VNPay{cfg: cfg}
}

// CreatePaymentURL returns the redirect URL for a deposit. The gateway
// expresses amounts in minor units, so the amount is multiplied by 100.
func (g *VNPay) CreatePaymentURL(orderRef string, amount float64, clientIP string, now time.Time) string {
	params := url.Values{}
	params.Set("vnp_Version", "2.1.0")
	params.Set("vnp_Command", "pay")
	params.Set("vnp_TmnCode", g.cfg.TmnCode)
	params.Set("vnp_Amount", strconv.FormatInt(int64(amount*100), 10))
	params.Set("vnp_CurrCode", "VND")
	params.Set("vnp_TxnRef", orderRef)
	params.Set("vnp_OrderInfo", fmt.Sprintf("Deposit %s", orderRef))
	params.Set("vnp_OrderType", "topup")
	params.Set("vnp_Locale", "vn")
	params.Set("vnp_ReturnUrl", g.cfg.ReturnURL)
	params.Set("vnp_IpAddr", clientIP)
	params.Set("vnp_CreateDate", now.Format("20060102150405"))

	params.Set("vnp_SecureHash", g.sign(params))
	return g.cfg.PayURL + "?" + params.Encode()
}

// ValidateCallback verifies the IPN signature and extracts the fields the
// deposit flow needs. The confirmed amount is converted back from minor
// units.
func (g *VNPay) ValidateCallback(query url.Values) (CallbackParams, error) {
	received := query.Get("vnp_SecureHash")
	if received == "" {
		return CallbackParams{}, ErrInvalidSignature
	}

	unsigned := url.Values{}
	for k, vs := range query {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" {
			continue
		}
		for _, v := range vs {
			unsigned.Add(k, v)
		}
	}

	expected := g.sign(unsigned)
	if !hmac.Equal([]byte(received), []byte(expected)) {
		return CallbackParams{}, ErrInvalidSignature
	}

	rawAmount, err := strconv.ParseInt(query.Get("vnp_Amount"), 10, 64)
	if err != nil {
		return CallbackParams{}, fmt.Errorf("invalid callback amount: %w", err)
	}

	return CallbackParams{
		OrderRef:        query.Get("vnp_TxnRef"),
		GatewayTxnCode:  query.Get("vnp_TransactionNo"),
		ResponseCode:    query.Get("vnp_ResponseCode"),
		ConfirmedAmount: float64(rawAmount) / 100,
	}, nil
}

// sign computes the HMAC-SHA512 of the parameters in sorted key order.
func (g *VNPay) sign(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := url.Values{}
	for _, k := range keys {
		data.Set(k, params.Get(k))
	}

	mac := hmac.New(sha512.New, []byte(g.cfg.HashSecret))
	mac.Write([]byte(data.Encode()))
	return hex.EncodeToString(mac.Sum(nil))
}
