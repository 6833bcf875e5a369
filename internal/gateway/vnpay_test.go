package gateway

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVNPay() *VNPay {
	return NewVNPay(VNPayConfig{
		TmnCode:    "TEST",
		HashSecret: "secret",
		PayURL:     "https://sandbox.example/pay",
		ReturnURL:  "https://app.example/return",
	})
}

func TestCreatePaymentURL(t *testing.T) {
	g := testVNPay()
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	raw := g.CreatePaymentURL("order-123", 1000, "203.0.113.7", now)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()

	assert.Equal(t, "TEST", q.Get("vnp_TmnCode"))
	assert.Equal(t, "order-123", q.Get("vnp_TxnRef"))
	// Amounts go out in minor units.
	assert.Equal(t, "100000", q.Get("vnp_Amount"))
	assert.Equal(t, "20250314092653", q.Get("vnp_CreateDate"))
	assert.NotEmpty(t, q.Get("vnp_SecureHash"))
}

func TestValidateCallback_RoundTrip(t *testing.T) {
	g := testVNPay()

	// A signed payment URL's own parameters verify against the same secret.
	raw := g.CreatePaymentURL("order-123", 1000, "203.0.113.7", time.Now())
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	q.Set("vnp_ResponseCode", "00")
	q.Set("vnp_TransactionNo", "14422574")
	// Re-sign after adding the gateway's response fields.
	q.Del("vnp_SecureHash")
	q.Set("vnp_SecureHash", g.sign(q))

	params, err := g.ValidateCallback(q)
	require.NoError(t, err)
	assert.Equal(t, "order-123", params.OrderRef)
	assert.Equal(t, "14422574", params.GatewayTxnCode)
	assert.Equal(t, float64(1000), params.ConfirmedAmount)
	assert.True(t, params.Succeeded())
}

func TestValidateCallback_Tampered(t *testing.T) {
	g := testVNPay()

	raw := g.CreatePaymentURL("order-123", 1000, "203.0.113.7", time.Now())
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	// Inflating the amount invalidates the signature.
	q.Set("vnp_Amount", "999900000")

	_, err = g.ValidateCallback(q)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestValidateCallback_WrongSecret(t *testing.T) {
	signer := testVNPay()
	verifier := NewVNPay(VNPayConfig{HashSecret: "other-secret"})

	raw := signer.CreatePaymentURL("order-123", 1000, "203.0.113.7", time.Now())
	u, err := url.Parse(raw)
	require.NoError(t, err)

	_, err = verifier.ValidateCallback(u.Query())
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestValidateCallback_MissingSignature(t *testing.T) {
	g := testVNPay()

	q := url.Values{}
	q.Set("vnp_TxnRef", "order-123")
	_, err := g.ValidateCallback(q)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestValidateCallback_IgnoresHashType(t *testing.T) {
	g := testVNPay()

	raw := g.CreatePaymentURL("order-123", 1000, "203.0.113.7", time.Now())
	u, err := url.Parse(raw)
	require.NoError(t, err)

	// The gateway may append vnp_SecureHashType; it is excluded from signing.
	q := u.Query()
	q.Set("vnp_SecureHashType", "HmacSHA512")

	_, err = g.ValidateCallback(q)
	require.NoError(t, err)
}

func TestCardTokenizer_TestTokens(t *testing.T) {
	tok := NewStripeTokenizer()

	card, err := tok.Tokenize(CardDetails{CardNumber: "tok_visa", ExpiryMonth: "12", ExpiryYear: "2030", CVV: "123"})
	require.NoError(t, err)
	assert.Equal(t, "tok_visa", card.Token)
	assert.Equal(t, "Visa", card.CardType)
	assert.Equal(t, "12/2030", card.Expiry)
}

func TestCardTokenizer_RejectsBadNumber(t *testing.T) {
	tok := NewStripeTokenizer()

	_, err := tok.Tokenize(CardDetails{CardNumber: "4242424242424241", ExpiryMonth: "12", ExpiryYear: "2030", CVV: "123"})
	assert.Error(t, err)
}

func TestLuhn(t *testing.T) {
	assert.True(t, validCardNumber("4242424242424242"))
	assert.False(t, validCardNumber("4242424242424241"))
	assert.False(t, validCardNumber("4242-4242"))
}
