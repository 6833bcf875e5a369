package gateway

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/token"
)

// CardDetails is the raw card input for an instant card deposit.
type CardDetails struct {
	CardNumber  string
	ExpiryMonth string
	ExpiryYear  string
	CVV         string
}

// CardToken is the tokenized result returned by the card processor.
type CardToken struct {
	Token    string
	CardType string
	Expiry   string
}

// CardTokenizer exchanges raw card details for a processor token.
type CardTokenizer interface {
	Tokenize(card CardDetails) (*CardToken, error)
}

type stripeTokenizer struct{}

func NewStripeTokenizer() CardTokenizer {
	return stripeTokenizer{}
}

func (stripeTokenizer) Tokenize(card CardDetails) (*CardToken, error) {
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")

	// Stripe test tokens pass through as-is.
	if strings.HasPrefix(card.CardNumber, "tok_") {
		cardType := "Unknown"
		switch card.CardNumber {
		case "tok_visa":
			cardType = "Visa"
		case "tok_mastercard":
			cardType = "Mastercard"
		case "tok_amex":
			cardType = "American Express"
		}
		return &CardToken{
			Token:    card.CardNumber,
			CardType: cardType,
			Expiry:   fmt.Sprintf("%s/%s", card.ExpiryMonth, card.ExpiryYear),
		}, nil
	}

	if !validCardNumber(card.CardNumber) {
		return nil, errors.New("invalid card number: failed validation check")
	}

	params := &stripe.TokenParams{
		Card: &stripe.CardParams{
			Number:   &card.CardNumber,
			ExpMonth: &card.ExpiryMonth,
			ExpYear:  &card.ExpiryYear,
		},
	}

	stripeToken, err := token.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe tokenization failed: %w", err)
	}

	return &CardToken{
		Token:    stripeToken.ID,
		CardType: string(stripeToken.Card.Brand),
		Expiry:   fmt.Sprintf("%s/%s", card.ExpiryMonth, card.ExpiryYear),
	}, nil
}

// Luhn check.
func validCardNumber(cardNumber string) bool {
	var sum int
	shouldDouble := false
	for i := len(cardNumber) - 1; i >= 0; i-- {
		if cardNumber[i] < '0' || cardNumber[i] > '9' {
			return false
		}
		digit := int(cardNumber[i] - '0')
		if shouldDouble {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		shouldDouble = !shouldDouble
	}
	return sum%10 == 0
}
