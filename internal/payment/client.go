// Package payment is the client for the external card payment provider.
// The provider does tokenization and charge capture; this package owns the
// request-side validation (Luhn, expiry, CVV shape) so obviously bad cards
// never leave the process, and the charge call itself.
package payment

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidCard is returned when card validation fails before any charge
// attempt is made.
var ErrInvalidCard = errors.New("invalid card")

// ErrChargeDeclined is returned when the provider refuses the charge.
var ErrChargeDeclined = errors.New("charge declined")

// Card carries the raw card input from the client. Never persisted and
// never logged.
type Card struct {
	Number string
	Expiry string // MM/YY
	CVV    string
}

// Charge is the provider's capture result.
type Charge struct {
	Ref        string    // provider charge reference, stored on the booking
	AmountUSD  int       // captured amount in whole dollars
	Last4      string    // masked card tail for receipts
	CapturedAt time.Time // capture timestamp, UTC
}

// Client talks to the payment provider. The real gateway lives behind
// Charger so tests and local runs work without network access; the default
// charger approves every validated card and mints a reference.
type Client struct {
	charger Charger
}

// Charger is the provider call itself, split out for substitution in tests.
type Charger func(ctx context.Context, card Card, amountUSD int) (string, error)

// NewClient returns a Client using the default in-process charger.
func NewClient() *Client {
	return &Client{charger: func(ctx context.Context, card Card, amountUSD int) (string, error) {
		return "ch_" + uuid.NewString(), nil
	}}
}

// NewClientWithCharger returns a Client backed by a custom charger.
func NewClientWithCharger(ch Charger) *Client {
	if ch == nil {
		panic("nil charger passed to NewClientWithCharger")
	}
	return &Client{charger: ch}
}

var (
	expiryRe = regexp.MustCompile(`^(0[1-9]|1[0-2])/(\d{2})$`)
	cvvRe    = regexp.MustCompile(`^\d{3,4}$`)
	digitRe  = regexp.MustCompile(`\D`)
)

// Charge validates the card and captures amountUSD through the provider.
func (c *Client) Charge(ctx context.Context, card Card, amountUSD int) (*Charge, error) {
	if err := ValidateCard(card); err != nil {
		return nil, err
	}
	if amountUSD <= 0 {
		return nil, ErrChargeDeclined
	}
	ref, err := c.charger(ctx, card, amountUSD)
	if err != nil {
		return nil, err
	}
	number := digitRe.ReplaceAllString(card.Number, "")
	return &Charge{
		Ref:        ref,
		AmountUSD:  amountUSD,
		Last4:      number[len(number)-4:],
		CapturedAt: time.Now().UTC(),
	}, nil
}

// ValidateCard checks number (Luhn), expiry (MM/YY, not in the past) and
// CVV (3-4 digits). Returns ErrInvalidCard on any failure.
func ValidateCard(card Card) error {
	number := digitRe.ReplaceAllString(card.Number, "")
	if !luhnValid(number) {
		return ErrInvalidCard
	}
	if !expiryRe.MatchString(card.Expiry) {
		return ErrInvalidCard
	}
	if !expiryValid(card.Expiry) {
		return ErrInvalidCard
	}
	if !cvvRe.MatchString(card.CVV) {
		return ErrInvalidCard
	}
	return nil
}

// luhnValid runs the Luhn checksum over a digit string.
func luhnValid(number string) bool {
	if len(number) < 13 || len(number) > 19 {
		return false
	}
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if d < 0 || d > 9 {
			return false
		}
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// expiryValid accepts any expiry in or after the current month.
func expiryValid(expiry string) bool {
	parts := strings.Split(expiry, "/")
	if len(parts) != 2 {
		return false
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return false
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return false
	}
	if year < 100 {
		year += 2000
	}
	expiryDate := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return expiryDate.After(time.Now().AddDate(0, -1, 0))
}

// MaskNumber masks a card number, showing only the last 4 digits.
func MaskNumber(number string) string {
	number = digitRe.ReplaceAllString(number, "")
	if len(number) < 4 {
		return "****"
	}
	return "****" + number[len(number)-4:]
}
