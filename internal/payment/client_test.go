package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 4242424242424242 and 4111111111111111 pass Luhn; the others fail it.
func TestValidateCard(t *testing.T) {
	valid := Card{Number: "4242 4242 4242 4242", Expiry: "12/39", CVV: "123"}

	tests := []struct {
		name   string
		mutate func(*Card)
		ok     bool
	}{
		{"valid visa", func(c *Card) {}, true},
		{"valid with dashes", func(c *Card) { c.Number = "4111-1111-1111-1111" }, true},
		{"four digit cvv", func(c *Card) { c.CVV = "1234" }, true},
		{"luhn failure", func(c *Card) { c.Number = "4242424242424241" }, false},
		{"too short", func(c *Card) { c.Number = "42424242" }, false},
		{"bad expiry format", func(c *Card) { c.Expiry = "13/39" }, false},
		{"expired card", func(c *Card) { c.Expiry = "01/20" }, false},
		{"bad cvv", func(c *Card) { c.CVV = "12" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := valid
			tt.mutate(&card)
			err := ValidateCard(card)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidCard)
			}
		})
	}
}

func TestChargeMintsReference(t *testing.T) {
	c := NewClient()
	ch, err := c.Charge(context.Background(), Card{Number: "4242424242424242", Expiry: "12/39", CVV: "123"}, 200)
	require.NoError(t, err)
	assert.NotEmpty(t, ch.Ref)
	assert.Equal(t, 200, ch.AmountUSD)
	assert.Equal(t, "4242", ch.Last4)
}

func TestChargeRejectsInvalidCardBeforeGateway(t *testing.T) {
	called := false
	c := NewClientWithCharger(func(ctx context.Context, card Card, amountUSD int) (string, error) {
		called = true
		return "ch_test", nil
	})
	_, err := c.Charge(context.Background(), Card{Number: "1234", Expiry: "12/39", CVV: "123"}, 40)
	assert.ErrorIs(t, err, ErrInvalidCard)
	assert.False(t, called, "gateway must not see invalid cards")
}

func TestChargeDeclined(t *testing.T) {
	c := NewClientWithCharger(func(ctx context.Context, card Card, amountUSD int) (string, error) {
		return "", ErrChargeDeclined
	})
	_, err := c.Charge(context.Background(), Card{Number: "4242424242424242", Expiry: "12/39", CVV: "123"}, 40)
	assert.ErrorIs(t, err, ErrChargeDeclined)

	_, err = c.Charge(context.Background(), Card{Number: "4242424242424242", Expiry: "12/39", CVV: "123"}, 0)
	assert.ErrorIs(t, err, ErrChargeDeclined)
}

func TestMaskNumber(t *testing.T) {
	assert.Equal(t, "****4242", MaskNumber("4242 4242 4242 4242"))
	assert.Equal(t, "****", MaskNumber("42"))
}

func TestErrorsAreSentinel(t *testing.T) {
	assert.True(t, errors.Is(ErrInvalidCard, ErrInvalidCard))
	assert.NotErrorIs(t, ErrInvalidCard, ErrChargeDeclined)
}
