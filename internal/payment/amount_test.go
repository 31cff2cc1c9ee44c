package payment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ms-payments/internal/payment"
)

func TestMinorUnits(t *testing.T) {
	cases := []struct {
		amount string
		want   int64
	}{
		{"100", 10000},
		{"100.50", 10050},
		{"0.99", 99},
		{"0", 0},
		{"12500.00", 1250000},
	}

	for _, c := range cases {
		got, err := payment.MinorUnits(c.amount)
		assert.NoError(t, err, "amount %q", c.amount)
		assert.Equal(t, c.want, got, "amount %q", c.amount)
	}
}

func TestMinorUnitsRejectsJunk(t *testing.T) {
	for _, amount := range []string{"", "abc", "12,50", "-5"} {
		_, err := payment.MinorUnits(amount)
		assert.Error(t, err, "amount %q", amount)

		var vErr *payment.ValidationError
		assert.ErrorAs(t, err, &vErr, "amount %q", amount)
	}
}

func TestFormatMinorUnits(t *testing.T) {
	assert.Equal(t, "100.00", payment.FormatMinorUnits(10000))
	assert.Equal(t, "0.99", payment.FormatMinorUnits(99))
	assert.Equal(t, "0.00", payment.FormatMinorUnits(0))
}

func TestMinorUnitsRoundTrip(t *testing.T) {
	minor, err := payment.MinorUnits("250.75")
	assert.NoError(t, err)
	assert.Equal(t, "250.75", payment.FormatMinorUnits(minor))
}
