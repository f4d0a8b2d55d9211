package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the stored precision of every monetary amount.
const MoneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// Quantize rounds d to MoneyPlaces, half away from zero (1.005 -> 1.01, -1.005 -> -1.01).
func Quantize(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// PercentOf returns base * percent / 100 computed at full precision and quantized once.
func PercentOf(base decimal.Decimal, percent decimal.Decimal) decimal.Decimal {
	return Quantize(base.Mul(percent).Div(hundred))
}

// ParseMoneyLenient is the data entry coercion policy: it never fails.
// Grouping commas, blanks and a leading currency marker are tolerated;
// anything that still does not parse becomes zero.
func ParseMoneyLenient(raw string) decimal.Decimal {
	d, err := ParseMoneyStrict(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseMoneyStrict accepts the same formats as ParseMoneyLenient but reports
// empty or malformed input.
func ParseMoneyStrict(raw string) (decimal.Decimal, error) {
	s := cleanMoneyString(raw)
	if s == "" {
		return decimal.Zero, errors.New("amount is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.New("invalid amount")
	}
	return d, nil
}

func cleanMoneyString(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
	}
	for _, marker := range []string{"₹", "INR", "Rs.", "Rs", "rs.", "rs"} {
		if strings.HasPrefix(s, marker) {
			s = strings.TrimSpace(strings.TrimPrefix(s, marker))
			break
		}
	}
	// "- Rs 20" and "Rs -20" are both negative
	if !neg && strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return ""
	}
	if neg {
		s = "-" + s
	}
	return s
}

// LenientDecimal decodes any JSON value through ParseMoneyLenient.
// Numbers, numeric strings, "", null and garbage are all accepted.
type LenientDecimal struct {
	decimal.Decimal
}

func NewLenientDecimal(d decimal.Decimal) LenientDecimal {
	return LenientDecimal{Decimal: d}
}

func (l *LenientDecimal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		l.Decimal = decimal.Zero
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			l.Decimal = decimal.Zero
			return nil
		}
		l.Decimal = ParseMoneyLenient(s)
		return nil
	}
	if b[0] == '{' || b[0] == '[' {
		l.Decimal = decimal.Zero
		return nil
	}
	l.Decimal = ParseMoneyLenient(string(b))
	return nil
}

// MoneyText keeps the raw text of a JSON number or string so the caller can
// apply ParseMoneyStrict. null decodes to "".
type MoneyText string

func (m *MoneyText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*m = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*m = MoneyText(s)
		return nil
	}
	if b[0] == '{' || b[0] == '[' || b[0] == 't' || b[0] == 'f' {
		return errors.New("amount must be a number or a string")
	}
	*m = MoneyText(b)
	return nil
}

// Parse is ParseMoneyStrict on the raw text.
func (m MoneyText) Parse() (decimal.Decimal, error) {
	return ParseMoneyStrict(string(m))
}
