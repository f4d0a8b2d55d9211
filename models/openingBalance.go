package models

import (
	"github.com/mmdatafocus/tradeledger/utils"
	"github.com/shopspring/decimal"
)

// OpeningBalance is the starting position of a party or broker ledger.
// At most one side is non-zero.
type OpeningBalance struct {
	OpeningDebit  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"opening_debit"`
	OpeningCredit decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"opening_credit"`
}

// Net is debit minus credit.
func (o OpeningBalance) Net() decimal.Decimal {
	return o.OpeningDebit.Sub(o.OpeningCredit)
}

func (o *OpeningBalance) quantize() {
	o.OpeningDebit = utils.Quantize(o.OpeningDebit)
	o.OpeningCredit = utils.Quantize(o.OpeningCredit)
}

func (o OpeningBalance) validate() []utils.FieldError {
	var errs []utils.FieldError
	if o.OpeningDebit.IsNegative() {
		errs = append(errs, utils.FieldError{Field: "opening_debit", Message: "must not be negative"})
	}
	if o.OpeningCredit.IsNegative() {
		errs = append(errs, utils.FieldError{Field: "opening_credit", Message: "must not be negative"})
	}
	if !o.OpeningDebit.IsZero() && !o.OpeningCredit.IsZero() {
		errs = append(errs, utils.FieldError{Field: "opening_credit", Message: "enter either an opening debit or an opening credit, not both"})
	}
	return errs
}
