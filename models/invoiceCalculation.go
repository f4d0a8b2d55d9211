package models

import (
	"github.com/mmdatafocus/tradeledger/utils"
	"github.com/shopspring/decimal"
)

// InvoiceCharges are the caller-supplied header values applied to totalamt.
type InvoiceCharges struct {
	BatavPercent decimal.Decimal
	Dr           decimal.Decimal
	Qi           decimal.Decimal
	Other        decimal.Decimal
	Advance      decimal.Decimal
}

// InvoiceTotals are the derived header amounts, each quantized.
type InvoiceTotals struct {
	TotalAmt decimal.Decimal `json:"totalamt"`
	BatavAmt decimal.Decimal `json:"batavamt"`
	DrAmt    decimal.Decimal `json:"dramt"`
	Total    decimal.Decimal `json:"total"`
	NetAmt   decimal.Decimal `json:"netamt"`
}

// LineAmount is qty * rate when the caller left amount blank or zero and
// both factors are present; otherwise the supplied amount stands.
func LineAmount(qty, rate, amount decimal.Decimal) decimal.Decimal {
	if amount.IsZero() && !qty.IsZero() && !rate.IsZero() {
		return utils.Quantize(qty.Mul(rate))
	}
	return utils.Quantize(amount)
}

// AggregateLines turns raw lines into detail rows and sums their amounts.
func AggregateLines(lines []NewInvoiceLine) ([]InvoiceDetail, decimal.Decimal) {
	details := make([]InvoiceDetail, 0, len(lines))
	totalAmt := decimal.Zero
	for _, line := range lines {
		detail := line.toDetail()
		totalAmt = totalAmt.Add(detail.Amount)
		details = append(details, detail)
	}
	return details, utils.Quantize(totalAmt)
}

// DeriveInvoiceTotals applies batav and dalali percentages, then the flat
// deductions, then the advance. Each step is quantized before the next uses
// it. Negative total and netamt are kept as is.
func DeriveInvoiceTotals(totalAmt decimal.Decimal, charges InvoiceCharges) InvoiceTotals {
	totalAmt = utils.Quantize(totalAmt)
	batavAmt := utils.PercentOf(totalAmt, charges.BatavPercent)
	drAmt := utils.PercentOf(totalAmt, charges.Dr)
	total := utils.Quantize(totalAmt.Sub(batavAmt).Sub(drAmt).Sub(charges.Qi).Sub(charges.Other))
	netAmt := utils.Quantize(total.Sub(charges.Advance))
	return InvoiceTotals{
		TotalAmt: totalAmt,
		BatavAmt: batavAmt,
		DrAmt:    drAmt,
		Total:    total,
		NetAmt:   netAmt,
	}
}

// InvoiceMismatch is one stored derived value that no longer matches a recomputation.
type InvoiceMismatch struct {
	Field    string          `json:"field"`
	Stored   decimal.Decimal `json:"stored"`
	Expected decimal.Decimal `json:"expected"`
}

// AuditInvoice recomputes totalamt from the stored lines and the derived
// amounts from the stored inputs. Details must be loaded.
func AuditInvoice(inv *Invoice) []InvoiceMismatch {
	totalAmt := decimal.Zero
	for _, d := range inv.Details {
		totalAmt = totalAmt.Add(d.Amount)
	}
	expected := DeriveInvoiceTotals(totalAmt, inv.Charges())

	var mismatches []InvoiceMismatch
	check := func(field string, stored, want decimal.Decimal) {
		if !stored.Equal(want) {
			mismatches = append(mismatches, InvoiceMismatch{Field: field, Stored: stored, Expected: want})
		}
	}
	check("totalamt", inv.TotalAmt, expected.TotalAmt)
	check("batavamt", inv.BatavAmt, expected.BatavAmt)
	check("dramt", inv.DrAmt, expected.DrAmt)
	check("total", inv.Total, expected.Total)
	check("netamt", inv.NetAmt, expected.NetAmt)
	return mismatches
}
