package reports_test

import (
	"context"
	"testing"

	"github.com/mmdatafocus/tradeledger/models"
	"github.com/mmdatafocus/tradeledger/models/reports"
	"github.com/mmdatafocus/tradeledger/utils"
)

func TestGetPartyBalance_OpeningAndPeriod(t *testing.T) {
	openTestDB(t)
	l := newLedger(t, "alpha")
	party := l.party("Mehta", "1000", "0")

	// before the period: folds into the opening
	l.invoice(models.InvoiceKindSale, party, "2024-03-20", "500")
	// inside the period
	l.invoice(models.InvoiceKindPurchase, party, "2024-04-05", "200")
	l.jama(party, "2024-04-10", "300")
	// after the period: ignored
	l.naame(party, "2024-05-02", "999")

	got, err := reports.GetPartyBalance(l.ctx, l.orgId, party, day(t, "2024-04-01"), day(t, "2024-04-30"))
	if err != nil {
		t.Fatalf("GetPartyBalance: %v", err)
	}
	assertMoney(t, "opening", got.Opening, "1500")
	assertMoney(t, "sale", got.Sale, "0")
	assertMoney(t, "purchase", got.Purchase, "200")
	assertMoney(t, "jama", got.Jama, "300")
	assertMoney(t, "naame", got.Naame, "0")
	assertMoney(t, "balance", got.Balance, "1000")
}

func TestGetPartyBalance_InclusiveBoundsAndOpenRange(t *testing.T) {
	openTestDB(t)
	l := newLedger(t, "alpha")
	party := l.party("Shah", "0", "250")

	l.invoice(models.InvoiceKindSale, party, "2024-04-01", "100")
	l.invoice(models.InvoiceKindSale, party, "2024-04-30", "50")
	l.naame(party, "2024-04-30", "20")

	got, err := reports.GetPartyBalance(l.ctx, l.orgId, party, day(t, "2024-04-01"), day(t, "2024-04-30"))
	if err != nil {
		t.Fatalf("GetPartyBalance: %v", err)
	}
	assertMoney(t, "opening", got.Opening, "-250")
	assertMoney(t, "sale", got.Sale, "150")
	assertMoney(t, "naame", got.Naame, "20")
	assertMoney(t, "balance", got.Balance, "-80")

	// no bounds: opening is the master opening balance, period is everything
	all, err := reports.GetPartyBalance(l.ctx, l.orgId, party, nil, nil)
	if err != nil {
		t.Fatalf("GetPartyBalance open range: %v", err)
	}
	assertMoney(t, "opening", all.Opening, "-250")
	assertMoney(t, "balance", all.Balance, "-80")
}

func TestGetPartyBalance_NoTransactions(t *testing.T) {
	openTestDB(t)
	l := newLedger(t, "alpha")
	party := l.party("Idle", "75.50", "0")

	got, err := reports.GetPartyBalance(l.ctx, l.orgId, party, day(t, "2024-01-01"), day(t, "2024-12-31"))
	if err != nil {
		t.Fatalf("GetPartyBalance: %v", err)
	}
	assertMoney(t, "opening", got.Opening, "75.5")
	assertMoney(t, "balance", got.Balance, "75.5")
}

func TestGetPartyBalance_Errors(t *testing.T) {
	openTestDB(t)
	a := newLedger(t, "alpha")
	b := newLedger(t, "beta")
	party := a.party("Mehta", "0", "0")

	if _, err := reports.GetPartyBalance(context.Background(), b.orgId, party, nil, nil); !utils.IsNotFound(err) {
		t.Fatalf("foreign party must be not found, got %v", err)
	}
	if _, err := reports.GetPartyBalance(context.Background(), a.orgId, party, day(t, "2024-05-01"), day(t, "2024-04-01")); !utils.IsValidationError(err) {
		t.Fatalf("inverted range must be rejected, got %v", err)
	}
}

func TestGetPartyBalanceReport_AllPartiesAndTotals(t *testing.T) {
	openTestDB(t)
	l := newLedger(t, "alpha")
	zed := l.party("Zaveri", "100", "0")
	amin := l.party("Amin", "0", "40")
	l.invoice(models.InvoiceKindSale, zed, "2024-04-02", "60")
	l.jama(amin, "2024-04-03", "10")

	// another organization's rows never show up
	other := newLedger(t, "beta")
	otherParty := other.party("Amin", "5000", "0")
	other.invoice(models.InvoiceKindSale, otherParty, "2024-04-02", "700")

	report, err := reports.GetPartyBalanceReport(l.ctx, l.orgId, day(t, "2024-04-01"), nil)
	if err != nil {
		t.Fatalf("GetPartyBalanceReport: %v", err)
	}
	if len(report.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(report.Rows))
	}
	if report.Rows[0].PartyName != "Amin" || report.Rows[1].PartyName != "Zaveri" {
		t.Fatalf("rows must be ordered by name: %s, %s", report.Rows[0].PartyName, report.Rows[1].PartyName)
	}
	assertMoney(t, "amin balance", report.Rows[0].Balance, "-50")
	assertMoney(t, "zaveri balance", report.Rows[1].Balance, "160")
	assertMoney(t, "total opening", report.Totals.Opening, "60")
	assertMoney(t, "total sale", report.Totals.Sale, "60")
	assertMoney(t, "total jama", report.Totals.Jama, "10")
	assertMoney(t, "total balance", report.Totals.Balance, "110")
}
