package reports_test

import (
	"bytes"
	"testing"

	"github.com/mmdatafocus/tradeledger/models"
	"github.com/mmdatafocus/tradeledger/models/reports"
	"github.com/mmdatafocus/tradeledger/utils"
	"github.com/xuri/excelize/v2"
)

func TestGetInvoiceRegister_GroupsByDateAndBroker(t *testing.T) {
	openTestDB(t)
	l := newLedger(t, "alpha")
	party := l.party("Mehta", "0", "0")
	other := l.broker("Kapoor")

	line := func(amount string) models.NewInvoiceLine {
		return models.NewInvoiceLine{ItemId: l.itemId, Amount: utils.NewLenientDecimal(dec(amount))}
	}
	l.invoiceWith(models.InvoiceKindSale, party, l.brokerId, "2024-04-01", line("100"))
	l.invoiceWith(models.InvoiceKindSale, party, other, "2024-04-01", line("40"))
	l.invoiceWith(models.InvoiceKindSale, party, l.brokerId, "2024-04-01", line("60"))
	l.invoiceWith(models.InvoiceKindSale, party, l.brokerId, "2024-04-03", line("5"))
	l.invoiceWith(models.InvoiceKindPurchase, party, l.brokerId, "2024-04-01", line("999"))

	byDate, err := reports.GetInvoiceRegister(l.ctx, l.orgId, reports.InvoiceRegisterQuery{
		Kind:     models.InvoiceKindSale,
		FromDate: day(t, "2024-04-01"),
		ToDate:   day(t, "2024-04-30"),
	})
	if err != nil {
		t.Fatalf("GetInvoiceRegister: %v", err)
	}
	if len(byDate.Groups) != 2 {
		t.Fatalf("expected 2 date groups, got %d", len(byDate.Groups))
	}
	if byDate.Groups[0].Totals.Count != 3 {
		t.Fatalf("first day count = %d, want 3", byDate.Groups[0].Totals.Count)
	}
	assertMoney(t, "day 1 netamt", byDate.Groups[0].Totals.NetAmt, "200")
	assertMoney(t, "overall netamt", byDate.Totals.NetAmt, "205")

	byBroker, err := reports.GetInvoiceRegister(l.ctx, l.orgId, reports.InvoiceRegisterQuery{
		Kind:    models.InvoiceKindSale,
		GroupBy: reports.RegisterByBroker,
	})
	if err != nil {
		t.Fatalf("GetInvoiceRegister by broker: %v", err)
	}
	if len(byBroker.Groups) != 3 {
		t.Fatalf("expected 3 (date, broker) groups, got %d", len(byBroker.Groups))
	}
	for _, g := range byBroker.Groups {
		if g.BrokerName == "" {
			t.Fatalf("broker name missing on group %+v", g)
		}
	}

	filtered, err := reports.GetInvoiceRegister(l.ctx, l.orgId, reports.InvoiceRegisterQuery{
		Kind:     models.InvoiceKindSale,
		BrokerId: other,
	})
	if err != nil {
		t.Fatalf("GetInvoiceRegister filtered: %v", err)
	}
	assertMoney(t, "filtered netamt", filtered.Totals.NetAmt, "40")

	if _, err := reports.GetInvoiceRegister(l.ctx, l.orgId, reports.InvoiceRegisterQuery{Kind: models.InvoiceKindSale, GroupBy: "party"}); !utils.IsValidationError(err) {
		t.Fatalf("unknown grouping must be rejected, got %v", err)
	}
}

func TestGetInvoiceRegister_BrokerGroupsOrderedByName(t *testing.T) {
	openTestDB(t)
	l := newLedger(t, "alpha")
	party := l.party("Mehta", "0", "0")
	zeta := l.broker("Zeta")
	bhatt := l.broker("Bhatt")

	line := models.NewInvoiceLine{ItemId: l.itemId, Amount: utils.NewLenientDecimal(dec("10"))}
	l.invoiceWith(models.InvoiceKindSale, party, zeta, "2024-04-01", line)
	l.invoiceWith(models.InvoiceKindSale, party, bhatt, "2024-04-01", line)
	l.invoiceWith(models.InvoiceKindSale, party, zeta, "2024-04-02", line)

	register, err := reports.GetInvoiceRegister(l.ctx, l.orgId, reports.InvoiceRegisterQuery{
		Kind:    models.InvoiceKindSale,
		GroupBy: reports.RegisterByBroker,
	})
	if err != nil {
		t.Fatalf("GetInvoiceRegister: %v", err)
	}
	want := []string{"Bhatt", "Zeta", "Zeta"}
	if len(register.Groups) != len(want) {
		t.Fatalf("expected %d groups, got %d", len(want), len(register.Groups))
	}
	for i, name := range want {
		if register.Groups[i].BrokerName != name {
			t.Fatalf("group %d broker = %s, want %s", i, register.Groups[i].BrokerName, name)
		}
	}
	if len(register.Groups[0].Invoices) != 1 || register.Groups[0].Invoices[0].BrokerId != bhatt {
		t.Fatalf("first group should hold the Bhatt invoice, got %+v", register.Groups[0].Invoices)
	}
}

func TestGetBardanaReport_SumsBags(t *testing.T) {
	openTestDB(t)
	l := newLedger(t, "alpha")
	mehta := l.party("Mehta", "0", "0")
	amin := l.party("Amin", "0", "0")

	bags := func(bn, bo string) models.NewInvoiceLine {
		return models.NewInvoiceLine{
			ItemId: l.itemId,
			Bn:     utils.NewLenientDecimal(dec(bn)),
			Bo:     utils.NewLenientDecimal(dec(bo)),
			Amount: utils.NewLenientDecimal(dec("1")),
		}
	}
	l.invoiceWith(models.InvoiceKindSale, mehta, l.brokerId, "2024-04-01", bags("10", "2"), bags("5", "0"))
	l.invoiceWith(models.InvoiceKindSale, amin, l.brokerId, "2024-04-02", bags("3", "4"))
	l.invoiceWith(models.InvoiceKindPurchase, amin, l.brokerId, "2024-04-02", bags("100", "100"))

	byParty, err := reports.GetBardanaReport(l.ctx, l.orgId, reports.BardanaQuery{
		FromDate: day(t, "2024-04-01"),
		ToDate:   day(t, "2024-04-02"),
		GroupBy:  reports.BardanaByParty,
	})
	if err != nil {
		t.Fatalf("GetBardanaReport: %v", err)
	}
	if len(byParty.Groups) != 2 || byParty.Groups[0].Group != "Amin" {
		t.Fatalf("unexpected groups %+v", byParty.Groups)
	}
	assertMoney(t, "mehta bn", byParty.Groups[1].TotalBn, "15")
	assertMoney(t, "mehta bo", byParty.Groups[1].TotalBo, "2")
	assertMoney(t, "total bn", byParty.TotalBn, "18")
	assertMoney(t, "total bo", byParty.TotalBo, "6")

	byDate, err := reports.GetBardanaReport(l.ctx, l.orgId, reports.BardanaQuery{
		FromDate: day(t, "2024-04-01"),
		ToDate:   day(t, "2024-04-02"),
		PartyId:  mehta,
	})
	if err != nil {
		t.Fatalf("GetBardanaReport by date: %v", err)
	}
	if len(byDate.Groups) != 1 || byDate.Groups[0].Group != "01-04-2024" || len(byDate.Groups[0].Lines) != 2 {
		t.Fatalf("unexpected date groups %+v", byDate.Groups)
	}
}

func TestWritePartyBalancesXlsx(t *testing.T) {
	openTestDB(t)
	l := newLedger(t, "alpha")
	party := l.party("Mehta", "100", "0")
	l.invoice(models.InvoiceKindSale, party, "2024-04-02", "25.5")

	report, err := reports.GetPartyBalanceReport(l.ctx, l.orgId, nil, nil)
	if err != nil {
		t.Fatalf("GetPartyBalanceReport: %v", err)
	}
	var buf bytes.Buffer
	if err := reports.WritePartyBalancesXlsx(&buf, report); err != nil {
		t.Fatalf("WritePartyBalancesXlsx: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Sheet1")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 || rows[0][0] != "Party" || rows[1][0] != "Mehta" || rows[1][6] != "125.5" || rows[2][0] != "Total" {
		t.Fatalf("unexpected sheet %v", rows)
	}
}
