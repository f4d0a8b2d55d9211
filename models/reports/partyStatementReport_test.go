package reports_test

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/mmdatafocus/tradeledger/models"
	"github.com/mmdatafocus/tradeledger/models/reports"
	"github.com/mmdatafocus/tradeledger/utils"
	"github.com/xuri/excelize/v2"
)

func TestGetPartyStatement_OrdersAndRunsBalance(t *testing.T) {
	openTestDB(t)
	l := newLedger(t, "alpha")
	party := l.party("Mehta", "1000", "0")

	l.invoice(models.InvoiceKindSale, party, "2024-03-20", "500")
	// same day: sale, purchase, naame, jama regardless of entry order
	l.jama(party, "2024-04-05", "300")
	l.naame(party, "2024-04-05", "50")
	l.invoice(models.InvoiceKindPurchase, party, "2024-04-05", "200")
	l.invoice(models.InvoiceKindSale, party, "2024-04-05", "80")
	l.invoice(models.InvoiceKindSale, party, "2024-04-02", "20")

	st, err := reports.GetPartyStatement(l.ctx, l.orgId, party, day(t, "2024-04-01"), day(t, "2024-04-30"))
	if err != nil {
		t.Fatalf("GetPartyStatement: %v", err)
	}

	want := []struct {
		kind    string
		debit   string
		credit  string
		balance string
	}{
		{reports.StatementOpening, "1500", "0", "1500"},
		{reports.StatementSale, "20", "0", "1520"},
		{reports.StatementSale, "80", "0", "1600"},
		{reports.StatementPurchase, "0", "200", "1400"},
		{reports.StatementNaame, "50", "0", "1450"},
		{reports.StatementJama, "0", "300", "1150"},
	}
	if len(st.Rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(st.Rows))
	}
	for i, w := range want {
		row := st.Rows[i]
		if row.Kind != w.kind {
			t.Fatalf("row %d kind = %s, want %s", i, row.Kind, w.kind)
		}
		assertMoney(t, "debit", row.Debit, w.debit)
		assertMoney(t, "credit", row.Credit, w.credit)
		assertMoney(t, "balance", row.Balance, w.balance)
	}
	if st.Rows[0].Date != nil {
		t.Fatalf("opening row must not carry a date")
	}
	assertMoney(t, "closing", st.Closing, "1150")
	if !st.Closing.Equal(st.Summary.Balance) {
		t.Fatalf("closing %s differs from balance %s", st.Closing, st.Summary.Balance)
	}
}

func TestGetPartyStatement_OnlyOpeningRow(t *testing.T) {
	openTestDB(t)
	l := newLedger(t, "alpha")
	party := l.party("Idle", "0", "300")

	st, err := reports.GetPartyStatement(l.ctx, l.orgId, party, nil, nil)
	if err != nil {
		t.Fatalf("GetPartyStatement: %v", err)
	}
	if len(st.Rows) != 1 {
		t.Fatalf("expected only the opening row, got %d", len(st.Rows))
	}
	assertMoney(t, "opening credit", st.Rows[0].Credit, "300")
	assertMoney(t, "closing", st.Closing, "-300")
}

func TestGetPartyStatement_Idempotent(t *testing.T) {
	openTestDB(t)
	l := newLedger(t, "alpha")
	party := l.party("Mehta", "250", "0")
	other := l.party("Shah", "0", "75")
	l.invoice(models.InvoiceKindSale, party, "2024-04-01", "1200.50")
	l.invoice(models.InvoiceKindPurchase, party, "2024-04-02", "300")
	l.naame(party, "2024-04-02", "45.25")
	l.jama(party, "2024-04-03", "500")
	l.jama(other, "2024-04-03", "20")

	first, err := reports.GetPartyStatement(l.ctx, l.orgId, party, nil, nil)
	if err != nil {
		t.Fatalf("GetPartyStatement: %v", err)
	}
	second, err := reports.GetPartyStatement(l.ctx, l.orgId, party, nil, nil)
	if err != nil {
		t.Fatalf("GetPartyStatement again: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("statement changed between reads:\n%+v\n%+v", first, second)
	}
	assertMoney(t, "closing", first.Closing, "695.75")
	if !first.Closing.Equal(first.Summary.Balance) {
		t.Fatalf("closing %s differs from balance %s", first.Closing, first.Summary.Balance)
	}

	report, err := reports.GetPartyBalanceReport(l.ctx, l.orgId, nil, nil)
	if err != nil {
		t.Fatalf("GetPartyBalanceReport: %v", err)
	}
	again, err := reports.GetPartyBalanceReport(l.ctx, l.orgId, nil, nil)
	if err != nil {
		t.Fatalf("GetPartyBalanceReport again: %v", err)
	}
	if !reflect.DeepEqual(report, again) {
		t.Fatalf("balance report changed between reads:\n%+v\n%+v", report, again)
	}
	assertMoney(t, "totals balance", report.Totals.Balance, "600.75")
}

func TestGetPartyStatement_UnknownParty(t *testing.T) {
	openTestDB(t)
	l := newLedger(t, "alpha")
	if _, err := reports.GetPartyStatement(l.ctx, l.orgId, 9999, nil, nil); !utils.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := reports.GetPartyStatement(l.ctx, 0, 1, nil, nil); err == nil {
		t.Fatalf("expected an error without an organization")
	}
}

func TestWritePartyStatementXlsx(t *testing.T) {
	openTestDB(t)
	l := newLedger(t, "alpha")
	party := l.party("Mehta", "100", "0")
	l.jama(party, "2024-04-05", "40")

	st, err := reports.GetPartyStatement(l.ctx, l.orgId, party, nil, nil)
	if err != nil {
		t.Fatalf("GetPartyStatement: %v", err)
	}
	var buf bytes.Buffer
	if err := reports.WritePartyStatementXlsx(&buf, st); err != nil {
		t.Fatalf("WritePartyStatementXlsx: %v", err)
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
	// heading, opening, jama, closing
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[2][0] != "05-04-2024" || rows[2][1] != "Jama" || rows[2][6] != "60" {
		t.Fatalf("unexpected jama row %v", rows[2])
	}
	if rows[3][6] != "60" {
		t.Fatalf("unexpected closing row %v", rows[3])
	}
}
