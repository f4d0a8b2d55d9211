package reports_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmdatafocus/tradeledger/config"
	"github.com/mmdatafocus/tradeledger/models"
	"github.com/mmdatafocus/tradeledger/utils"
	"github.com/shopspring/decimal"
)

func openTestDB(t *testing.T) {
	t.Helper()
	if err := config.OpenSqlite(filepath.Join(t.TempDir(), "reports.db")); err != nil {
		t.Fatalf("OpenSqlite: %v", err)
	}
	t.Cleanup(config.CloseDatabase)
	if err := models.MigrateTable(); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}
}

type ledger struct {
	t        *testing.T
	ctx      context.Context
	orgId    int
	brokerId int
	itemId   int
}

func newLedger(t *testing.T, name string) *ledger {
	t.Helper()
	ctx := context.Background()
	org, err := models.CreateOrganization(ctx, 1, &models.NewOrganization{Name: name})
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	broker, err := models.CreateBroker(ctx, org.ID, &models.NewBroker{Name: name + " broker"})
	if err != nil {
		t.Fatalf("CreateBroker: %v", err)
	}
	item, err := models.CreateItem(ctx, org.ID, &models.NewItem{Name: "cotton"})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	return &ledger{t: t, ctx: ctx, orgId: org.ID, brokerId: broker.ID, itemId: item.ID}
}

func (l *ledger) party(name string, openingDebit string, openingCredit string) int {
	l.t.Helper()
	p, err := models.CreateParty(l.ctx, l.orgId, &models.NewParty{
		Name: name,
		OpeningBalance: models.OpeningBalance{
			OpeningDebit:  dec(openingDebit),
			OpeningCredit: dec(openingCredit),
		},
	})
	if err != nil {
		l.t.Fatalf("CreateParty(%s): %v", name, err)
	}
	return p.ID
}

func (l *ledger) broker(name string) int {
	l.t.Helper()
	b, err := models.CreateBroker(l.ctx, l.orgId, &models.NewBroker{Name: name})
	if err != nil {
		l.t.Fatalf("CreateBroker(%s): %v", name, err)
	}
	return b.ID
}

func (l *ledger) invoice(kind models.InvoiceKind, partyId int, date string, amount string) *models.Invoice {
	l.t.Helper()
	return l.invoiceWith(kind, partyId, l.brokerId, date, models.NewInvoiceLine{ItemId: l.itemId, Amount: utils.NewLenientDecimal(dec(amount))})
}

func (l *ledger) invoiceWith(kind models.InvoiceKind, partyId int, brokerId int, date string, lines ...models.NewInvoiceLine) *models.Invoice {
	l.t.Helper()
	inv, err := models.CreateInvoice(l.ctx, l.orgId, kind, &models.NewInvoice{
		Header: models.NewInvoiceHeader{InvDate: date, PartyId: partyId, BrokerId: brokerId},
		Lines:  lines,
	})
	if err != nil {
		l.t.Fatalf("CreateInvoice(%s %s): %v", kind, date, err)
	}
	return inv
}

func (l *ledger) jama(partyId int, date string, amount string) {
	l.t.Helper()
	if _, err := models.AddJamaEntry(l.ctx, l.orgId, &models.NewCashEntry{Date: date, PartyId: partyId, Amount: utils.MoneyText(amount)}); err != nil {
		l.t.Fatalf("AddJamaEntry: %v", err)
	}
}

func (l *ledger) naame(partyId int, date string, amount string) {
	l.t.Helper()
	if _, err := models.AddNaameEntry(l.ctx, l.orgId, &models.NewCashEntry{Date: date, PartyId: partyId, Amount: utils.MoneyText(amount)}); err != nil {
		l.t.Fatalf("AddNaameEntry: %v", err)
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(t *testing.T, s string) *time.Time {
	t.Helper()
	d, err := utils.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return &d
}

func assertMoney(t *testing.T, field string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("%s = %s, want %s", field, got, want)
	}
}
