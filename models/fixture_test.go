package models_test

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
	if err := config.OpenSqlite(filepath.Join(t.TempDir(), "ledger.db")); err != nil {
		t.Fatalf("OpenSqlite: %v", err)
	}
	t.Cleanup(config.CloseDatabase)
	if err := models.MigrateTable(); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}
}

type fixture struct {
	orgId    int
	partyId  int
	brokerId int
	itemId   int
}

// newFixture creates an organization owned by user 1 with one party, broker and item.
func newFixture(t *testing.T, ctx context.Context, name string) fixture {
	t.Helper()
	org, err := models.CreateOrganization(ctx, 1, &models.NewOrganization{Name: name})
	if err != nil {
		t.Fatalf("CreateOrganization(%s): %v", name, err)
	}
	party, err := models.CreateParty(ctx, org.ID, &models.NewParty{Name: name + " party"})
	if err != nil {
		t.Fatalf("CreateParty: %v", err)
	}
	broker, err := models.CreateBroker(ctx, org.ID, &models.NewBroker{Name: name + " broker"})
	if err != nil {
		t.Fatalf("CreateBroker: %v", err)
	}
	item, err := models.CreateItem(ctx, org.ID, &models.NewItem{Name: "wheat"})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	return fixture{orgId: org.ID, partyId: party.ID, brokerId: broker.ID, itemId: item.ID}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func lenient(s string) utils.LenientDecimal {
	return utils.NewLenientDecimal(decimal.RequireFromString(s))
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := utils.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func simpleInvoice(f fixture, date string, qty string, rate string) *models.NewInvoice {
	return &models.NewInvoice{
		Header: models.NewInvoiceHeader{
			InvDate:  date,
			PartyId:  f.partyId,
			BrokerId: f.brokerId,
		},
		Lines: []models.NewInvoiceLine{
			{ItemId: f.itemId, Qty: lenient(qty), Rate: lenient(rate)},
		},
	}
}
