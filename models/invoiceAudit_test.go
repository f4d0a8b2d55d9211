package models_test

import (
	"context"
	"testing"

	"github.com/mmdatafocus/tradeledger/config"
	"github.com/mmdatafocus/tradeledger/models"
)

func TestAuditInvoices_FindsTamperedTotals(t *testing.T) {
	openTestDB(t)
	ctx := context.Background()
	f := newFixture(t, ctx, "alpha")

	clean, err := models.CreateInvoice(ctx, f.orgId, models.InvoiceKindSale, simpleInvoice(f, "2024-04-01", "2", "50"))
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	tampered, err := models.CreateInvoice(ctx, f.orgId, models.InvoiceKindPurchase, simpleInvoice(f, "2024-04-01", "3", "10"))
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if err := config.GetDB().Model(&models.Invoice{}).Where("id = ?", tampered.ID).Update("net_amt", "1").Error; err != nil {
		t.Fatalf("tamper: %v", err)
	}

	got, err := models.AuditInvoices(ctx, f.orgId)
	if err != nil {
		t.Fatalf("AuditInvoices: %v", err)
	}
	if len(got) != 1 || got[0].InvoiceId != tampered.ID || got[0].InvoiceId == clean.ID {
		t.Fatalf("expected only the tampered invoice, got %+v", got)
	}
	if len(got[0].Mismatches) != 1 || got[0].Mismatches[0].Field != "netamt" {
		t.Fatalf("unexpected mismatches %+v", got[0].Mismatches)
	}
	if !got[0].Mismatches[0].Expected.Equal(dec("30")) {
		t.Fatalf("expected netamt = %s, want 30", got[0].Mismatches[0].Expected)
	}

	if _, err := models.AuditInvoices(ctx, 0); err == nil {
		t.Fatalf("organization id must be required")
	}
}
