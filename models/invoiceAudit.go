package models

import (
	"context"

	"github.com/mmdatafocus/tradeledger/config"
	"github.com/mmdatafocus/tradeledger/utils"
)

type InvoiceAudit struct {
	InvoiceId  int               `json:"invoice_id"`
	Kind       InvoiceKind       `json:"kind"`
	Invno      int               `json:"invno"`
	Mismatches []InvoiceMismatch `json:"mismatches"`
}

// AuditInvoices recomputes every invoice of the organization and returns the
// ones whose stored totals drifted, in kind then invno order.
func AuditInvoices(ctx context.Context, orgId int) ([]*InvoiceAudit, error) {
	if orgId <= 0 {
		return nil, utils.ErrOrganizationRequired
	}
	db := config.GetDB()
	var invoices []*Invoice
	err := db.WithContext(utils.TenantContext(ctx, orgId)).
		Preload("Details").
		Where("organization_id = ?", orgId).
		Order("kind").Order("invno").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}

	var results []*InvoiceAudit
	for _, inv := range invoices {
		if mismatches := AuditInvoice(inv); len(mismatches) > 0 {
			results = append(results, &InvoiceAudit{
				InvoiceId:  inv.ID,
				Kind:       inv.Kind,
				Invno:      inv.Invno,
				Mismatches: mismatches,
			})
		}
	}
	return results, nil
}
