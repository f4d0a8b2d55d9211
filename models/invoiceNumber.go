package models

import (
	"context"
	"strings"

	"github.com/mmdatafocus/tradeledger/config"
	"github.com/mmdatafocus/tradeledger/utils"
	"gorm.io/gorm"
)

// nextInvoiceNumber is max(invno)+1 for the organization and kind, 1 for the
// first invoice. It must run inside the inserting transaction; the
// (organization_id, kind, invno) unique index rejects a lost race.
func nextInvoiceNumber(tx *gorm.DB, orgId int, kind InvoiceKind) (int, error) {
	var maxNo int
	err := tx.Model(&Invoice{}).
		Where("organization_id = ? AND kind = ?", orgId, kind).
		Select("COALESCE(MAX(invno), 0)").
		Scan(&maxNo).Error
	if err != nil {
		return 0, err
	}
	return maxNo + 1, nil
}

// PeekNextInvoiceNumber is the number the next save would get right now.
// It is a display hint only; the real number is allocated at save time.
func PeekNextInvoiceNumber(ctx context.Context, orgId int, kind InvoiceKind) (int, error) {
	if orgId <= 0 {
		return 0, utils.ErrOrganizationRequired
	}
	db := config.GetDB()
	return nextInvoiceNumber(db.WithContext(utils.TenantContext(ctx, orgId)), orgId, kind)
}

func invoiceNumberLockType(kind InvoiceKind) string {
	return "invno-" + strings.ToLower(string(kind))
}
