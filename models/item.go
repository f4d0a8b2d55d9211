package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/tradeledger/config"
	"github.com/mmdatafocus/tradeledger/utils"
	"gorm.io/gorm"
)

type Item struct {
	ID             int       `gorm:"primary_key" json:"id"`
	OrganizationId int       `gorm:"not null;uniqueIndex:idx_items_org_name" json:"organization_id"`
	Name           string    `gorm:"size:100;not null;uniqueIndex:idx_items_org_name" json:"name"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type NewItem struct {
	Name string `json:"name" validate:"required,max=100"`
}

func ValidateItemInput(input *NewItem) []utils.FieldError {
	input.Name = strings.TrimSpace(input.Name)
	return utils.ValidateStruct(input)
}

func CreateItem(ctx context.Context, orgId int, input *NewItem) (*Item, error) {
	ctx = utils.TenantContext(ctx, orgId)
	if err := utils.NewValidationError(ValidateItemInput(input)); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Item](ctx, orgId, "name", input.Name, 0); err != nil {
		if utils.IsValidationError(err) {
			return nil, utils.FieldValidationError("name", "item with this name already exists")
		}
		return nil, err
	}

	item := Item{OrganizationId: orgId, Name: input.Name}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.FieldValidationError("name", "item with this name already exists")
		}
		return nil, err
	}
	return &item, nil
}

// DeleteItem refuses while any invoice line uses the item.
func DeleteItem(ctx context.Context, orgId int, id int) (*Item, error) {
	ctx = utils.TenantContext(ctx, orgId)
	result, err := utils.FetchModel[Item](ctx, orgId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var count int64
	err = db.WithContext(ctx).Model(&InvoiceDetail{}).
		Joins("JOIN invoices ON invoices.id = invoice_details.invoice_id").
		Where("invoices.organization_id = ? AND invoice_details.item_id = ?", orgId, id).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &utils.ProtectedReferenceError{Resource: "item", Key: result.Name, ReferencedBy: []string{"invoice lines"}}
	}

	if err := db.WithContext(ctx).Where("organization_id = ?", orgId).Delete(result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func GetItem(ctx context.Context, orgId int, id int) (*Item, error) {
	return utils.FetchModel[Item](ctx, orgId, id)
}

func GetItems(ctx context.Context, orgId int) ([]*Item, error) {
	return utils.FetchAllModels[Item](ctx, orgId, "name")
}
