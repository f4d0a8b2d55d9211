package utils

import (
	"context"
	"errors"

	"github.com/mmdatafocus/tradeledger/config"
	"gorm.io/gorm"
)

/* DB fetching */

// fetch model from db
// (organization_id is used in query's WHERE, may return NotFoundError)
func FetchModel[T any](ctx context.Context, orgId int, id int, associations ...string) (*T, error) {
	return FetchModelTx[T](config.GetDB(), ctx, orgId, id, associations...)
}

// FetchModelTx is FetchModel on a caller-owned transaction.
func FetchModelTx[T any](tx *gorm.DB, ctx context.Context, orgId int, id int, associations ...string) (*T, error) {
	if orgId <= 0 {
		return nil, ErrOrganizationRequired
	}
	dbCtx := tx.WithContext(TenantContext(ctx, orgId)).Where("organization_id = ?", orgId)
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: ResourceName[T](), Key: id}
		}
		return nil, err
	}
	return &result, nil
}

// fetch all models of the organization ordered by orderBy
func FetchAllModels[T any](ctx context.Context, orgId int, orderBy string, associations ...string) ([]*T, error) {
	if orgId <= 0 {
		return nil, ErrOrganizationRequired
	}
	db := config.GetDB()
	dbCtx := db.WithContext(TenantContext(ctx, orgId)).Where("organization_id = ?", orgId)
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	if orderBy != "" {
		dbCtx = dbCtx.Order(orderBy)
	}
	var results []*T
	if err := dbCtx.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
