package utils

import (
	"context"
	"reflect"
	"strings"

	"github.com/mmdatafocus/tradeledger/config"
	"gorm.io/gorm"
)

// check if id exists inside the organization, return NotFoundError otherwise
func ValidateResourceId[T any](ctx context.Context, orgId int, id interface{}) error {
	count, err := ResourceCountWhere[T](ctx, orgId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return &NotFoundError{Resource: ResourceName[T](), Key: id}
	}
	return nil
}

// check if ALL ids exist inside the organization
func ValidateResourcesId[M any, ID comparable](ctx context.Context, orgId int, ids []ID) error {
	unqIds := UniqueSlice(ids)
	if len(unqIds) == 0 {
		return nil
	}
	count, err := ResourceCountWhere[M](ctx, orgId, "id IN ?", unqIds)
	if err != nil {
		return err
	}
	if count != int64(len(unqIds)) {
		return &NotFoundError{Resource: ResourceName[M](), Key: unqIds}
	}
	return nil
}

// ValidateUnique reports a field error when column=value is already taken in
// the organization by a row other than exceptId.
func ValidateUnique[T any](ctx context.Context, orgId int, column string, value interface{}, exceptId interface{}) error {
	var count int64
	var err error
	if exceptId == nil || reflect.ValueOf(exceptId).IsZero() {
		count, err = ResourceCountWhere[T](ctx, orgId, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](ctx, orgId, column+" = ? AND NOT id = ?", value, exceptId)
	}
	if err != nil {
		return err
	}
	if count > 0 {
		return FieldValidationError(column, "duplicate "+column)
	}
	return nil
}

// count records, using WHERE organization_id = ? AND $condition
func ResourceCountWhere[T any](ctx context.Context, orgId int, condition string, value ...interface{}) (int64, error) {
	return resourceCountWhere[T](config.GetDB(), ctx, orgId, condition, value...)
}

// ResourceCountWhereTx runs the count on tx, for checks made inside a transaction.
func ResourceCountWhereTx[T any](tx *gorm.DB, ctx context.Context, orgId int, condition string, value ...interface{}) (int64, error) {
	return resourceCountWhere[T](tx, ctx, orgId, condition, value...)
}

func resourceCountWhere[T any](db *gorm.DB, ctx context.Context, orgId int, condition string, value ...interface{}) (int64, error) {
	if orgId <= 0 {
		return 0, ErrOrganizationRequired
	}
	var model T
	var count int64
	err := db.WithContext(TenantContext(ctx, orgId)).Model(&model).
		Where("organization_id = ?", orgId).
		Where(condition, value...).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ResourceName is the lower-case singular label used in error messages, e.g. "party".
func ResourceName[T any]() string {
	var model T
	t := reflect.TypeOf(model)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return toLabel(t.Name())
}

func toLabel(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteRune(' ')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
