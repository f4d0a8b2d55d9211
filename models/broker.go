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

// Broker is the intermediary on invoices and cash entries. It carries the same
// opening balance shape as a party.
type Broker struct {
	ID             int    `gorm:"primary_key" json:"id"`
	OrganizationId int    `gorm:"not null;uniqueIndex:idx_brokers_org_name" json:"organization_id"`
	Name           string `gorm:"size:100;not null;uniqueIndex:idx_brokers_org_name" json:"name"`
	Mobile         string `gorm:"size:15" json:"mobile"`
	Email          string `gorm:"size:100" json:"email"`
	Remark         string `gorm:"type:text" json:"remark"`
	OpeningBalance
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBroker struct {
	Name   string `json:"name" validate:"required,max=100"`
	Mobile string `json:"mobile" validate:"max=15"`
	Email  string `json:"email" validate:"omitempty,email,max=100"`
	Remark string `json:"remark"`
	OpeningBalance
}

// ValidateBrokerInput mirrors ValidatePartyInput.
func ValidateBrokerInput(input *NewBroker, existing *Broker) []utils.FieldError {
	input.Name = strings.TrimSpace(input.Name)
	input.Mobile = strings.TrimSpace(input.Mobile)
	input.Email = strings.TrimSpace(input.Email)
	if existing != nil && input.Name == "" {
		input.Name = existing.Name
	}

	errs := utils.ValidateStruct(input)
	if existing != nil && input.Name != existing.Name {
		errs = append(errs, utils.FieldError{Field: "name", Message: "name cannot be changed"})
	}
	errs = append(errs, input.OpeningBalance.validate()...)
	if input.Mobile != "" && config.StrictPhoneValidation() {
		if err := utils.ValidatePhoneNumber(input.Mobile, config.PhoneRegion()); err != nil {
			errs = append(errs, utils.FieldError{Field: "mobile", Message: err.Error()})
		}
	}
	return errs
}

func (input *NewBroker) validate(ctx context.Context, orgId int, existing *Broker) error {
	if err := utils.NewValidationError(ValidateBrokerInput(input, existing)); err != nil {
		return err
	}
	if existing == nil {
		if err := utils.ValidateUnique[Broker](ctx, orgId, "name", input.Name, 0); err != nil {
			if utils.IsValidationError(err) {
				return utils.FieldValidationError("name", "broker with this name already exists")
			}
			return err
		}
	}
	return nil
}

func CreateBroker(ctx context.Context, orgId int, input *NewBroker) (*Broker, error) {
	ctx = utils.TenantContext(ctx, orgId)
	if err := input.validate(ctx, orgId, nil); err != nil {
		return nil, err
	}
	input.OpeningBalance.quantize()

	broker := Broker{
		OrganizationId: orgId,
		Name:           input.Name,
		Mobile:         input.Mobile,
		Email:          input.Email,
		Remark:         input.Remark,
		OpeningBalance: input.OpeningBalance,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&broker).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.FieldValidationError("name", "broker with this name already exists")
		}
		return nil, err
	}
	return &broker, nil
}

func UpdateBroker(ctx context.Context, orgId int, id int, input *NewBroker) (*Broker, error) {
	ctx = utils.TenantContext(ctx, orgId)
	existing, err := utils.FetchModel[Broker](ctx, orgId, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, orgId, existing); err != nil {
		return nil, err
	}
	input.OpeningBalance.quantize()

	db := config.GetDB()
	err = db.WithContext(ctx).Model(existing).Where("organization_id = ?", orgId).Updates(map[string]interface{}{
		"mobile":         input.Mobile,
		"email":          input.Email,
		"remark":         input.Remark,
		"opening_debit":  input.OpeningDebit,
		"opening_credit": input.OpeningCredit,
	}).Error
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Broker](ctx, orgId, id)
}

// DeleteBroker refuses while any invoice or cash entry still points at the broker.
func DeleteBroker(ctx context.Context, orgId int, id int) (*Broker, error) {
	ctx = utils.TenantContext(ctx, orgId)
	result, err := utils.FetchModel[Broker](ctx, orgId, id)
	if err != nil {
		return nil, err
	}

	referencedBy, err := ledgerReferences(ctx, orgId, "broker_id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(referencedBy) > 0 {
		return nil, &utils.ProtectedReferenceError{Resource: "broker", Key: result.Name, ReferencedBy: referencedBy}
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Where("organization_id = ?", orgId).Delete(result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func GetBroker(ctx context.Context, orgId int, id int) (*Broker, error) {
	return utils.FetchModel[Broker](ctx, orgId, id)
}

func GetBrokers(ctx context.Context, orgId int) ([]*Broker, error) {
	return utils.FetchAllModels[Broker](ctx, orgId, "name")
}
