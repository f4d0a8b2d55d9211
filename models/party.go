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

// Party is a ledger head: the debtor or creditor invoices and cash entries post to.
type Party struct {
	ID             int    `gorm:"primary_key" json:"id"`
	OrganizationId int    `gorm:"not null;uniqueIndex:idx_parties_org_name" json:"organization_id"`
	Name           string `gorm:"size:100;not null;uniqueIndex:idx_parties_org_name" json:"name"`
	Add1           string `gorm:"size:200" json:"add1"`
	Add2           string `gorm:"size:200" json:"add2"`
	City           string `gorm:"size:100" json:"city"`
	State          string `gorm:"size:100" json:"state"`
	Mobile         string `gorm:"size:15" json:"mobile"`
	OtherNo        string `gorm:"size:15" json:"other_no"`
	Email          string `gorm:"size:100" json:"email"`
	Remark         string `gorm:"type:text" json:"remark"`
	OpeningBalance
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewParty struct {
	Name    string `json:"name" validate:"required,max=100"`
	Add1    string `json:"add1" validate:"max=200"`
	Add2    string `json:"add2" validate:"max=200"`
	City    string `json:"city" validate:"max=100"`
	State   string `json:"state" validate:"max=100"`
	Mobile  string `json:"mobile" validate:"max=15"`
	OtherNo string `json:"other_no" validate:"max=15"`
	Email   string `json:"email" validate:"omitempty,email,max=100"`
	Remark  string `json:"remark"`
	OpeningBalance
}

// ValidatePartyInput checks the input on its own. existing is the stored row
// on update and nil on create; the name of an existing party is read-only.
func ValidatePartyInput(input *NewParty, existing *Party) []utils.FieldError {
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

func (input *NewParty) validate(ctx context.Context, orgId int, existing *Party) error {
	if err := utils.NewValidationError(ValidatePartyInput(input, existing)); err != nil {
		return err
	}
	if existing == nil {
		if err := utils.ValidateUnique[Party](ctx, orgId, "name", input.Name, 0); err != nil {
			if utils.IsValidationError(err) {
				return utils.FieldValidationError("name", "party with this name already exists")
			}
			return err
		}
	}
	return nil
}

func CreateParty(ctx context.Context, orgId int, input *NewParty) (*Party, error) {
	ctx = utils.TenantContext(ctx, orgId)
	if err := input.validate(ctx, orgId, nil); err != nil {
		return nil, err
	}
	input.OpeningBalance.quantize()

	party := Party{
		OrganizationId: orgId,
		Name:           input.Name,
		Add1:           input.Add1,
		Add2:           input.Add2,
		City:           input.City,
		State:          input.State,
		Mobile:         input.Mobile,
		OtherNo:        input.OtherNo,
		Email:          input.Email,
		Remark:         input.Remark,
		OpeningBalance: input.OpeningBalance,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&party).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.FieldValidationError("name", "party with this name already exists")
		}
		return nil, err
	}
	return &party, nil
}

func UpdateParty(ctx context.Context, orgId int, id int, input *NewParty) (*Party, error) {
	ctx = utils.TenantContext(ctx, orgId)
	existing, err := utils.FetchModel[Party](ctx, orgId, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, orgId, existing); err != nil {
		return nil, err
	}
	input.OpeningBalance.quantize()

	db := config.GetDB()
	err = db.WithContext(ctx).Model(existing).Where("organization_id = ?", orgId).Updates(map[string]interface{}{
		"add1":           input.Add1,
		"add2":           input.Add2,
		"city":           input.City,
		"state":          input.State,
		"mobile":         input.Mobile,
		"other_no":       input.OtherNo,
		"email":          input.Email,
		"remark":         input.Remark,
		"opening_debit":  input.OpeningDebit,
		"opening_credit": input.OpeningCredit,
	}).Error
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Party](ctx, orgId, id)
}

// DeleteParty refuses while any invoice or cash entry still points at the party.
func DeleteParty(ctx context.Context, orgId int, id int) (*Party, error) {
	ctx = utils.TenantContext(ctx, orgId)
	result, err := utils.FetchModel[Party](ctx, orgId, id)
	if err != nil {
		return nil, err
	}

	referencedBy, err := ledgerReferences(ctx, orgId, "party_id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(referencedBy) > 0 {
		return nil, &utils.ProtectedReferenceError{Resource: "party", Key: result.Name, ReferencedBy: referencedBy}
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Where("organization_id = ?", orgId).Delete(result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func GetParty(ctx context.Context, orgId int, id int) (*Party, error) {
	return utils.FetchModel[Party](ctx, orgId, id)
}

// GetParties lists parties by name; name filters by substring when set.
func GetParties(ctx context.Context, orgId int, name *string) ([]*Party, error) {
	if orgId <= 0 {
		return nil, utils.ErrOrganizationRequired
	}
	db := config.GetDB()
	var results []*Party
	dbCtx := db.WithContext(utils.TenantContext(ctx, orgId)).Where("organization_id = ?", orgId)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ledgerReferences names every ledger table holding a row that matches cond.
func ledgerReferences(ctx context.Context, orgId int, cond string, value ...interface{}) ([]string, error) {
	var referencedBy []string

	count, err := utils.ResourceCountWhere[JamaEntry](ctx, orgId, cond, value...)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		referencedBy = append(referencedBy, "jama entries")
	}

	count, err = utils.ResourceCountWhere[NaameEntry](ctx, orgId, cond, value...)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		referencedBy = append(referencedBy, "naame entries")
	}

	count, err = utils.ResourceCountWhere[Invoice](ctx, orgId, cond+" AND kind = ?", append(value, InvoiceKindSale)...)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		referencedBy = append(referencedBy, "sale invoices")
	}

	count, err = utils.ResourceCountWhere[Invoice](ctx, orgId, cond+" AND kind = ?", append(value, InvoiceKindPurchase)...)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		referencedBy = append(referencedBy, "purchase invoices")
	}
	return referencedBy, nil
}
