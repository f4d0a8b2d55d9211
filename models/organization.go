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

// Organization is the tenant boundary. Users live in the identity provider
// and are referenced by id only.
type Organization struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	OwnerUserId int       `gorm:"index;not null" json:"owner_user_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Membership struct {
	ID             int            `gorm:"primary_key" json:"id"`
	OrganizationId int            `gorm:"not null;uniqueIndex:idx_memberships_org_user" json:"organization_id"`
	UserId         int            `gorm:"not null;uniqueIndex:idx_memberships_org_user;index" json:"user_id"`
	Role           MembershipRole `gorm:"size:10;not null" json:"role"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

type NewOrganization struct {
	Name string `json:"name" validate:"required,max=100"`
}

type NewMembership struct {
	UserId int            `json:"user_id" validate:"gt=0"`
	Role   MembershipRole `json:"role" validate:"required"`
}

type OrganizationWithRole struct {
	Organization
	Role MembershipRole `json:"role"`
}

// CreateOrganization(userId, input) (Organization,error) <Any user, becomes OWNER>
// UpdateOrganization(userId, orgId, input) (Organization,error) <Owner>
// DeleteOrganization(userId, orgId) (Organization,error) <Owner>
// AddMember / UpdateMemberRole / RemoveMember <Owner/Manager>

func (input *NewOrganization) validate(ctx context.Context, id int) error {
	input.Name = strings.TrimSpace(input.Name)
	if errs := utils.ValidateStruct(input); len(errs) > 0 {
		return utils.NewValidationError(errs)
	}
	db := config.GetDB()
	var count int64
	dbCtx := db.WithContext(ctx).Model(&Organization{}).Where("name = ?", input.Name)
	if id > 0 {
		dbCtx = dbCtx.Where("NOT id = ?", id)
	}
	if err := dbCtx.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return utils.FieldValidationError("name", "organization with this name already exists")
	}
	return nil
}

func CreateOrganization(ctx context.Context, userId int, input *NewOrganization) (*Organization, error) {
	if userId <= 0 {
		return nil, utils.ErrPermissionDenied
	}
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	org := Organization{
		Name:        input.Name,
		OwnerUserId: userId,
	}
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&org).Error; err != nil {
			return err
		}
		return tx.Create(&Membership{
			OrganizationId: org.ID,
			UserId:         userId,
			Role:           MembershipRoleOwner,
		}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.FieldValidationError("name", "organization with this name already exists")
		}
		return nil, err
	}
	return &org, nil
}

func UpdateOrganization(ctx context.Context, userId int, orgId int, input *NewOrganization) (*Organization, error) {
	org, err := GetOrganization(ctx, orgId)
	if err != nil {
		return nil, err
	}
	if org.OwnerUserId != userId {
		return nil, utils.ErrPermissionDenied
	}
	if err := input.validate(ctx, orgId); err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(org).Update("name", input.Name).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.FieldValidationError("name", "organization with this name already exists")
		}
		return nil, err
	}
	org.Name = input.Name
	return org, nil
}

// DeleteOrganization removes the organization and everything it owns in one transaction.
func DeleteOrganization(ctx context.Context, userId int, orgId int) (*Organization, error) {
	org, err := GetOrganization(ctx, orgId)
	if err != nil {
		return nil, err
	}
	if org.OwnerUserId != userId {
		return nil, utils.ErrPermissionDenied
	}

	ctx = utils.TenantContext(ctx, orgId)
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoiceIds := tx.Model(&Invoice{}).Select("id").Where("organization_id = ?", orgId)
		if err := tx.Where("invoice_id IN (?)", invoiceIds).Delete(&InvoiceDetail{}).Error; err != nil {
			return err
		}
		owned := []interface{}{&JamaEntry{}, &NaameEntry{}, &DailyPage{}, &Invoice{}, &Item{}, &Broker{}, &Party{}, &Membership{}}
		for _, model := range owned {
			if err := tx.Where("organization_id = ?", orgId).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(org).Error
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

func GetOrganization(ctx context.Context, orgId int) (*Organization, error) {
	db := config.GetDB()
	var org Organization
	if err := db.WithContext(ctx).First(&org, orgId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &utils.NotFoundError{Resource: "organization", Key: orgId}
		}
		return nil, err
	}
	return &org, nil
}

// GetAllOrganizations is for maintenance tooling; it ignores membership.
func GetAllOrganizations(ctx context.Context) ([]*Organization, error) {
	db := config.GetDB()
	var results []*Organization
	if err := db.WithContext(ctx).Order("id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetOrganizationsForUser lists the organizations the user belongs to, by name.
func GetOrganizationsForUser(ctx context.Context, userId int) ([]*OrganizationWithRole, error) {
	db := config.GetDB()
	var results []*OrganizationWithRole
	err := db.WithContext(ctx).
		Table("organizations").
		Select("organizations.*, memberships.role").
		Joins("JOIN memberships ON memberships.organization_id = organizations.id").
		Where("memberships.user_id = ?", userId).
		Order("organizations.name").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetMembership returns NotFoundError when the user is not part of the organization.
func GetMembership(ctx context.Context, orgId int, userId int) (*Membership, error) {
	db := config.GetDB()
	var m Membership
	err := db.WithContext(utils.TenantContext(ctx, orgId)).
		Where("organization_id = ? AND user_id = ?", orgId, userId).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &utils.NotFoundError{Resource: "membership", Key: userId}
		}
		return nil, err
	}
	return &m, nil
}

func GetMembers(ctx context.Context, orgId int) ([]*Membership, error) {
	return utils.FetchAllModels[Membership](ctx, orgId, "id")
}

func requireMemberManager(ctx context.Context, orgId int, actorId int) (*Membership, error) {
	actor, err := GetMembership(ctx, orgId, actorId)
	if err != nil {
		if utils.IsNotFound(err) {
			return nil, utils.ErrPermissionDenied
		}
		return nil, err
	}
	if !actor.Role.CanManageMembers() {
		return nil, utils.ErrPermissionDenied
	}
	return actor, nil
}

func AddMember(ctx context.Context, actorId int, orgId int, input *NewMembership) (*Membership, error) {
	if _, err := requireMemberManager(ctx, orgId, actorId); err != nil {
		return nil, err
	}
	if errs := utils.ValidateStruct(input); len(errs) > 0 {
		return nil, utils.NewValidationError(errs)
	}
	// ownership moves only with the organization itself
	if input.Role == MembershipRoleOwner {
		return nil, utils.FieldValidationError("role", "an organization has exactly one owner")
	}
	count, err := utils.ResourceCountWhere[Membership](ctx, orgId, "user_id = ?", input.UserId)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.FieldValidationError("user_id", "user is already a member")
	}

	m := Membership{OrganizationId: orgId, UserId: input.UserId, Role: input.Role}
	db := config.GetDB()
	if err := db.WithContext(utils.TenantContext(ctx, orgId)).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.FieldValidationError("user_id", "user is already a member")
		}
		return nil, err
	}
	return &m, nil
}

func UpdateMemberRole(ctx context.Context, actorId int, orgId int, userId int, role MembershipRole) (*Membership, error) {
	if _, err := requireMemberManager(ctx, orgId, actorId); err != nil {
		return nil, err
	}
	if !role.IsValid() || role == MembershipRoleOwner {
		return nil, utils.FieldValidationError("role", "must be MANAGER or EMPLOYEE")
	}
	m, err := GetMembership(ctx, orgId, userId)
	if err != nil {
		return nil, err
	}
	if m.Role == MembershipRoleOwner {
		return nil, utils.FieldValidationError("role", "owner role cannot be changed")
	}
	db := config.GetDB()
	if err := db.WithContext(utils.TenantContext(ctx, orgId)).Model(m).Update("role", role).Error; err != nil {
		return nil, err
	}
	m.Role = role
	return m, nil
}

func RemoveMember(ctx context.Context, actorId int, orgId int, userId int) (*Membership, error) {
	if _, err := requireMemberManager(ctx, orgId, actorId); err != nil {
		return nil, err
	}
	m, err := GetMembership(ctx, orgId, userId)
	if err != nil {
		return nil, err
	}
	if m.Role == MembershipRoleOwner {
		return nil, utils.FieldValidationError("user_id", "owner cannot be removed")
	}
	db := config.GetDB()
	if err := db.WithContext(utils.TenantContext(ctx, orgId)).Delete(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}
