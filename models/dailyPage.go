package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/tradeledger/config"
	"github.com/mmdatafocus/tradeledger/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DailyPage groups one organization's cash entries for one calendar day.
type DailyPage struct {
	ID             int          `gorm:"primary_key" json:"id"`
	OrganizationId int          `gorm:"not null;uniqueIndex:idx_daily_pages_org_date" json:"organization_id"`
	Date           time.Time    `gorm:"type:date;not null;uniqueIndex:idx_daily_pages_org_date" json:"date"`
	JamaEntries    []JamaEntry  `gorm:"foreignKey:DailyPageId" json:"jama_entries,omitempty"`
	NaameEntries   []NaameEntry `gorm:"foreignKey:DailyPageId" json:"naame_entries,omitempty"`
	CreatedAt      time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

// JamaEntry is a credit-side cash entry: money received from the party.
type JamaEntry struct {
	EntryNo        int             `gorm:"primaryKey;autoIncrement" json:"entry_no"`
	OrganizationId int             `gorm:"index;not null" json:"organization_id"`
	DailyPageId    int             `gorm:"index;not null" json:"daily_page_id"`
	PartyId        int             `gorm:"index;not null" json:"party_id"`
	Party          *Party          `gorm:"foreignKey:PartyId" json:"party,omitempty"`
	BrokerId       *int            `gorm:"index" json:"broker_id"`
	Broker         *Broker         `gorm:"foreignKey:BrokerId" json:"broker,omitempty"`
	Amount         decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Remark         string          `gorm:"type:text" json:"remark"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// NaameEntry is a debit-side cash entry: money paid to the party.
type NaameEntry struct {
	EntryNo        int             `gorm:"primaryKey;autoIncrement" json:"entry_no"`
	OrganizationId int             `gorm:"index;not null" json:"organization_id"`
	DailyPageId    int             `gorm:"index;not null" json:"daily_page_id"`
	PartyId        int             `gorm:"index;not null" json:"party_id"`
	Party          *Party          `gorm:"foreignKey:PartyId" json:"party,omitempty"`
	BrokerId       *int            `gorm:"index" json:"broker_id"`
	Broker         *Broker         `gorm:"foreignKey:BrokerId" json:"broker,omitempty"`
	Amount         decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Remark         string          `gorm:"type:text" json:"remark"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewCashEntry struct {
	Date     string          `json:"date"`
	PartyId  int             `json:"party_id"`
	BrokerId *int            `json:"broker_id"`
	Amount   utils.MoneyText `json:"amount"`
	Remark   string          `json:"remark"`
}

// DailyPageView is one day's page with both sides and their totals.
// Difference is jama total minus naame total.
type DailyPageView struct {
	Date         time.Time       `json:"date"`
	PageId       int             `json:"page_id"`
	JamaEntries  []*JamaEntry    `json:"jama_entries"`
	NaameEntries []*NaameEntry   `json:"naame_entries"`
	JamaTotal    decimal.Decimal `json:"jama_total"`
	NaameTotal   decimal.Decimal `json:"naame_total"`
	Difference   decimal.Decimal `json:"difference"`
}

// ValidateCashEntryInput checks the entry on its own and returns the page date
// and the quantized amount. A blank date means today; a zero broker id means
// no broker. Amounts are parsed strictly and must be positive.
func ValidateCashEntryInput(input *NewCashEntry, today time.Time) (time.Time, decimal.Decimal, []utils.FieldError) {
	var errs []utils.FieldError
	date := utils.NormalizeDate(today)
	if s := strings.TrimSpace(input.Date); s != "" {
		d, err := utils.ParseDate(s)
		if err != nil {
			errs = append(errs, utils.FieldError{Field: "date", Message: err.Error()})
		} else {
			date = d
		}
	}
	if input.PartyId <= 0 {
		errs = append(errs, utils.FieldError{Field: "party_id", Message: "is required"})
	}
	if input.BrokerId != nil && *input.BrokerId <= 0 {
		input.BrokerId = nil
	}
	amount, err := input.Amount.Parse()
	if err != nil {
		errs = append(errs, utils.FieldError{Field: "amount", Message: err.Error()})
	} else if amount = utils.Quantize(amount); !amount.IsPositive() {
		errs = append(errs, utils.FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	input.Remark = strings.TrimSpace(input.Remark)
	return date, amount, errs
}

func (input *NewCashEntry) validate(ctx context.Context, orgId int) (time.Time, decimal.Decimal, error) {
	date, amount, errs := ValidateCashEntryInput(input, time.Now())
	if err := utils.NewValidationError(errs); err != nil {
		return date, amount, err
	}
	if err := utils.ValidateResourceId[Party](ctx, orgId, input.PartyId); err != nil {
		return date, amount, err
	}
	if input.BrokerId != nil {
		if err := utils.ValidateResourceId[Broker](ctx, orgId, *input.BrokerId); err != nil {
			return date, amount, err
		}
	}
	return date, amount, nil
}

func AddJamaEntry(ctx context.Context, orgId int, input *NewCashEntry) (*JamaEntry, error) {
	var entry *JamaEntry
	err := saveCashEntry(ctx, orgId, input, func(page *DailyPage, amount decimal.Decimal) interface{} {
		entry = &JamaEntry{
			OrganizationId: orgId,
			DailyPageId:    page.ID,
			PartyId:        input.PartyId,
			BrokerId:       input.BrokerId,
			Amount:         amount,
			Remark:         input.Remark,
		}
		return entry
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func AddNaameEntry(ctx context.Context, orgId int, input *NewCashEntry) (*NaameEntry, error) {
	var entry *NaameEntry
	err := saveCashEntry(ctx, orgId, input, func(page *DailyPage, amount decimal.Decimal) interface{} {
		entry = &NaameEntry{
			OrganizationId: orgId,
			DailyPageId:    page.ID,
			PartyId:        input.PartyId,
			BrokerId:       input.BrokerId,
			Amount:         amount,
			Remark:         input.Remark,
		}
		return entry
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// saveCashEntry fetches or creates the (org, date) page and inserts the row
// built by newRow in the same transaction.
func saveCashEntry(ctx context.Context, orgId int, input *NewCashEntry, newRow func(page *DailyPage, amount decimal.Decimal) interface{}) error {
	ctx = utils.TenantContext(ctx, orgId)
	date, amount, err := input.validate(ctx, orgId)
	if err != nil {
		return err
	}
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		page, err := getOrCreateDailyPage(tx, orgId, date)
		if err != nil {
			return err
		}
		return tx.Create(newRow(page, amount)).Error
	})
}

func getOrCreateDailyPage(tx *gorm.DB, orgId int, date time.Time) (*DailyPage, error) {
	var page DailyPage
	err := tx.Where("organization_id = ? AND date = ?", orgId, date).
		Attrs(DailyPage{OrganizationId: orgId, Date: date}).
		FirstOrCreate(&page).Error
	if err == nil {
		return &page, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, err
	}
	// another writer created the page between our read and insert
	page = DailyPage{}
	if err := tx.Where("organization_id = ? AND date = ?", orgId, date).First(&page).Error; err != nil {
		return nil, err
	}
	return &page, nil
}

func DeleteJamaEntry(ctx context.Context, orgId int, entryNo int) (*JamaEntry, error) {
	ctx = utils.TenantContext(ctx, orgId)
	entry, err := utils.FetchModel[JamaEntry](ctx, orgId, entryNo)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Where("organization_id = ?", orgId).Delete(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func DeleteNaameEntry(ctx context.Context, orgId int, entryNo int) (*NaameEntry, error) {
	ctx = utils.TenantContext(ctx, orgId)
	entry, err := utils.FetchModel[NaameEntry](ctx, orgId, entryNo)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Where("organization_id = ?", orgId).Delete(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// GetDailyPage returns the page for date. A day without a page yields an
// empty view, not an error.
func GetDailyPage(ctx context.Context, orgId int, date time.Time) (*DailyPageView, error) {
	if orgId <= 0 {
		return nil, utils.ErrOrganizationRequired
	}
	ctx = utils.TenantContext(ctx, orgId)
	date = utils.NormalizeDate(date)
	view := &DailyPageView{
		Date:         date,
		JamaEntries:  []*JamaEntry{},
		NaameEntries: []*NaameEntry{},
		JamaTotal:    decimal.Zero,
		NaameTotal:   decimal.Zero,
		Difference:   decimal.Zero,
	}

	db := config.GetDB()
	var page DailyPage
	err := db.WithContext(ctx).Where("organization_id = ? AND date = ?", orgId, date).First(&page).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return view, nil
	}
	if err != nil {
		return nil, err
	}
	view.PageId = page.ID

	if err := db.WithContext(ctx).Preload("Party").Preload("Broker").
		Where("organization_id = ? AND daily_page_id = ?", orgId, page.ID).
		Order("entry_no").Find(&view.JamaEntries).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Preload("Party").Preload("Broker").
		Where("organization_id = ? AND daily_page_id = ?", orgId, page.ID).
		Order("entry_no").Find(&view.NaameEntries).Error; err != nil {
		return nil, err
	}
	for _, e := range view.JamaEntries {
		view.JamaTotal = view.JamaTotal.Add(e.Amount)
	}
	for _, e := range view.NaameEntries {
		view.NaameTotal = view.NaameTotal.Add(e.Amount)
	}
	view.Difference = view.JamaTotal.Sub(view.NaameTotal)
	return view, nil
}
