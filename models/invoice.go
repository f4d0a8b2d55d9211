package models

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmdatafocus/tradeledger/config"
	"github.com/mmdatafocus/tradeledger/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// percentScale matches the decimal(12,4) columns of batav and dalali.
const percentScale = 4

// Invoice is a sale or purchase header. invno is numbered per organization and kind.
type Invoice struct {
	ID             int             `gorm:"primary_key" json:"id"`
	OrganizationId int             `gorm:"not null;uniqueIndex:idx_invoices_org_kind_invno;index:idx_invoices_org_date" json:"organization_id"`
	Kind           InvoiceKind     `gorm:"size:10;not null;uniqueIndex:idx_invoices_org_kind_invno" json:"kind"`
	Invno          int             `gorm:"not null;uniqueIndex:idx_invoices_org_kind_invno" json:"invno"`
	InvDate        time.Time       `gorm:"type:date;not null;index:idx_invoices_org_date" json:"invdate"`
	Awakno         string          `gorm:"size:50" json:"awakno"`
	PartyId        int             `gorm:"index;not null" json:"party_id"`
	Party          *Party          `gorm:"foreignKey:PartyId" json:"party,omitempty"`
	BrokerId       int             `gorm:"index;not null" json:"broker_id"`
	Broker         *Broker         `gorm:"foreignKey:BrokerId" json:"broker,omitempty"`
	Extra          string          `gorm:"size:255" json:"extra"`
	VehicleNo      string          `gorm:"size:50" json:"vehicleno"`
	TotalAmt       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"totalamt"`
	BatavPercent   decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0" json:"batavpercent"`
	BatavAmt       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"batavamt"`
	Dr             decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0" json:"dr"`
	DrAmt          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"dramt"`
	Qi             decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"qi"`
	Other          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"other"`
	Total          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total"`
	Advance        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"advance"`
	NetAmt         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"netamt"`
	Remark         string          `gorm:"type:text" json:"remark"`
	CreatedBy      int             `gorm:"default:0" json:"created_by"`
	Details        []InvoiceDetail `gorm:"foreignKey:InvoiceId" json:"details"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type InvoiceDetail struct {
	ID        int             `gorm:"primary_key" json:"id"`
	InvoiceId int             `gorm:"index;not null" json:"invoice_id"`
	ItemId    int             `gorm:"index;not null" json:"item_id"`
	Item      *Item           `gorm:"foreignKey:ItemId" json:"item,omitempty"`
	Bora      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"bora"`
	Bn        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"bn"`
	BnWt      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"bnwt"`
	Bo        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"bo"`
	BoWt      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"bowt"`
	TbWt      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"tbwt"`
	Qty       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"qty"`
	Rate      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"rate"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"amount"`
	PartyWt   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"partywt"`
	MillWt    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"millwt"`
	DiffWt    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"diffwt"`
	LotNo     string          `gorm:"size:50" json:"lotno"`
}

// Charges returns the stored caller inputs of the total derivation.
func (inv *Invoice) Charges() InvoiceCharges {
	return InvoiceCharges{
		BatavPercent: inv.BatavPercent,
		Dr:           inv.Dr,
		Qi:           inv.Qi,
		Other:        inv.Other,
		Advance:      inv.Advance,
	}
}

// NewInvoice is the save payload: {"header": {...}, "lines": [...]}.
// lines may also arrive as a JSON-encoded string, or under "items_json".
type NewInvoice struct {
	Header NewInvoiceHeader `json:"header"`
	Lines  []NewInvoiceLine `json:"lines"`
}

type NewInvoiceHeader struct {
	InvDate      string               `json:"invdate"`
	Awakno       string               `json:"awakno"`
	PartyId      int                  `json:"party_id"`
	BrokerId     int                  `json:"broker_id"`
	Extra        string               `json:"extra"`
	VehicleNo    string               `json:"vehicleno"`
	BatavPercent utils.LenientDecimal `json:"batavpercent"`
	Dr           utils.LenientDecimal `json:"dr"`
	Qi           utils.LenientDecimal `json:"qi"`
	Other        utils.LenientDecimal `json:"other"`
	Advance      utils.LenientDecimal `json:"advance"`
	Remark       string               `json:"remark"`
}

// NewInvoiceLine fields decode leniently: malformed numbers become zero.
type NewInvoiceLine struct {
	ItemId  int                  `json:"item_id"`
	Bora    utils.LenientDecimal `json:"bora"`
	Bn      utils.LenientDecimal `json:"bn"`
	BnWt    utils.LenientDecimal `json:"bnwt"`
	Bo      utils.LenientDecimal `json:"bo"`
	BoWt    utils.LenientDecimal `json:"bowt"`
	TbWt    utils.LenientDecimal `json:"tbwt"`
	Qty     utils.LenientDecimal `json:"qty"`
	Rate    utils.LenientDecimal `json:"rate"`
	Amount  utils.LenientDecimal `json:"amount"`
	Amt     utils.LenientDecimal `json:"amt"` // older clients post the line amount as "amt"
	PartyWt utils.LenientDecimal `json:"partywt"`
	MillWt  utils.LenientDecimal `json:"millwt"`
	DiffWt  utils.LenientDecimal `json:"diffwt"`
	LotNo   string               `json:"lotno"`
}

func (input *NewInvoice) UnmarshalJSON(b []byte) error {
	var raw struct {
		Header    NewInvoiceHeader `json:"header"`
		Lines     json.RawMessage  `json:"lines"`
		ItemsJson json.RawMessage  `json:"items_json"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	linesRaw := raw.Lines
	if len(bytes.TrimSpace(linesRaw)) == 0 {
		linesRaw = raw.ItemsJson
	}
	lines, err := decodeInvoiceLines(linesRaw)
	if err != nil {
		return err
	}
	input.Header = raw.Header
	input.Lines = lines
	return nil
}

func decodeInvoiceLines(b json.RawMessage) ([]NewInvoiceLine, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil, nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil, utils.FieldValidationError("lines", "invalid line items")
		}
		if strings.TrimSpace(s) == "" {
			return nil, nil
		}
		b = []byte(s)
	}
	var lines []NewInvoiceLine
	if err := json.Unmarshal(b, &lines); err != nil {
		return nil, utils.FieldValidationError("lines", "invalid line items")
	}
	return lines, nil
}

func (line NewInvoiceLine) toDetail() InvoiceDetail {
	amount := line.Amount.Decimal
	if amount.IsZero() {
		amount = line.Amt.Decimal
	}
	bn, bnWt := utils.Quantize(line.Bn.Decimal), utils.Quantize(line.BnWt.Decimal)
	bo, boWt := utils.Quantize(line.Bo.Decimal), utils.Quantize(line.BoWt.Decimal)
	tbWt := line.TbWt.Decimal
	if tbWt.IsZero() {
		tbWt = bn.Mul(bnWt).Add(bo.Mul(boWt))
	}
	diffWt := line.DiffWt.Decimal
	if diffWt.IsZero() && (!line.PartyWt.IsZero() || !line.MillWt.IsZero()) {
		diffWt = line.PartyWt.Sub(line.MillWt.Decimal)
	}
	qty := utils.Quantize(line.Qty.Decimal)
	rate := utils.Quantize(line.Rate.Decimal)
	return InvoiceDetail{
		ItemId:  line.ItemId,
		Bora:    utils.Quantize(line.Bora.Decimal),
		Bn:      bn,
		BnWt:    bnWt,
		Bo:      bo,
		BoWt:    boWt,
		TbWt:    utils.Quantize(tbWt),
		Qty:     qty,
		Rate:    rate,
		Amount:  LineAmount(qty, rate, amount),
		PartyWt: utils.Quantize(line.PartyWt.Decimal),
		MillWt:  utils.Quantize(line.MillWt.Decimal),
		DiffWt:  utils.Quantize(diffWt),
		LotNo:   strings.TrimSpace(line.LotNo),
	}
}

func (h NewInvoiceHeader) charges() InvoiceCharges {
	return InvoiceCharges{
		BatavPercent: h.BatavPercent.Round(percentScale),
		Dr:           h.Dr.Round(percentScale),
		Qi:           utils.Quantize(h.Qi.Decimal),
		Other:        utils.Quantize(h.Other.Decimal),
		Advance:      utils.Quantize(h.Advance.Decimal),
	}
}

// ValidateInvoiceInput checks the payload on its own and returns the parsed
// invoice date. A blank date means today.
func ValidateInvoiceInput(input *NewInvoice, today time.Time) (time.Time, []utils.FieldError) {
	var errs []utils.FieldError
	invDate := utils.NormalizeDate(today)
	if s := strings.TrimSpace(input.Header.InvDate); s != "" {
		d, err := utils.ParseDate(s)
		if err != nil {
			errs = append(errs, utils.FieldError{Field: "invdate", Message: err.Error()})
		} else {
			invDate = d
		}
	}
	if input.Header.PartyId <= 0 {
		errs = append(errs, utils.FieldError{Field: "party_id", Message: "is required"})
	}
	if input.Header.BrokerId <= 0 {
		errs = append(errs, utils.FieldError{Field: "broker_id", Message: "is required"})
	}
	if len(input.Lines) == 0 {
		errs = append(errs, utils.FieldError{Field: "lines", Message: "add at least one item before saving"})
	}
	for i, line := range input.Lines {
		if line.ItemId <= 0 {
			errs = append(errs, utils.FieldError{Field: fmt.Sprintf("lines[%d].item_id", i), Message: "is required"})
		}
	}
	return invDate, errs
}

// validate resolves every reference inside the organization and returns the invoice date.
func (input *NewInvoice) validate(ctx context.Context, orgId int) (time.Time, error) {
	invDate, errs := ValidateInvoiceInput(input, time.Now())
	if err := utils.NewValidationError(errs); err != nil {
		return invDate, err
	}
	if err := utils.ValidateResourceId[Party](ctx, orgId, input.Header.PartyId); err != nil {
		return invDate, err
	}
	if err := utils.ValidateResourceId[Broker](ctx, orgId, input.Header.BrokerId); err != nil {
		return invDate, err
	}
	itemIds := make([]int, 0, len(input.Lines))
	for _, line := range input.Lines {
		itemIds = append(itemIds, line.ItemId)
	}
	if err := utils.ValidateResourcesId[Item](ctx, orgId, itemIds); err != nil {
		return invDate, err
	}
	return invDate, nil
}

// CreateInvoice(orgId, kind, input) (Invoice,error) <Member>
// UpdateInvoice(orgId, kind, id, input) (Invoice,error) <Member>
// DeleteInvoice(orgId, kind, id) (Invoice,error) <Member>

func CreateInvoice(ctx context.Context, orgId int, kind InvoiceKind, input *NewInvoice) (*Invoice, error) {
	if !kind.IsValid() {
		return nil, utils.FieldValidationError("kind", "invoice kind must be sale or purchase")
	}
	ctx = utils.TenantContext(ctx, orgId)
	invDate, err := input.validate(ctx, orgId)
	if err != nil {
		return nil, err
	}

	details, totalAmt := AggregateLines(input.Lines)
	charges := input.Header.charges()
	totals := DeriveInvoiceTotals(totalAmt, charges)
	createdBy, _ := utils.GetUserIdFromContext(ctx)

	invoice := Invoice{
		OrganizationId: orgId,
		Kind:           kind,
		InvDate:        invDate,
		Awakno:         strings.TrimSpace(input.Header.Awakno),
		PartyId:        input.Header.PartyId,
		BrokerId:       input.Header.BrokerId,
		Extra:          strings.TrimSpace(input.Header.Extra),
		VehicleNo:      strings.TrimSpace(input.Header.VehicleNo),
		TotalAmt:       totals.TotalAmt,
		BatavPercent:   charges.BatavPercent,
		BatavAmt:       totals.BatavAmt,
		Dr:             charges.Dr,
		DrAmt:          totals.DrAmt,
		Qi:             charges.Qi,
		Other:          charges.Other,
		Total:          totals.Total,
		Advance:        charges.Advance,
		NetAmt:         totals.NetAmt,
		Remark:         strings.TrimSpace(input.Header.Remark),
		CreatedBy:      createdBy,
		Details:        details,
	}

	release, err := utils.OrganizationLock(ctx, orgId, invoiceNumberLockType(kind), "models/invoice.go", "CreateInvoice")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invno, err := nextInvoiceNumber(tx, orgId, kind)
		if err != nil {
			return err
		}
		invoice.Invno = invno
		return tx.Create(&invoice).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			config.LogError(config.GetLogger(), "models/invoice.go", "CreateInvoice", "invoice number collision", invoice.Invno, err)
			return nil, utils.ErrInvoiceNumberConflict
		}
		return nil, err
	}
	return &invoice, nil
}

// UpdateInvoice rewrites the header and replaces every line. invno is kept.
func UpdateInvoice(ctx context.Context, orgId int, kind InvoiceKind, id int, input *NewInvoice) (*Invoice, error) {
	ctx = utils.TenantContext(ctx, orgId)
	existing, err := fetchInvoice(ctx, orgId, kind, id)
	if err != nil {
		return nil, err
	}
	invDate, err := input.validate(ctx, orgId)
	if err != nil {
		return nil, err
	}

	details, totalAmt := AggregateLines(input.Lines)
	charges := input.Header.charges()
	totals := DeriveInvoiceTotals(totalAmt, charges)

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", existing.ID).Delete(&InvoiceDetail{}).Error; err != nil {
			return err
		}
		err := tx.Model(existing).Where("organization_id = ?", orgId).Updates(map[string]interface{}{
			"inv_date":      invDate,
			"awakno":        strings.TrimSpace(input.Header.Awakno),
			"party_id":      input.Header.PartyId,
			"broker_id":     input.Header.BrokerId,
			"extra":         strings.TrimSpace(input.Header.Extra),
			"vehicle_no":    strings.TrimSpace(input.Header.VehicleNo),
			"total_amt":     totals.TotalAmt,
			"batav_percent": charges.BatavPercent,
			"batav_amt":     totals.BatavAmt,
			"dr":            charges.Dr,
			"dr_amt":        totals.DrAmt,
			"qi":            charges.Qi,
			"other":         charges.Other,
			"total":         totals.Total,
			"advance":       charges.Advance,
			"net_amt":       totals.NetAmt,
			"remark":        strings.TrimSpace(input.Header.Remark),
		}).Error
		if err != nil {
			return err
		}
		for i := range details {
			details[i].InvoiceId = existing.ID
		}
		return tx.Create(&details).Error
	})
	if err != nil {
		return nil, err
	}
	return GetInvoice(ctx, orgId, kind, id)
}

func DeleteInvoice(ctx context.Context, orgId int, kind InvoiceKind, id int) (*Invoice, error) {
	ctx = utils.TenantContext(ctx, orgId)
	result, err := fetchInvoice(ctx, orgId, kind, id, "Details")
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", result.ID).Delete(&InvoiceDetail{}).Error; err != nil {
			return err
		}
		return tx.Where("organization_id = ?", orgId).Delete(&Invoice{}, result.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func GetInvoice(ctx context.Context, orgId int, kind InvoiceKind, id int) (*Invoice, error) {
	return fetchInvoice(ctx, orgId, kind, id, "Party", "Broker", "Details", "Details.Item")
}

// a row of the other kind does not exist for the caller
func fetchInvoice(ctx context.Context, orgId int, kind InvoiceKind, id int, associations ...string) (*Invoice, error) {
	inv, err := utils.FetchModel[Invoice](ctx, orgId, id, associations...)
	if err != nil {
		return nil, err
	}
	if inv.Kind != kind {
		return nil, &utils.NotFoundError{Resource: strings.ToLower(string(kind)) + " invoice", Key: id}
	}
	return inv, nil
}

// GetInvoices lists invoices newest number first, optionally bounded by date (inclusive).
func GetInvoices(ctx context.Context, orgId int, kind InvoiceKind, fromDate *time.Time, toDate *time.Time) ([]*Invoice, error) {
	if orgId <= 0 {
		return nil, utils.ErrOrganizationRequired
	}
	db := config.GetDB()
	dbCtx := db.WithContext(utils.TenantContext(ctx, orgId)).
		Preload("Party").Preload("Broker").
		Where("organization_id = ? AND kind = ?", orgId, kind)
	if fromDate != nil {
		dbCtx = dbCtx.Where("inv_date >= ?", utils.NormalizeDate(*fromDate))
	}
	if toDate != nil {
		dbCtx = dbCtx.Where("inv_date <= ?", utils.NormalizeDate(*toDate))
	}
	var results []*Invoice
	if err := dbCtx.Order("invno DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
