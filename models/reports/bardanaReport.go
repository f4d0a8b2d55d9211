package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mmdatafocus/tradeledger/config"
	"github.com/mmdatafocus/tradeledger/models"
	"github.com/mmdatafocus/tradeledger/utils"
	"github.com/shopspring/decimal"
)

const (
	BardanaByDate   = "date"
	BardanaByParty  = "party"
	BardanaByBroker = "broker"
)

type BardanaQuery struct {
	FromDate *time.Time
	ToDate   *time.Time
	PartyId  int
	BrokerId int
	GroupBy  string
}

// BardanaLine is one sale line with its invoice context.
type BardanaLine struct {
	InvDate    time.Time       `json:"invdate"`
	Invno      int             `json:"invno"`
	PartyName  string          `json:"party_name"`
	BrokerName string          `json:"broker_name"`
	ItemName   string          `json:"item_name"`
	Bn         decimal.Decimal `json:"bn"`
	Bo         decimal.Decimal `json:"bo"`
	LotNo      string          `json:"lotno"`
}

type BardanaGroup struct {
	Group   string          `json:"group"`
	Lines   []*BardanaLine  `json:"lines"`
	TotalBn decimal.Decimal `json:"total_bn"`
	TotalBo decimal.Decimal `json:"total_bo"`
}

type BardanaReport struct {
	FromDate time.Time       `json:"from_date"`
	ToDate   time.Time       `json:"to_date"`
	GroupBy  string          `json:"group_by"`
	Groups   []*BardanaGroup `json:"groups"`
	TotalBn  decimal.Decimal `json:"total_bn"`
	TotalBo  decimal.Decimal `json:"total_bo"`
}

// GetBardanaReport sums new (bn) and old (bo) bag counts of sale lines in
// range. Missing dates default to today.
func GetBardanaReport(ctx context.Context, orgId int, query BardanaQuery) (*BardanaReport, error) {
	ctx, span := tracer.Start(ctx, "GetBardanaReport")
	defer span.End()

	if orgId <= 0 {
		return nil, utils.ErrOrganizationRequired
	}
	switch query.GroupBy {
	case "":
		query.GroupBy = BardanaByDate
	case BardanaByDate, BardanaByParty, BardanaByBroker:
	default:
		return nil, utils.FieldValidationError("group_by", "must be date, party or broker")
	}
	today := utils.NormalizeDate(time.Now())
	fromDate := utils.DereferencePtr(utils.NormalizeDatePtr(query.FromDate), today)
	toDate := utils.DereferencePtr(utils.NormalizeDatePtr(query.ToDate), today)
	if fromDate.After(toDate) {
		return nil, utils.FieldValidationError("from_date", "must not be after to_date")
	}
	ctx = utils.TenantContext(ctx, orgId)

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).
		Preload("Party").Preload("Broker").Preload("Details").Preload("Details.Item").
		Where("organization_id = ? AND kind = ?", orgId, models.InvoiceKindSale).
		Where("inv_date >= ? AND inv_date <= ?", fromDate, toDate)
	if query.PartyId > 0 {
		dbCtx = dbCtx.Where("party_id = ?", query.PartyId)
	}
	if query.BrokerId > 0 {
		dbCtx = dbCtx.Where("broker_id = ?", query.BrokerId)
	}
	var invoices []*models.Invoice
	if err := dbCtx.Order("inv_date, invno").Find(&invoices).Error; err != nil {
		return nil, err
	}

	report := &BardanaReport{
		FromDate: fromDate,
		ToDate:   toDate,
		GroupBy:  query.GroupBy,
		Groups:   []*BardanaGroup{},
	}
	groups := map[string]*BardanaGroup{}
	for _, inv := range invoices {
		key := bardanaGroupKey(inv, query.GroupBy)
		group, ok := groups[key]
		if !ok {
			group = &BardanaGroup{Group: key}
			groups[key] = group
			report.Groups = append(report.Groups, group)
		}
		for _, d := range inv.Details {
			line := &BardanaLine{
				InvDate: inv.InvDate,
				Invno:   inv.Invno,
				Bn:      d.Bn,
				Bo:      d.Bo,
				LotNo:   d.LotNo,
			}
			if inv.Party != nil {
				line.PartyName = inv.Party.Name
			}
			if inv.Broker != nil {
				line.BrokerName = inv.Broker.Name
			}
			if d.Item != nil {
				line.ItemName = d.Item.Name
			}
			group.Lines = append(group.Lines, line)
			group.TotalBn = group.TotalBn.Add(d.Bn)
			group.TotalBo = group.TotalBo.Add(d.Bo)
			report.TotalBn = report.TotalBn.Add(d.Bn)
			report.TotalBo = report.TotalBo.Add(d.Bo)
		}
	}
	// date groups are already in date order
	if query.GroupBy != BardanaByDate {
		sort.SliceStable(report.Groups, func(i, j int) bool {
			return report.Groups[i].Group < report.Groups[j].Group
		})
	}
	return report, nil
}

func bardanaGroupKey(inv *models.Invoice, groupBy string) string {
	switch groupBy {
	case BardanaByParty:
		if inv.Party != nil {
			return inv.Party.Name
		}
		return fmt.Sprintf("party #%d", inv.PartyId)
	case BardanaByBroker:
		if inv.Broker != nil {
			return inv.Broker.Name
		}
		return fmt.Sprintf("broker #%d", inv.BrokerId)
	default:
		return inv.InvDate.Format("02-01-2006")
	}
}
