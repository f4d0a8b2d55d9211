package reports

import (
	"context"
	"sort"
	"time"

	"github.com/mmdatafocus/tradeledger/config"
	"github.com/mmdatafocus/tradeledger/models"
	"github.com/mmdatafocus/tradeledger/utils"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	StatementOpening  = "Opening"
	StatementSale     = "Sale"
	StatementPurchase = "Purchase"
	StatementNaame    = "Naame"
	StatementJama     = "Jama"
)

// same-day rows are ordered sale, purchase, naame, jama
var statementKindRank = map[string]int{
	StatementSale:     1,
	StatementPurchase: 2,
	StatementNaame:    3,
	StatementJama:     4,
}

// PartyStatementRow is one line of the running ledger. Sale and naame are
// debits, purchase and jama are credits. The opening row has no date.
type PartyStatementRow struct {
	Date    *time.Time      `json:"date"`
	Kind    string          `json:"kind"`
	RefNo   int             `json:"ref_no"`
	Remark  string          `json:"remark"`
	Debit   decimal.Decimal `json:"debit"`
	Credit  decimal.Decimal `json:"credit"`
	Balance decimal.Decimal `json:"balance"`
}

type PartyStatement struct {
	PartyId   int                  `json:"party_id"`
	PartyName string               `json:"party_name"`
	FromDate  *time.Time           `json:"from_date"`
	ToDate    *time.Time           `json:"to_date"`
	Rows      []*PartyStatementRow `json:"rows"`
	Summary   *PartyBalance        `json:"summary"`
	Closing   decimal.Decimal      `json:"closing"`
}

type statementSource struct {
	TxnDate time.Time
	Kind    string
	RefNo   int
	Amount  decimal.Decimal
	Remark  string
}

func withPeriod(db *gorm.DB, column string, fromDate *time.Time, toDate *time.Time) *gorm.DB {
	if fromDate != nil {
		db = db.Where(column+" >= ?", *fromDate)
	}
	if toDate != nil {
		db = db.Where(column+" <= ?", *toDate)
	}
	return db
}

func statementSources(db *gorm.DB, orgId int, partyId int, fromDate *time.Time, toDate *time.Time) ([]statementSource, error) {
	var sources []statementSource

	var invoices []statementSource
	err := withPeriod(db.Model(&models.Invoice{}).
		Select("inv_date AS txn_date, kind, invno AS ref_no, net_amt AS amount, remark").
		Where("organization_id = ? AND party_id = ?", orgId, partyId), "inv_date", fromDate, toDate).
		Scan(&invoices).Error
	if err != nil {
		return nil, err
	}
	sources = append(sources, invoices...)

	for kind, table := range map[string]string{StatementNaame: "naame_entries", StatementJama: "jama_entries"} {
		var entries []statementSource
		err := withPeriod(db.Table(table).
			Select("daily_pages.date AS txn_date, "+table+".entry_no AS ref_no, "+table+".amount, "+table+".remark").
			Joins("JOIN daily_pages ON daily_pages.id = "+table+".daily_page_id").
			Where(table+".organization_id = ? AND "+table+".party_id = ?", orgId, partyId), "daily_pages.date", fromDate, toDate).
			Scan(&entries).Error
		if err != nil {
			return nil, err
		}
		for i := range entries {
			entries[i].Kind = kind
		}
		sources = append(sources, entries...)
	}

	sort.SliceStable(sources, func(i, j int) bool {
		a, b := sources[i], sources[j]
		if !a.TxnDate.Equal(b.TxnDate) {
			return a.TxnDate.Before(b.TxnDate)
		}
		if statementKindRank[a.Kind] != statementKindRank[b.Kind] {
			return statementKindRank[a.Kind] < statementKindRank[b.Kind]
		}
		return a.RefNo < b.RefNo
	})
	return sources, nil
}

// GetPartyStatement lists the party's transactions in range after a
// synthetic opening row, folding a running balance. The summary and the rows
// are read in one transaction, so the closing balance equals the summary balance.
func GetPartyStatement(ctx context.Context, orgId int, partyId int, fromDate *time.Time, toDate *time.Time) (*PartyStatement, error) {
	ctx, span := tracer.Start(ctx, "GetPartyStatement", trace.WithAttributes(
		attribute.Int("organization.id", orgId),
		attribute.Int("party.id", partyId),
	))
	defer span.End()

	if orgId <= 0 {
		return nil, utils.ErrOrganizationRequired
	}
	ctx = utils.TenantContext(ctx, orgId)
	fromDate, toDate, err := validatePeriod(fromDate, toDate)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[models.Party](ctx, orgId, partyId); err != nil {
		return nil, err
	}

	var summary *PartyBalance
	var sources []statementSource
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := queryPartyBalances(tx, orgId, partyId, fromDate, toDate)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return &utils.NotFoundError{Resource: "party", Key: partyId}
		}
		summary = rows[0]
		sources, err = statementSources(tx, orgId, partyId, fromDate, toDate)
		return err
	})
	if err != nil {
		if !utils.IsNotFound(err) {
			config.LogError(config.GetLogger(), "reports/partyStatementReport.go", "GetPartyStatement", "load statement rows", partyId, err)
		}
		return nil, err
	}

	statement := &PartyStatement{
		PartyId:   summary.PartyId,
		PartyName: summary.PartyName,
		FromDate:  fromDate,
		ToDate:    toDate,
		Summary:   summary,
		Rows:      make([]*PartyStatementRow, 0, len(sources)+1),
	}
	running := summary.Opening
	opening := &PartyStatementRow{Kind: StatementOpening, Balance: running}
	if running.IsNegative() {
		opening.Credit = running.Neg()
	} else {
		opening.Debit = running
	}
	statement.Rows = append(statement.Rows, opening)

	for _, src := range sources {
		date := src.TxnDate
		row := &PartyStatementRow{
			Date:   &date,
			Kind:   src.Kind,
			RefNo:  src.RefNo,
			Remark: src.Remark,
		}
		amount := utils.Quantize(src.Amount)
		switch src.Kind {
		case StatementSale, StatementNaame:
			row.Debit = amount
			running = running.Add(amount)
		default:
			row.Credit = amount
			running = running.Sub(amount)
		}
		row.Balance = running
		statement.Rows = append(statement.Rows, row)
	}
	statement.Closing = running
	return statement, nil
}
