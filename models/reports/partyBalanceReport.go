package reports

import (
	"context"
	"time"

	"github.com/mmdatafocus/tradeledger/config"
	"github.com/mmdatafocus/tradeledger/models"
	"github.com/mmdatafocus/tradeledger/utils"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("tradeledger/reports")

// PartyBalance is one party's position over a period.
// Balance = Opening + Sale - Purchase + Naame - Jama.
type PartyBalance struct {
	PartyId       int             `json:"party_id"`
	PartyName     string          `json:"party_name"`
	OpeningDebit  decimal.Decimal `json:"-"`
	OpeningCredit decimal.Decimal `json:"-"`
	PriorNet      decimal.Decimal `json:"-"`
	Opening       decimal.Decimal `json:"opening"`
	Sale          decimal.Decimal `json:"sale"`
	Purchase      decimal.Decimal `json:"purchase"`
	Naame         decimal.Decimal `json:"naame"`
	Jama          decimal.Decimal `json:"jama"`
	Balance       decimal.Decimal `json:"balance"`
}

type PartyBalanceTotals struct {
	Opening  decimal.Decimal `json:"opening"`
	Sale     decimal.Decimal `json:"sale"`
	Purchase decimal.Decimal `json:"purchase"`
	Naame    decimal.Decimal `json:"naame"`
	Jama     decimal.Decimal `json:"jama"`
	Balance  decimal.Decimal `json:"balance"`
}

type PartyBalanceReport struct {
	FromDate *time.Time         `json:"from_date"`
	ToDate   *time.Time         `json:"to_date"`
	Rows     []*PartyBalance    `json:"rows"`
	Totals   PartyBalanceTotals `json:"totals"`
}

// movements before fromDate fold into the opening; [fromDate, toDate] is the period
const partyBalanceSql = `
WITH Movements AS (
    SELECT party_id, inv_date AS txn_date, 'Sale' AS kind, net_amt AS amount
    FROM invoices
    WHERE organization_id = @orgId AND kind = 'Sale'
    UNION ALL
    SELECT party_id, inv_date AS txn_date, 'Purchase' AS kind, net_amt AS amount
    FROM invoices
    WHERE organization_id = @orgId AND kind = 'Purchase'
    UNION ALL
    SELECT ne.party_id, dp.date AS txn_date, 'Naame' AS kind, ne.amount
    FROM naame_entries ne
    JOIN daily_pages dp ON dp.id = ne.daily_page_id
    WHERE ne.organization_id = @orgId
    UNION ALL
    SELECT je.party_id, dp.date AS txn_date, 'Jama' AS kind, je.amount
    FROM jama_entries je
    JOIN daily_pages dp ON dp.id = je.daily_page_id
    WHERE je.organization_id = @orgId
)
SELECT
    parties.id AS party_id,
    parties.name AS party_name,
    parties.opening_debit,
    parties.opening_credit,
    {{- if .hasFrom }}
    COALESCE(SUM(CASE
        WHEN m.txn_date < @fromDate AND m.kind IN ('Sale', 'Naame') THEN m.amount
        WHEN m.txn_date < @fromDate AND m.kind IN ('Purchase', 'Jama') THEN -m.amount
        ELSE 0 END), 0) AS prior_net,
    {{- else }}
    0 AS prior_net,
    {{- end }}
    COALESCE(SUM(CASE WHEN m.kind = 'Sale' {{- template "period" . }} THEN m.amount ELSE 0 END), 0) AS sale,
    COALESCE(SUM(CASE WHEN m.kind = 'Purchase' {{- template "period" . }} THEN m.amount ELSE 0 END), 0) AS purchase,
    COALESCE(SUM(CASE WHEN m.kind = 'Naame' {{- template "period" . }} THEN m.amount ELSE 0 END), 0) AS naame,
    COALESCE(SUM(CASE WHEN m.kind = 'Jama' {{- template "period" . }} THEN m.amount ELSE 0 END), 0) AS jama
FROM parties
LEFT JOIN Movements m ON m.party_id = parties.id
WHERE parties.organization_id = @orgId
    {{- if .partyId }} AND parties.id = @partyId {{- end }}
GROUP BY parties.id, parties.name, parties.opening_debit, parties.opening_credit
ORDER BY parties.name
{{- define "period" }}
    {{- if .hasFrom }} AND m.txn_date >= @fromDate {{- end }}
    {{- if .hasTo }} AND m.txn_date <= @toDate {{- end }}
{{- end }}
`

func validatePeriod(fromDate *time.Time, toDate *time.Time) (*time.Time, *time.Time, error) {
	fromDate = utils.NormalizeDatePtr(fromDate)
	toDate = utils.NormalizeDatePtr(toDate)
	if fromDate != nil && toDate != nil && fromDate.After(*toDate) {
		return nil, nil, utils.FieldValidationError("from_date", "must not be after to_date")
	}
	return fromDate, toDate, nil
}

func queryPartyBalances(db *gorm.DB, orgId int, partyId int, fromDate *time.Time, toDate *time.Time) ([]*PartyBalance, error) {
	sql, err := utils.ExecTemplate(partyBalanceSql, map[string]interface{}{
		"hasFrom": fromDate != nil,
		"hasTo":   toDate != nil,
		"partyId": partyId,
	})
	if err != nil {
		return nil, err
	}
	params := map[string]interface{}{
		"orgId":   orgId,
		"partyId": partyId,
	}
	if fromDate != nil {
		params["fromDate"] = *fromDate
	}
	if toDate != nil {
		params["toDate"] = *toDate
	}

	var rows []*PartyBalance
	if err := db.Raw(sql, params).Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		row.compute()
	}
	return rows, nil
}

func (b *PartyBalance) compute() {
	b.OpeningDebit = utils.Quantize(b.OpeningDebit)
	b.OpeningCredit = utils.Quantize(b.OpeningCredit)
	b.Sale = utils.Quantize(b.Sale)
	b.Purchase = utils.Quantize(b.Purchase)
	b.Naame = utils.Quantize(b.Naame)
	b.Jama = utils.Quantize(b.Jama)
	b.Opening = utils.Quantize(b.OpeningDebit.Sub(b.OpeningCredit).Add(b.PriorNet))
	b.Balance = b.Opening.Add(b.Sale).Sub(b.Purchase).Add(b.Naame).Sub(b.Jama)
}

func (t *PartyBalanceTotals) add(b *PartyBalance) {
	t.Opening = t.Opening.Add(b.Opening)
	t.Sale = t.Sale.Add(b.Sale)
	t.Purchase = t.Purchase.Add(b.Purchase)
	t.Naame = t.Naame.Add(b.Naame)
	t.Jama = t.Jama.Add(b.Jama)
	t.Balance = t.Balance.Add(b.Balance)
}

// GetPartyBalance returns one party's opening, period movement and balance.
// A nil fromDate means the opening is the master opening balance; a nil
// toDate leaves the period open-ended.
func GetPartyBalance(ctx context.Context, orgId int, partyId int, fromDate *time.Time, toDate *time.Time) (*PartyBalance, error) {
	ctx, span := tracer.Start(ctx, "GetPartyBalance", trace.WithAttributes(
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
	rows, err := queryPartyBalances(config.GetDB().WithContext(ctx), orgId, partyId, fromDate, toDate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &utils.NotFoundError{Resource: "party", Key: partyId}
	}
	return rows[0], nil
}

// GetPartyBalanceReport returns every party of the organization ordered by name.
func GetPartyBalanceReport(ctx context.Context, orgId int, fromDate *time.Time, toDate *time.Time) (*PartyBalanceReport, error) {
	ctx, span := tracer.Start(ctx, "GetPartyBalanceReport", trace.WithAttributes(
		attribute.Int("organization.id", orgId),
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
	rows, err := queryPartyBalances(config.GetDB().WithContext(ctx), orgId, 0, fromDate, toDate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		config.LogError(config.GetLogger(), "reports/partyBalanceReport.go", "GetPartyBalanceReport", "query party balances", orgId, err)
		return nil, err
	}

	report := &PartyBalanceReport{
		FromDate: fromDate,
		ToDate:   toDate,
		Rows:     rows,
	}
	for _, row := range rows {
		report.Totals.add(row)
	}
	span.SetAttributes(attribute.Int("report.rows", len(rows)))
	return report, nil
}
