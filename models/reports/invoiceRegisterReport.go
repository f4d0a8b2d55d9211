package reports

import (
	"context"
	"time"

	"github.com/mmdatafocus/tradeledger/config"
	"github.com/mmdatafocus/tradeledger/models"
	"github.com/mmdatafocus/tradeledger/utils"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	RegisterByDate   = "date"
	RegisterByBroker = "broker"
)

type InvoiceRegisterQuery struct {
	Kind     models.InvoiceKind
	FromDate *time.Time
	ToDate   *time.Time
	BrokerId int
	GroupBy  string
}

type InvoiceRegisterTotals struct {
	Count    int             `json:"count"`
	TotalAmt decimal.Decimal `json:"totalamt"`
	BatavAmt decimal.Decimal `json:"batavamt"`
	DrAmt    decimal.Decimal `json:"dramt"`
	Qi       decimal.Decimal `json:"qi"`
	Other    decimal.Decimal `json:"other"`
	Total    decimal.Decimal `json:"total"`
	Advance  decimal.Decimal `json:"advance"`
	NetAmt   decimal.Decimal `json:"netamt"`
}

func (t *InvoiceRegisterTotals) add(inv *models.Invoice) {
	t.Count++
	t.TotalAmt = t.TotalAmt.Add(inv.TotalAmt)
	t.BatavAmt = t.BatavAmt.Add(inv.BatavAmt)
	t.DrAmt = t.DrAmt.Add(inv.DrAmt)
	t.Qi = t.Qi.Add(inv.Qi)
	t.Other = t.Other.Add(inv.Other)
	t.Total = t.Total.Add(inv.Total)
	t.Advance = t.Advance.Add(inv.Advance)
	t.NetAmt = t.NetAmt.Add(inv.NetAmt)
}

type InvoiceRegisterGroup struct {
	Date       time.Time             `json:"date"`
	BrokerId   int                   `json:"broker_id,omitempty"`
	BrokerName string                `json:"broker_name,omitempty"`
	Invoices   []*models.Invoice     `json:"invoices"`
	Totals     InvoiceRegisterTotals `json:"totals"`
}

type InvoiceRegister struct {
	Kind     models.InvoiceKind      `json:"kind"`
	FromDate *time.Time              `json:"from_date"`
	ToDate   *time.Time              `json:"to_date"`
	GroupBy  string                  `json:"group_by"`
	Groups   []*InvoiceRegisterGroup `json:"groups"`
	Totals   InvoiceRegisterTotals   `json:"totals"`
}

// GetInvoiceRegister lists invoices in date order, grouped by day or by
// (day, broker), with per-group and overall sums of the header amounts.
func GetInvoiceRegister(ctx context.Context, orgId int, query InvoiceRegisterQuery) (*InvoiceRegister, error) {
	ctx, span := tracer.Start(ctx, "GetInvoiceRegister", trace.WithAttributes(
		attribute.Int("organization.id", orgId),
		attribute.String("invoice.kind", string(query.Kind)),
	))
	defer span.End()

	if orgId <= 0 {
		return nil, utils.ErrOrganizationRequired
	}
	if !query.Kind.IsValid() {
		return nil, utils.FieldValidationError("kind", "invoice kind must be sale or purchase")
	}
	switch query.GroupBy {
	case "":
		query.GroupBy = RegisterByDate
	case RegisterByDate, RegisterByBroker:
	default:
		return nil, utils.FieldValidationError("group_by", "must be date or broker")
	}
	ctx = utils.TenantContext(ctx, orgId)
	fromDate, toDate, err := validatePeriod(query.FromDate, query.ToDate)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	dbCtx := withPeriod(db.WithContext(ctx).Preload("Party").Preload("Broker").
		Select("invoices.*").
		Joins("JOIN brokers ON brokers.id = invoices.broker_id").
		Where("invoices.organization_id = ? AND invoices.kind = ?", orgId, query.Kind), "invoices.inv_date", fromDate, toDate)
	if query.BrokerId > 0 {
		dbCtx = dbCtx.Where("invoices.broker_id = ?", query.BrokerId)
	}
	orderBy := "invoices.inv_date, invoices.invno"
	if query.GroupBy == RegisterByBroker {
		orderBy = "invoices.inv_date, brokers.name, invoices.broker_id, invoices.invno"
	}
	var invoices []*models.Invoice
	if err := dbCtx.Order(orderBy).Find(&invoices).Error; err != nil {
		return nil, err
	}

	register := &InvoiceRegister{
		Kind:     query.Kind,
		FromDate: fromDate,
		ToDate:   toDate,
		GroupBy:  query.GroupBy,
		Groups:   []*InvoiceRegisterGroup{},
	}
	var current *InvoiceRegisterGroup
	for _, inv := range invoices {
		sameGroup := current != nil && current.Date.Equal(inv.InvDate)
		if query.GroupBy == RegisterByBroker {
			sameGroup = sameGroup && current.BrokerId == inv.BrokerId
		}
		if !sameGroup {
			current = &InvoiceRegisterGroup{Date: inv.InvDate}
			if query.GroupBy == RegisterByBroker {
				current.BrokerId = inv.BrokerId
				if inv.Broker != nil {
					current.BrokerName = inv.Broker.Name
				}
			}
			register.Groups = append(register.Groups, current)
		}
		current.Invoices = append(current.Invoices, inv)
		current.Totals.add(inv)
		register.Totals.add(inv)
	}
	return register, nil
}
