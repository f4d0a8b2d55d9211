package config

import (
	"context"
	"strings"

	"github.com/mmdatafocus/tradeledger/appctx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const tenantColumn = "organization_id"

// TenantGuardPlugin scopes queries, updates and deletes to the organization
// carried by the statement context when the model has an organization_id column.
//
// NOTE:
// - Raw SQL is not rewritten. Report queries must filter organization_id themselves.
// - Creates are not rewritten. Callers set OrganizationId on the row.
type TenantGuardPlugin struct{}

func NewTenantGuardPlugin() *TenantGuardPlugin { return &TenantGuardPlugin{} }

func (p *TenantGuardPlugin) Name() string { return "tenant_guard" }

func (p *TenantGuardPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register("tenant_guard:query", tenantGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("tenant_guard:row", tenantGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("tenant_guard:update", tenantGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("tenant_guard:delete", tenantGuardCallback); err != nil {
		return err
	}
	return nil
}

func tenantGuardCallback(db *gorm.DB) {
	if db == nil || db.Statement == nil {
		return
	}
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	if skip, ok := ctx.Value(appctx.ContextKeySkipTenantScope).(bool); ok && skip {
		return
	}
	orgId := organizationIdFromContext(ctx)
	if orgId <= 0 {
		return
	}
	if db.Statement.Schema == nil {
		return
	}
	if db.Statement.Schema.LookUpField(tenantColumn) == nil {
		return
	}
	// an explicit filter already present wins
	if whereHasOrganizationId(db.Statement.Clauses["WHERE"]) {
		return
	}

	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: db.Statement.Table, Name: tenantColumn},
				Value:  orgId,
			},
		},
	})
}

func organizationIdFromContext(ctx context.Context) int {
	if v, ok := ctx.Value(appctx.ContextKeyOrganizationId).(int); ok {
		return v
	}
	return 0
}

func whereHasOrganizationId(c clause.Clause) bool {
	if c.Expression == nil {
		return false
	}
	w, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, e := range w.Exprs {
		if exprHasOrganizationId(e) {
			return true
		}
	}
	return false
}

func exprHasOrganizationId(e clause.Expression) bool {
	switch v := e.(type) {
	case clause.Eq:
		return colIsOrganizationId(v.Column)
	case clause.Neq:
		return colIsOrganizationId(v.Column)
	case clause.IN:
		return colIsOrganizationId(v.Column)
	case clause.AndConditions:
		for _, x := range v.Exprs {
			if exprHasOrganizationId(x) {
				return true
			}
		}
		return false
	case clause.OrConditions:
		for _, x := range v.Exprs {
			if exprHasOrganizationId(x) {
				return true
			}
		}
		return false
	case clause.Expr:
		return strings.Contains(strings.ToLower(v.SQL), tenantColumn)
	case clause.NamedExpr:
		return strings.Contains(strings.ToLower(v.SQL), tenantColumn)
	default:
		return false
	}
}

func colIsOrganizationId(col any) bool {
	switch c := col.(type) {
	case string:
		return strings.EqualFold(c, tenantColumn) || strings.HasSuffix(strings.ToLower(c), "."+tenantColumn)
	case clause.Column:
		return strings.EqualFold(c.Name, tenantColumn)
	default:
		return false
	}
}
