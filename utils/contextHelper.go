package utils

import (
	"context"

	"github.com/mmdatafocus/tradeledger/appctx"
)

var (
	ContextKeyToken          = appctx.ContextKeyToken
	ContextKeyUserId         = appctx.ContextKeyUserId
	ContextKeyUserName       = appctx.ContextKeyUserName
	ContextKeyOrganizationId = appctx.ContextKeyOrganizationId
	ContextKeyRole           = appctx.ContextKeyRole
	ContextKeyCorrelationId  = appctx.ContextKeyCorrelationId

	ContextKeySkipTenantScope = appctx.ContextKeySkipTenantScope
)

func GetTokenFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyToken)
}

func GetUserIdFromContext(ctx context.Context) (int, bool) {
	return appctx.GetInt(ctx, ContextKeyUserId)
}

func GetUserNameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUserName)
}

func GetOrganizationIdFromContext(ctx context.Context) (int, bool) {
	return appctx.GetInt(ctx, ContextKeyOrganizationId)
}

func GetRoleFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyRole)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetTokenInContext(ctx context.Context, token string) context.Context {
	return appctx.Set(ctx, ContextKeyToken, token)
}

func SetUserIdInContext(ctx context.Context, userId int) context.Context {
	return appctx.Set(ctx, ContextKeyUserId, userId)
}

func SetUserNameInContext(ctx context.Context, userName string) context.Context {
	return appctx.Set(ctx, ContextKeyUserName, userName)
}

// SetOrganizationIdInContext arms the tenant guard for every gorm call made
// with the returned context.
func SetOrganizationIdInContext(ctx context.Context, orgId int) context.Context {
	return appctx.Set(ctx, ContextKeyOrganizationId, orgId)
}

func SetRoleInContext(ctx context.Context, role string) context.Context {
	return appctx.Set(ctx, ContextKeyRole, role)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func SetSkipTenantScopeInContext(ctx context.Context, skip bool) context.Context {
	return appctx.Set(ctx, ContextKeySkipTenantScope, skip)
}

// TenantContext returns ctx scoped to orgId unless it already is.
func TenantContext(ctx context.Context, orgId int) context.Context {
	if current, ok := GetOrganizationIdFromContext(ctx); ok && current == orgId {
		return ctx
	}
	return SetOrganizationIdInContext(ctx, orgId)
}
