package middlewares

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/tradeledger/config"
	"github.com/mmdatafocus/tradeledger/models"
	"github.com/mmdatafocus/tradeledger/utils"
	"github.com/sirupsen/logrus"
)

const OrganizationHeader = "X-Organization-Id"

// OrganizationMiddleware scopes the request to the organization named by the
// X-Organization-Id header. The caller must be a member of it; the membership
// role is stored on the context next to the organization id.
func OrganizationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userId, ok := utils.GetUserIdFromContext(ctx)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		orgId, err := strconv.Atoi(c.GetHeader(OrganizationHeader))
		if err != nil || orgId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ErrOrganizationRequired.Error()})
			c.Abort()
			return
		}

		membership, err := models.GetMembership(ctx, orgId, userId)
		if err != nil {
			if !utils.IsNotFound(err) {
				config.LogError(config.GetLogger(), "organizationMiddleware.go", "OrganizationMiddleware", "GetMembership", orgId, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				c.Abort()
				return
			}
			config.GetLogger().WithFields(logrus.Fields{
				"field":           "organization",
				"user_id":         userId,
				"organization_id": orgId,
			}).Warn("request for an organization the user does not belong to")
			c.JSON(http.StatusForbidden, gin.H{"error": utils.ErrPermissionDenied.Error()})
			c.Abort()
			return
		}

		ctx = utils.SetOrganizationIdInContext(ctx, orgId)
		ctx = utils.SetRoleInContext(ctx, string(membership.Role))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// CorrelationMiddleware keeps the caller's x-correlation-id or generates one.
func CorrelationMiddleware(newId func() string) gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = newId()
		}
		c.Header("x-correlation-id", cid)
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	}
}
