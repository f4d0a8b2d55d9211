package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/tradeledger/config"
	"github.com/mmdatafocus/tradeledger/middlewares"
	"github.com/mmdatafocus/tradeledger/models"
	"github.com/mmdatafocus/tradeledger/utils"
)

func registerRoutes(r *gin.Engine) {
	user := r.Group("/", middlewares.RequireUser())
	user.GET("/organizations", listOrganizationsHandler())
	user.POST("/organizations", createOrganizationHandler())

	org := r.Group("/api", middlewares.RequireUser(), middlewares.OrganizationMiddleware())
	org.GET("/organization", getOrganizationHandler())
	org.PUT("/organization", updateOrganizationHandler())
	org.DELETE("/organization", deleteOrganizationHandler())
	org.GET("/members", listMembersHandler())
	org.POST("/members", addMemberHandler())
	org.PUT("/members/:userId", updateMemberRoleHandler())
	org.DELETE("/members/:userId", removeMemberHandler())

	org.GET("/parties", listPartiesHandler())
	org.POST("/parties", createPartyHandler())
	org.GET("/parties/:id", getPartyHandler())
	org.PUT("/parties/:id", updatePartyHandler())
	org.DELETE("/parties/:id", deletePartyHandler())

	org.GET("/brokers", listBrokersHandler())
	org.POST("/brokers", createBrokerHandler())
	org.GET("/brokers/:id", getBrokerHandler())
	org.PUT("/brokers/:id", updateBrokerHandler())
	org.DELETE("/brokers/:id", deleteBrokerHandler())

	org.GET("/items", listItemsHandler())
	org.POST("/items", createItemHandler())
	org.GET("/items/:id", getItemHandler())
	org.DELETE("/items/:id", deleteItemHandler())

	org.GET("/invoices/:kind", listInvoicesHandler())
	org.POST("/invoices/:kind", createInvoiceHandler())
	org.GET("/invoices/:kind/:id", getInvoiceHandler())
	org.PUT("/invoices/:kind/:id", updateInvoiceHandler())
	org.DELETE("/invoices/:kind/:id", deleteInvoiceHandler())
	org.GET("/invoice-numbers/:kind", nextInvoiceNumberHandler())

	org.GET("/daily-pages/:date", getDailyPageHandler())
	org.POST("/cash/:side", addCashEntryHandler())
	org.DELETE("/cash/:side/:entryNo", deleteCashEntryHandler())

	org.GET("/reports/party-balances", partyBalancesReportHandler())
	org.GET("/reports/party-balances/:partyId", partyBalanceHandler())
	org.GET("/reports/party-statement/:partyId", partyStatementHandler())
	org.GET("/reports/invoice-register/:kind", invoiceRegisterHandler())
	org.GET("/reports/bardana", bardanaReportHandler())
}

// respondError maps the ledger error taxonomy onto HTTP statuses. Anything
// unrecognised is logged with the correlation id and reported as 500.
func respondError(c *gin.Context, funcName string, err error) {
	var validationErr *utils.ValidationError
	var protectedErr *utils.ProtectedReferenceError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": validationErr.Fields})
	case utils.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &protectedErr):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "referenced_by": protectedErr.ReferencedBy})
	case errors.Is(err, utils.ErrInvoiceNumberConflict), errors.Is(err, utils.ErrOrganizationBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrOrganizationRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		config.LogError(config.GetLogger(), "handlers.go", funcName, "request failed", cid, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "correlation_id": cid})
	}
}

// session returns the authenticated user id and, on /api routes, the organization id.
func session(c *gin.Context) (userId int, orgId int) {
	ctx := c.Request.Context()
	userId, _ = utils.GetUserIdFromContext(ctx)
	orgId, _ = utils.GetOrganizationIdFromContext(ctx)
	return userId, orgId
}

func intParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func kindParam(c *gin.Context) (models.InvoiceKind, bool) {
	kind, err := models.ParseInvoiceKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return kind, true
}

// dateQuery reads an optional date query parameter in any accepted layout.
func dateQuery(c *gin.Context, name string) (*time.Time, bool) {
	d, err := utils.ParseOptionalDate(c.Query(name))
	if err != nil {
		respondError(c, "dateQuery", utils.FieldValidationError(name, err.Error()))
		return nil, false
	}
	return d, true
}

func optionalIntQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		respondError(c, "optionalIntQuery", utils.FieldValidationError(name, "must be a positive integer"))
		return 0, false
	}
	return v, true
}

func bindJSON(c *gin.Context, input any) bool {
	if err := c.ShouldBindJSON(input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return false
	}
	return true
}

// organizations

func listOrganizationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, _ := session(c)
		orgs, err := models.GetOrganizationsForUser(c.Request.Context(), userId)
		if err != nil {
			respondError(c, "listOrganizationsHandler", err)
			return
		}
		c.JSON(http.StatusOK, orgs)
	}
}

func createOrganizationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, _ := session(c)
		var input models.NewOrganization
		if !bindJSON(c, &input) {
			return
		}
		org, err := models.CreateOrganization(c.Request.Context(), userId, &input)
		if err != nil {
			respondError(c, "createOrganizationHandler", err)
			return
		}
		c.JSON(http.StatusCreated, org)
	}
}

func getOrganizationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		org, err := models.GetOrganization(c.Request.Context(), orgId)
		if err != nil {
			respondError(c, "getOrganizationHandler", err)
			return
		}
		c.JSON(http.StatusOK, org)
	}
}

func updateOrganizationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, orgId := session(c)
		var input models.NewOrganization
		if !bindJSON(c, &input) {
			return
		}
		org, err := models.UpdateOrganization(c.Request.Context(), userId, orgId, &input)
		if err != nil {
			respondError(c, "updateOrganizationHandler", err)
			return
		}
		c.JSON(http.StatusOK, org)
	}
}

func deleteOrganizationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, orgId := session(c)
		org, err := models.DeleteOrganization(c.Request.Context(), userId, orgId)
		if err != nil {
			respondError(c, "deleteOrganizationHandler", err)
			return
		}
		c.JSON(http.StatusOK, org)
	}
}

func listMembersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		members, err := models.GetMembers(c.Request.Context(), orgId)
		if err != nil {
			respondError(c, "listMembersHandler", err)
			return
		}
		c.JSON(http.StatusOK, members)
	}
}

func addMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorId, orgId := session(c)
		var input models.NewMembership
		if !bindJSON(c, &input) {
			return
		}
		m, err := models.AddMember(c.Request.Context(), actorId, orgId, &input)
		if err != nil {
			respondError(c, "addMemberHandler", err)
			return
		}
		c.JSON(http.StatusCreated, m)
	}
}

type memberRoleRequest struct {
	Role models.MembershipRole `json:"role"`
}

func updateMemberRoleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorId, orgId := session(c)
		userId, ok := intParam(c, "userId")
		if !ok {
			return
		}
		var req memberRoleRequest
		if !bindJSON(c, &req) {
			return
		}
		m, err := models.UpdateMemberRole(c.Request.Context(), actorId, orgId, userId, req.Role)
		if err != nil {
			respondError(c, "updateMemberRoleHandler", err)
			return
		}
		c.JSON(http.StatusOK, m)
	}
}

func removeMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorId, orgId := session(c)
		userId, ok := intParam(c, "userId")
		if !ok {
			return
		}
		m, err := models.RemoveMember(c.Request.Context(), actorId, orgId, userId)
		if err != nil {
			respondError(c, "removeMemberHandler", err)
			return
		}
		c.JSON(http.StatusOK, m)
	}
}

// parties

func listPartiesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		var name *string
		if v, ok := c.GetQuery("name"); ok && v != "" {
			name = &v
		}
		parties, err := models.GetParties(c.Request.Context(), orgId, name)
		if err != nil {
			respondError(c, "listPartiesHandler", err)
			return
		}
		c.JSON(http.StatusOK, parties)
	}
}

func createPartyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		var input models.NewParty
		if !bindJSON(c, &input) {
			return
		}
		party, err := models.CreateParty(c.Request.Context(), orgId, &input)
		if err != nil {
			respondError(c, "createPartyHandler", err)
			return
		}
		c.JSON(http.StatusCreated, party)
	}
}

func getPartyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		party, err := models.GetParty(c.Request.Context(), orgId, id)
		if err != nil {
			respondError(c, "getPartyHandler", err)
			return
		}
		c.JSON(http.StatusOK, party)
	}
}

func updatePartyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		var input models.NewParty
		if !bindJSON(c, &input) {
			return
		}
		party, err := models.UpdateParty(c.Request.Context(), orgId, id, &input)
		if err != nil {
			respondError(c, "updatePartyHandler", err)
			return
		}
		c.JSON(http.StatusOK, party)
	}
}

func deletePartyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		party, err := models.DeleteParty(c.Request.Context(), orgId, id)
		if err != nil {
			respondError(c, "deletePartyHandler", err)
			return
		}
		c.JSON(http.StatusOK, party)
	}
}

// brokers

func listBrokersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		brokers, err := models.GetBrokers(c.Request.Context(), orgId)
		if err != nil {
			respondError(c, "listBrokersHandler", err)
			return
		}
		c.JSON(http.StatusOK, brokers)
	}
}

func createBrokerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		var input models.NewBroker
		if !bindJSON(c, &input) {
			return
		}
		broker, err := models.CreateBroker(c.Request.Context(), orgId, &input)
		if err != nil {
			respondError(c, "createBrokerHandler", err)
			return
		}
		c.JSON(http.StatusCreated, broker)
	}
}

func getBrokerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		broker, err := models.GetBroker(c.Request.Context(), orgId, id)
		if err != nil {
			respondError(c, "getBrokerHandler", err)
			return
		}
		c.JSON(http.StatusOK, broker)
	}
}

func updateBrokerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		var input models.NewBroker
		if !bindJSON(c, &input) {
			return
		}
		broker, err := models.UpdateBroker(c.Request.Context(), orgId, id, &input)
		if err != nil {
			respondError(c, "updateBrokerHandler", err)
			return
		}
		c.JSON(http.StatusOK, broker)
	}
}

func deleteBrokerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		broker, err := models.DeleteBroker(c.Request.Context(), orgId, id)
		if err != nil {
			respondError(c, "deleteBrokerHandler", err)
			return
		}
		c.JSON(http.StatusOK, broker)
	}
}

// items

func listItemsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		items, err := models.GetItems(c.Request.Context(), orgId)
		if err != nil {
			respondError(c, "listItemsHandler", err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

func createItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		var input models.NewItem
		if !bindJSON(c, &input) {
			return
		}
		item, err := models.CreateItem(c.Request.Context(), orgId, &input)
		if err != nil {
			respondError(c, "createItemHandler", err)
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

func getItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		item, err := models.GetItem(c.Request.Context(), orgId, id)
		if err != nil {
			respondError(c, "getItemHandler", err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func deleteItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		item, err := models.DeleteItem(c.Request.Context(), orgId, id)
		if err != nil {
			respondError(c, "deleteItemHandler", err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

// invoices

func listInvoicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		kind, ok := kindParam(c)
		if !ok {
			return
		}
		from, ok := dateQuery(c, "from_date")
		if !ok {
			return
		}
		to, ok := dateQuery(c, "to_date")
		if !ok {
			return
		}
		invoices, err := models.GetInvoices(c.Request.Context(), orgId, kind, from, to)
		if err != nil {
			respondError(c, "listInvoicesHandler", err)
			return
		}
		c.JSON(http.StatusOK, invoices)
	}
}

func createInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		kind, ok := kindParam(c)
		if !ok {
			return
		}
		var input models.NewInvoice
		if !bindJSON(c, &input) {
			return
		}
		inv, err := models.CreateInvoice(c.Request.Context(), orgId, kind, &input)
		if err != nil {
			respondError(c, "createInvoiceHandler", err)
			return
		}
		c.JSON(http.StatusCreated, inv)
	}
}

func getInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		kind, ok := kindParam(c)
		if !ok {
			return
		}
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		inv, err := models.GetInvoice(c.Request.Context(), orgId, kind, id)
		if err != nil {
			respondError(c, "getInvoiceHandler", err)
			return
		}
		c.JSON(http.StatusOK, inv)
	}
}

func updateInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		kind, ok := kindParam(c)
		if !ok {
			return
		}
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		var input models.NewInvoice
		if !bindJSON(c, &input) {
			return
		}
		inv, err := models.UpdateInvoice(c.Request.Context(), orgId, kind, id, &input)
		if err != nil {
			respondError(c, "updateInvoiceHandler", err)
			return
		}
		c.JSON(http.StatusOK, inv)
	}
}

func deleteInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		kind, ok := kindParam(c)
		if !ok {
			return
		}
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		inv, err := models.DeleteInvoice(c.Request.Context(), orgId, kind, id)
		if err != nil {
			respondError(c, "deleteInvoiceHandler", err)
			return
		}
		c.JSON(http.StatusOK, inv)
	}
}

func nextInvoiceNumberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		kind, ok := kindParam(c)
		if !ok {
			return
		}
		next, err := models.PeekNextInvoiceNumber(c.Request.Context(), orgId, kind)
		if err != nil {
			respondError(c, "nextInvoiceNumberHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"kind": kind, "invno": next})
	}
}

// daily cash page

func getDailyPageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		date, err := utils.ParseDate(c.Param("date"))
		if err != nil {
			respondError(c, "getDailyPageHandler", utils.FieldValidationError("date", err.Error()))
			return
		}
		page, err := models.GetDailyPage(c.Request.Context(), orgId, date)
		if err != nil {
			respondError(c, "getDailyPageHandler", err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

func cashSideParam(c *gin.Context) (models.CashSide, bool) {
	side, err := models.ParseCashSide(c.Param("side"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return side, true
}

func addCashEntryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		side, ok := cashSideParam(c)
		if !ok {
			return
		}
		var input models.NewCashEntry
		if !bindJSON(c, &input) {
			return
		}
		ctx := c.Request.Context()
		var entry any
		var err error
		if side == models.CashSideJama {
			entry, err = models.AddJamaEntry(ctx, orgId, &input)
		} else {
			entry, err = models.AddNaameEntry(ctx, orgId, &input)
		}
		if err != nil {
			respondError(c, "addCashEntryHandler", err)
			return
		}
		c.JSON(http.StatusCreated, entry)
	}
}

func deleteCashEntryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		side, ok := cashSideParam(c)
		if !ok {
			return
		}
		entryNo, ok := intParam(c, "entryNo")
		if !ok {
			return
		}
		ctx := c.Request.Context()
		var entry any
		var err error
		if side == models.CashSideJama {
			entry, err = models.DeleteJamaEntry(ctx, orgId, entryNo)
		} else {
			entry, err = models.DeleteNaameEntry(ctx, orgId, entryNo)
		}
		if err != nil {
			respondError(c, "deleteCashEntryHandler", err)
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}
