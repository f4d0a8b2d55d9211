package main

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/tradeledger/models/reports"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func wantsXlsx(c *gin.Context) bool {
	return strings.EqualFold(c.Query("format"), "xlsx")
}

func sendXlsx(c *gin.Context, filename string, write func(buf *bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		respondError(c, "sendXlsx", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func partyBalancesReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		from, ok := dateQuery(c, "from_date")
		if !ok {
			return
		}
		to, ok := dateQuery(c, "to_date")
		if !ok {
			return
		}
		report, err := reports.GetPartyBalanceReport(c.Request.Context(), orgId, from, to)
		if err != nil {
			respondError(c, "partyBalancesReportHandler", err)
			return
		}
		if wantsXlsx(c) {
			sendXlsx(c, "party-balances.xlsx", func(buf *bytes.Buffer) error {
				return reports.WritePartyBalancesXlsx(buf, report)
			})
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func partyBalanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		partyId, ok := intParam(c, "partyId")
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
		balance, err := reports.GetPartyBalance(c.Request.Context(), orgId, partyId, from, to)
		if err != nil {
			respondError(c, "partyBalanceHandler", err)
			return
		}
		c.JSON(http.StatusOK, balance)
	}
}

func partyStatementHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		partyId, ok := intParam(c, "partyId")
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
		statement, err := reports.GetPartyStatement(c.Request.Context(), orgId, partyId, from, to)
		if err != nil {
			respondError(c, "partyStatementHandler", err)
			return
		}
		if wantsXlsx(c) {
			sendXlsx(c, fmt.Sprintf("statement-%d.xlsx", partyId), func(buf *bytes.Buffer) error {
				return reports.WritePartyStatementXlsx(buf, statement)
			})
			return
		}
		c.JSON(http.StatusOK, statement)
	}
}

func invoiceRegisterHandler() gin.HandlerFunc {
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
		brokerId, ok := optionalIntQuery(c, "broker_id")
		if !ok {
			return
		}
		register, err := reports.GetInvoiceRegister(c.Request.Context(), orgId, reports.InvoiceRegisterQuery{
			Kind:     kind,
			FromDate: from,
			ToDate:   to,
			BrokerId: brokerId,
			GroupBy:  c.Query("group_by"),
		})
		if err != nil {
			respondError(c, "invoiceRegisterHandler", err)
			return
		}
		c.JSON(http.StatusOK, register)
	}
}

func bardanaReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, orgId := session(c)
		from, ok := dateQuery(c, "from_date")
		if !ok {
			return
		}
		to, ok := dateQuery(c, "to_date")
		if !ok {
			return
		}
		partyId, ok := optionalIntQuery(c, "party_id")
		if !ok {
			return
		}
		brokerId, ok := optionalIntQuery(c, "broker_id")
		if !ok {
			return
		}
		report, err := reports.GetBardanaReport(c.Request.Context(), orgId, reports.BardanaQuery{
			FromDate: from,
			ToDate:   to,
			PartyId:  partyId,
			BrokerId: brokerId,
			GroupBy:  c.Query("group_by"),
		})
		if err != nil {
			respondError(c, "bardanaReportHandler", err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}
