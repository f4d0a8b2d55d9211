package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/mmdatafocus/tradeledger/config"
	"github.com/mmdatafocus/tradeledger/models"
	"github.com/mmdatafocus/tradeledger/utils"
	"github.com/shopspring/decimal"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestLedgerctl_MigrateBalancesAudit(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "ledgerctl.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", dsn)

	if out, err := run(t, "migrate"); err != nil || !strings.Contains(out, "migrations applied") {
		t.Fatalf("migrate: %v %q", err, out)
	}

	// seed through the models while the CLI is disconnected
	if err := config.OpenSqlite(dsn); err != nil {
		t.Fatalf("OpenSqlite: %v", err)
	}
	ctx := context.Background()
	org, err := models.CreateOrganization(ctx, 1, &models.NewOrganization{Name: "alpha"})
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	party, err := models.CreateParty(ctx, org.ID, &models.NewParty{
		Name:           "Mehta",
		OpeningBalance: models.OpeningBalance{OpeningDebit: decimal.RequireFromString("100")},
	})
	if err != nil {
		t.Fatalf("CreateParty: %v", err)
	}
	if _, err := models.AddNaameEntry(ctx, org.ID, &models.NewCashEntry{Date: "2024-04-02", PartyId: party.ID, Amount: utils.MoneyText("25")}); err != nil {
		t.Fatalf("AddNaameEntry: %v", err)
	}
	config.CloseDatabase()

	out, err := run(t, "balances", "--org", strconv.Itoa(org.ID))
	if err != nil {
		t.Fatalf("balances: %v", err)
	}
	if !strings.Contains(out, "Mehta") || !strings.Contains(out, "125.00") {
		t.Fatalf("unexpected balances output:\n%s", out)
	}

	out, err = run(t, "audit-invoices")
	if err != nil || !strings.Contains(out, "no drift") {
		t.Fatalf("audit-invoices: %v %q", err, out)
	}
}

func TestLedgerctl_Token(t *testing.T) {
	out, err := run(t, "token", "--user", "42", "--name", "ops")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	parsed, err := utils.JwtValidate(strings.TrimSpace(out))
	if err != nil || !parsed.Valid {
		t.Fatalf("token does not validate: %v", err)
	}
	claims := parsed.Claims.(*utils.JwtCustomClaim)
	if claims.ID != 42 || claims.Name != "ops" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, err := run(t, "token", "--user", "0"); err == nil {
		t.Fatalf("non positive user must fail")
	}
}
