package config

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mmdatafocus/tradeledger/appctx"
)

type guardedWidget struct {
	ID             int `gorm:"primary_key"`
	OrganizationId int `gorm:"index;not null"`
	Name           string
}

type sharedWidget struct {
	ID   int `gorm:"primary_key"`
	Name string
}

func openGuardTestDB(t *testing.T) {
	t.Helper()
	if err := OpenSqlite(filepath.Join(t.TempDir(), "guard.db")); err != nil {
		t.Fatalf("OpenSqlite: %v", err)
	}
	t.Cleanup(CloseDatabase)
	if err := GetDB().AutoMigrate(&guardedWidget{}, &sharedWidget{}); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	rows := []guardedWidget{
		{OrganizationId: 1, Name: "a1"},
		{OrganizationId: 1, Name: "a2"},
		{OrganizationId: 2, Name: "b1"},
	}
	if err := GetDB().Create(&rows).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := GetDB().Create(&sharedWidget{Name: "shared"}).Error; err != nil {
		t.Fatalf("seed shared: %v", err)
	}
}

func TestTenantGuard_ScopesQueriesToContextOrganization(t *testing.T) {
	openGuardTestDB(t)
	ctx := appctx.Set(context.Background(), appctx.ContextKeyOrganizationId, 1)

	var got []guardedWidget
	if err := GetDB().WithContext(ctx).Find(&got).Error; err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 widgets for org 1, got %d", len(got))
	}
	for _, w := range got {
		if w.OrganizationId != 1 {
			t.Fatalf("leaked widget %+v", w)
		}
	}

	// primary key guess from another tenant
	var other guardedWidget
	err := GetDB().WithContext(ctx).First(&other, 3).Error
	if err == nil {
		t.Fatalf("expected not found for org 2 widget, got %+v", other)
	}
}

func TestTenantGuard_SkipsTablesWithoutOrganizationColumn(t *testing.T) {
	openGuardTestDB(t)
	ctx := appctx.Set(context.Background(), appctx.ContextKeyOrganizationId, 2)

	var count int64
	if err := GetDB().WithContext(ctx).Model(&sharedWidget{}).Count(&count).Error; err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected shared table untouched, got %d", count)
	}
}

func TestTenantGuard_ScopesUpdatesAndDeletes(t *testing.T) {
	openGuardTestDB(t)
	ctx := appctx.Set(context.Background(), appctx.ContextKeyOrganizationId, 2)

	res := GetDB().WithContext(ctx).Model(&guardedWidget{}).Where("name LIKE ?", "%").Update("name", "renamed")
	if res.Error != nil {
		t.Fatalf("Update: %v", res.Error)
	}
	if res.RowsAffected != 1 {
		t.Fatalf("expected 1 row updated in org 2, got %d", res.RowsAffected)
	}

	res = GetDB().WithContext(ctx).Where("id = ?", 1).Delete(&guardedWidget{})
	if res.Error != nil {
		t.Fatalf("Delete: %v", res.Error)
	}
	if res.RowsAffected != 0 {
		t.Fatalf("org 2 deleted an org 1 row")
	}
}

func TestTenantGuard_SkipFlagDisablesScope(t *testing.T) {
	openGuardTestDB(t)
	ctx := appctx.Set(context.Background(), appctx.ContextKeyOrganizationId, 1)
	ctx = appctx.Set(ctx, appctx.ContextKeySkipTenantScope, true)

	var count int64
	if err := GetDB().WithContext(ctx).Model(&guardedWidget{}).Count(&count).Error; err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected all 3 widgets with skip flag, got %d", count)
	}
}
