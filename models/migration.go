package models

import (
	"github.com/mmdatafocus/tradeledger/config"
)

// MigrateTable creates or alters every ledger table on the current connection.
func MigrateTable() error {
	db := config.GetDB()

	return db.AutoMigrate(
		&Organization{}, &Membership{},
		&Party{}, &Broker{}, &Item{},
		&Invoice{}, &InvoiceDetail{},
		&DailyPage{}, &JamaEntry{}, &NaameEntry{},
	)
}
