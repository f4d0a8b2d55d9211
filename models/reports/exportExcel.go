package reports

import (
	"fmt"
	"io"

	"github.com/mmdatafocus/tradeledger/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Sheet1"

type ExcelExporter interface {
	GetCellValues() []interface{}
}

func money(d decimal.Decimal) float64 {
	return utils.Quantize(d).InexactFloat64()
}

func (b *PartyBalance) GetCellValues() []interface{} {
	return []interface{}{b.PartyName, money(b.Opening), money(b.Sale), money(b.Purchase), money(b.Naame), money(b.Jama), money(b.Balance)}
}

func (r *PartyStatementRow) GetCellValues() []interface{} {
	date := ""
	if r.Date != nil {
		date = r.Date.Format("02-01-2006")
	}
	refNo := ""
	if r.RefNo > 0 {
		refNo = fmt.Sprint(r.RefNo)
	}
	return []interface{}{date, r.Kind, refNo, r.Remark, money(r.Debit), money(r.Credit), money(r.Balance)}
}

// WritePartyBalancesXlsx writes one row per party and a totals row.
func WritePartyBalancesXlsx(w io.Writer, report *PartyBalanceReport) error {
	rows := make([]ExcelExporter, 0, len(report.Rows))
	for _, r := range report.Rows {
		rows = append(rows, r)
	}
	t := report.Totals
	footer := []interface{}{"Total", money(t.Opening), money(t.Sale), money(t.Purchase), money(t.Naame), money(t.Jama), money(t.Balance)}
	return writeXlsx(w, rows, footer, "Party", "Opening", "Sale", "Purchase", "Naame", "Jama", "Balance")
}

// WritePartyStatementXlsx writes the running ledger with the closing balance last.
func WritePartyStatementXlsx(w io.Writer, statement *PartyStatement) error {
	rows := make([]ExcelExporter, 0, len(statement.Rows))
	for _, r := range statement.Rows {
		rows = append(rows, r)
	}
	footer := []interface{}{"", "Closing", "", statement.PartyName, "", "", money(statement.Closing)}
	return writeXlsx(w, rows, footer, "Date", "Type", "No", "Remark", "Debit", "Credit", "Balance")
}

func writeXlsx(w io.Writer, data []ExcelExporter, footer []interface{}, headings ...string) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, h := range headings {
		if err := setCell(f, i+1, 1, h); err != nil {
			return err
		}
	}
	rowNo := 2
	for _, d := range data {
		for i, value := range d.GetCellValues() {
			if err := setCell(f, i+1, rowNo, value); err != nil {
				return err
			}
		}
		rowNo++
	}
	for i, value := range footer {
		if err := setCell(f, i+1, rowNo, value); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func setCell(f *excelize.File, col int, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(xlsxSheet, cell, value)
}
