// Package export renders a budget period as an Excel workbook.
package export

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/govalues/money"
	"github.com/xuri/excelize/v2"

	"github.com/tinoosan/budget/internal/ledger"
	"github.com/tinoosan/budget/internal/service/budget"
)

// Sheet names.
const (
	SheetSummary    = "Summary"
	SheetCategories = "Categories"
	SheetEntries    = "Entries"
)

// Report is everything rendered for one period.
type Report struct {
	Period     ledger.Period
	Summary    budget.Summary
	Statuses   []budget.CategoryStatus
	Incomes    []ledger.IncomeEntry
	Expenses   []ledger.ExpenseEntry
	Categories []ledger.Category
}

// Collect gathers the report for p from the book.
func Collect(b *budget.Book, p ledger.Period) (Report, error) {
	sum, err := b.ComputeSummary(p)
	if err != nil {
		return Report{}, err
	}
	st, err := b.ComputeCategoryStatuses(p)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Period:     p,
		Summary:    sum,
		Statuses:   st,
		Incomes:    b.Incomes(&p),
		Expenses:   b.Expenses(&p),
		Categories: b.Categories(),
	}, nil
}

// PeriodXLSX renders r as an xlsx workbook.
func PeriodXLSX(r Report) ([]byte, error) {
	xlsx := excelize.NewFile()
	defer xlsx.Close()

	_ = xlsx.SetAppProps(&excelize.AppProperties{Application: "budget"})

	first := xlsx.GetSheetName(xlsx.GetActiveSheetIndex())
	if err := xlsx.SetSheetName(first, SheetSummary); err != nil {
		return nil, err
	}
	if _, err := xlsx.NewSheet(SheetCategories); err != nil {
		return nil, err
	}
	if _, err := xlsx.NewSheet(SheetEntries); err != nil {
		return nil, err
	}

	bold, _ := xlsx.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	numFmt := "#,##0.00"
	amountStyle, _ := xlsx.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	red, _ := xlsx.NewStyle(&excelize.Style{CustomNumFmt: &numFmt, Font: &excelize.Font{Color: "#C00000"}})

	writeSummary(xlsx, r, bold, amountStyle)
	writeCategories(xlsx, r, bold, amountStyle, red)
	writeEntries(xlsx, r, bold, amountStyle)

	buf, err := xlsx.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cell(col rune, row int) string {
	return fmt.Sprintf("%c%d", col, row)
}

func num(a money.Amount) float64 {
	f, _ := a.Decimal().Float64()
	return f
}

func writeSummary(xlsx *excelize.File, r Report, bold, moneyStyle int) {
	s := SheetSummary
	_ = xlsx.SetColWidth(s, "A", "A", 22)
	_ = xlsx.SetColWidth(s, "B", "B", 16)

	_ = xlsx.SetCellValue(s, "A1", "Period")
	_ = xlsx.SetCellValue(s, "B1", r.Period.String())
	_ = xlsx.SetCellValue(s, "A2", "Currency")
	_ = xlsx.SetCellValue(s, "B2", r.Summary.Totals.Income.Curr().Code())
	rows := []struct {
		label string
		value money.Amount
	}{
		{"Income", r.Summary.Totals.Income},
		{"Expense", r.Summary.Totals.Expense},
		{"Balance", r.Summary.Totals.Balance},
	}
	row := 4
	for _, v := range rows {
		_ = xlsx.SetCellValue(s, cell('A', row), v.label)
		_ = xlsx.SetCellValue(s, cell('B', row), num(v.value))
		_ = xlsx.SetCellStyle(s, cell('B', row), cell('B', row), moneyStyle)
		row++
	}
	_ = xlsx.SetCellStyle(s, "A1", cell('A', row-1), bold)

	if r.Summary.Progress == nil {
		return
	}
	row++
	p := r.Summary.Progress
	_ = xlsx.SetCellValue(s, cell('A', row), "Savings target")
	_ = xlsx.SetCellValue(s, cell('B', row), num(p.Target))
	_ = xlsx.SetCellStyle(s, cell('B', row), cell('B', row), moneyStyle)
	row++
	_ = xlsx.SetCellValue(s, cell('A', row), "Saved")
	_ = xlsx.SetCellValue(s, cell('B', row), num(p.Saved))
	_ = xlsx.SetCellStyle(s, cell('B', row), cell('B', row), moneyStyle)
	row++
	pct, _ := p.PercentAchieved.Float64()
	_ = xlsx.SetCellValue(s, cell('A', row), "Achieved %")
	_ = xlsx.SetCellValue(s, cell('B', row), pct)
	row++
	_ = xlsx.SetCellValue(s, cell('A', row), "Achieved")
	_ = xlsx.SetCellValue(s, cell('B', row), p.Achieved)
	_ = xlsx.SetCellStyle(s, cell('A', row-3), cell('A', row), bold)
}

func writeCategories(xlsx *excelize.File, r Report, bold, moneyStyle, over int) {
	s := SheetCategories
	_ = xlsx.SetColWidth(s, "A", "A", 24)
	_ = xlsx.SetColWidth(s, "B", "H", 14)
	headers := []string{"Category", "Type", "Value", "Carry forward", "Allocated", "Spent", "Remaining", "Over budget"}
	for i, h := range headers {
		_ = xlsx.SetCellValue(s, cell('A'+rune(i), 1), h)
	}
	_ = xlsx.SetCellStyle(s, "A1", "H1", bold)
	_ = xlsx.SetPanes(s, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	for i, st := range r.Statuses {
		row := i + 2
		c := st.Category
		value, _ := c.AllocationValue.Float64()
		_ = xlsx.SetCellValue(s, cell('A', row), c.Name)
		_ = xlsx.SetCellValue(s, cell('B', row), string(c.AllocationType))
		_ = xlsx.SetCellValue(s, cell('C', row), value)
		_ = xlsx.SetCellValue(s, cell('D', row), num(c.CarryForward))
		_ = xlsx.SetCellValue(s, cell('E', row), num(st.Allocated))
		_ = xlsx.SetCellValue(s, cell('F', row), num(st.Spent))
		_ = xlsx.SetCellValue(s, cell('G', row), num(st.Remaining))
		_ = xlsx.SetCellValue(s, cell('H', row), st.OverBudget)
		_ = xlsx.SetCellStyle(s, cell('D', row), cell('G', row), moneyStyle)
		if st.OverBudget {
			_ = xlsx.SetCellStyle(s, cell('G', row), cell('G', row), over)
		}
	}
}

func writeEntries(xlsx *excelize.File, r Report, bold, moneyStyle int) {
	s := SheetEntries
	_ = xlsx.SetColWidth(s, "A", "A", 10)
	_ = xlsx.SetColWidth(s, "B", "B", 18)
	_ = xlsx.SetColWidth(s, "C", "C", 30)
	_ = xlsx.SetColWidth(s, "D", "D", 20)
	_ = xlsx.SetColWidth(s, "E", "E", 14)
	headers := []string{"Kind", "Date", "Description", "Category", "Amount"}
	for i, h := range headers {
		_ = xlsx.SetCellValue(s, cell('A'+rune(i), 1), h)
	}
	_ = xlsx.SetCellStyle(s, "A1", "E1", bold)

	names := make(map[uuid.UUID]string, len(r.Categories))
	for _, c := range r.Categories {
		names[c.ID] = c.Name
	}
	row := 2
	for _, in := range r.Incomes {
		_ = xlsx.SetCellValue(s, cell('A', row), "income")
		_ = xlsx.SetCellValue(s, cell('B', row), in.OccurredAt.Format("2006-01-02 15:04"))
		_ = xlsx.SetCellValue(s, cell('C', row), in.Description)
		_ = xlsx.SetCellValue(s, cell('E', row), num(in.Amount))
		_ = xlsx.SetCellStyle(s, cell('E', row), cell('E', row), moneyStyle)
		row++
	}
	for _, ex := range r.Expenses {
		_ = xlsx.SetCellValue(s, cell('A', row), "expense")
		_ = xlsx.SetCellValue(s, cell('B', row), ex.OccurredAt.Format("2006-01-02 15:04"))
		_ = xlsx.SetCellValue(s, cell('C', row), ex.Description)
		_ = xlsx.SetCellValue(s, cell('D', row), names[ex.CategoryID])
		_ = xlsx.SetCellValue(s, cell('E', row), num(ex.Amount))
		_ = xlsx.SetCellStyle(s, cell('E', row), cell('E', row), moneyStyle)
		row++
	}
}
