package export

import (
	"fmt"
	"io"

	"github.com/cloud-ru/emi-calculator-go/internal/calculations"
	"github.com/cloud-ru/emi-calculator-go/pkg/utils"
	"github.com/xuri/excelize/v2"
)

const (
	// ScheduleSheet - имя листа с графиком
	ScheduleSheet = "Schedule"
	// ContentType - MIME тип выгрузки
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var breakdownHeader = []interface{}{"Month", "EMI", "Interest", "Principal", "Prepayment", "Remaining Principal"}

// WriteScheduleXLSX записывает сводку и помесячный график в книгу XLSX
func WriteScheduleXLSX(w io.Writer, result *calculations.LoanCalculationResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ScheduleSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	summary := [][]interface{}{
		{"Loan Amount", utils.Round2(result.LoanAmount)},
		{"Annual Rate %", result.AnnualRate},
		{"EMI", money(result.EMI)},
		{"Mode", string(result.Mode)},
		{"Tenure Months", result.TenureMonths},
		{"Total Interest", money(result.TotalInterest)},
		{"Total Paid", money(result.TotalPaid)},
		{"Total Months", result.TotalMonths},
	}

	row := 1
	for _, values := range summary {
		if err := setRow(f, row, values); err != nil {
			return err
		}
		row++
	}

	// пустая строка между сводкой и графиком
	row++
	headerRow := row
	if err := setRow(f, row, breakdownHeader); err != nil {
		return err
	}

	for _, entry := range result.Breakdown {
		row++
		values := []interface{}{
			entry.Month,
			money(entry.EMI),
			money(entry.Interest),
			money(entry.Principal),
			money(entry.Prepayment),
			money(entry.RemainingPrincipal),
		}
		if err := setRow(f, row, values); err != nil {
			return err
		}
	}

	if err := styleAmounts(f, headerRow+1, row); err != nil {
		return err
	}

	if err := f.SetPanes(ScheduleSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: fmt.Sprintf("A%d", headerRow+1),
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func money(m calculations.Money) float64 {
	return utils.Round2(float64(m))
}

func setRow(f *excelize.File, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(ScheduleSheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

// styleAmounts задает формат 0.00 для денежных колонок графика
func styleAmounts(f *excelize.File, firstRow, lastRow int) error {
	if lastRow < firstRow {
		return nil
	}
	// встроенный формат 2 = "0.00"
	style, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	from := fmt.Sprintf("B%d", firstRow)
	to := fmt.Sprintf("F%d", lastRow)
	if err := f.SetCellStyle(ScheduleSheet, from, to, style); err != nil {
		return fmt.Errorf("failed to style amounts: %w", err)
	}
	return nil
}
