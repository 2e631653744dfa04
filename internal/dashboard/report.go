package dashboard

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	usersSheet = "Users"
	trendSheet = "Team Trend"
)

var (
	usersHeader = []any{"Name", "Email", "Role", "Visits", "Completed", "Completion %", "KPI", "Holidays Taken", "Remaining"}
	trendHeader = []any{"Year", "Month", "Average Completion %", "Employees", "Target"}
)

// writeReport renders the per-user KPI rows and the team trend as an xlsx
// workbook.
func writeReport(w io.Writer, board *Dashboard) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), usersSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(trendSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := writeRow(f, usersSheet, 1, usersHeader); err != nil {
		return err
	}
	for i, row := range board.Users {
		values := []any{
			row.Name,
			row.Email,
			string(row.Role),
			row.KPIData.TotalVisits,
			row.KPIData.CompletedVisits,
			row.KPIData.CompletionPercentage,
			row.KPIData.KPI,
			row.HolidayData.Taken,
			row.HolidayData.Remaining,
		}
		if err := writeRow(f, usersSheet, i+2, values); err != nil {
			return err
		}
	}

	if err := writeRow(f, trendSheet, 1, trendHeader); err != nil {
		return err
	}
	for i, point := range board.AllEmployeesMonthlyKPI {
		values := []any{point.Year, point.Month, point.Average, point.Employees, point.Target}
		if err := writeRow(f, trendSheet, i+2, values); err != nil {
			return err
		}
	}

	for _, sheet := range []string{usersSheet, trendSheet} {
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)
	_, err = f.WriteTo(w)
	return err
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, row, err)
	}
	return nil
}
