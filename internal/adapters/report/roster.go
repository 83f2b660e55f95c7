package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ogurasousui/probation-workflow/internal/core/employee"
	"github.com/ogurasousui/probation-workflow/internal/core/probation"
	"github.com/xuri/excelize/v2"
)

const (
	// RosterSheet は出力するワークシート名です。
	RosterSheet = "Probation Roster"

	rosterPageSize = 100
	dateLayout     = "2006-01-02"
)

var rosterHeader = []any{"Employee Code", "Name", "Employment Status", "Hired On", "Probation Ends", "Days Remaining"}

// EligibleLister は評価対象社員をページ単位で取得します。
type EligibleLister interface {
	ListEligibleEmployees(ctx context.Context, in employee.ListEligibleEmployeesInput) (*employee.ListEmployeesResult, error)
}

// Roster は試用期間中の社員一覧を xlsx 形式で出力します。
type Roster struct {
	lister EligibleLister
	now    func() time.Time
}

// NewRoster は Roster を生成します。
func NewRoster(lister EligibleLister) *Roster {
	return &Roster{lister: lister, now: time.Now}
}

// Write は全ページの評価対象社員を取得し、ワークブックを w へ書き出します。
func (r *Roster) Write(ctx context.Context, w io.Writer) error {
	var employees []*employee.Employee
	token := ""
	for {
		page, err := r.lister.ListEligibleEmployees(ctx, employee.ListEligibleEmployeesInput{
			PageSize:  rosterPageSize,
			PageToken: token,
		})
		if err != nil {
			return err
		}
		employees = append(employees, page.Employees...)
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}

	return writeWorkbook(w, employees, probation.DateOnly(r.now()))
}

func writeWorkbook(w io.Writer, employees []*employee.Employee, today time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", RosterSheet); err != nil {
		return fmt.Errorf("report: rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("report: header style: %w", err)
	}

	if err := f.SetSheetRow(RosterSheet, "A1", &rosterHeader); err != nil {
		return fmt.Errorf("report: header: %w", err)
	}
	if err := f.SetCellStyle(RosterSheet, "A1", "F1", headerStyle); err != nil {
		return fmt.Errorf("report: header style: %w", err)
	}
	if err := f.SetColWidth(RosterSheet, "A", "F", 20); err != nil {
		return fmt.Errorf("report: column width: %w", err)
	}
	if err := f.SetPanes(RosterSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("report: freeze header: %w", err)
	}

	for i, e := range employees {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := rosterRow(e, today)
		if err := f.SetSheetRow(RosterSheet, cell, &row); err != nil {
			return fmt.Errorf("report: row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("report: write workbook: %w", err)
	}
	return nil
}

func rosterRow(e *employee.Employee, today time.Time) []any {
	row := []any{e.EmployeeCode, e.Name, string(e.EmploymentStatus), formatDate(e.HiredAt), formatDate(e.ProbationEndDate), ""}
	if e.ProbationEndDate != nil {
		row[5] = int(probation.DateOnly(*e.ProbationEndDate).Sub(today).Hours() / 24)
	}
	return row
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
