package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/uniworld-consultancy/case-service/internal/models"
	"github.com/uniworld-consultancy/case-service/internal/repositories"
)

const exportSheetName = "Applications"

// exportBatchSize pages through the register so exports of any size stay
// bounded in memory per fetch.
const exportBatchSize = 500

// ExportRegister renders the full application register as an xlsx
// workbook. Staff only.
func (s *applicationService) ExportRegister(ctx context.Context, userID string) ([]byte, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Role.IsStaff() {
		return nil, NewPermissionError(userID, 0, "application", "export", "insufficient role permissions")
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", exportSheetName)

	headers := []string{
		"Reference", "Client ID", "Status", "Progress %", "Visa Type",
		"Destination", "Intake", "Course", "Institution",
		"Visa Refusal", "Assigned Staff", "Submitted At",
	}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(exportSheetName, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	row := 2
	offset := 0
	for {
		applications, _, err := s.repo.Applications().List(ctx, nil, repositories.ApplicationFilters{
			Limit:     exportBatchSize,
			Offset:    offset,
			SortBy:    "submitted_at",
			SortOrder: "asc",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list applications for export: %w", err)
		}
		if len(applications) == 0 {
			break
		}

		for i := range applications {
			if err := s.writeExportRow(f, row, &applications[i]); err != nil {
				return nil, err
			}
			row++
		}

		if len(applications) < exportBatchSize {
			break
		}
		offset += exportBatchSize
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	s.logger.Info("Application register exported", "rows", row-2, "exported_by", userID)
	return buf.Bytes(), nil
}

func (s *applicationService) writeExportRow(f *excelize.File, row int, app *models.Application) error {
	refusal := "No"
	if app.HasVisaRefusal {
		refusal = "Yes"
	}

	values := []interface{}{
		app.ApplicationID,
		app.ClientID,
		string(app.Status),
		app.Status.Progress(),
		string(app.VisaType),
		app.DestinationCountry,
		app.IntendedIntake,
		app.CourseName,
		app.InstitutionName,
		refusal,
		app.AssignedStaff,
		app.SubmittedAt.Format(time.RFC3339),
	}

	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("failed to build cell name: %w", err)
		}
		if err := f.SetCellValue(exportSheetName, cell, v); err != nil {
			return fmt.Errorf("failed to write export row: %w", err)
		}
	}
	return nil
}
