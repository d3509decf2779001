package services

import (
	"bytes"
	"net/url"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"gestops/internal/errors"
	"gestops/internal/models"
)

const exportSheet = "Operations"

// ExportService renders filtered operation sets as Excel workbooks. It
// shares the filter compiler with listings, so an export always matches
// what the caller saw on screen.
type ExportService struct {
	db *gorm.DB
}

func NewExportService(db *gorm.DB) *ExportService {
	return &ExportService{db: db}
}

// ExportOperations builds an xlsx workbook with one row per operation in
// the filtered set, ordered the same way as listings.
func (s *ExportService) ExportOperations(params url.Values) ([]byte, error) {
	preds := CompileOperationFilters(params)

	var operations []models.Operation
	query := applyPredicates(s.db.
		Preload("Person").
		Preload("Subcategory.Category.Concept").
		Preload("User"), preds).
		Order(operationOrdering)
	if err := query.Find(&operations).Error; err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}

	file := excelize.NewFile()
	defer file.Close()

	index, err := file.NewSheet(exportSheet)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	file.SetActiveSheet(index)
	if err := file.DeleteSheet("Sheet1"); err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}

	headers := make([]interface{}, len(models.ExportHeaders))
	for i, h := range models.ExportHeaders {
		headers[i] = h
	}
	if err := s.writeRow(file, 1, headers); err != nil {
		return nil, err
	}

	headerStyle, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		lastCol, _ := excelize.ColumnNumberToName(len(models.ExportHeaders))
		_ = file.SetCellStyle(exportSheet, "A1", lastCol+"1", headerStyle)
	}

	for i, operation := range operations {
		if err := s.writeRow(file, i+2, operation.ExportRow()); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	return buf.Bytes(), nil
}

func (s *ExportService) writeRow(file *excelize.File, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return errors.Wrap(errors.ErrInternalServer, err)
	}
	if err := file.SetSheetRow(exportSheet, cell, &values); err != nil {
		return errors.Wrap(errors.ErrInternalServer, err)
	}
	return nil
}
