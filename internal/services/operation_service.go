package services

import (
	"io"
	"net/url"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"gestops/internal/errors"
	"gestops/internal/logger"
	"gestops/internal/models"
	"gestops/internal/pagination"
	"gestops/internal/storage"
)

// OperationService implements OperationServicer on top of gorm and a file
// store for attachments.
type OperationService struct {
	db    *gorm.DB
	store storage.Storage
}

func NewOperationService(db *gorm.DB, store storage.Storage) *OperationService {
	return &OperationService{db: db, store: store}
}

func (s *OperationService) preloaded() *gorm.DB {
	return s.db.
		Preload("Person").
		Preload("Subcategory.Category.Concept").
		Preload("User")
}

// CreateOperation validates and stores a new operation. The creator is the
// authenticated actor, never a payload field.
func (s *OperationService) CreateOperation(creatorID uint, in OperationCreate) (*models.Operation, error) {
	date, err := models.ParseOperationDate(in.Date)
	if err != nil {
		return nil, err
	}
	opType, err := models.ParseOperationType(in.Type)
	if err != nil {
		return nil, err
	}
	character, err := models.ParseOperationCharacter(in.Character)
	if err != nil {
		return nil, err
	}
	nature, err := models.ParseOperationNature(in.Nature)
	if err != nil {
		return nil, err
	}
	kind, err := models.ParseDocumentKind(in.DocumentKind)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateDocumentCode(kind, in.DocumentCode); err != nil {
		return nil, err
	}
	method, err := models.ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		return nil, err
	}
	if in.PersonID == 0 {
		return nil, errors.NewValidation("person_id", "person is required")
	}
	if in.SubcategoryID == 0 {
		return nil, errors.NewValidation("subcategory_id", "subcategory is required")
	}
	if err := checkPersonExists(s.db, in.PersonID); err != nil {
		return nil, err
	}
	if err := checkSubcategoryExists(s.db, in.SubcategoryID); err != nil {
		return nil, err
	}

	operation := &models.Operation{
		Date:          date,
		Type:          opType,
		Character:     character,
		Nature:        nature,
		PersonID:      in.PersonID,
		DocumentKind:  kind,
		DocumentCode:  in.DocumentCode,
		Observations:  in.Observations,
		PaymentMethod: method,
		SubcategoryID: in.SubcategoryID,
		UserID:        creatorID,
	}
	operation.SetAmount(in.Amount)

	if err := s.db.Create(operation).Error; err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	return s.GetOperationByID(operation.ID)
}

func (s *OperationService) GetOperationByID(operationID uint) (*models.Operation, error) {
	var operation models.Operation
	if err := s.preloaded().First(&operation, operationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrOperationNotFound
		}
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	return &operation, nil
}

// ListOperations returns a filtered, ordered page of operations. With an
// unpaged request the full filtered set comes back as a single page.
func (s *OperationService) ListOperations(params url.Values, page pagination.PageRequest) (*pagination.PageResponse[models.OperationResponse], error) {
	preds := CompileOperationFilters(params)

	var total int64
	countQuery := applyPredicates(s.db.Model(&models.Operation{}), preds)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}

	query := applyPredicates(s.preloaded(), preds).Order(operationOrdering)

	var operations []models.Operation
	if page.Unpaged() {
		if err := query.Find(&operations).Error; err != nil {
			return nil, errors.Wrap(errors.ErrInternalServer, err)
		}
		resp := pagination.NewUnpagedResponse(toOperationResponses(operations))
		return &resp, nil
	}

	page.Defaults()
	if err := query.Scopes(pagination.Paginate(page)).Find(&operations).Error; err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	resp := pagination.NewPageResponse(toOperationResponses(operations), page.Page, page.PageSize, total)
	return &resp, nil
}

// UpdateOperation applies an allow-listed partial update after resolving the
// actor's authority, and reports which fields actually changed.
func (s *OperationService) UpdateOperation(actor Actor, operationID uint, upd OperationUpdate) (*models.Operation, []string, error) {
	var operation models.Operation
	if err := s.db.First(&operation, operationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, errors.ErrOperationNotFound
		}
		return nil, nil, errors.Wrap(errors.ErrInternalServer, err)
	}

	markModified, err := ResolveMutation(actor.ID, actor.Role, operation.UserID)
	if err != nil {
		return nil, nil, err
	}

	updatedFields, err := applyOperationUpdate(s.db, &operation, upd)
	if err != nil {
		return nil, nil, err
	}
	operation.ModifiedByOther = markModified

	if err := s.db.Save(&operation).Error; err != nil {
		return nil, nil, errors.Wrap(errors.ErrInternalServer, err)
	}

	updated, err := s.GetOperationByID(operation.ID)
	if err != nil {
		return nil, nil, err
	}
	return updated, updatedFields, nil
}

// applyOperationUpdate mutates the loaded operation in a fixed field order.
// Document kind is applied before document code, so a payload changing both
// validates the code against the incoming kind. Existence checks go through
// db so that callers inside a transaction stay on the transaction handle.
func applyOperationUpdate(db *gorm.DB, operation *models.Operation, upd OperationUpdate) ([]string, error) {
	var updated []string

	if upd.Date != nil {
		date, err := models.ParseOperationDate(*upd.Date)
		if err != nil {
			return nil, err
		}
		operation.Date = date
		updated = append(updated, "date")
	}
	if upd.Type != nil {
		opType, err := models.ParseOperationType(*upd.Type)
		if err != nil {
			return nil, err
		}
		operation.ChangeType(opType)
		updated = append(updated, "type")
	}
	if upd.Character != nil {
		character, err := models.ParseOperationCharacter(*upd.Character)
		if err != nil {
			return nil, err
		}
		operation.Character = character
		updated = append(updated, "character")
	}
	if upd.Nature != nil {
		nature, err := models.ParseOperationNature(*upd.Nature)
		if err != nil {
			return nil, err
		}
		operation.Nature = nature
		updated = append(updated, "nature")
	}
	if upd.PersonID != nil {
		if err := checkPersonExists(db, *upd.PersonID); err != nil {
			return nil, err
		}
		operation.PersonID = *upd.PersonID
		updated = append(updated, "person_id")
	}
	if upd.DocumentKind != nil {
		kind, err := models.ParseDocumentKind(*upd.DocumentKind)
		if err != nil {
			return nil, err
		}
		operation.DocumentKind = kind
		updated = append(updated, "document_kind")
	}
	if upd.DocumentCode != nil {
		if err := models.ValidateDocumentCode(operation.DocumentKind, *upd.DocumentCode); err != nil {
			return nil, err
		}
		operation.DocumentCode = *upd.DocumentCode
		updated = append(updated, "document_code")
	}
	if upd.Observations != nil {
		operation.Observations = *upd.Observations
		updated = append(updated, "observations")
	}
	if upd.PaymentMethod != nil {
		method, err := models.ParsePaymentMethod(*upd.PaymentMethod)
		if err != nil {
			return nil, err
		}
		operation.PaymentMethod = method
		updated = append(updated, "payment_method")
	}
	if upd.Amount != nil {
		operation.SetAmount(*upd.Amount)
		updated = append(updated, "amount")
	}
	if upd.SubcategoryID != nil {
		if err := checkSubcategoryExists(db, *upd.SubcategoryID); err != nil {
			return nil, err
		}
		operation.SubcategoryID = *upd.SubcategoryID
		updated = append(updated, "subcategory_id")
	}
	return updated, nil
}

// BulkUpdateOperations applies many partial updates in one transaction.
// Missing ids and ids the actor may not touch are reported per id without
// failing the batch; a validation error rolls the whole batch back.
func (s *OperationService) BulkUpdateOperations(actor Actor, updates []BulkOperationUpdate) (*BulkUpdateResult, error) {
	result := &BulkUpdateResult{Updated: []BulkUpdatedOperation{}}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range updates {
			var operation models.Operation
			if err := tx.First(&operation, item.ID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					result.NotFound = append(result.NotFound, item.ID)
					continue
				}
				return errors.Wrap(errors.ErrInternalServer, err)
			}

			markModified, err := ResolveMutation(actor.ID, actor.Role, operation.UserID)
			if err != nil {
				result.NoPermission = append(result.NoPermission, item.ID)
				continue
			}

			updatedFields, err := applyOperationUpdate(tx, &operation, item.OperationUpdate)
			if err != nil {
				return err
			}
			operation.ModifiedByOther = markModified

			if err := tx.Save(&operation).Error; err != nil {
				return errors.Wrap(errors.ErrInternalServer, err)
			}
			result.Updated = append(result.Updated, BulkUpdatedOperation{
				ID:            operation.ID,
				UpdatedFields: updatedFields,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteOperation removes an operation and, after the row is gone, its
// attachment files. File removal failures are logged, not surfaced.
func (s *OperationService) DeleteOperation(actor Actor, operationID uint) error {
	var operation models.Operation
	if err := s.db.First(&operation, operationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrOperationNotFound
		}
		return errors.Wrap(errors.ErrInternalServer, err)
	}

	if _, err := ResolveMutation(actor.ID, actor.Role, operation.UserID); err != nil {
		return err
	}

	if err := s.db.Delete(&operation).Error; err != nil {
		return errors.Wrap(errors.ErrInternalServer, err)
	}

	for _, filename := range operation.AttachmentFilenames() {
		if err := s.store.Remove(filename); err != nil {
			logger.Get().Warnw("failed to remove attachment file",
				"operation_id", operationID,
				"filename", filename,
				"error", err)
		}
	}
	return nil
}

// GetTotals aggregates the filtered set in memory with exact decimal sums.
// Absolute values guard against rows whose stored sign drifted from their
// type.
func (s *OperationService) GetTotals(params url.Values) (*OperationTotals, error) {
	preds := CompileOperationFilters(params)

	var rows []models.Operation
	query := applyPredicates(s.db.Model(&models.Operation{}), preds)
	if err := query.Select("type", "amount").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}

	income := decimal.Zero
	expense := decimal.Zero
	for _, row := range rows {
		if row.Type == models.OperationIncome {
			income = income.Add(row.Amount.Abs())
		} else {
			expense = expense.Add(row.Amount.Abs())
		}
	}

	incomeTotal, _ := income.Float64()
	expenseTotal, _ := expense.Float64()
	net, _ := income.Sub(expense).Float64()
	return &OperationTotals{
		IncomeTotal:  incomeTotal,
		ExpenseTotal: expenseTotal,
		Net:          net,
		Count:        int64(len(rows)),
	}, nil
}

// AttachmentPath resolves the on-disk path of a stored attachment.
func (s *OperationService) AttachmentPath(operationID uint, slot models.AttachmentSlot) (string, error) {
	var operation models.Operation
	if err := s.db.First(&operation, operationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", errors.ErrOperationNotFound
		}
		return "", errors.Wrap(errors.ErrInternalServer, err)
	}

	filename, _ := operation.Attachment(slot)
	if filename == "" {
		return "", errors.ErrAttachmentNotFound
	}
	return s.store.Path(filename)
}

// ReplaceAttachment stores a new file in the slot, replacing and then
// deleting any previous file once the row is saved.
func (s *OperationService) ReplaceAttachment(actor Actor, operationID uint, slot models.AttachmentSlot, src io.Reader, originalName, contentType string, size int64) (*models.Operation, error) {
	var operation models.Operation
	if err := s.db.First(&operation, operationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrOperationNotFound
		}
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}

	markModified, err := ResolveMutation(actor.ID, actor.Role, operation.UserID)
	if err != nil {
		return nil, err
	}

	filename, err := s.store.Save(src, originalName, contentType, size)
	if err != nil {
		return nil, err
	}

	previous, _ := operation.Attachment(slot)
	operation.SetAttachment(slot, filename, contentType)
	operation.ModifiedByOther = markModified

	if err := s.db.Save(&operation).Error; err != nil {
		if removeErr := s.store.Remove(filename); removeErr != nil {
			logger.Get().Warnw("failed to remove orphaned attachment file",
				"filename", filename,
				"error", removeErr)
		}
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}

	if previous != "" {
		if err := s.store.Remove(previous); err != nil {
			logger.Get().Warnw("failed to remove replaced attachment file",
				"operation_id", operationID,
				"filename", previous,
				"error", err)
		}
	}
	return s.GetOperationByID(operation.ID)
}

// DeleteAttachment clears a slot and removes its file.
func (s *OperationService) DeleteAttachment(actor Actor, operationID uint, slot models.AttachmentSlot) error {
	var operation models.Operation
	if err := s.db.First(&operation, operationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrOperationNotFound
		}
		return errors.Wrap(errors.ErrInternalServer, err)
	}

	markModified, err := ResolveMutation(actor.ID, actor.Role, operation.UserID)
	if err != nil {
		return err
	}

	filename, _ := operation.Attachment(slot)
	if filename == "" {
		return errors.ErrAttachmentNotFound
	}

	operation.ClearAttachment(slot)
	operation.ModifiedByOther = markModified
	if err := s.db.Save(&operation).Error; err != nil {
		return errors.Wrap(errors.ErrInternalServer, err)
	}

	if err := s.store.Remove(filename); err != nil {
		logger.Get().Warnw("failed to remove attachment file",
			"operation_id", operationID,
			"filename", filename,
			"error", err)
	}
	return nil
}

func checkPersonExists(db *gorm.DB, personID uint) error {
	var count int64
	if err := db.Model(&models.Person{}).Where("id = ?", personID).Count(&count).Error; err != nil {
		return errors.Wrap(errors.ErrInternalServer, err)
	}
	if count == 0 {
		return errors.ErrPersonNotFound
	}
	return nil
}

func checkSubcategoryExists(db *gorm.DB, subcategoryID uint) error {
	var count int64
	if err := db.Model(&models.Subcategory{}).Where("id = ?", subcategoryID).Count(&count).Error; err != nil {
		return errors.Wrap(errors.ErrInternalServer, err)
	}
	if count == 0 {
		return errors.ErrSubcategoryNotFound
	}
	return nil
}

func toOperationResponses(operations []models.Operation) []models.OperationResponse {
	responses := make([]models.OperationResponse, len(operations))
	for i := range operations {
		responses[i] = operations[i].ToResponse()
	}
	return responses
}
