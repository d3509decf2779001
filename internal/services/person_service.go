package services

import (
	"strings"

	"gorm.io/gorm"

	"gestops/internal/errors"
	"gestops/internal/models"
	"gestops/internal/pagination"
)

// PersonService implements PersonServicer on top of gorm.
type PersonService struct {
	db *gorm.DB
}

func NewPersonService(db *gorm.DB) *PersonService {
	return &PersonService{db: db}
}

// CreatePerson validates and stores a new counterparty. Tax ids are unique
// across the table.
func (s *PersonService) CreatePerson(taxID, legalName string) (*models.Person, error) {
	if err := models.ValidateTaxID(taxID); err != nil {
		return nil, err
	}
	legalName = strings.TrimSpace(legalName)
	if legalName == "" {
		return nil, errors.NewValidation("legal_name", "legal name is required")
	}
	if err := s.checkTaxIDAvailable(taxID, 0); err != nil {
		return nil, err
	}

	person := &models.Person{TaxID: taxID, LegalName: legalName}
	if err := s.db.Create(person).Error; err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	return person, nil
}

func (s *PersonService) GetPersonByID(personID uint) (*models.Person, error) {
	var person models.Person
	if err := s.db.First(&person, personID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPersonNotFound
		}
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	return &person, nil
}

// ListPersons returns counterparties matching the search term on legal name
// or tax id, ordered by legal name.
func (s *PersonService) ListPersons(search string, page pagination.PageRequest) (*pagination.PageResponse[models.Person], error) {
	query := s.db.Model(&models.Person{})
	if search != "" {
		term := "%" + search + "%"
		query = query.Where("legal_name LIKE ? OR tax_id LIKE ?", term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}

	query = query.Order("legal_name ASC")

	var persons []models.Person
	if page.Unpaged() {
		if err := query.Find(&persons).Error; err != nil {
			return nil, errors.Wrap(errors.ErrInternalServer, err)
		}
		resp := pagination.NewUnpagedResponse(persons)
		return &resp, nil
	}

	page.Defaults()
	if err := query.Scopes(pagination.Paginate(page)).Find(&persons).Error; err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	resp := pagination.NewPageResponse(persons, page.Page, page.PageSize, total)
	return &resp, nil
}

// UpdatePerson applies a partial update. Nil pointers leave fields alone.
func (s *PersonService) UpdatePerson(personID uint, taxID, legalName *string) (*models.Person, error) {
	person, err := s.GetPersonByID(personID)
	if err != nil {
		return nil, err
	}

	if taxID != nil {
		if err := models.ValidateTaxID(*taxID); err != nil {
			return nil, err
		}
		if err := s.checkTaxIDAvailable(*taxID, person.ID); err != nil {
			return nil, err
		}
		person.TaxID = *taxID
	}
	if legalName != nil {
		name := strings.TrimSpace(*legalName)
		if name == "" {
			return nil, errors.NewValidation("legal_name", "legal name is required")
		}
		person.LegalName = name
	}

	if err := s.db.Save(person).Error; err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	return person, nil
}

// DeletePerson removes a counterparty. Operations referencing it keep it in
// place through the foreign key constraint.
func (s *PersonService) DeletePerson(personID uint) error {
	person, err := s.GetPersonByID(personID)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.Operation{}).Where("person_id = ?", personID).Count(&count).Error; err != nil {
		return errors.Wrap(errors.ErrInternalServer, err)
	}
	if count > 0 {
		return errors.NewValidation("person_id", "person is referenced by existing operations")
	}

	if err := s.db.Delete(person).Error; err != nil {
		return errors.Wrap(errors.ErrInternalServer, err)
	}
	return nil
}

func (s *PersonService) checkTaxIDAvailable(taxID string, excludeID uint) error {
	var count int64
	query := s.db.Model(&models.Person{}).Where("tax_id = ?", taxID)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return errors.Wrap(errors.ErrInternalServer, err)
	}
	if count > 0 {
		return errors.ErrDuplicateTaxID
	}
	return nil
}
