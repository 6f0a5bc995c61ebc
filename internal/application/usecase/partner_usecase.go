package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

// PartnerUseCase clientes y proveedores de la empresa.
type PartnerUseCase struct {
	customers repository.CustomerRepository
	suppliers repository.SupplierRepository
}

// NewPartnerUseCase construye el caso de uso.
func NewPartnerUseCase(customers repository.CustomerRepository, suppliers repository.SupplierRepository) *PartnerUseCase {
	return &PartnerUseCase{customers: customers, suppliers: suppliers}
}

// CreateCustomer registra un cliente.
func (uc *PartnerUseCase) CreateCustomer(ctx context.Context, companyID string, in dto.CreatePartnerRequest) (*dto.PartnerResponse, error) {
	now := time.Now().UTC()
	c := &entity.Customer{
		ID: uuid.New().String(), CompanyID: companyID,
		Name: in.Name, TaxID: in.TaxID, Email: in.Email, Phone: in.Phone,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := uc.customers.Create(ctx, c); err != nil {
		return nil, err
	}
	out := customerResponse(c)
	return &out, nil
}

// GetCustomer obtiene un cliente de la empresa.
func (uc *PartnerUseCase) GetCustomer(ctx context.Context, companyID, id string) (*dto.PartnerResponse, error) {
	c, err := uc.customers.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.NewNotFoundError("cliente", id)
	}
	out := customerResponse(c)
	return &out, nil
}

// ListCustomers lista clientes.
func (uc *PartnerUseCase) ListCustomers(ctx context.Context, companyID string, page repository.Page) (*dto.PartnerListResponse, error) {
	list, err := uc.customers.ListByCompany(ctx, companyID, page)
	if err != nil {
		return nil, err
	}
	items := make([]dto.PartnerResponse, 0, len(list))
	for _, c := range list {
		items = append(items, customerResponse(c))
	}
	return &dto.PartnerListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}, nil
}

// CreateSupplier registra un proveedor.
func (uc *PartnerUseCase) CreateSupplier(ctx context.Context, companyID string, in dto.CreatePartnerRequest) (*dto.PartnerResponse, error) {
	now := time.Now().UTC()
	s := &entity.Supplier{
		ID: uuid.New().String(), CompanyID: companyID,
		Name: in.Name, TaxID: in.TaxID, Email: in.Email, Phone: in.Phone,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := uc.suppliers.Create(ctx, s); err != nil {
		return nil, err
	}
	out := supplierResponse(s)
	return &out, nil
}

// ListSuppliers lista proveedores.
func (uc *PartnerUseCase) ListSuppliers(ctx context.Context, companyID string, page repository.Page) (*dto.PartnerListResponse, error) {
	list, err := uc.suppliers.ListByCompany(ctx, companyID, page)
	if err != nil {
		return nil, err
	}
	items := make([]dto.PartnerResponse, 0, len(list))
	for _, s := range list {
		items = append(items, supplierResponse(s))
	}
	return &dto.PartnerListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}, nil
}

func customerResponse(c *entity.Customer) dto.PartnerResponse {
	return dto.PartnerResponse{ID: c.ID, CompanyID: c.CompanyID, Name: c.Name, TaxID: c.TaxID, Email: c.Email, Phone: c.Phone, CreatedAt: c.CreatedAt}
}

func supplierResponse(s *entity.Supplier) dto.PartnerResponse {
	return dto.PartnerResponse{ID: s.ID, CompanyID: s.CompanyID, Name: s.Name, TaxID: s.TaxID, Email: s.Email, Phone: s.Phone, CreatedAt: s.CreatedAt}
}
