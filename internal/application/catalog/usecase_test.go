package catalog_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/pos-backoffice/internal/application/catalog"
	"github.com/tu-usuario/pos-backoffice/internal/application/dto"
	"github.com/tu-usuario/pos-backoffice/internal/domain"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
	"github.com/tu-usuario/pos-backoffice/internal/infrastructure/memory"
)

const companyID = "c-1"

var (
	actorAdmin  = entity.Actor{UserID: "u-admin", CompanyID: companyID, Role: entity.RoleAdmin}
	actorCajero = entity.Actor{UserID: "u-cajero", CompanyID: companyID, Role: entity.RoleCajero}
)

func newFixture() *catalog.CatalogUseCase {
	s := memory.NewStore()
	return catalog.NewCatalogUseCase(memory.NewBranchRepository(s), memory.NewVariantRepository(s))
}

func TestCreateBranch_SoloAdmin(t *testing.T) {
	uc := newFixture()
	ctx := context.Background()

	branch, err := uc.CreateBranch(ctx, actorAdmin, dto.CreateBranchRequest{Name: "Centro"})
	require.NoError(t, err)
	assert.NotEmpty(t, branch.ID)

	_, err = uc.CreateBranch(ctx, actorCajero, dto.CreateBranchRequest{Name: "Norte"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	list, err := uc.ListBranches(ctx, actorAdmin)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateVariant_SKUDuplicado(t *testing.T) {
	uc := newFixture()
	ctx := context.Background()

	req := dto.CreateVariantRequest{SKU: "CAM-001-M", Name: "Camisa M", Price: decimal.NewFromInt(50)}
	_, err := uc.CreateVariant(ctx, actorAdmin, req)
	require.NoError(t, err)

	_, err = uc.CreateVariant(ctx, actorAdmin, req)
	assert.ErrorIs(t, err, domain.ErrDuplicate, "el SKU es único por empresa")
}

func TestCreateVariant_CajeroProhibido(t *testing.T) {
	uc := newFixture()

	_, err := uc.CreateVariant(context.Background(), actorCajero, dto.CreateVariantRequest{
		SKU: "CAM-002", Name: "Camisa", Price: decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestGetVariant_OtraEmpresaProhibido(t *testing.T) {
	uc := newFixture()
	ctx := context.Background()

	created, err := uc.CreateVariant(ctx, actorAdmin, dto.CreateVariantRequest{
		SKU: "CAM-003", Name: "Camisa", Price: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	ajeno := entity.Actor{UserID: "u-x", CompanyID: "c-otra", Role: entity.RoleAdmin}
	_, err = uc.GetVariant(ctx, ajeno, created.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
