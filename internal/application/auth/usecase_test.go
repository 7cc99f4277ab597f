package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/pos-backoffice/internal/application/auth"
	"github.com/tu-usuario/pos-backoffice/internal/application/dto"
	"github.com/tu-usuario/pos-backoffice/internal/domain"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
	"github.com/tu-usuario/pos-backoffice/internal/infrastructure/memory"
	"github.com/tu-usuario/pos-backoffice/pkg/config"
	"github.com/tu-usuario/pos-backoffice/pkg/logger"
)

const companyID = "c-1"

var actorAdmin = entity.Actor{UserID: "u-admin", CompanyID: companyID, Role: entity.RoleAdmin}

func newFixture(t *testing.T) (*auth.AuthUseCase, *memory.Store) {
	t.Helper()
	s := memory.NewStore()
	ctx := context.Background()

	require.NoError(t, memory.NewCompanyRepository(s).Create(ctx, &entity.Company{ID: companyID, Name: "Tienda Demo"}))
	require.NoError(t, memory.NewBranchRepository(s).Create(ctx, &entity.Branch{ID: "b-1", CompanyID: companyID, Name: "Centro"}))

	uc := auth.NewAuthUseCase(
		memory.NewUserRepository(s),
		memory.NewCompanyRepository(s),
		memory.NewBranchRepository(s),
		config.JWTConfig{Secret: "test-secret", Expiration: 60, Issuer: "pos-test"},
		logger.NewNop(),
	)
	return uc, s
}

func registerRequest() dto.RegisterRequest {
	return dto.RegisterRequest{
		BranchID: "b-1",
		Email:    "cajero@tienda.test",
		Password: "contraseña-segura",
		Name:     "Cajero Uno",
		Role:     entity.RoleCajero,
	}
}

func TestRegisterYLogin_Roundtrip(t *testing.T) {
	uc, _ := newFixture(t)
	ctx := context.Background()

	user, err := uc.Register(ctx, actorAdmin, registerRequest())
	require.NoError(t, err)
	assert.Equal(t, companyID, user.CompanyID, "el usuario nace en la empresa del actor")
	assert.Equal(t, "active", user.Status)

	resp, err := uc.Login(ctx, dto.LoginRequest{Email: "cajero@tienda.test", Password: "contraseña-segura"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, user.ID, resp.User.ID)
}

func TestLogin_PasswordIncorrecta(t *testing.T) {
	uc, _ := newFixture(t)
	ctx := context.Background()

	_, err := uc.Register(ctx, actorAdmin, registerRequest())
	require.NoError(t, err)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "cajero@tienda.test", Password: "otra"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_UsuarioInexistente(t *testing.T) {
	uc, _ := newFixture(t)

	_, err := uc.Login(context.Background(), dto.LoginRequest{Email: "nadie@tienda.test", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "misma respuesta que password incorrecta")
}

func TestRegister_SoloAdmin(t *testing.T) {
	uc, _ := newFixture(t)

	gerente := entity.Actor{UserID: "u-g", CompanyID: companyID, Role: entity.RoleGerente}
	_, err := uc.Register(context.Background(), gerente, registerRequest())
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestRegister_EmailDuplicado(t *testing.T) {
	uc, _ := newFixture(t)
	ctx := context.Background()

	_, err := uc.Register(ctx, actorAdmin, registerRequest())
	require.NoError(t, err)

	_, err = uc.Register(ctx, actorAdmin, registerRequest())
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestRegister_PasswordCorta(t *testing.T) {
	uc, _ := newFixture(t)

	req := registerRequest()
	req.Password = "corta"
	_, err := uc.Register(context.Background(), actorAdmin, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegister_RolInvalido(t *testing.T) {
	uc, _ := newFixture(t)

	req := registerRequest()
	req.Role = "superusuario"
	_, err := uc.Register(context.Background(), actorAdmin, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegister_SucursalDeOtraEmpresa(t *testing.T) {
	uc, s := newFixture(t)
	ctx := context.Background()

	require.NoError(t, memory.NewBranchRepository(s).Create(ctx, &entity.Branch{ID: "b-ajena", CompanyID: "c-otra", Name: "Ajena"}))

	req := registerRequest()
	req.BranchID = "b-ajena"
	_, err := uc.Register(ctx, actorAdmin, req)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
