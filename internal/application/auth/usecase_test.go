package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventorypro-ledger/internal/application/auth"
	"github.com/jhoicas/inventorypro-ledger/internal/application/dto"
	"github.com/jhoicas/inventorypro-ledger/internal/domain"
	"github.com/jhoicas/inventorypro-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventorypro-ledger/internal/infrastructure/seed"
	"github.com/jhoicas/inventorypro-ledger/pkg/jwt"
)

const secret = "test-secret"

func newAuth(t *testing.T) *auth.AuthUseCase {
	t.Helper()
	store := memory.NewStore(time.Second)
	users := memory.NewUserRepository(store)
	require.NoError(t, seed.Demo(context.Background(), seed.Repos{
		Branches: memory.NewBranchRepository(store),
		Products: memory.NewProductRepository(store),
		Batches:  memory.NewBatchRepository(store),
		Users:    users,
	}, "demo123", zerolog.Nop()))
	return auth.NewAuthUseCase(users, auth.JWTConfig{Secret: secret, ExpMinutes: 60, Issuer: "test"}, zerolog.Nop())
}

func TestLogin_EmailSinDistinguirMayusculas(t *testing.T) {
	uc := newAuth(t)

	out, err := uc.Login(context.Background(), dto.LoginRequest{Email: "  FATIMA@inventorypro.ng ", Password: "demo123"})
	require.NoError(t, err)

	id, err := jwt.Parse(secret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, "2", id.UserID)
	assert.Equal(t, "north", id.BranchID)
	assert.Equal(t, "branch-manager", id.Role)

	s := out.Session
	assert.Equal(t, "Fatima Abdullahi", s.User.Name)
	assert.Equal(t, "dashboard", s.DefaultView)
	assert.True(t, s.Capabilities["manageInventory"])
	assert.False(t, s.Capabilities["transferStock"])
	assert.Len(t, s.Capabilities, 10)
	require.NotEmpty(t, s.Menu)
	assert.Equal(t, "dashboard", s.Menu[0].ID)
}

func TestLogin_VendedorVaAVentas(t *testing.T) {
	uc := newAuth(t)
	out, err := uc.Login(context.Background(), dto.LoginRequest{Email: "kemi@inventorypro.ng", Password: "demo123"})
	require.NoError(t, err)
	assert.Equal(t, "sales", out.Session.DefaultView)
	assert.Len(t, out.Session.Menu, 2)
}

func TestLogin_Errores(t *testing.T) {
	uc := newAuth(t)
	_, err := uc.Login(context.Background(), dto.LoginRequest{Email: "admin@inventorypro.ng", Password: "otra"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.Login(context.Background(), dto.LoginRequest{Email: "nadie@inventorypro.ng", Password: "demo123"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestSession(t *testing.T) {
	uc := newAuth(t)
	s, err := uc.Session(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "super-admin", s.User.Role)
	for c, ok := range s.Capabilities {
		assert.True(t, ok, c)
	}

	_, err = uc.Session(context.Background(), "99")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
