// Package auth contiene el login y la sesión del usuario: capacidades, menú y vista inicial.
package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/inventorypro-ledger/internal/application/dto"
	"github.com/jhoicas/inventorypro-ledger/internal/domain"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/authz"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/repository"
	"github.com/jhoicas/inventorypro-ledger/pkg/jwt"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase casos de uso de autenticación.
type AuthUseCase struct {
	userRepo repository.UserRepository
	jwtCfg   JWTConfig
	log      zerolog.Logger
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, jwtCfg JWTConfig, log zerolog.Logger) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, jwtCfg: jwtCfg, log: log}
}

// Login verifica email (sin distinguir mayúsculas) y password, genera el JWT y devuelve la sesión.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		uc.log.Warn().Str("user_id", user.ID).Msg("login: password inválido")
		return nil, domain.ErrUnauthorized
	}
	if user.Status != entity.UserStatusActive {
		return nil, domain.ErrForbidden
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.BranchID, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, fmt.Errorf("login: token: %w", err)
	}
	uc.log.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("login")
	return &dto.LoginResponse{
		Token:   token,
		Session: NewSession(user),
	}, nil
}

// Session reconstruye la sesión del usuario autenticado.
func (uc *AuthUseCase) Session(ctx context.Context, userID string) (*dto.SessionResponse, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	s := NewSession(user)
	return &s, nil
}

// NewSession arma usuario, capacidades, menú y vista inicial según el rol.
func NewSession(u *entity.User) dto.SessionResponse {
	role := authz.Role(u.Role)
	caps := make(map[string]bool, len(authz.AllCapabilities))
	for c, ok := range authz.Capabilities(role) {
		caps[string(c)] = ok
	}
	items := authz.MenuFor(role)
	menu := make([]dto.MenuItemResponse, 0, len(items))
	for _, m := range items {
		menu = append(menu, dto.MenuItemResponse{ID: m.ID, Label: m.Label})
	}
	return dto.SessionResponse{
		User:         *toUserResponse(u),
		Capabilities: caps,
		Menu:         menu,
		DefaultView:  authz.DefaultView(role),
	}
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Role:     u.Role,
		BranchID: u.BranchID,
		Status:   u.Status,
	}
}
