package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventorypro-ledger/internal/application/dto"
	"github.com/jhoicas/inventorypro-ledger/internal/domain"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/repository"
	"github.com/rs/zerolog"
)

// BranchUseCase alta y consulta de sucursales.
type BranchUseCase struct {
	repo repository.BranchRepository
	log  zerolog.Logger
}

// NewBranchUseCase construye el caso de uso.
func NewBranchUseCase(repo repository.BranchRepository, log zerolog.Logger) *BranchUseCase {
	return &BranchUseCase{repo: repo, log: log}
}

// Create da de alta una sucursal en estado pending. El código es único sin distinguir
// mayúsculas: si ya existe devuelve domain.ErrDuplicate.
func (uc *BranchUseCase) Create(ctx context.Context, in dto.CreateBranchRequest) (*dto.BranchResponse, error) {
	if err := validateBranch(in); err != nil {
		return nil, err
	}
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	existing, err := uc.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("código %s: %w", code, domain.ErrDuplicate)
	}

	now := time.Now()
	branch := &entity.Branch{
		ID:              uuid.New().String(),
		Name:            strings.TrimSpace(in.Name),
		Code:            code,
		Location:        strings.TrimSpace(in.Location),
		Address:         strings.TrimSpace(in.Address),
		Manager:         strings.TrimSpace(in.Manager),
		Phone:           strings.TrimSpace(in.Phone),
		Email:           strings.TrimSpace(in.Email),
		EstablishedDate: *in.EstablishedDate,
		Status:          entity.BranchStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.repo.Create(ctx, branch); err != nil {
		return nil, err
	}
	uc.log.Info().Str("branch_id", branch.ID).Str("code", branch.Code).Msg("sucursal creada")
	return toBranchResponse(branch), nil
}

// validateBranch reporta todos los campos vacíos de una vez.
func validateBranch(in dto.CreateBranchRequest) error {
	fe := domain.FieldErrors{}
	required := []struct{ field, value string }{
		{"name", in.Name},
		{"code", in.Code},
		{"location", in.Location},
		{"address", in.Address},
		{"manager", in.Manager},
		{"phone", in.Phone},
		{"email", in.Email},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			fe.Add(r.field, "campo obligatorio")
		}
	}
	if in.EstablishedDate == nil || in.EstablishedDate.IsZero() {
		fe.Add("established_date", "campo obligatorio")
	}
	return fe.Err()
}

// GetByID obtiene una sucursal o domain.ErrNotFound.
func (uc *BranchUseCase) GetByID(ctx context.Context, id string) (*dto.BranchResponse, error) {
	branch, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, fmt.Errorf("sucursal %s: %w", id, domain.ErrNotFound)
	}
	return toBranchResponse(branch), nil
}

// List sucursales en orden de alta. only restringe a una sucursal (vacío: todas).
func (uc *BranchUseCase) List(ctx context.Context, only string) ([]dto.BranchResponse, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]dto.BranchResponse, 0, len(list))
	for _, b := range list {
		if only != "" && b.ID != only {
			continue
		}
		items = append(items, *toBranchResponse(b))
	}
	return items, nil
}

func toBranchResponse(b *entity.Branch) *dto.BranchResponse {
	if b == nil {
		return nil
	}
	return &dto.BranchResponse{
		ID:              b.ID,
		Name:            b.Name,
		Code:            b.Code,
		Location:        b.Location,
		Address:         b.Address,
		Manager:         b.Manager,
		Phone:           b.Phone,
		Email:           b.Email,
		EstablishedDate: b.EstablishedDate,
		Status:          b.Status,
	}
}
