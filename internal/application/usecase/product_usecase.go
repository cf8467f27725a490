package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventorypro-ledger/internal/application/dto"
	"github.com/jhoicas/inventorypro-ledger/internal/application/inventory"
	"github.com/jhoicas/inventorypro-ledger/internal/domain"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/repository"
	"github.com/rs/zerolog"
)

// ProductUseCase catálogo de productos. Las existencias se manejan siempre por lotes.
type ProductUseCase struct {
	txRunner   inventory.TxRunner
	ledger     *inventory.Ledger
	repo       repository.ProductRepository
	branchRepo repository.BranchRepository
	log        zerolog.Logger
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(
	txRunner inventory.TxRunner,
	ledger *inventory.Ledger,
	repo repository.ProductRepository,
	branchRepo repository.BranchRepository,
	log zerolog.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		txRunner:   txRunner,
		ledger:     ledger,
		repo:       repo,
		branchRepo: branchRepo,
		log:        log,
	}
}

// Create da de alta el producto y su lote inicial en la sucursal, en una sola transacción.
// SKU repetido (sin distinguir mayúsculas): domain.ErrDuplicate.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.CreateProductResponse, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	existing, err := uc.repo.GetBySKU(ctx, in.SKU)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("sku %s: %w", in.SKU, domain.ErrDuplicate)
	}
	branch, err := uc.branchRepo.GetByID(ctx, in.BranchID)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, fmt.Errorf("sucursal %s: %w", in.BranchID, domain.ErrNotFound)
	}

	product := &entity.Product{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(in.Name),
		SKU:         strings.TrimSpace(in.SKU),
		Category:    in.Category,
		Supplier:    strings.TrimSpace(in.Supplier),
		Description: in.Description,
		CreatedAt:   time.Now(),
	}
	var batch *entity.Batch
	err = uc.txRunner.Run(ctx, func(batchRepo repository.BatchRepository, productRepo repository.ProductRepository) error {
		if err := productRepo.Create(ctx, product); err != nil {
			return err
		}
		b, err := uc.ledger.CreateInTx(ctx, batchRepo, inventory.NewBatch{
			ProductID:    product.ID,
			BranchID:     in.BranchID,
			Quantity:     in.Quantity,
			CostPrice:    in.CostPrice,
			SellingPrice: in.SellingPrice,
			PurchaseDate: *in.PurchaseDate,
			ExpiryDate:   in.ExpiryDate,
		})
		if err != nil {
			return err
		}
		batch = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("product_id", product.ID).Str("sku", product.SKU).Str("batch_id", batch.ID).Msg("producto creado")
	return &dto.CreateProductResponse{
		Product: *toProductResponse(product),
		Batch:   ToBatchResponse(batch, product.Name, time.Now()),
	}, nil
}

func validateProduct(in dto.CreateProductRequest) error {
	fe := domain.FieldErrors{}
	if strings.TrimSpace(in.Name) == "" {
		fe.Add("name", "campo obligatorio")
	}
	if strings.TrimSpace(in.SKU) == "" {
		fe.Add("sku", "campo obligatorio")
	}
	if strings.TrimSpace(in.Category) == "" {
		fe.Add("category", "campo obligatorio")
	}
	if strings.TrimSpace(in.Supplier) == "" {
		fe.Add("supplier", "campo obligatorio")
	}
	if strings.TrimSpace(in.BranchID) == "" {
		fe.Add("branch_id", "seleccione una sucursal")
	}
	if in.Quantity < 0 {
		fe.Add("quantity", "la cantidad no puede ser negativa")
	}
	if in.CostPrice.IsNegative() {
		fe.Add("cost_price", "el costo no puede ser negativo")
	}
	if in.SellingPrice != nil && in.SellingPrice.IsNegative() {
		fe.Add("selling_price", "el precio de venta no puede ser negativo")
	}
	if in.PurchaseDate == nil || in.PurchaseDate.IsZero() {
		fe.Add("purchase_date", "la fecha de compra es obligatoria")
	}
	return fe.Err()
}

// GetByID obtiene un producto o domain.ErrNotFound.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("producto %s: %w", id, domain.ErrNotFound)
	}
	return toProductResponse(product), nil
}

// List catálogo completo en orden de alta.
func (uc *ProductUseCase) List(ctx context.Context) ([]dto.ProductResponse, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return toProductResponses(list), nil
}

// ListByBranch productos con algún lote en la sucursal.
func (uc *ProductUseCase) ListByBranch(ctx context.Context, branchID string) ([]dto.ProductResponse, error) {
	list, err := uc.ledger.ProductsByBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	return toProductResponses(list), nil
}

func toProductResponses(list []*entity.Product) []dto.ProductResponse {
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return items
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		SKU:         p.SKU,
		Category:    p.Category,
		Supplier:    p.Supplier,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}

// ToBatchResponse mapea un lote con su estado y valor a la fecha indicada.
func ToBatchResponse(b *entity.Batch, productName string, now time.Time) dto.BatchResponse {
	return dto.BatchResponse{
		ID:           b.ID,
		LotCode:      b.Lot(),
		ProductID:    b.ProductID,
		ProductName:  productName,
		BranchID:     b.BranchID,
		Quantity:     b.Quantity,
		CostPrice:    b.CostPrice,
		SellingPrice: b.SellingPrice,
		PurchaseDate: b.PurchaseDate,
		ExpiryDate:   b.ExpiryDate,
		Status:       b.Status(now),
		Value:        b.Value(),
		Version:      b.Version,
	}
}
