// Package seed carga los datos de demostración: sucursales, catálogo, lotes y usuarios.
// Escribe a través de los puertos de repositorio, por lo que sirve para cualquier driver.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/inventorypro-ledger/internal/domain"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/authz"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// Repos destinos de la carga.
type Repos struct {
	Branches repository.BranchRepository
	Products repository.ProductRepository
	Batches  repository.BatchRepository
	Users    repository.UserRepository
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dayPtr(s string) *time.Time {
	t := day(s)
	return &t
}

func money(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func moneyPtr(n int64) *decimal.Decimal {
	d := decimal.NewFromInt(n)
	return &d
}

// Branches sucursales de demostración.
func Branches() []*entity.Branch {
	return []*entity.Branch{
		{ID: "main", Name: "Main Branch", Code: "BR-001", Location: "Downtown Lagos", Address: "123 Victoria Island, Lagos, Nigeria",
			Manager: "Adebayo Johnson", Phone: "+234 (0) 803 123 4567", Email: "main@inventorypro.ng",
			EstablishedDate: day("2020-01-15"), Status: entity.BranchStatusActive},
		{ID: "north", Name: "North Branch", Code: "BR-002", Location: "Kano District", Address: "456 Ahmadu Bello Way, Kano, Nigeria",
			Manager: "Fatima Abdullahi", Phone: "+234 (0) 805 234 5678", Email: "north@inventorypro.ng",
			EstablishedDate: day("2021-03-20"), Status: entity.BranchStatusActive},
		{ID: "south", Name: "South Branch", Code: "BR-003", Location: "Port Harcourt Mall", Address: "789 Aba Road, Port Harcourt, Nigeria",
			Manager: "Chinedu Okafor", Phone: "+234 (0) 807 345 6789", Email: "south@inventorypro.ng",
			EstablishedDate: day("2021-08-10"), Status: entity.BranchStatusActive},
		{ID: "west", Name: "West Branch", Code: "BR-004", Location: "Ibadan Plaza", Address: "321 Dugbe Road, Ibadan, Nigeria",
			Manager: "Kemi Adeyemi", Phone: "+234 (0) 809 456 7890", Email: "west@inventorypro.ng",
			EstablishedDate: day("2022-05-15"), Status: entity.BranchStatusMaintenance},
	}
}

// Products catálogo de demostración.
func Products() []*entity.Product {
	return []*entity.Product{
		{ID: "PROD-001", Name: "iPhone 15 Pro", SKU: "IP15P-256-BLU", Category: entity.CategoryElectronics, Supplier: "Apple Inc.", Description: "iPhone 15 Pro 256GB Blue"},
		{ID: "PROD-002", Name: "Samsung Galaxy S24", SKU: "SGS24-128-BLK", Category: entity.CategoryElectronics, Supplier: "Samsung", Description: "Samsung Galaxy S24 128GB Black"},
		{ID: "PROD-003", Name: "Nike Air Max 270", SKU: "NAM270-42-WHT", Category: entity.CategoryFootwear, Supplier: "Nike", Description: "Nike Air Max 270 Size 42 White"},
		{ID: "PROD-004", Name: "MacBook Air M3", SKU: "MBA-M3-256-SLV", Category: entity.CategoryElectronics, Supplier: "Apple Inc.", Description: "MacBook Air M3 256GB Silver"},
		{ID: "PROD-005", Name: "Dell XPS 13", SKU: "DXP13-512-BLK", Category: entity.CategoryElectronics, Supplier: "Dell", Description: "Dell XPS 13 512GB Black"},
		{ID: "PROD-006", Name: "Sony WH-1000XM5", SKU: "SWXM5-BLK", Category: entity.CategoryElectronics, Supplier: "Sony", Description: "Sony WH-1000XM5 Headphones Black"},
		{ID: "PROD-007", Name: "Adidas Ultraboost", SKU: "AUB-43-BLU", Category: entity.CategoryFootwear, Supplier: "Adidas", Description: "Adidas Ultraboost Size 43 Blue"},
		{ID: "PROD-008", Name: "HP LaserJet Pro", SKU: "HLP-M404DN", Category: entity.CategoryElectronics, Supplier: "HP", Description: "HP LaserJet Pro M404dn Printer"},
	}
}

func batch(id, productID, branchID string, qty, cost, sell int64, expiry, purchase string) *entity.Batch {
	return &entity.Batch{
		ID: id, ProductID: productID, BranchID: branchID, Quantity: qty,
		CostPrice: money(cost), SellingPrice: moneyPtr(sell),
		ExpiryDate: dayPtr(expiry), PurchaseDate: day(purchase),
	}
}

// Batches lotes de demostración por sucursal.
func Batches() []*entity.Batch {
	return []*entity.Batch{
		batch("BTH-2024-001", "PROD-001", "main", 45, 372500, 455000, "2025-12-31", "2024-01-15"),
		batch("BTH-2024-002", "PROD-002", "main", 28, 310500, 372500, "2025-10-15", "2024-02-20"),
		batch("BTH-2024-003", "PROD-004", "main", 12, 455000, 538500, "2026-03-20", "2024-03-10"),
		batch("BTH-2024-004", "PROD-005", "main", 18, 425000, 515000, "2026-05-30", "2024-04-05"),
		batch("BTH-2024-005", "PROD-006", "main", 35, 82500, 125000, "2026-08-15", "2024-05-12"),

		batch("BTH-2024-006", "PROD-001", "north", 22, 372500, 455000, "2025-12-31", "2024-01-20"),
		batch("BTH-2024-007", "PROD-003", "north", 30, 36900, 58000, "2026-06-30", "2024-02-15"),
		batch("BTH-2024-008", "PROD-007", "north", 25, 41200, 65000, "2026-07-20", "2024-03-08"),

		batch("BTH-2024-009", "PROD-002", "south", 15, 310500, 372500, "2025-10-15", "2024-02-25"),
		batch("BTH-2024-010", "PROD-004", "south", 8, 455000, 538500, "2026-03-20", "2024-03-15"),
		batch("BTH-2024-011", "PROD-008", "south", 20, 103500, 155000, "2027-01-10", "2024-04-20"),

		batch("BTH-2024-012", "PROD-001", "west", 32, 372500, 455000, "2025-12-31", "2024-01-25"),
		batch("BTH-2024-013", "PROD-005", "west", 14, 425000, 515000, "2026-05-30", "2024-04-10"),
		batch("BTH-2024-014", "PROD-006", "west", 28, 82500, 125000, "2026-08-15", "2024-05-18"),
	}
}

// Users usuarios de demostración (sin hash).
func Users() []*entity.User {
	return []*entity.User{
		{ID: "1", Name: "Adebayo Johnson", Email: "admin@inventorypro.ng", Role: string(authz.RoleSuperAdmin)},
		{ID: "2", Name: "Fatima Abdullahi", Email: "fatima@inventorypro.ng", Role: string(authz.RoleBranchManager), BranchID: "north"},
		{ID: "3", Name: "Chinedu Okafor", Email: "chinedu@inventorypro.ng", Role: string(authz.RoleBranchManager), BranchID: "south"},
		{ID: "4", Name: "Kemi Adeyemi", Email: "kemi@inventorypro.ng", Role: string(authz.RoleSalesRep), BranchID: "main"},
		{ID: "5", Name: "Oluwaseun Bello", Email: "seun@inventorypro.ng", Role: string(authz.RoleSalesRep), BranchID: "west"},
	}
}

// Demo carga todo. Es idempotente: lo que ya existe (ErrDuplicate) se omite.
// Todos los usuarios comparten password.
func Demo(ctx context.Context, r Repos, password string, log zerolog.Logger) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed: hash password: %w", err)
	}

	created := 0
	skip := func(kind, id string, err error) error {
		if err == nil {
			created++
			return nil
		}
		if errors.Is(err, domain.ErrDuplicate) {
			log.Debug().Str("kind", kind).Str("id", id).Msg("seed: ya existe")
			return nil
		}
		return fmt.Errorf("seed %s %s: %w", kind, id, err)
	}

	for _, b := range Branches() {
		if err := skip("branch", b.ID, r.Branches.Create(ctx, b)); err != nil {
			return err
		}
	}
	for _, p := range Products() {
		if err := skip("product", p.ID, r.Products.Create(ctx, p)); err != nil {
			return err
		}
	}
	for _, b := range Batches() {
		if err := skip("batch", b.ID, r.Batches.Create(ctx, b)); err != nil {
			return err
		}
	}
	for _, u := range Users() {
		u.PasswordHash = string(hash)
		u.Status = entity.UserStatusActive
		if err := skip("user", u.ID, r.Users.Create(ctx, u)); err != nil {
			return err
		}
	}
	log.Info().Int("created", created).Msg("datos de demostración cargados")
	return nil
}
