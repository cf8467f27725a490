// Package analytics contiene los casos de uso de reportes: valor del inventario por
// sucursal y rentabilidad por lote.
package analytics

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventorypro-ledger/internal/application/dto"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// DashboardUseCase genera el resumen del valor del inventario.
//
// Fuente de datos: repositorios de sucursales y lotes (consultas read-only).
type DashboardUseCase struct {
	branchRepo repository.BranchRepository
	batchRepo  repository.BatchRepository
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(branchRepo repository.BranchRepository, batchRepo repository.BatchRepository) *DashboardUseCase {
	return &DashboardUseCase{branchRepo: branchRepo, batchRepo: batchRepo}
}

// GetSummary valor al costo por sucursal y total. branchID vacío: todas las sucursales.
//
// Dos llamadas en paralelo:
//  1. branchRepo.List        → nombres y orden de las sucursales
//  2. batchRepo.ListByBranch → lotes (agotados incluidos, valen cero)
func (uc *DashboardUseCase) GetSummary(ctx context.Context, branchID string) (*dto.DashboardSummary, error) {
	type branchesResult struct {
		branches []*entity.Branch
		err      error
	}
	type batchesResult struct {
		batches []*entity.Batch
		err     error
	}

	branchesCh := make(chan branchesResult, 1)
	batchesCh := make(chan batchesResult, 1)

	go func() {
		b, err := uc.branchRepo.List(ctx)
		branchesCh <- branchesResult{b, err}
	}()
	go func() {
		b, err := uc.batchRepo.ListByBranch(ctx, branchID)
		batchesCh <- batchesResult{b, err}
	}()

	branches := <-branchesCh
	batches := <-batchesCh

	if branches.err != nil {
		return nil, fmt.Errorf("dashboard: sucursales: %w", branches.err)
	}
	if batches.err != nil {
		return nil, fmt.Errorf("dashboard: lotes: %w", batches.err)
	}

	// ── Agrupar por sucursal ──────────────────────────────────────────────────
	byBranch := make(map[string][]*entity.Batch)
	for _, b := range batches.batches {
		byBranch[b.BranchID] = append(byBranch[b.BranchID], b)
	}

	out := &dto.DashboardSummary{
		Branches:   make([]dto.BranchValue, 0, len(branches.branches)),
		TotalValue: decimal.Zero,
	}
	for _, br := range branches.branches {
		if branchID != "" && br.ID != branchID {
			continue
		}
		list := byBranch[br.ID]
		var units int64
		for _, b := range list {
			units += b.Quantity
		}
		value := inventory.StockValue(list)
		out.Branches = append(out.Branches, dto.BranchValue{
			BranchID:   br.ID,
			BranchName: br.Name,
			Value:      value,
			Batches:    len(list),
			Units:      units,
		})
		out.TotalValue = out.TotalValue.Add(value)
		out.TotalUnits += units
	}
	return out, nil
}
