// Package usecase implements the business logic for symbol-related operations.
package usecase

import (
	"context"
	"strings"

	"chart_backend/internal/feature/symbollist/domain/entity"
)

// SymbolRepository abstracts the persistence layer for symbol data.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type SymbolRepository interface {
	ListActive(ctx context.Context) ([]entity.Symbol, error)
	ListActiveCodes(ctx context.Context) ([]string, error)
	InsertMissing(ctx context.Context, symbols []entity.Symbol) error
}

// SymbolUsecase provides business logic for symbol operations.
type SymbolUsecase struct {
	repo SymbolRepository
}

// NewSymbolUsecase creates a new SymbolUsecase with the given repository.
func NewSymbolUsecase(r SymbolRepository) *SymbolUsecase {
	return &SymbolUsecase{repo: r}
}

// ListActiveSymbols はアクティブな銘柄のうち query に一致するものを sort_key 順で返します。
func (u *SymbolUsecase) ListActiveSymbols(ctx context.Context, query string) ([]entity.Symbol, error) {
	symbols, err := u.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return symbols, nil
	}
	out := make([]entity.Symbol, 0, len(symbols))
	for _, s := range symbols {
		if s.Matches(query) {
			out = append(out, s)
		}
	}
	return out, nil
}

// ActiveCodes returns the codes ingest should pull, in display order.
func (u *SymbolUsecase) ActiveCodes(ctx context.Context) ([]string, error) {
	return u.repo.ListActiveCodes(ctx)
}

// Register は codes のうち未登録のものを有効な銘柄として追加します。
// 名称は後から更新される前提でコードを仮の名称にします。
func (u *SymbolUsecase) Register(ctx context.Context, codes []string) error {
	symbols := make([]entity.Symbol, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		symbols = append(symbols, entity.Symbol{
			Code:     c,
			Name:     c,
			IsActive: true,
			SortKey:  len(symbols) + 1,
		})
	}
	return u.repo.InsertMissing(ctx, symbols)
}
