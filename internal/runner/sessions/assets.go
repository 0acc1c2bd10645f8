package sessions

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"vrz_bot/internal/models"
	"vrz_bot/pkg/logger"
)

const productsTTL = 30 * time.Minute

// ResolveAssets turns the asset selection mode into tradable futures.
func (s *UserSession) ResolveAssets(ctx context.Context) ([]models.Asset, error) {
	st := s.Settings()
	index, err := s.productIndex(ctx)
	if err != nil {
		return nil, err
	}

	var symbols []string
	switch st.AssetMode {
	case models.AssetsIndividual:
		symbols = st.SelectedAssets
	case models.AssetsGainers, models.AssetsLosers, models.AssetsBoth:
		movers, err := s.deps.Exchange.TopMovers(ctx, s.deps.TopMoversLimit)
		if err != nil {
			return nil, fmt.Errorf("top movers: %w", err)
		}
		if st.AssetMode != models.AssetsLosers {
			for _, t := range movers.Gainers {
				symbols = append(symbols, t.Symbol)
			}
		}
		if st.AssetMode != models.AssetsGainers {
			for _, t := range movers.Losers {
				symbols = append(symbols, t.Symbol)
			}
		}
	case models.AssetsAll:
		for sym := range index {
			symbols = append(symbols, sym)
		}
		sort.Strings(symbols)
	default:
		return nil, fmt.Errorf("unknown asset mode %q", st.AssetMode)
	}

	seen := make(map[string]struct{}, len(symbols))
	out := make([]models.Asset, 0, len(symbols))
	for _, raw := range symbols {
		sym := strings.ToUpper(strings.TrimSpace(raw))
		if _, dup := seen[sym]; dup || sym == "" {
			continue
		}
		seen[sym] = struct{}{}

		p, ok := index[sym]
		if !ok {
			logger.Warn("user %d: %s is not a live futures product, skipped", s.UserID, sym)
			continue
		}
		out = append(out, models.Asset{Symbol: p.Symbol, ProductID: p.ID, ContractValue: p.ContractValue, TickSize: p.TickSize})
	}
	return out, nil
}

func (s *UserSession) productIndex(ctx context.Context) (map[string]models.Product, error) {
	s.prodMu.Lock()
	defer s.prodMu.Unlock()

	if s.products != nil && s.now().Sub(s.productsAt) < productsTTL {
		return s.products, nil
	}

	products, err := s.deps.Exchange.Products(ctx)
	if err != nil {
		if s.products != nil {
			logger.Warn("products refresh failed, using cached list: %v", err)
			return s.products, nil
		}
		return nil, fmt.Errorf("products: %w", err)
	}

	index := make(map[string]models.Product, len(products))
	for _, p := range products {
		if !p.IsFuture() || (p.State != "" && p.State != "live") {
			continue
		}
		index[strings.ToUpper(p.Symbol)] = p
	}
	s.products, s.productsAt = index, s.now()
	return index, nil
}
