package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/econtract/backend/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PricingService manages contract price rules and resolves effective unit
// prices for billable work
type PricingService struct {
	priceRepo pricing.Repository
	logger    *zap.Logger
}

// NewPricingService creates a new PricingService
func NewPricingService(priceRepo pricing.Repository, logger *zap.Logger) *PricingService {
	return &PricingService{
		priceRepo: priceRepo,
		logger:    logger,
	}
}

// CreatePriceRequest represents a request to create a price rule
type CreatePriceRequest struct {
	ContractID   uuid.UUID
	Category     string
	Description  string
	UnitPriceNet decimal.Decimal
	Unit         string
	ValidFrom    time.Time
	ValidTo      *time.Time
}

// TierRequest represents one quantity tier on a price rule
type TierRequest struct {
	MinQuantity decimal.Decimal
	MaxQuantity *decimal.Decimal
	UnitPrice   decimal.Decimal
}

// CreatePrice creates a price rule with optional quantity tiers
func (s *PricingService) CreatePrice(ctx context.Context, req CreatePriceRequest, tiers []TierRequest) (*pricing.ContractPrice, error) {
	price, err := pricing.NewContractPrice(req.ContractID, req.Category, req.Description,
		req.UnitPriceNet, req.Unit, req.ValidFrom, req.ValidTo)
	if err != nil {
		return nil, err
	}
	for _, t := range tiers {
		if _, err := price.AddTier(t.MinQuantity, t.MaxQuantity, t.UnitPrice); err != nil {
			return nil, err
		}
	}

	if err := s.priceRepo.Save(ctx, price); err != nil {
		return nil, fmt.Errorf("failed to save price rule: %w", err)
	}

	s.logger.Info("price rule created",
		zap.String("price_id", price.ID.String()),
		zap.String("contract_id", req.ContractID.String()),
		zap.String("category", req.Category))
	return price, nil
}

// UpdatePriceRequest represents a request to update a price rule. Category
// and currency are fixed at creation; a different category is a new rule.
type UpdatePriceRequest struct {
	Description  string
	UnitPriceNet decimal.Decimal
	Unit         string
	ValidFrom    time.Time
	ValidTo      *time.Time
}

// UpdatePrice changes a price rule's details and validity window
func (s *PricingService) UpdatePrice(ctx context.Context, priceID uuid.UUID, req UpdatePriceRequest) (*pricing.ContractPrice, error) {
	price, err := s.priceRepo.FindByID(ctx, priceID)
	if err != nil {
		return nil, err
	}
	if err := price.UpdateDetails(req.Description, req.UnitPriceNet, req.Unit); err != nil {
		return nil, err
	}
	if err := price.UpdateValidity(req.ValidFrom, req.ValidTo); err != nil {
		return nil, err
	}
	if err := s.priceRepo.Save(ctx, price); err != nil {
		return nil, fmt.Errorf("failed to save price rule: %w", err)
	}

	s.logger.Info("price rule updated", zap.String("price_id", price.ID.String()))
	return price, nil
}

// DeletePrice removes a price rule and its tiers
func (s *PricingService) DeletePrice(ctx context.Context, priceID uuid.UUID) error {
	if err := s.priceRepo.Delete(ctx, priceID); err != nil {
		return err
	}
	s.logger.Info("price rule deleted", zap.String("price_id", priceID.String()))
	return nil
}

// GetPrice loads a price rule by ID
func (s *PricingService) GetPrice(ctx context.Context, id uuid.UUID) (*pricing.ContractPrice, error) {
	return s.priceRepo.FindByID(ctx, id)
}

// ListPricesByContract returns all price rules of a contract
func (s *PricingService) ListPricesByContract(ctx context.Context, contractID uuid.UUID) ([]*pricing.ContractPrice, error) {
	return s.priceRepo.FindByContract(ctx, contractID)
}

// AddTier appends a quantity tier to an existing price rule
func (s *PricingService) AddTier(ctx context.Context, priceID uuid.UUID, req TierRequest) (*pricing.ContractPrice, error) {
	price, err := s.priceRepo.FindByID(ctx, priceID)
	if err != nil {
		return nil, err
	}
	if _, err := price.AddTier(req.MinQuantity, req.MaxQuantity, req.UnitPrice); err != nil {
		return nil, err
	}
	if err := s.priceRepo.Save(ctx, price); err != nil {
		return nil, fmt.Errorf("failed to save price rule: %w", err)
	}
	return price, nil
}

// RemoveTier deletes a quantity tier from a price rule
func (s *PricingService) RemoveTier(ctx context.Context, priceID, tierID uuid.UUID) (*pricing.ContractPrice, error) {
	price, err := s.priceRepo.FindByID(ctx, priceID)
	if err != nil {
		return nil, err
	}
	if err := price.RemoveTier(tierID); err != nil {
		return nil, err
	}
	if err := s.priceRepo.Save(ctx, price); err != nil {
		return nil, fmt.Errorf("failed to save price rule: %w", err)
	}
	return price, nil
}

// DeactivatePrice retires a price rule without deleting its history
func (s *PricingService) DeactivatePrice(ctx context.Context, priceID uuid.UUID) error {
	price, err := s.priceRepo.FindByID(ctx, priceID)
	if err != nil {
		return err
	}
	price.Deactivate()
	if err := s.priceRepo.Save(ctx, price); err != nil {
		return fmt.Errorf("failed to save price rule: %w", err)
	}
	return nil
}

// ResolveUnitPrice finds the effective unit price for a service category on
// a given date, applying quantity tiers when a quantity is supplied. Fails
// with a not found error when no rule is valid on the date.
func (s *PricingService) ResolveUnitPrice(ctx context.Context, contractID uuid.UUID, category string, quantity *decimal.Decimal, serviceDate time.Time) (*pricing.ResolvedPrice, error) {
	candidates, err := s.priceRepo.FindValidOn(ctx, contractID, category, serviceDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load price rules: %w", err)
	}
	return pricing.Resolve(candidates, category, quantity, serviceDate)
}
