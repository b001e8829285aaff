package service

import (
	"context"

	"github.com/segmentio/ksuid"

	"github.com/markwave/liveservices/internal/domain"
)

// PurchaseStore is the persistence contract required by the purchase service.
type PurchaseStore interface {
	RecordPurchase(ctx context.Context, purchase domain.Purchase) error
}

// PurchaseService records purchase facts against users.
type PurchaseService struct {
	store PurchaseStore
	idFn  func() string
}

// NewPurchaseService constructs a PurchaseService backed by the supplied store.
func NewPurchaseService(store PurchaseStore) *PurchaseService {
	return &PurchaseService{
		store: store,
		idFn:  newPurchaseID,
	}
}

// WithIDGenerator overrides the purchase identifier source (used in tests).
func (s *PurchaseService) WithIDGenerator(fn func() string) {
	if fn != nil {
		s.idFn = fn
	}
}

// Record assigns the purchase a fresh identifier and appends it to the graph.
func (s *PurchaseService) Record(ctx context.Context, userMobile, item, details string) (string, error) {
	purchase := domain.Purchase{
		ID:         s.idFn(),
		UserMobile: userMobile,
		Item:       item,
		Details:    details,
	}
	if err := s.store.RecordPurchase(ctx, purchase); err != nil {
		return "", err
	}
	return purchase.ID, nil
}

func newPurchaseID() string {
	return ksuid.New().String()
}
