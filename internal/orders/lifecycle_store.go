package orders

import (
	"context"
	"fmt"

	"github.com/viveo-rs/viveo-backend/internal/domain"
	"github.com/viveo-rs/viveo-backend/internal/lifecycle"
)

// LifecycleStore adapts the three per-kind repositories to the single
// lifecycle.Orders interface the transition manager works against.
type LifecycleStore struct {
	Video   *VideoOrderRepository
	Merch   *MerchOrderRepository
	Digital *DigitalOrderRepository
}

func NewLifecycleStore(video *VideoOrderRepository, merch *MerchOrderRepository, digital *DigitalOrderRepository) *LifecycleStore {
	return &LifecycleStore{Video: video, Merch: merch, Digital: digital}
}

func (s *LifecycleStore) Lifecycle(ctx context.Context, kind domain.OrderKind, id string) (lifecycle.Order, error) {
	switch kind {
	case domain.KindVideo:
		return s.Video.Lifecycle(ctx, id)
	case domain.KindMerch:
		return s.Merch.Lifecycle(ctx, id)
	case domain.KindDigital:
		return s.Digital.Lifecycle(ctx, id)
	default:
		return lifecycle.Order{}, fmt.Errorf("unknown order kind %q", kind)
	}
}

func (s *LifecycleStore) Apply(ctx context.Context, kind domain.OrderKind, id string, u lifecycle.Update) error {
	switch kind {
	case domain.KindVideo:
		return s.Video.Apply(ctx, id, u)
	case domain.KindMerch:
		return s.Merch.Apply(ctx, id, u)
	case domain.KindDigital:
		return s.Digital.Apply(ctx, id, u)
	default:
		return fmt.Errorf("unknown order kind %q", kind)
	}
}
