package service

import (
	"context"
	"time"

	"github.com/prasetyow/product-catalog-service/internal/platform/logger"
)

func (s *productServiceImpl) initScheduler() {
	spec := "0 0 3 * * *" // daily at 03:00
	s.scheduler.AddFunc(spec, func() {
		s.PurgeExpiredDiscounts(context.Background())
	})
	s.scheduler.Start()
	logger.Info("Discount purge scheduler initialized with spec %q and retention %v", spec, s.discountRetention)
}

// PurgeExpiredDiscounts deletes discounts whose window closed more than the
// retention period ago. Active and open-ended discounts are never touched;
// this is housekeeping, not pricing.
func (s *productServiceImpl) PurgeExpiredDiscounts(ctx context.Context) {
	cutoff := time.Now().Add(-s.discountRetention)
	deleted, err := s.productRepo.DeleteDiscountsEndedBefore(ctx, cutoff)
	if err != nil {
		logger.Error("PurgeExpiredDiscounts: delete failed", err)
		return
	}
	if deleted > 0 {
		logger.Info("PurgeExpiredDiscounts: removed %d discounts ended before %v", deleted, cutoff)
	}
}
