package services

import (
	"context"

	"github.com/nimeshabuddhika/treasury-desk/pkg"
	"github.com/nimeshabuddhika/treasury-desk/pkg/models"
	"github.com/nimeshabuddhika/treasury-desk/pkg/repositories"
	"github.com/nimeshabuddhika/treasury-desk/pkg/views"
	"github.com/nimeshabuddhika/treasury-desk/services/order-api/internal/clock"
	"github.com/nimeshabuddhika/treasury-desk/services/order-api/internal/observability"
	"github.com/nimeshabuddhika/treasury-desk/services/order-api/internal/validation"
	"go.uber.org/zap"
)

type OrderService interface {
	// SubmitOrder validates and stores an order. Identical submissions create distinct orders.
	SubmitOrder(ctx context.Context, traceID string, req views.OrderRequest) (models.Order, error)
	// ListOrders returns every stored order ascending by id.
	ListOrders(ctx context.Context, traceID string) ([]models.Order, error)
	GetOrder(ctx context.Context, traceID string, id int64) (models.Order, error)
}

type OrderServiceImpl struct {
	logger     *zap.Logger
	validator  *validation.OrderValidator
	orderRepo  repositories.OrderRepository
	publishers []OrderEventPublisher
	clock      clock.Clock
}

func NewOrderService(logger *zap.Logger, orderRepo repositories.OrderRepository, clk clock.Clock, publishers ...OrderEventPublisher) OrderService {
	return &OrderServiceImpl{
		logger:     logger,
		validator:  validation.NewOrderValidator(),
		orderRepo:  orderRepo,
		publishers: publishers,
		clock:      clk,
	}
}

func (s *OrderServiceImpl) SubmitOrder(ctx context.Context, traceID string, req views.OrderRequest) (models.Order, error) {
	draft, err := s.validator.Validate(req)
	if err != nil {
		observability.OrdersSubmitted.WithLabelValues("rejected").Inc()
		return models.Order{}, err
	}

	order, err := s.orderRepo.Create(ctx, draft, s.clock.Now())
	if err != nil {
		observability.OrdersSubmitted.WithLabelValues("failed").Inc()
		return models.Order{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	observability.OrdersSubmitted.WithLabelValues("created").Inc()
	s.logger.Info("order_created",
		zap.String(pkg.TraceId, traceID),
		zap.Int64(pkg.OrderId, order.ID),
		zap.String("side", string(order.Side)),
		zap.String("tenor", string(order.Tenor)),
		zap.String("issuance_type", string(order.IssuanceType)),
		zap.Int64("quantity", order.Quantity),
		zap.String("yield", order.Yield.String()),
	)

	s.publish(ctx, traceID, order.ToEvent(traceID))
	return order, nil
}

func (s *OrderServiceImpl) ListOrders(ctx context.Context, traceID string) ([]models.Order, error) {
	orders, err := s.orderRepo.FindAll(ctx)
	if err != nil {
		return nil, pkg.HandleSQLError(traceID, s.logger, err)
	}
	return orders, nil
}

func (s *OrderServiceImpl) GetOrder(ctx context.Context, traceID string, id int64) (models.Order, error) {
	order, err := s.orderRepo.FindById(ctx, id)
	if err != nil {
		return models.Order{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	return order, nil
}

// publish is best effort: the order is already stored, so sink failures are only logged.
func (s *OrderServiceImpl) publish(ctx context.Context, traceID string, event views.OrderEvent) {
	for _, p := range s.publishers {
		if err := p.PublishOrderEvent(ctx, event); err != nil {
			observability.OrderEventsPublished.WithLabelValues(p.Name(), "failed").Inc()
			s.logger.Error("order_event_publish_failed",
				zap.String(pkg.TraceId, traceID),
				zap.Int64(pkg.OrderId, event.Order.ID),
				zap.String("sink", p.Name()),
				zap.Error(err))
			continue
		}
		observability.OrderEventsPublished.WithLabelValues(p.Name(), "ok").Inc()
	}
}
