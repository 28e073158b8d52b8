package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/datner/renu-sub001/clog"
	"github.com/datner/renu-sub001/connector"
	"github.com/datner/renu-sub001/internal/domain"
	"github.com/datner/renu-sub001/xerrors"
)

// GormStore 基于 GORM 的仓储实现
// 同时实现 OrderRepository 和 IntegrationRepository。
type GormStore struct {
	conn   connector.TypedConnector[*gorm.DB]
	logger clog.Logger
}

// NewGorm 创建 GORM 仓储
// conn 通常是 connector.NewMySQL 的产物；测试用 connector.NewSQLite。
func NewGorm(conn connector.TypedConnector[*gorm.DB], logger clog.Logger) (*GormStore, error) {
	if conn == nil {
		return nil, xerrors.New("store: connector is nil")
	}
	if logger == nil {
		logger = clog.Discard()
	}
	return &GormStore{conn: conn, logger: logger.WithNamespace("store")}, nil
}

// AutoMigrate 建表（部署与测试入口调用）
func (s *GormStore) AutoMigrate(ctx context.Context) error {
	db := s.conn.GetClient()
	if db == nil {
		return connector.ErrNotConnected
	}
	return db.WithContext(ctx).AutoMigrate(
		&domain.Order{},
		&domain.ClearingIntegration{},
		&domain.ManagementIntegration{},
	)
}

// GetOrder 按 ID 加载订单
func (s *GormStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	db := s.conn.GetClient()
	if db == nil {
		return nil, connector.ErrNotConnected
	}

	var order domain.Order
	err := db.WithContext(ctx).First(&order, "id = ?", id).Error
	if err != nil {
		if xerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerrors.Wrapf(domain.ErrOrderNotFound, "id %s", id)
		}
		return nil, xerrors.Wrap(err, "store: get order")
	}
	return &order, nil
}

// SetOrderState 条件迁移订单状态
func (s *GormStore) SetOrderState(ctx context.Context, id string, from, to domain.OrderState) error {
	if !to.Valid() {
		return xerrors.Wrapf(domain.ErrInvalidTransition, "unknown target state %s", to)
	}
	if !from.CanTransition(to) {
		return xerrors.Wrapf(domain.ErrInvalidTransition, "%s -> %s", from, to)
	}
	if from == to {
		return nil
	}

	db := s.conn.GetClient()
	if db == nil {
		return connector.ErrNotConnected
	}

	res := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND state = ?", id, from).
		Update("state", to)
	if res.Error != nil {
		return xerrors.Wrap(res.Error, "store: set order state")
	}
	if res.RowsAffected > 0 {
		s.logger.Info("order state updated",
			clog.String("order_id", id),
			clog.String("from", string(from)),
			clog.String("to", string(to)))
		return nil
	}

	// 条件没命中：回读判定是幂等重放还是冲突
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if order.State == to {
		return nil
	}
	return xerrors.Wrapf(domain.ErrInvalidTransition,
		"expected %s, order %s is %s", from, id, order.State)
}

// SetTransactionID 只写一次交易号
func (s *GormStore) SetTransactionID(ctx context.Context, id string, transactionID string) error {
	if transactionID == "" {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "store: empty transaction id")
	}

	db := s.conn.GetClient()
	if db == nil {
		return connector.ErrNotConnected
	}

	res := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND (transaction_id = '' OR transaction_id = ?)", id, transactionID).
		Update("transaction_id", transactionID)
	if res.Error != nil {
		return xerrors.Wrap(res.Error, "store: set transaction id")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if order.TransactionID == transactionID {
		return nil
	}
	return xerrors.Wrapf(domain.ErrTransactionIDSet,
		"order %s already has transaction %s", id, order.TransactionID)
}

// GetClearingIntegration 按 ID 加载清算集成配置
func (s *GormStore) GetClearingIntegration(ctx context.Context, id string) (*domain.ClearingIntegration, error) {
	db := s.conn.GetClient()
	if db == nil {
		return nil, connector.ErrNotConnected
	}

	var integration domain.ClearingIntegration
	err := db.WithContext(ctx).First(&integration, "id = ?", id).Error
	if err != nil {
		if xerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerrors.Wrapf(domain.ErrIntegrationNotFound, "clearing integration %s", id)
		}
		return nil, xerrors.Wrap(err, "store: get clearing integration")
	}
	return &integration, nil
}

// GetManagementIntegrationByVenue 按门店加载管理端集成配置
func (s *GormStore) GetManagementIntegrationByVenue(ctx context.Context, venueID string) (*domain.ManagementIntegration, error) {
	db := s.conn.GetClient()
	if db == nil {
		return nil, connector.ErrNotConnected
	}

	var integration domain.ManagementIntegration
	err := db.WithContext(ctx).First(&integration, "venue_id = ?", venueID).Error
	if err != nil {
		if xerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerrors.Wrapf(domain.ErrIntegrationNotFound, "management integration for venue %s", venueID)
		}
		return nil, xerrors.Wrap(err, "store: get management integration")
	}
	return &integration, nil
}
