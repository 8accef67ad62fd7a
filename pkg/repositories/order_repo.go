package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/treasury-desk/pkg/database"
	"github.com/nimeshabuddhika/treasury-desk/pkg/models"
)

// OrderRepository is the append-only order store. Ids are assigned by the store,
// strictly increasing and never reused.
type OrderRepository interface {
	// Create stores a validated draft stamped with createdAt and returns it with its id.
	Create(ctx context.Context, draft models.OrderDraft, createdAt time.Time) (models.Order, error)
	// FindAll returns every order ascending by id.
	FindAll(ctx context.Context) ([]models.Order, error)
	// FindById returns pkg.ErrRecordNotFound or pgx.ErrNoRows when absent.
	FindById(ctx context.Context, id int64) (models.Order, error)
}

type OrderRepositoryImpl struct {
	db *database.DB
}

func NewOrderRepository(db *database.DB) OrderRepository {
	return &OrderRepositoryImpl{db: db}
}

const orderColumns = `id, side, tenor, issuance_type, quantity, yield, notes, created_at, updated_at`

// Create relies on the BIGSERIAL sequence for id assignment, so concurrent inserts never share an id.
func (o OrderRepositoryImpl) Create(ctx context.Context, draft models.OrderDraft, createdAt time.Time) (models.Order, error) {
	var order models.Order
	err := o.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
						INSERT INTO orders (side, tenor, issuance_type, quantity, yield, notes, created_at, updated_at)
						VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
						RETURNING `+orderColumns,
			draft.Side,
			draft.Tenor,
			draft.IssuanceType,
			draft.Quantity,
			draft.Yield,
			draft.Notes,
			createdAt,
		)
		var err error
		order, err = scanOrder(row)
		return err
	})
	return order, err
}

func (o OrderRepositoryImpl) FindAll(ctx context.Context) ([]models.Order, error) {
	rows, err := o.db.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (o OrderRepositoryImpl) FindById(ctx context.Context, id int64) (models.Order, error) {
	return scanOrder(o.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

func scanOrder(row pgx.Row) (models.Order, error) {
	var (
		order        models.Order
		side         string
		tenor        string
		issuanceType string
	)
	err := row.Scan(
		&order.ID,
		&side,
		&tenor,
		&issuanceType,
		&order.Quantity,
		&order.Yield,
		&order.Notes,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return models.Order{}, err
	}
	order.Side = models.Side(side)
	order.Tenor = models.Tenor(tenor)
	order.IssuanceType = models.IssuanceType(issuanceType)
	return order, nil
}
