package gateway

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/puntosclub/kiosk-backend/pkg/db/models"
	pkgerrors "github.com/puntosclub/kiosk-backend/pkg/errors"
)

// Table names routable through the gateway.
const (
	TableClients     = "clients"
	TableProducts    = "products"
	TablePrizes      = "prizes"
	TableSales       = "sales"
	TableRedemptions = "redemptions"
	TableOffers      = "offers"
)

var tableModels = map[string]func() any{
	TableClients:     func() any { return &models.Client{} },
	TableProducts:    func() any { return &models.Product{} },
	TablePrizes:      func() any { return &models.Prize{} },
	TableSales:       func() any { return &models.Sale{} },
	TableRedemptions: func() any { return &models.Redemption{} },
	TableOffers:      func() any { return &models.Offer{} },
}

var procedureNameRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Gateway is the single persistence surface for domain services. Callers
// address rows by table name and filter maps; dest is a pointer to a model
// or a slice of models.
type Gateway interface {
	Query(ctx context.Context, table string, filter map[string]any, dest any, opts ...QueryOpt) error
	QueryOne(ctx context.Context, table string, filter map[string]any, dest any) error
	Insert(ctx context.Context, table string, rows any) error
	Update(ctx context.Context, table string, filter map[string]any, patch map[string]any) (int64, error)
	Delete(ctx context.Context, table string, filter map[string]any) (int64, error)
	CallProcedure(ctx context.Context, name string, args ...any) error
}

type queryOptions struct {
	order      string
	limit      int
	conditions []condition
}

type condition struct {
	expr string
	args []any
}

// QueryOpt refines a Query beyond the equality filter map.
type QueryOpt func(*queryOptions)

// WithOrder applies an ORDER BY clause.
func WithOrder(order string) QueryOpt {
	return func(o *queryOptions) { o.order = order }
}

// WithLimit caps the number of rows returned.
func WithLimit(limit int) QueryOpt {
	return func(o *queryOptions) { o.limit = limit }
}

// WithCondition adds a raw predicate, used for cursor pagination bounds.
func WithCondition(expr string, args ...any) QueryOpt {
	return func(o *queryOptions) {
		o.conditions = append(o.conditions, condition{expr: expr, args: args})
	}
}

// GormGateway implements Gateway over a GORM connection.
type GormGateway struct {
	db *gorm.DB
}

// NewGorm builds the gateway over the provided GORM connection.
func NewGorm(db *gorm.DB) *GormGateway {
	return &GormGateway{db: db}
}

func (g *GormGateway) Query(ctx context.Context, table string, filter map[string]any, dest any, opts ...QueryOpt) error {
	if err := validateTable(table); err != nil {
		return err
	}

	var options queryOptions
	for _, opt := range opts {
		opt(&options)
	}

	tx := g.db.WithContext(ctx).Table(table)
	if len(filter) > 0 {
		tx = tx.Where(filter)
	}
	for _, cond := range options.conditions {
		tx = tx.Where(cond.expr, cond.args...)
	}
	if options.order != "" {
		tx = tx.Order(options.order)
	}
	if options.limit > 0 {
		tx = tx.Limit(options.limit)
	}
	return tx.Find(dest).Error
}

// QueryOne is Query specialized to a single required row; a missing row
// surfaces as NOT_FOUND instead of an empty result.
func (g *GormGateway) QueryOne(ctx context.Context, table string, filter map[string]any, dest any) error {
	if err := validateTable(table); err != nil {
		return err
	}

	tx := g.db.WithContext(ctx).Table(table)
	if len(filter) > 0 {
		tx = tx.Where(filter)
	}
	if err := tx.First(dest).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s row not found", strings.TrimSuffix(table, "s")))
		}
		return err
	}
	return nil
}

func (g *GormGateway) Insert(ctx context.Context, table string, rows any) error {
	if err := validateTable(table); err != nil {
		return err
	}
	return g.db.WithContext(ctx).Table(table).Create(rows).Error
}

func (g *GormGateway) Update(ctx context.Context, table string, filter map[string]any, patch map[string]any) (int64, error) {
	if err := validateTable(table); err != nil {
		return 0, err
	}
	if len(filter) == 0 {
		return 0, fmt.Errorf("update on %s requires a filter", table)
	}
	if len(patch) == 0 {
		return 0, fmt.Errorf("update on %s requires a patch", table)
	}

	res := g.db.WithContext(ctx).Table(table).Where(filter).Updates(patch)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (g *GormGateway) Delete(ctx context.Context, table string, filter map[string]any) (int64, error) {
	if err := validateTable(table); err != nil {
		return 0, err
	}
	if len(filter) == 0 {
		return 0, fmt.Errorf("delete on %s requires a filter", table)
	}

	res := g.db.WithContext(ctx).Where(filter).Delete(tableModels[table]())
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// CallProcedure invokes a stored SQL function by name. Only identifier-shaped
// names are accepted; arguments go through placeholders.
func (g *GormGateway) CallProcedure(ctx context.Context, name string, args ...any) error {
	if !procedureNameRe.MatchString(name) {
		return fmt.Errorf("invalid procedure name %q", name)
	}

	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = "?"
	}
	stmt := fmt.Sprintf("SELECT %s(%s)", name, strings.Join(placeholders, ", "))
	return g.db.WithContext(ctx).Exec(stmt, args...).Error
}

func validateTable(table string) error {
	if _, ok := tableModels[table]; !ok {
		return fmt.Errorf("unknown table %q", table)
	}
	return nil
}
