package gateway

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/puntosclub/kiosk-backend/pkg/db/models"
	pkgerrors "github.com/puntosclub/kiosk-backend/pkg/errors"
)

func openGatewayDB(t *testing.T) *GormGateway {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "open sqlite")

	ddl := []string{
		`CREATE TABLE clients (
			id text PRIMARY KEY,
			phone text NOT NULL UNIQUE,
			name text NOT NULL,
			email text,
			role text NOT NULL DEFAULT 'client',
			points_balance integer NOT NULL DEFAULT 0,
			secret_hash text NOT NULL,
			created_at datetime,
			updated_at datetime
		)`,
		`CREATE TABLE prizes (
			id text PRIMARY KEY,
			name text NOT NULL,
			points integer NOT NULL,
			created_at datetime,
			updated_at datetime
		)`,
		`CREATE TABLE sales (
			id text PRIMARY KEY,
			client_id text NOT NULL,
			amount numeric NOT NULL,
			points_earned integer NOT NULL,
			items text NOT NULL,
			created_at datetime
		)`,
	}
	for _, stmt := range ddl {
		require.NoError(t, conn.Exec(stmt).Error, "create schema")
	}

	return NewGorm(conn)
}

func seedClient(t *testing.T, gw *GormGateway, phone string, balance int) *models.Client {
	t.Helper()
	client := &models.Client{
		ID:            uuid.New(),
		Phone:         phone,
		Name:          "Gateway Tester",
		PointsBalance: balance,
		SecretHash:    "hash",
		Role:          "client",
	}
	require.NoError(t, gw.Insert(context.Background(), TableClients, client))
	return client
}

func TestInsertAndQueryOne(t *testing.T) {
	gw := openGatewayDB(t)
	seeded := seedClient(t, gw, "+34600000001", 45)

	var got models.Client
	err := gw.QueryOne(context.Background(), TableClients, map[string]any{"id": seeded.ID}, &got)
	require.NoError(t, err)
	require.Equal(t, seeded.Phone, got.Phone)
	require.Equal(t, 45, got.PointsBalance)
}

func TestQueryOneMissingRowIsNotFound(t *testing.T) {
	gw := openGatewayDB(t)

	var got models.Client
	err := gw.QueryOne(context.Background(), TableClients, map[string]any{"id": uuid.New()}, &got)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestQueryWithOrderAndLimit(t *testing.T) {
	gw := openGatewayDB(t)
	ctx := context.Background()

	for i, points := range []int{100, 20, 50} {
		prize := &models.Prize{
			ID:     uuid.New(),
			Name:   fmt.Sprintf("Prize %d", i),
			Points: points,
		}
		require.NoError(t, gw.Insert(ctx, TablePrizes, prize))
	}

	var prizes []models.Prize
	err := gw.Query(ctx, TablePrizes, nil, &prizes, WithOrder("points ASC"), WithLimit(2))
	require.NoError(t, err)
	require.Len(t, prizes, 2)
	require.Equal(t, 20, prizes[0].Points)
	require.Equal(t, 50, prizes[1].Points)
}

func TestQueryWithCursorCondition(t *testing.T) {
	gw := openGatewayDB(t)
	ctx := context.Background()
	client := seedClient(t, gw, "+34600000002", 0)

	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		sale := &models.Sale{
			ID:           uuid.New(),
			ClientID:     client.ID,
			Amount:       decimal.RequireFromString("10.89"),
			PointsEarned: 10,
			Items:        nil,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, gw.Insert(ctx, TableSales, sale))
	}

	var sales []models.Sale
	err := gw.Query(ctx, TableSales,
		map[string]any{"client_id": client.ID},
		&sales,
		WithCondition("created_at < ?", base.Add(2*time.Minute)),
		WithOrder("created_at DESC"),
	)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	require.True(t, sales[0].CreatedAt.After(sales[1].CreatedAt))
}

func TestUpdateAffectsMatchingRows(t *testing.T) {
	gw := openGatewayDB(t)
	ctx := context.Background()
	client := seedClient(t, gw, "+34600000003", 45)

	affected, err := gw.Update(ctx, TableClients,
		map[string]any{"id": client.ID},
		map[string]any{"points_balance": 55},
	)
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)

	var got models.Client
	require.NoError(t, gw.QueryOne(ctx, TableClients, map[string]any{"id": client.ID}, &got))
	require.Equal(t, 55, got.PointsBalance)
}

func TestUpdateRequiresFilterAndPatch(t *testing.T) {
	gw := openGatewayDB(t)
	ctx := context.Background()

	_, err := gw.Update(ctx, TableClients, nil, map[string]any{"points_balance": 1})
	require.Error(t, err)

	_, err = gw.Update(ctx, TableClients, map[string]any{"id": uuid.New()}, nil)
	require.Error(t, err)
}

func TestDeleteRemovesRow(t *testing.T) {
	gw := openGatewayDB(t)
	ctx := context.Background()
	client := seedClient(t, gw, "+34600000004", 0)

	affected, err := gw.Delete(ctx, TableClients, map[string]any{"id": client.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)

	var got models.Client
	err = gw.QueryOne(ctx, TableClients, map[string]any{"id": client.ID}, &got)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestUnknownTableRejected(t *testing.T) {
	gw := openGatewayDB(t)

	var dest []models.Client
	require.Error(t, gw.Query(context.Background(), "invoices", nil, &dest))
	require.Error(t, gw.Insert(context.Background(), "invoices", &models.Client{}))
}

func TestCallProcedureRejectsNonIdentifierNames(t *testing.T) {
	gw := openGatewayDB(t)

	err := gw.CallProcedure(context.Background(), "decrement_stock; DROP TABLE clients", uuid.New(), 1)
	require.Error(t, err)
}

// Postgres-only: exercises the real decrement_stock function.
func TestCallProcedureDecrementStock(t *testing.T) {
	dsn := os.Getenv("PUNTOSCLUB_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("PUNTOSCLUB_TEST_DB_DSN is not set")
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open test db")
	gw := NewGorm(conn)
	ctx := context.Background()

	product := &models.Product{
		ID:    uuid.New(),
		Name:  "Cafe",
		Price: decimal.RequireFromString("2.00"),
		Stock: 5,
	}
	require.NoError(t, gw.Insert(ctx, TableProducts, product))
	t.Cleanup(func() {
		_, _ = gw.Delete(ctx, TableProducts, map[string]any{"id": product.ID})
	})

	require.NoError(t, gw.CallProcedure(ctx, "decrement_stock", product.ID, 3))

	var got models.Product
	require.NoError(t, gw.QueryOne(ctx, TableProducts, map[string]any{"id": product.ID}, &got))
	require.Equal(t, 2, got.Stock)

	// floor at zero
	require.NoError(t, gw.CallProcedure(ctx, "decrement_stock", product.ID, 10))
	require.NoError(t, gw.QueryOne(ctx, TableProducts, map[string]any{"id": product.ID}, &got))
	require.Equal(t, 0, got.Stock)
}
