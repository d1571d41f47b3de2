package handler

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bookcourier/internal/model"
)

// txRecorder observes transaction outcomes on the stub database.
type txRecorder struct {
	commits   int
	rollbacks int
}

type stubTx struct{ rec *txRecorder }

func (t stubTx) Commit() error   { t.rec.commits++; return nil }
func (t stubTx) Rollback() error { t.rec.rollbacks++; return nil }

type stubConn struct{ rec *txRecorder }

func (stubConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("unexpected statement on stub connection")
}
func (stubConn) Close() error                { return nil }
func (c stubConn) Begin() (driver.Tx, error) { return stubTx{rec: c.rec}, nil }

type stubConnector struct{ rec *txRecorder }

func (c stubConnector) Connect(context.Context) (driver.Conn, error) {
	return stubConn{rec: c.rec}, nil
}
func (stubConnector) Driver() driver.Driver { return stubDriver{} }

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return stubConn{}, nil }

// newStubDB returns a handle whose transactions never reach a server;
// every statement inside them goes through the mocked stores instead.
func newStubDB(rec *txRecorder) *sql.DB { return sql.OpenDB(stubConnector{rec: rec}) }

func doJSON(t *testing.T, h echo.HandlerFunc, method, target, body string, setup func(echo.Context)) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if setup != nil {
		setup(c)
	}
	require.NoError(t, h(c))
	return rec
}

func asIdentity(email string, role model.Role) func(echo.Context) {
	return func(c echo.Context) {
		c.Set("email", email)
		c.Set("role", string(role))
	}
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Create(ctx context.Context, email, password string, role model.Role, cost int) (uint64, error) {
	args := m.Called(ctx, email, password, role, cost)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

type mockTokenStore struct{ mock.Mock }

func (m *mockTokenStore) StoreRefresh(ctx context.Context, email, tokenHash string, exp time.Time) error {
	return m.Called(ctx, email, tokenHash, exp).Error(0)
}

func (m *mockTokenStore) ValidateRefresh(ctx context.Context, tokenHash string) (string, error) {
	args := m.Called(ctx, tokenHash)
	return args.String(0), args.Error(1)
}

func (m *mockTokenStore) RevokeByHash(ctx context.Context, tokenHash string) error {
	return m.Called(ctx, tokenHash).Error(0)
}

func (m *mockTokenStore) RevokeAllForEmail(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

type mockBookStore struct {
	mock.Mock
	db *sql.DB
}

func (m *mockBookStore) DB() *sql.DB { return m.db }

func (m *mockBookStore) Create(ctx context.Context, b *model.Book) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBookStore) GetByID(ctx context.Context, id uint64) (model.Book, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Book), args.Error(1)
}

func (m *mockBookStore) ListPublished(ctx context.Context, limit int) ([]model.Book, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]model.Book), args.Error(1)
}

func (m *mockBookStore) ListByLibrarian(ctx context.Context, email string) ([]model.Book, error) {
	args := m.Called(ctx, email)
	return args.Get(0).([]model.Book), args.Error(1)
}

func (m *mockBookStore) Update(ctx context.Context, b *model.Book) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBookStore) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	return m.Called(ctx, tx, id).Error(0)
}

type mockBookOrders struct{ mock.Mock }

func (m *mockBookOrders) DeleteByBookTx(ctx context.Context, tx *sql.Tx, bookID uint64) (int64, error) {
	args := m.Called(ctx, tx, bookID)
	return args.Get(0).(int64), args.Error(1)
}

type mockPaymentStore struct{ mock.Mock }

func (m *mockPaymentStore) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	return m.Called(ctx, tx, p).Error(0)
}

func (m *mockPaymentStore) GetByOrderTx(ctx context.Context, tx *sql.Tx, orderID uint64) (model.Payment, error) {
	args := m.Called(ctx, tx, orderID)
	return args.Get(0).(model.Payment), args.Error(1)
}

func (m *mockPaymentStore) ListByPayer(ctx context.Context, email string) ([]model.Payment, error) {
	args := m.Called(ctx, email)
	return args.Get(0).([]model.Payment), args.Error(1)
}

func (m *mockPaymentStore) ListAll(ctx context.Context) ([]model.Payment, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Payment), args.Error(1)
}

type mockSettlementOrders struct {
	mock.Mock
	db *sql.DB
}

func (m *mockSettlementOrders) DB() *sql.DB { return m.db }

func (m *mockSettlementOrders) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Order, error) {
	args := m.Called(ctx, tx, id)
	return args.Get(0).(model.Order), args.Error(1)
}

func (m *mockSettlementOrders) MarkPaidTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	return m.Called(ctx, tx, id).Error(0)
}
