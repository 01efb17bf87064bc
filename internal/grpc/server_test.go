package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/patelashutosh/bloom-store/internal/domain"
	"github.com/patelashutosh/bloom-store/internal/identity"
	"github.com/patelashutosh/bloom-store/internal/service"
)

var orderID = uuid.MustParse("7f3c2a1e-0b4d-4e5f-9a6b-a1b2c3d4e5f6")

// fakeOrders serves a single order owned by user-1.
type fakeOrders struct {
	err error
}

func (f fakeOrders) GetOrderDetails(ctx context.Context, id string) (*domain.Order, error) {
	caller, err := identity.FromContext(ctx)
	if err != nil {
		return nil, service.ErrUnauthenticated
	}
	if f.err != nil {
		return nil, f.err
	}
	if caller.UserID != "user-1" || id != orderID.String() {
		return nil, service.ErrNotFound
	}
	return sampleOrder(), nil
}

func (f fakeOrders) GetUserOrders(ctx context.Context) ([]*domain.Order, error) {
	caller, err := identity.FromContext(ctx)
	if err != nil {
		return nil, service.ErrUnauthenticated
	}
	if f.err != nil {
		return nil, f.err
	}
	if caller.UserID != "user-1" {
		return nil, nil
	}
	return []*domain.Order{sampleOrder()}, nil
}

func sampleOrder() *domain.Order {
	return &domain.Order{
		ID:       orderID,
		UserID:   "user-1",
		Status:   domain.OrderStatusConfirmed,
		Subtotal: decimal.RequireFromString("99.98"),
		Tax:      decimal.RequireFromString("17.9964"),
		Total:    decimal.RequireFromString("216.9764"),
		Currency: "INR",
		Items: []domain.OrderItem{
			{ProductID: "prd_01", ProductName: "Red Roses", Quantity: 2, UnitPrice: decimal.RequireFromString("49.99")},
		},
	}
}

func startServer(t *testing.T, orders OrderReader) (*grpc.ClientConn, *identity.Authenticator) {
	t.Helper()
	auth := identity.NewAuthenticator("test-secret", time.Hour)
	srv, _ := NewServer(zap.NewNop(), auth, orders)

	lis := bufconn.Listen(1024 * 1024)
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn, auth
}

func token(t *testing.T, auth *identity.Authenticator, userID string) string {
	t.Helper()
	tok, err := auth.Issue(identity.Identity{UserID: userID})
	require.NoError(t, err)
	return tok
}

func TestGetOrder_Owner(t *testing.T) {
	conn, auth := startServer(t, fakeOrders{})
	client := NewOrdersClient(conn)

	ctx := WithToken(context.Background(), token(t, auth, "user-1"))
	order, err := client.GetOrder(ctx, orderID.String())

	require.NoError(t, err)
	assert.Equal(t, orderID, order.ID)
	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("216.9764")))
	require.Len(t, order.Items, 1)
	assert.Equal(t, "C3D4E5F6", order.Number())
}

func TestGetOrder_StatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		orders   fakeOrders
		userID   string
		orderID  string
		expected codes.Code
	}{
		{"anonymous", fakeOrders{}, "", orderID.String(), codes.Unauthenticated},
		{"other user", fakeOrders{}, "user-2", orderID.String(), codes.NotFound},
		{"missing id", fakeOrders{}, "user-1", "", codes.InvalidArgument},
		{"store fault", fakeOrders{err: errors.New("connection reset")}, "user-1", orderID.String(), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, auth := startServer(t, tt.orders)
			client := NewOrdersClient(conn)

			ctx := context.Background()
			if tt.userID != "" {
				ctx = WithToken(ctx, token(t, auth, tt.userID))
			}
			_, err := client.GetOrder(ctx, tt.orderID)

			st, ok := status.FromError(err)
			require.True(t, ok)
			assert.Equal(t, tt.expected, st.Code())
			assert.NotContains(t, st.Message(), "connection reset")
		})
	}
}

func TestInvalidTokenRejected(t *testing.T) {
	conn, _ := startServer(t, fakeOrders{})
	client := NewOrdersClient(conn)

	_, err := client.ListOrders(WithToken(context.Background(), "garbage"))

	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestListOrders(t *testing.T) {
	conn, auth := startServer(t, fakeOrders{})
	client := NewOrdersClient(conn)

	orders, err := client.ListOrders(WithToken(context.Background(), token(t, auth, "user-1")))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, orderID, orders[0].ID)

	orders, err = client.ListOrders(WithToken(context.Background(), token(t, auth, "user-2")))
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)
}

func TestHealth(t *testing.T) {
	conn, _ := startServer(t, fakeOrders{})

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: ServiceName})

	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}
