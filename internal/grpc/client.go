package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/patelashutosh/bloom-store/internal/domain"
)

type OrdersClient struct {
	cc grpc.ClientConnInterface
}

func NewOrdersClient(cc grpc.ClientConnInterface) *OrdersClient {
	return &OrdersClient{cc: cc}
}

// WithToken attaches a bearer token to outgoing calls made with ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
}

func (c *OrdersClient) GetOrder(ctx context.Context, orderID string, opts ...grpc.CallOption) (*domain.Order, error) {
	out := new(GetOrderResponse)
	opts = append(opts, grpc.CallContentSubtype(CodecName))
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/GetOrder", &GetOrderRequest{OrderID: orderID}, out, opts...); err != nil {
		return nil, err
	}
	return out.Order, nil
}

func (c *OrdersClient) ListOrders(ctx context.Context, opts ...grpc.CallOption) ([]*domain.Order, error) {
	out := new(ListOrdersResponse)
	opts = append(opts, grpc.CallContentSubtype(CodecName))
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/ListOrders", &ListOrdersRequest{}, out, opts...); err != nil {
		return nil, err
	}
	return out.Orders, nil
}
