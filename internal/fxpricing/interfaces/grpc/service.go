// 包 FX 期权定价的 gRPC 接口
// 消息使用 google.protobuf.Struct，服务描述手工注册
package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// ServiceName 完整服务名
	ServiceName = "fxpricing.v1.FXOptionPricingService"

	PriceOptionMethod     = "/" + ServiceName + "/PriceOption"
	GetLatestResultMethod = "/" + ServiceName + "/GetLatestResult"
)

// FXOptionPricingServer 服务端接口
type FXOptionPricingServer interface {
	PriceOption(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetLatestResult(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc FXOptionPricingService 的服务描述
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FXOptionPricingServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PriceOption", Handler: priceOptionHandler},
		{MethodName: "GetLatestResult", Handler: getLatestResultHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fxpricing/v1/fxpricing.proto",
}

// RegisterFXOptionPricingServer 注册服务实现
func RegisterFXOptionPricingServer(s grpc.ServiceRegistrar, srv FXOptionPricingServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func priceOptionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FXOptionPricingServer).PriceOption(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PriceOptionMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FXOptionPricingServer).PriceOption(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getLatestResultHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FXOptionPricingServer).GetLatestResult(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetLatestResultMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FXOptionPricingServer).GetLatestResult(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Client FXOptionPricingService 客户端
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient 创建客户端
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// PriceOption 远程定价
func (c *Client) PriceOption(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, PriceOptionMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// GetLatestResult 查询最新定价结果
func (c *Client) GetLatestResult(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetLatestResultMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
