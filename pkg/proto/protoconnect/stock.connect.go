package protoconnect

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"

	pb "github.com/mmynk/tiendapos/pkg/proto"
)

const StockServiceName = "pos.v1.StockService"

const (
	StockServiceAdjustStockProcedure   = "/pos.v1.StockService/AdjustStock"
	StockServiceListMovementsProcedure = "/pos.v1.StockService/ListMovements"
	StockServiceListLowStockProcedure  = "/pos.v1.StockService/ListLowStock"
)

type StockServiceHandler interface {
	AdjustStock(context.Context, *connect.Request[pb.AdjustStockRequest]) (*connect.Response[pb.AdjustStockResponse], error)
	ListMovements(context.Context, *connect.Request[pb.ListMovementsRequest]) (*connect.Response[pb.ListMovementsResponse], error)
	ListLowStock(context.Context, *connect.Request[pb.ListLowStockRequest]) (*connect.Response[pb.ListLowStockResponse], error)
}

// NewStockServiceHandler returns the path prefix to mount and its handler.
func NewStockServiceHandler(svc StockServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + StockServiceName + "/", routes{
		StockServiceAdjustStockProcedure:   connect.NewUnaryHandler(StockServiceAdjustStockProcedure, svc.AdjustStock, opts...),
		StockServiceListMovementsProcedure: connect.NewUnaryHandler(StockServiceListMovementsProcedure, svc.ListMovements, opts...),
		StockServiceListLowStockProcedure:  connect.NewUnaryHandler(StockServiceListLowStockProcedure, svc.ListLowStock, opts...),
	}
}

// UnimplementedStockServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedStockServiceHandler struct{}

func (UnimplementedStockServiceHandler) AdjustStock(context.Context, *connect.Request[pb.AdjustStockRequest]) (*connect.Response[pb.AdjustStockResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.StockService.AdjustStock is not implemented"))
}

func (UnimplementedStockServiceHandler) ListMovements(context.Context, *connect.Request[pb.ListMovementsRequest]) (*connect.Response[pb.ListMovementsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.StockService.ListMovements is not implemented"))
}

func (UnimplementedStockServiceHandler) ListLowStock(context.Context, *connect.Request[pb.ListLowStockRequest]) (*connect.Response[pb.ListLowStockResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.StockService.ListLowStock is not implemented"))
}

type StockServiceClient interface {
	AdjustStock(context.Context, *connect.Request[pb.AdjustStockRequest]) (*connect.Response[pb.AdjustStockResponse], error)
	ListMovements(context.Context, *connect.Request[pb.ListMovementsRequest]) (*connect.Response[pb.ListMovementsResponse], error)
	ListLowStock(context.Context, *connect.Request[pb.ListLowStockRequest]) (*connect.Response[pb.ListLowStockResponse], error)
}

// NewStockServiceClient builds a client for the service at baseURL, e.g. http://localhost:8080.
func NewStockServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) StockServiceClient {
	opts = clientOptions(opts)
	return &stockServiceClient{
		adjustStock:   connect.NewClient[pb.AdjustStockRequest, pb.AdjustStockResponse](httpClient, baseURL+StockServiceAdjustStockProcedure, opts...),
		listMovements: connect.NewClient[pb.ListMovementsRequest, pb.ListMovementsResponse](httpClient, baseURL+StockServiceListMovementsProcedure, opts...),
		listLowStock:  connect.NewClient[pb.ListLowStockRequest, pb.ListLowStockResponse](httpClient, baseURL+StockServiceListLowStockProcedure, opts...),
	}
}

type stockServiceClient struct {
	adjustStock   *connect.Client[pb.AdjustStockRequest, pb.AdjustStockResponse]
	listMovements *connect.Client[pb.ListMovementsRequest, pb.ListMovementsResponse]
	listLowStock  *connect.Client[pb.ListLowStockRequest, pb.ListLowStockResponse]
}

func (c *stockServiceClient) AdjustStock(ctx context.Context, req *connect.Request[pb.AdjustStockRequest]) (*connect.Response[pb.AdjustStockResponse], error) {
	return c.adjustStock.CallUnary(ctx, req)
}

func (c *stockServiceClient) ListMovements(ctx context.Context, req *connect.Request[pb.ListMovementsRequest]) (*connect.Response[pb.ListMovementsResponse], error) {
	return c.listMovements.CallUnary(ctx, req)
}

func (c *stockServiceClient) ListLowStock(ctx context.Context, req *connect.Request[pb.ListLowStockRequest]) (*connect.Response[pb.ListLowStockResponse], error) {
	return c.listLowStock.CallUnary(ctx, req)
}
