package protoconnect

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"

	pb "github.com/mmynk/tiendapos/pkg/proto"
)

const SaleServiceName = "pos.v1.SaleService"

const (
	SaleServiceQuoteProcedure        = "/pos.v1.SaleService/Quote"
	SaleServiceCheckoutProcedure     = "/pos.v1.SaleService/Checkout"
	SaleServiceGetSaleProcedure      = "/pos.v1.SaleService/GetSale"
	SaleServiceListSalesProcedure    = "/pos.v1.SaleService/ListSales"
	SaleServiceVoidSaleProcedure     = "/pos.v1.SaleService/VoidSale"
	SaleServiceDailySummaryProcedure = "/pos.v1.SaleService/DailySummary"
)

type SaleServiceHandler interface {
	Quote(context.Context, *connect.Request[pb.QuoteRequest]) (*connect.Response[pb.QuoteResponse], error)
	Checkout(context.Context, *connect.Request[pb.CheckoutRequest]) (*connect.Response[pb.CheckoutResponse], error)
	GetSale(context.Context, *connect.Request[pb.GetSaleRequest]) (*connect.Response[pb.GetSaleResponse], error)
	ListSales(context.Context, *connect.Request[pb.ListSalesRequest]) (*connect.Response[pb.ListSalesResponse], error)
	VoidSale(context.Context, *connect.Request[pb.VoidSaleRequest]) (*connect.Response[pb.VoidSaleResponse], error)
	DailySummary(context.Context, *connect.Request[pb.DailySummaryRequest]) (*connect.Response[pb.DailySummaryResponse], error)
}

// NewSaleServiceHandler returns the path prefix to mount and its handler.
func NewSaleServiceHandler(svc SaleServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + SaleServiceName + "/", routes{
		SaleServiceQuoteProcedure:        connect.NewUnaryHandler(SaleServiceQuoteProcedure, svc.Quote, opts...),
		SaleServiceCheckoutProcedure:     connect.NewUnaryHandler(SaleServiceCheckoutProcedure, svc.Checkout, opts...),
		SaleServiceGetSaleProcedure:      connect.NewUnaryHandler(SaleServiceGetSaleProcedure, svc.GetSale, opts...),
		SaleServiceListSalesProcedure:    connect.NewUnaryHandler(SaleServiceListSalesProcedure, svc.ListSales, opts...),
		SaleServiceVoidSaleProcedure:     connect.NewUnaryHandler(SaleServiceVoidSaleProcedure, svc.VoidSale, opts...),
		SaleServiceDailySummaryProcedure: connect.NewUnaryHandler(SaleServiceDailySummaryProcedure, svc.DailySummary, opts...),
	}
}

// UnimplementedSaleServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedSaleServiceHandler struct{}

func (UnimplementedSaleServiceHandler) Quote(context.Context, *connect.Request[pb.QuoteRequest]) (*connect.Response[pb.QuoteResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.SaleService.Quote is not implemented"))
}

func (UnimplementedSaleServiceHandler) Checkout(context.Context, *connect.Request[pb.CheckoutRequest]) (*connect.Response[pb.CheckoutResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.SaleService.Checkout is not implemented"))
}

func (UnimplementedSaleServiceHandler) GetSale(context.Context, *connect.Request[pb.GetSaleRequest]) (*connect.Response[pb.GetSaleResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.SaleService.GetSale is not implemented"))
}

func (UnimplementedSaleServiceHandler) ListSales(context.Context, *connect.Request[pb.ListSalesRequest]) (*connect.Response[pb.ListSalesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.SaleService.ListSales is not implemented"))
}

func (UnimplementedSaleServiceHandler) VoidSale(context.Context, *connect.Request[pb.VoidSaleRequest]) (*connect.Response[pb.VoidSaleResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.SaleService.VoidSale is not implemented"))
}

func (UnimplementedSaleServiceHandler) DailySummary(context.Context, *connect.Request[pb.DailySummaryRequest]) (*connect.Response[pb.DailySummaryResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.SaleService.DailySummary is not implemented"))
}

type SaleServiceClient interface {
	Quote(context.Context, *connect.Request[pb.QuoteRequest]) (*connect.Response[pb.QuoteResponse], error)
	Checkout(context.Context, *connect.Request[pb.CheckoutRequest]) (*connect.Response[pb.CheckoutResponse], error)
	GetSale(context.Context, *connect.Request[pb.GetSaleRequest]) (*connect.Response[pb.GetSaleResponse], error)
	ListSales(context.Context, *connect.Request[pb.ListSalesRequest]) (*connect.Response[pb.ListSalesResponse], error)
	VoidSale(context.Context, *connect.Request[pb.VoidSaleRequest]) (*connect.Response[pb.VoidSaleResponse], error)
	DailySummary(context.Context, *connect.Request[pb.DailySummaryRequest]) (*connect.Response[pb.DailySummaryResponse], error)
}

// NewSaleServiceClient builds a client for the service at baseURL, e.g. http://localhost:8080.
func NewSaleServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) SaleServiceClient {
	opts = clientOptions(opts)
	return &saleServiceClient{
		quote:        connect.NewClient[pb.QuoteRequest, pb.QuoteResponse](httpClient, baseURL+SaleServiceQuoteProcedure, opts...),
		checkout:     connect.NewClient[pb.CheckoutRequest, pb.CheckoutResponse](httpClient, baseURL+SaleServiceCheckoutProcedure, opts...),
		getSale:      connect.NewClient[pb.GetSaleRequest, pb.GetSaleResponse](httpClient, baseURL+SaleServiceGetSaleProcedure, opts...),
		listSales:    connect.NewClient[pb.ListSalesRequest, pb.ListSalesResponse](httpClient, baseURL+SaleServiceListSalesProcedure, opts...),
		voidSale:     connect.NewClient[pb.VoidSaleRequest, pb.VoidSaleResponse](httpClient, baseURL+SaleServiceVoidSaleProcedure, opts...),
		dailySummary: connect.NewClient[pb.DailySummaryRequest, pb.DailySummaryResponse](httpClient, baseURL+SaleServiceDailySummaryProcedure, opts...),
	}
}

type saleServiceClient struct {
	quote        *connect.Client[pb.QuoteRequest, pb.QuoteResponse]
	checkout     *connect.Client[pb.CheckoutRequest, pb.CheckoutResponse]
	getSale      *connect.Client[pb.GetSaleRequest, pb.GetSaleResponse]
	listSales    *connect.Client[pb.ListSalesRequest, pb.ListSalesResponse]
	voidSale     *connect.Client[pb.VoidSaleRequest, pb.VoidSaleResponse]
	dailySummary *connect.Client[pb.DailySummaryRequest, pb.DailySummaryResponse]
}

func (c *saleServiceClient) Quote(ctx context.Context, req *connect.Request[pb.QuoteRequest]) (*connect.Response[pb.QuoteResponse], error) {
	return c.quote.CallUnary(ctx, req)
}

func (c *saleServiceClient) Checkout(ctx context.Context, req *connect.Request[pb.CheckoutRequest]) (*connect.Response[pb.CheckoutResponse], error) {
	return c.checkout.CallUnary(ctx, req)
}

func (c *saleServiceClient) GetSale(ctx context.Context, req *connect.Request[pb.GetSaleRequest]) (*connect.Response[pb.GetSaleResponse], error) {
	return c.getSale.CallUnary(ctx, req)
}

func (c *saleServiceClient) ListSales(ctx context.Context, req *connect.Request[pb.ListSalesRequest]) (*connect.Response[pb.ListSalesResponse], error) {
	return c.listSales.CallUnary(ctx, req)
}

func (c *saleServiceClient) VoidSale(ctx context.Context, req *connect.Request[pb.VoidSaleRequest]) (*connect.Response[pb.VoidSaleResponse], error) {
	return c.voidSale.CallUnary(ctx, req)
}

func (c *saleServiceClient) DailySummary(ctx context.Context, req *connect.Request[pb.DailySummaryRequest]) (*connect.Response[pb.DailySummaryResponse], error) {
	return c.dailySummary.CallUnary(ctx, req)
}
