package protoconnect

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"

	pb "github.com/mmynk/tiendapos/pkg/proto"
)

const AuthServiceName = "pos.v1.AuthService"

const (
	AuthServiceRegisterProcedure       = "/pos.v1.AuthService/Register"
	AuthServiceLoginProcedure          = "/pos.v1.AuthService/Login"
	AuthServiceLogoutProcedure         = "/pos.v1.AuthService/Logout"
	AuthServiceGetCurrentUserProcedure = "/pos.v1.AuthService/GetCurrentUser"
	AuthServiceCreateUserProcedure     = "/pos.v1.AuthService/CreateUser"
	AuthServiceListUsersProcedure      = "/pos.v1.AuthService/ListUsers"
)

type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[pb.RegisterRequest]) (*connect.Response[pb.RegisterResponse], error)
	Login(context.Context, *connect.Request[pb.LoginRequest]) (*connect.Response[pb.LoginResponse], error)
	Logout(context.Context, *connect.Request[pb.LogoutRequest]) (*connect.Response[pb.LogoutResponse], error)
	GetCurrentUser(context.Context, *connect.Request[pb.GetCurrentUserRequest]) (*connect.Response[pb.GetCurrentUserResponse], error)
	CreateUser(context.Context, *connect.Request[pb.CreateUserRequest]) (*connect.Response[pb.CreateUserResponse], error)
	ListUsers(context.Context, *connect.Request[pb.ListUsersRequest]) (*connect.Response[pb.ListUsersResponse], error)
}

// NewAuthServiceHandler returns the path prefix to mount and its handler.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + AuthServiceName + "/", routes{
		AuthServiceRegisterProcedure:       connect.NewUnaryHandler(AuthServiceRegisterProcedure, svc.Register, opts...),
		AuthServiceLoginProcedure:          connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...),
		AuthServiceLogoutProcedure:         connect.NewUnaryHandler(AuthServiceLogoutProcedure, svc.Logout, opts...),
		AuthServiceGetCurrentUserProcedure: connect.NewUnaryHandler(AuthServiceGetCurrentUserProcedure, svc.GetCurrentUser, opts...),
		AuthServiceCreateUserProcedure:     connect.NewUnaryHandler(AuthServiceCreateUserProcedure, svc.CreateUser, opts...),
		AuthServiceListUsersProcedure:      connect.NewUnaryHandler(AuthServiceListUsersProcedure, svc.ListUsers, opts...),
	}
}

// UnimplementedAuthServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedAuthServiceHandler struct{}

func (UnimplementedAuthServiceHandler) Register(context.Context, *connect.Request[pb.RegisterRequest]) (*connect.Response[pb.RegisterResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.AuthService.Register is not implemented"))
}

func (UnimplementedAuthServiceHandler) Login(context.Context, *connect.Request[pb.LoginRequest]) (*connect.Response[pb.LoginResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.AuthService.Login is not implemented"))
}

func (UnimplementedAuthServiceHandler) Logout(context.Context, *connect.Request[pb.LogoutRequest]) (*connect.Response[pb.LogoutResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.AuthService.Logout is not implemented"))
}

func (UnimplementedAuthServiceHandler) GetCurrentUser(context.Context, *connect.Request[pb.GetCurrentUserRequest]) (*connect.Response[pb.GetCurrentUserResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.AuthService.GetCurrentUser is not implemented"))
}

func (UnimplementedAuthServiceHandler) CreateUser(context.Context, *connect.Request[pb.CreateUserRequest]) (*connect.Response[pb.CreateUserResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.AuthService.CreateUser is not implemented"))
}

func (UnimplementedAuthServiceHandler) ListUsers(context.Context, *connect.Request[pb.ListUsersRequest]) (*connect.Response[pb.ListUsersResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("pos.v1.AuthService.ListUsers is not implemented"))
}

type AuthServiceClient interface {
	Register(context.Context, *connect.Request[pb.RegisterRequest]) (*connect.Response[pb.RegisterResponse], error)
	Login(context.Context, *connect.Request[pb.LoginRequest]) (*connect.Response[pb.LoginResponse], error)
	Logout(context.Context, *connect.Request[pb.LogoutRequest]) (*connect.Response[pb.LogoutResponse], error)
	GetCurrentUser(context.Context, *connect.Request[pb.GetCurrentUserRequest]) (*connect.Response[pb.GetCurrentUserResponse], error)
	CreateUser(context.Context, *connect.Request[pb.CreateUserRequest]) (*connect.Response[pb.CreateUserResponse], error)
	ListUsers(context.Context, *connect.Request[pb.ListUsersRequest]) (*connect.Response[pb.ListUsersResponse], error)
}

// NewAuthServiceClient builds a client for the service at baseURL, e.g. http://localhost:8080.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AuthServiceClient {
	opts = clientOptions(opts)
	return &authServiceClient{
		register:       connect.NewClient[pb.RegisterRequest, pb.RegisterResponse](httpClient, baseURL+AuthServiceRegisterProcedure, opts...),
		login:          connect.NewClient[pb.LoginRequest, pb.LoginResponse](httpClient, baseURL+AuthServiceLoginProcedure, opts...),
		logout:         connect.NewClient[pb.LogoutRequest, pb.LogoutResponse](httpClient, baseURL+AuthServiceLogoutProcedure, opts...),
		getCurrentUser: connect.NewClient[pb.GetCurrentUserRequest, pb.GetCurrentUserResponse](httpClient, baseURL+AuthServiceGetCurrentUserProcedure, opts...),
		createUser:     connect.NewClient[pb.CreateUserRequest, pb.CreateUserResponse](httpClient, baseURL+AuthServiceCreateUserProcedure, opts...),
		listUsers:      connect.NewClient[pb.ListUsersRequest, pb.ListUsersResponse](httpClient, baseURL+AuthServiceListUsersProcedure, opts...),
	}
}

type authServiceClient struct {
	register       *connect.Client[pb.RegisterRequest, pb.RegisterResponse]
	login          *connect.Client[pb.LoginRequest, pb.LoginResponse]
	logout         *connect.Client[pb.LogoutRequest, pb.LogoutResponse]
	getCurrentUser *connect.Client[pb.GetCurrentUserRequest, pb.GetCurrentUserResponse]
	createUser     *connect.Client[pb.CreateUserRequest, pb.CreateUserResponse]
	listUsers      *connect.Client[pb.ListUsersRequest, pb.ListUsersResponse]
}

func (c *authServiceClient) Register(ctx context.Context, req *connect.Request[pb.RegisterRequest]) (*connect.Response[pb.RegisterResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *authServiceClient) Login(ctx context.Context, req *connect.Request[pb.LoginRequest]) (*connect.Response[pb.LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *authServiceClient) Logout(ctx context.Context, req *connect.Request[pb.LogoutRequest]) (*connect.Response[pb.LogoutResponse], error) {
	return c.logout.CallUnary(ctx, req)
}

func (c *authServiceClient) GetCurrentUser(ctx context.Context, req *connect.Request[pb.GetCurrentUserRequest]) (*connect.Response[pb.GetCurrentUserResponse], error) {
	return c.getCurrentUser.CallUnary(ctx, req)
}

func (c *authServiceClient) CreateUser(ctx context.Context, req *connect.Request[pb.CreateUserRequest]) (*connect.Response[pb.CreateUserResponse], error) {
	return c.createUser.CallUnary(ctx, req)
}

func (c *authServiceClient) ListUsers(ctx context.Context, req *connect.Request[pb.ListUsersRequest]) (*connect.Response[pb.ListUsersResponse], error) {
	return c.listUsers.CallUnary(ctx, req)
}
