package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/tiendapos/internal/auth"
	"github.com/mmynk/tiendapos/internal/middleware"
	"github.com/mmynk/tiendapos/internal/models"
	"github.com/mmynk/tiendapos/internal/storage"
	pb "github.com/mmynk/tiendapos/pkg/proto"
)

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	store         storage.UserStore
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, store storage.UserStore, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		store:         store,
		logger:        logger,
	}
}

// registrationError maps authenticator errors onto Connect codes.
func registrationError(err error) error {
	switch {
	case errors.Is(err, auth.ErrEmailExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrInvalidRole):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// Register creates a business and its first user, who becomes its admin.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[pb.RegisterRequest]) (*connect.Response[pb.RegisterResponse], error) {
	s.logger.Info("Register request", "email", req.Msg.Email, "business", req.Msg.BusinessName)

	// Validate input
	if strings.TrimSpace(req.Msg.BusinessName) == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("business name required"))
	}
	if req.Msg.Email == "" || req.Msg.DisplayName == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}
	if err := s.authenticator.ValidateCredential(req.Msg.Password); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	// Reject a taken email before the business exists.
	if _, err := s.store.GetUserByEmail(ctx, auth.NormalizeEmail(req.Msg.Email)); err == nil {
		return nil, connect.NewError(connect.CodeAlreadyExists, auth.ErrEmailExists)
	} else if !errors.Is(err, storage.ErrNotFound) {
		s.logger.Error("Email lookup failed", "email", req.Msg.Email, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	business := models.NewBusiness(strings.TrimSpace(req.Msg.BusinessName), req.Msg.TaxId, req.Msg.Address)
	if err := s.store.CreateBusiness(ctx, business); err != nil {
		s.logger.Error("Failed to create business", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	user, err := s.authenticator.Register(ctx, business.ID, req.Msg.Email, req.Msg.DisplayName, req.Msg.Password, models.RoleAdmin)
	if err != nil {
		s.logger.Error("Registration failed", "email", req.Msg.Email, "business_id", business.ID, "error", err)
		return nil, registrationError(err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Business registered successfully", "business_id", business.ID, "user_id", user.ID)
	return connect.NewResponse(&pb.RegisterResponse{
		User:     toProtoUser(user),
		Business: toProtoBusiness(business),
		Token:    token,
	}), nil
}

// Login authenticates a user and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[pb.LoginRequest]) (*connect.Response[pb.LoginResponse], error) {
	s.logger.Info("Login request", "email", req.Msg.Email)

	if req.Msg.Email == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "email", req.Msg.Email, "error", err)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID, "business_id", user.BusinessID)
	return connect.NewResponse(&pb.LoginResponse{User: toProtoUser(user), Token: token}), nil
}

// Logout is a no-op: tokens are stateless and discarded by the client.
func (s *AuthService) Logout(ctx context.Context, req *connect.Request[pb.LogoutRequest]) (*connect.Response[pb.LogoutResponse], error) {
	s.logger.Info("Logout request", "user_id", middleware.GetUserID(ctx))
	return connect.NewResponse(&pb.LogoutResponse{}), nil
}

// GetCurrentUser returns the authenticated user and their business.
func (s *AuthService) GetCurrentUser(ctx context.Context, req *connect.Request[pb.GetCurrentUserRequest]) (*connect.Response[pb.GetCurrentUserResponse], error) {
	businessID, userID, err := session(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Warn("GetCurrentUser failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}
	business, err := s.store.GetBusiness(ctx, businessID)
	if err != nil {
		s.logger.Error("GetCurrentUser failed - business missing", "business_id", businessID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&pb.GetCurrentUserResponse{
		User:     toProtoUser(user),
		Business: toProtoBusiness(business),
	}), nil
}

// CreateUser adds a user to the caller's business. Admin only.
func (s *AuthService) CreateUser(ctx context.Context, req *connect.Request[pb.CreateUserRequest]) (*connect.Response[pb.CreateUserResponse], error) {
	businessID, userID, err := session(ctx)
	if err != nil {
		return nil, err
	}
	if err := middleware.RequireRole(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}
	s.logger.Info("CreateUser request", "business_id", businessID, "email", req.Msg.Email, "role", req.Msg.Role)

	if req.Msg.Email == "" || req.Msg.DisplayName == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("email and display name required"))
	}
	role := models.Role(req.Msg.Role)
	if role == "" {
		role = models.RoleCashier
	}

	user, err := s.authenticator.Register(ctx, businessID, req.Msg.Email, req.Msg.DisplayName, req.Msg.Password, role)
	if err != nil {
		s.logger.Warn("CreateUser failed", "email", req.Msg.Email, "error", err)
		return nil, registrationError(err)
	}

	s.logger.Info("User created", "user_id", user.ID, "created_by", userID, "role", user.Role)
	return connect.NewResponse(&pb.CreateUserResponse{User: toProtoUser(user)}), nil
}

// ListUsers lists the users of the caller's business. Admin only.
func (s *AuthService) ListUsers(ctx context.Context, req *connect.Request[pb.ListUsersRequest]) (*connect.Response[pb.ListUsersResponse], error) {
	businessID, _, err := session(ctx)
	if err != nil {
		return nil, err
	}
	if err := middleware.RequireRole(ctx, models.RoleAdmin); err != nil {
		return nil, err
	}

	users, err := s.store.ListUsers(ctx, businessID)
	if err != nil {
		s.logger.Error("ListUsers failed", "business_id", businessID, "error", err)
		return nil, toConnectError(err)
	}

	resp := &pb.ListUsersResponse{Users: make([]*pb.User, len(users))}
	for i, u := range users {
		resp.Users[i] = toProtoUser(u)
	}
	return connect.NewResponse(resp), nil
}
