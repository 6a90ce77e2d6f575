package proto

type User struct {
	Id          string `json:"id"`
	BusinessId  string `json:"businessId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	CreatedAt   int64  `json:"createdAt"`
}

type Business struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	TaxId     string `json:"taxId"`
	Address   string `json:"address"`
	CreatedAt int64  `json:"createdAt"`
}

// RegisterRequest creates a business together with its first admin user.
type RegisterRequest struct {
	BusinessName string `json:"businessName"`
	TaxId        string `json:"taxId"`
	Address      string `json:"address"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	Password     string `json:"password"`
}

type RegisterResponse struct {
	User     *User     `json:"user"`
	Business *Business `json:"business"`
	Token    string    `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User     *User     `json:"user"`
	Business *Business `json:"business"`
}

// CreateUserRequest adds a user to the caller's business. Admin only.
type CreateUserRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
	// Role is "admin" or "cashier". Empty means cashier.
	Role string `json:"role"`
}

type CreateUserResponse struct {
	User *User `json:"user"`
}

type ListUsersRequest struct{}

type ListUsersResponse struct {
	Users []*User `json:"users"`
}
