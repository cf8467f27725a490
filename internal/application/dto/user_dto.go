package dto

// LoginRequest entrada para login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	BranchID string `json:"branch_id,omitempty"`
	Status   string `json:"status"`
}

// MenuItemResponse entrada de navegación permitida.
type MenuItemResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// SessionResponse usuario con sus capacidades, menú y vista inicial.
type SessionResponse struct {
	User         UserResponse       `json:"user"`
	Capabilities map[string]bool    `json:"capabilities"`
	Menu         []MenuItemResponse `json:"menu"`
	DefaultView  string             `json:"default_view"`
}

// LoginResponse salida con token JWT.
type LoginResponse struct {
	Token   string          `json:"token"`
	Session SessionResponse `json:"session"`
}
