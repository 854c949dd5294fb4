package dto

type DemoLoginRequest struct {
	Role string `json:"role" validate:"required,oneof=migrant guide"`
}

type ManualLoginRequest struct {
	Email string `json:"email" validate:"omitempty,max=255"`
	Name  string `json:"name" validate:"omitempty,max=255"`
}

type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=migrant guide"`
}

type LoginResponse struct {
	Success  bool         `json:"success"`
	User     UserResponse `json:"user"`
	Redirect string       `json:"redirect"`
}

type ProvidersResponse struct {
	Providers []string `json:"providers"`
	DemoLogin bool     `json:"demo_login"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
