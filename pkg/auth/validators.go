package auth

type RegisterPayload struct {
	Username string `json:"username" mod:"trim" validate:"required,min=3,max=30"`
	Email    string `json:"email" mod:"trim" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginPayload struct {
	Username string `json:"username" mod:"trim" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type MeResponse struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}
