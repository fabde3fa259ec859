package profiles

type UpdateProfilePayload struct {
	Username  *string `json:"username,omitempty" validate:"omitempty,min=3,max=30" mod:"trim"`
	Bio       *string `json:"bio,omitempty" validate:"omitempty,max=500" mod:"trim"`
	AvatarURL *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}
