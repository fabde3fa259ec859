package library

type ListLibraryPayload struct {
	FavoritesOnly bool    `query:"favorites_only" json:"favorites_only,omitempty"`
	Search        *string `query:"search" json:"search,omitempty" validate:"omitempty,max=100" mod:"trim"`
}

type SetFavoritePayload struct {
	IsFavorite *bool `json:"is_favorite" validate:"required"`
}
