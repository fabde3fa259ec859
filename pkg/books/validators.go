package books

type ListBooksQuery struct {
	Limit    int     `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=50"`
	Offset   int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Search   *string `query:"search" json:"search,omitempty" validate:"omitempty,max=100" mod:"trim"`
	Category *string `query:"category" json:"category,omitempty" validate:"omitempty,max=50"`
	AuthorID *string `query:"author_id" json:"author_id,omitempty" validate:"omitempty,uuid"`
	Sort     *string `query:"sort" json:"sort,omitempty" validate:"omitempty,oneof=newest popular title"`
}

type CreateBookPayload struct {
	Title       string  `json:"title" validate:"required,max=300" mod:"trim"`
	Description string  `json:"description" validate:"max=5000" mod:"trim"`
	Category    string  `json:"category" validate:"required,max=50" mod:"trim,lcase"`
	CoverURL    *string `json:"cover_url,omitempty" validate:"omitempty,url"`
}

type UpdateBookPayload struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=300" mod:"trim"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=5000" mod:"trim"`
	Category    *string `json:"category,omitempty" validate:"omitempty,max=50" mod:"trim,lcase"`
	CoverURL    *string `json:"cover_url,omitempty" validate:"omitempty,url"`
}
