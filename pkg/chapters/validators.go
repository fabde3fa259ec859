package chapters

type ListChaptersQuery struct {
	BookID string `query:"book_id" json:"book_id" validate:"required,uuid"`
}

type CreateChapterPayload struct {
	BookID  string `json:"book_id" validate:"required,uuid"`
	Title   string `json:"title" validate:"required,max=300" mod:"trim"`
	Content string `json:"content" validate:"max=500000"`
}

type UpdateChapterPayload struct {
	Title   *string `json:"title,omitempty" validate:"omitempty,max=300" mod:"trim"`
	Content *string `json:"content,omitempty" validate:"omitempty,max=500000"`
}
