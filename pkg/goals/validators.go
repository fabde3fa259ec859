package goals

type CreateGoalPayload struct {
	GoalType    string `json:"goal_type" validate:"required,oneof=monthly yearly"`
	TargetBooks int    `json:"target_books" validate:"required,min=1,max=1000"`
}

type UpdateGoalPayload struct {
	GoalType    string `json:"goal_type" validate:"required,oneof=monthly yearly"`
	TargetBooks int    `json:"target_books" validate:"required,min=1,max=1000"`
}
