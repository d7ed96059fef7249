package prefab

import "freelyforms-backend/internal/schema"

// ActivationRequest toggles whether a prefab accepts answers.
type ActivationRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// AnswerRequest carries one submission, keyed by field id.
type AnswerRequest struct {
	Values map[string]interface{} `json:"values" binding:"required"`
}

// AnswerResponse acknowledges a stored submission.
type AnswerResponse struct {
	ID       string `json:"id"`
	PrefabID string `json:"prefabId"`
}

// SchemaErrorData locates the rejected part of a prefab definition.
type SchemaErrorData struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// ViolationsData lists every failed check of a submission.
type ViolationsData struct {
	Violations []schema.Violation `json:"violations"`
}
