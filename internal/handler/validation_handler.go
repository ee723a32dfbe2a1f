package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"veridoc/internal/domain"
	"veridoc/internal/port"
	"veridoc/internal/validation"
)

// ValidateRequest is the invocation contract for a validation run. Line items
// are optional; when omitted the engine loads the document's extracted data.
type ValidateRequest struct {
	DocumentID             string            `json:"documentId" binding:"required"`
	ProjectID              string            `json:"projectId" binding:"required"`
	LineItems              []domain.LineItem `json:"lineItems,omitempty"`
	AuthenticateSignatures bool              `json:"authenticateSignatures,omitempty"`
}

// ValidationHandler serves the validation endpoints.
type ValidationHandler struct {
	engine  *validation.Engine
	docRepo port.DocumentRepository
}

// NewValidationHandler creates a ValidationHandler.
func NewValidationHandler(engine *validation.Engine, docRepo port.DocumentRepository) *ValidationHandler {
	return &ValidationHandler{engine: engine, docRepo: docRepo}
}

// Validate runs a full validation for a document.
// POST /api/v1/validations
func (h *ValidationHandler) Validate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "documentId and projectId are required")
		return
	}

	docID, err := uuid.Parse(req.DocumentID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "documentId must be a valid UUID")
		return
	}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "projectId must be a valid UUID")
		return
	}

	report, err := h.engine.Run(c.Request.Context(), validation.RunInput{
		DocumentID:             docID,
		ProjectID:              projectID,
		LineItems:              req.LineItems,
		AuthenticateSignatures: req.AuthenticateSignatures,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, report)
}

// documentValidationResponse is the read-back shape for persisted state.
type documentValidationResponse struct {
	DocumentID      uuid.UUID       `json:"documentId"`
	NeedsReview     bool            `json:"needsReview"`
	ValidationState json.RawMessage `json:"validationState"`
}

// GetValidation returns the persisted validation state for a document.
// GET /api/v1/documents/:id/validation
func (h *ValidationHandler) GetValidation(c *gin.Context) {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "document id must be a valid UUID")
		return
	}

	doc, err := h.docRepo.GetByID(c.Request.Context(), docID)
	if err != nil {
		HandleError(c, err)
		return
	}

	state := doc.ValidationState
	if len(state) == 0 {
		state = json.RawMessage("null")
	}

	RespondOK(c, documentValidationResponse{
		DocumentID:      doc.ID,
		NeedsReview:     doc.NeedsReview,
		ValidationState: state,
	})
}
