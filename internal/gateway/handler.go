package gateway

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/promptforge/promptforge/internal/auth"
	"github.com/promptforge/promptforge/internal/llm"
	"github.com/promptforge/promptforge/internal/models"
	"github.com/promptforge/promptforge/internal/settings"
	"github.com/promptforge/promptforge/internal/workflow"
)

// Handler handles HTTP requests for the gateway layer
type Handler struct {
	engine     *workflow.Engine
	settings   *settings.Store
	llmClient  llm.Client
	jwtManager *auth.JWTManager
	pool       *pgxpool.Pool
}

// NewHandler creates a new gateway handler
func NewHandler(engine *workflow.Engine, settingsStore *settings.Store, llmClient llm.Client, jwtManager *auth.JWTManager, pool *pgxpool.Pool) *Handler {
	return &Handler{
		engine:     engine,
		settings:   settingsStore,
		llmClient:  llmClient,
		jwtManager: jwtManager,
		pool:       pool,
	}
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// Login godoc
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// Lookup user in database
	var userID string
	var hashedPassword string
	err := h.pool.QueryRow(c.Request.Context(),
		`SELECT id, hashed_password FROM users WHERE email = $1`,
		req.Email,
	).Scan(&userID, &hashedPassword)

	if err != nil {
		log.Printf(`{"level":"warn","message":"User not found","email":"%s"}`, req.Email)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	// Verify password using bcrypt
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(req.Password)); err != nil {
		log.Printf(`{"level":"warn","message":"Invalid password","email":"%s"}`, req.Email)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	// Generate JWT token
	token, err := h.jwtManager.GenerateToken(
		c.Request.Context(),
		userID,
		req.Email,
		[]string{"user"},
		24*time.Hour,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:  token,
		UserID: userID,
	})
}

// StartWorkflow godoc
// @Summary Start a prompt workflow
// @Description Create a new prompt-building thread and run it to its first pause
// @Tags prompts
// @Accept json
// @Produce json
// @Param request body models.WorkflowStartRequest true "Initial request"
// @Success 200 {object} models.WorkflowResponse
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /prompts [post]
func (h *Handler) StartWorkflow(c *gin.Context) {
	var req models.WorkflowStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request", Code: models.ErrCodeInvalidRequest})
		return
	}

	threadID, state, err := h.engine.Start(c.Request.Context(), workflow.StartInput{
		UserInput: req.UserInput,
		Language:  req.Language,
		Provider:  req.Provider,
		Model:     req.Model,
	})
	if err != nil {
		log.Printf(`{"level":"error","message":"Failed to start workflow","error":"%v"}`, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to start workflow", Code: models.ErrCodeInternalError})
		return
	}

	c.JSON(http.StatusOK, models.FormatWorkflowResponse(threadID, state))
}

// AnswerWorkflow godoc
// @Summary Answer a clarification
// @Description Resume a paused thread with the user's clarification answer
// @Tags prompts
// @Accept json
// @Produce json
// @Param thread_id path string true "Thread ID"
// @Param request body models.WorkflowAnswerRequest true "Clarification answer"
// @Success 200 {object} models.WorkflowResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /prompts/{thread_id}/answer [post]
func (h *Handler) AnswerWorkflow(c *gin.Context) {
	threadID := c.Param("thread_id")

	var req models.WorkflowAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request", Code: models.ErrCodeInvalidRequest})
		return
	}

	state, err := h.engine.Resume(c.Request.Context(), threadID, workflow.ResumeDelta{
		Message: &workflow.Message{Role: workflow.RoleUser, Text: req.Answer},
	})
	if err != nil {
		h.respondEngineError(c, threadID, err)
		return
	}

	c.JSON(http.StatusOK, models.FormatWorkflowResponse(threadID, state))
}

// RefineWorkflow godoc
// @Summary Refine a selected variant
// @Description Resume a thread with a variant selection and feedback
// @Tags prompts
// @Accept json
// @Produce json
// @Param thread_id path string true "Thread ID"
// @Param request body models.WorkflowRefineRequest true "Selection and feedback"
// @Success 200 {object} models.WorkflowResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /prompts/{thread_id}/refine [post]
func (h *Handler) RefineWorkflow(c *gin.Context) {
	threadID := c.Param("thread_id")

	var req models.WorkflowRefineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request", Code: models.ErrCodeInvalidRequest})
		return
	}

	state, err := h.engine.Resume(c.Request.Context(), threadID, workflow.ResumeDelta{
		SelectedVariant: &req.SelectedVariant,
		UserFeedback:    &req.Feedback,
	})
	if err != nil {
		h.respondEngineError(c, threadID, err)
		return
	}

	c.JSON(http.StatusOK, models.FormatWorkflowResponse(threadID, state))
}

// TestWorkflow godoc
// @Summary Test the current variants
// @Description Run every variant against a test input and judge the outputs
// @Tags prompts
// @Accept json
// @Produce json
// @Param thread_id path string true "Thread ID"
// @Param request body models.WorkflowTestRequest true "Test input"
// @Success 200 {object} models.WorkflowResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /prompts/{thread_id}/test [post]
func (h *Handler) TestWorkflow(c *gin.Context) {
	threadID := c.Param("thread_id")

	var req models.WorkflowTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request", Code: models.ErrCodeInvalidRequest})
		return
	}

	state, err := h.engine.RunTests(c.Request.Context(), threadID, req.TestInput)
	if err != nil {
		h.respondEngineError(c, threadID, err)
		return
	}

	c.JSON(http.StatusOK, models.FormatWorkflowResponse(threadID, state))
}

// GetWorkflow godoc
// @Summary Get thread state
// @Description Return the current state of a thread without executing anything
// @Tags prompts
// @Produce json
// @Param thread_id path string true "Thread ID"
// @Success 200 {object} models.WorkflowResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /prompts/{thread_id} [get]
func (h *Handler) GetWorkflow(c *gin.Context) {
	threadID := c.Param("thread_id")

	state, err := h.engine.GetState(c.Request.Context(), threadID)
	if err != nil {
		h.respondEngineError(c, threadID, err)
		return
	}

	c.JSON(http.StatusOK, models.FormatWorkflowResponse(threadID, state))
}

// ValidateSettings godoc
// @Summary Validate an API key
// @Description Check the API key against the provider with a minimal completion
// @Tags settings
// @Accept json
// @Produce json
// @Param request body models.ValidationRequest true "Provider and key"
// @Success 200 {object} map[string]string
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /settings/validate [post]
func (h *Handler) ValidateSettings(c *gin.Context) {
	var req models.ValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request", Code: models.ErrCodeInvalidRequest})
		return
	}

	if err := h.llmClient.Ping(c.Request.Context(), req.Provider, validationModel(req.Provider), req.APIKey); err != nil {
		h.respondValidationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "API Key is valid"})
}

// SaveSettings godoc
// @Summary Save provider settings
// @Description Validate the API key, encrypt it and store the configuration
// @Tags settings
// @Accept json
// @Produce json
// @Param request body models.SettingsSaveRequest true "Provider configuration"
// @Success 200 {object} map[string]string
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /settings/save [post]
func (h *Handler) SaveSettings(c *gin.Context) {
	var req models.SettingsSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request", Code: models.ErrCodeInvalidRequest})
		return
	}

	if err := h.llmClient.Ping(c.Request.Context(), req.Provider, validationModel(req.Provider), req.APIKey); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Validation failed: " + err.Error(), Code: models.ErrCodeValidationFailed})
		return
	}

	if err := h.settings.Save(c.Request.Context(), req.Provider, req.APIKey, req.ModelPreference); err != nil {
		log.Printf(`{"level":"error","message":"Failed to save settings","provider":"%s","error":"%v"}`, req.Provider, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to save settings", Code: models.ErrCodeInternalError})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Settings saved securely"})
}

// GetSettings godoc
// @Summary Get provider settings
// @Description Return the stored configuration with the API key withheld
// @Tags settings
// @Produce json
// @Param provider query string false "Provider"
// @Success 200 {object} models.SettingsResponse
// @Security BearerAuth
// @Router /settings [get]
func (h *Handler) GetSettings(c *gin.Context) {
	cfg, err := h.settings.Get(c.Request.Context(), c.Query("provider"))
	if err != nil {
		log.Printf(`{"level":"error","message":"Failed to load settings","error":"%v"}`, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load settings", Code: models.ErrCodeInternalError})
		return
	}

	c.JSON(http.StatusOK, models.SettingsResponse{
		Configured:      cfg.Configured,
		Provider:        cfg.Provider,
		ModelPreference: cfg.ModelPreference,
	})
}

// ListModels godoc
// @Summary List available models
// @Description Return the selectable models for a provider
// @Tags settings
// @Produce json
// @Param provider query string true "Provider"
// @Success 200 {array} string
// @Security BearerAuth
// @Router /models [get]
func (h *Handler) ListModels(c *gin.Context) {
	c.JSON(http.StatusOK, settings.ListModels(c.Query("provider")))
}

func (h *Handler) respondEngineError(c *gin.Context, threadID string, err error) {
	if errors.Is(err, workflow.ErrThreadNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Thread not found", Code: models.ErrCodeThreadNotFound})
		return
	}
	log.Printf(`{"level":"error","message":"Workflow turn failed","thread_id":"%s","error":"%v"}`, threadID, err)
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Workflow turn failed", Code: models.ErrCodeInternalError})
}

func (h *Handler) respondValidationError(c *gin.Context, err error) {
	switch llm.KindOf(err) {
	case llm.KindAuth:
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid API Key", Code: models.ErrCodeProviderAuth})
	case llm.KindRateLimit:
		c.JSON(http.StatusTooManyRequests, models.ErrorResponse{Error: "Rate limit exceeded or insufficient quota", Code: models.ErrCodeRateLimited})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error(), Code: models.ErrCodeInternalError})
	}
}

// validationModel picks a cheap model per provider for key checks
func validationModel(provider string) string {
	switch provider {
	case "anthropic":
		return "claude-3-haiku-20240307"
	case "ollama":
		return "llama3"
	default:
		return "gpt-3.5-turbo"
	}
}
