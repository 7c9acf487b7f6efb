package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vitalink-io/vitalink/internal/application/wearable/usecases"
	"github.com/vitalink-io/vitalink/internal/interfaces/http/middleware"
	"github.com/vitalink-io/vitalink/internal/shared/errors"
	"github.com/vitalink-io/vitalink/internal/shared/logger"
	"github.com/vitalink-io/vitalink/internal/shared/utils"
)

// BeginAuthorizationExecutor starts the consent flow.
type BeginAuthorizationExecutor interface {
	Execute(ctx context.Context, cmd usecases.BeginAuthorizationCommand) (*usecases.BeginAuthorizationResult, error)
}

// CompleteAuthorizationExecutor finishes the callback leg.
type CompleteAuthorizationExecutor interface {
	Execute(ctx context.Context, cmd usecases.CompleteAuthorizationCommand) (*usecases.CompleteAuthorizationResult, error)
}

// SyncProviderExecutor runs an on-demand sync.
type SyncProviderExecutor interface {
	Execute(ctx context.Context, cmd usecases.SyncProviderCommand) (*usecases.SyncProviderResult, error)
}

// GetRecordsExecutor lists synced records.
type GetRecordsExecutor interface {
	Execute(ctx context.Context, cmd usecases.GetRecordsCommand) (*usecases.GetRecordsResult, error)
}

// DisconnectProviderExecutor removes a connection.
type DisconnectProviderExecutor interface {
	Execute(ctx context.Context, cmd usecases.DisconnectProviderCommand) error
}

// ListProvidersExecutor reports provider availability.
type ListProvidersExecutor interface {
	Execute(ctx context.Context, cmd usecases.ListProvidersCommand) (*usecases.ListProvidersResult, error)
}

type WearableHandler struct {
	beginAuthUC    BeginAuthorizationExecutor
	completeAuthUC CompleteAuthorizationExecutor
	syncUC         SyncProviderExecutor
	getRecordsUC   GetRecordsExecutor
	disconnectUC   DisconnectProviderExecutor
	listUC         ListProvidersExecutor
	// frontendURL receives the post-callback redirect.
	frontendURL string
	logger      logger.Interface
}

func NewWearableHandler(
	beginAuthUC BeginAuthorizationExecutor,
	completeAuthUC CompleteAuthorizationExecutor,
	syncUC SyncProviderExecutor,
	getRecordsUC GetRecordsExecutor,
	disconnectUC DisconnectProviderExecutor,
	listUC ListProvidersExecutor,
	frontendURL string,
	log logger.Interface,
) *WearableHandler {
	return &WearableHandler{
		beginAuthUC:    beginAuthUC,
		completeAuthUC: completeAuthUC,
		syncUC:         syncUC,
		getRecordsUC:   getRecordsUC,
		disconnectUC:   disconnectUC,
		listUC:         listUC,
		frontendURL:    frontendURL,
		logger:         log,
	}
}

type SyncRequest struct {
	Days int `json:"days" binding:"omitempty,min=1,max=30"`
}

type GetDataRequest struct {
	Provider  string `form:"provider"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Days      int    `form:"days" binding:"omitempty,min=1,max=90"`
}

// ListProviders returns every known provider with its availability for the
// requesting user.
func (h *WearableHandler) ListProviders(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing authentication")
		return
	}

	result, err := h.listUC.Execute(c.Request.Context(), usecases.ListProvidersCommand{UserID: userID})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{"providers": toProviderStatusDTOs(result.Providers)})
}

// Connect starts the OAuth consent flow and returns the provider URL to
// redirect the user to.
func (h *WearableHandler) Connect(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing authentication")
		return
	}

	result, err := h.beginAuthUC.Execute(c.Request.Context(), usecases.BeginAuthorizationCommand{
		UserID:   userID,
		Provider: c.Param("provider"),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{"auth_url": result.AuthURL})
}

// Callback handles the provider's redirect. It always answers with a
// frontend redirect: the browser arriving here is the user's, not an API
// client.
func (h *WearableHandler) Callback(c *gin.Context) {
	provider := c.Param("provider")

	if errParam := c.Query("error"); errParam != "" {
		h.logger.Warnw("authorization denied at provider",
			"provider", provider, "error", errParam)
		h.redirectWithError(c, "access_denied")
		return
	}

	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		h.redirectWithError(c, "invalid_state")
		return
	}

	result, err := h.completeAuthUC.Execute(c.Request.Context(), usecases.CompleteAuthorizationCommand{
		Provider: provider,
		State:    state,
		Code:     code,
	})
	if err != nil {
		h.redirectWithError(c, callbackErrorCode(err))
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("%s?connected=%s", h.frontendURL, result.Provider))
}

// Sync runs an on-demand sync for one provider.
func (h *WearableHandler) Sync(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing authentication")
		return
	}

	var req SyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Warnw("invalid sync request body", "error", err)
			utils.ErrorResponse(c, http.StatusBadRequest, utils.BindErrorMessage(err))
			return
		}
	}

	result, err := h.syncUC.Execute(c.Request.Context(), usecases.SyncProviderCommand{
		UserID:   userID,
		Provider: c.Param("provider"),
		Days:     req.Days,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "sync completed", toSyncResultDTO(result))
}

// GetData lists synced records, defaulting to the most recent days.
func (h *WearableHandler) GetData(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing authentication")
		return
	}

	var req GetDataRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.BindErrorMessage(err))
		return
	}

	result, err := h.getRecordsUC.Execute(c.Request.Context(), usecases.GetRecordsCommand{
		UserID:    userID,
		Provider:  req.Provider,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Days:      req.Days,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{"records": toRecordDTOs(result.Records)})
}

// Disconnect removes the stored connection. Synced records stay.
func (h *WearableHandler) Disconnect(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing authentication")
		return
	}

	err := h.disconnectUC.Execute(c.Request.Context(), usecases.DisconnectProviderCommand{
		UserID:   userID,
		Provider: c.Param("provider"),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.NoContentResponse(c)
}

func (h *WearableHandler) redirectWithError(c *gin.Context, code string) {
	c.Redirect(http.StatusFound, fmt.Sprintf("%s?error=%s", h.frontendURL, code))
}

// callbackErrorCode maps a callback failure to the query code the frontend
// shows the user.
func callbackErrorCode(err error) string {
	switch {
	case errors.IsType(err, errors.ErrorTypeInvalidOAuthState):
		return "invalid_state"
	case errors.IsType(err, errors.ErrorTypeUnsupportedProvider):
		return "unsupported_provider"
	case errors.IsType(err, errors.ErrorTypeProviderNotConfigured):
		return "provider_not_configured"
	default:
		return "connection_failed"
	}
}
