package session

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wso2/cookie-consent/internal/system/error/serviceerror"
	"github.com/wso2/cookie-consent/internal/system/middleware"
	"github.com/wso2/cookie-consent/internal/system/utils"
)

type sessionHandler struct {
	service SessionService
}

func newSessionHandler(service SessionService) *sessionHandler {
	return &sessionHandler{service: service}
}

// openSession handles POST /sessions
func (h *sessionHandler) openSession(c *gin.Context) {
	var req OpenRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Invalid request body: "+err.Error()))
			return
		}
	}

	view, svcErr := h.service.Open(c.Request.Context(), middleware.GetVisitorID(c), req.PagePath)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// getSession handles GET /sessions/:sessionId
func (h *sessionHandler) getSession(c *gin.Context) {
	view, svcErr := h.service.Get(c.Request.Context(), middleware.GetVisitorID(c), c.Param("sessionId"))
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, view)
}

// dispatchEvent handles POST /sessions/:sessionId/events
func (h *sessionHandler) dispatchEvent(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Invalid request body: "+err.Error()))
		return
	}

	view, svcErr := h.service.Dispatch(c.Request.Context(), middleware.GetVisitorID(c), c.Param("sessionId"), req)
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, view)
}

// showSettings handles POST /sessions/:sessionId/settings
func (h *sessionHandler) showSettings(c *gin.Context) {
	view, svcErr := h.service.ShowSettings(c.Request.Context(), middleware.GetVisitorID(c), c.Param("sessionId"))
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, view)
}

// acceptFallback handles POST /sessions/:sessionId/fallback/accept
func (h *sessionHandler) acceptFallback(c *gin.Context) {
	view, svcErr := h.service.AcceptFallback(c.Request.Context(), middleware.GetVisitorID(c), c.Param("sessionId"))
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, view)
}

// getPreferences handles GET /sessions/:sessionId/preferences
func (h *sessionHandler) getPreferences(c *gin.Context) {
	resp, svcErr := h.service.Preferences(c.Request.Context(), middleware.GetVisitorID(c), c.Param("sessionId"))
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// dismissToast handles DELETE /sessions/:sessionId/toasts/:toastId
func (h *sessionHandler) dismissToast(c *gin.Context) {
	svcErr := h.service.DismissToast(c.Request.Context(), middleware.GetVisitorID(c), c.Param("sessionId"), c.Param("toastId"))
	if svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.Status(http.StatusNoContent)
}

// closeSession handles DELETE /sessions/:sessionId
func (h *sessionHandler) closeSession(c *gin.Context) {
	if svcErr := h.service.Close(c.Request.Context(), middleware.GetVisitorID(c), c.Param("sessionId")); svcErr != nil {
		utils.SendError(c, svcErr)
		return
	}
	c.Status(http.StatusNoContent)
}
