/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package session

import (
	"github.com/gin-gonic/gin"
)

// Initialize sets up the session module and registers its routes under api.
func Initialize(api *gin.RouterGroup, deps Dependencies) SessionService {
	service := newSessionService(deps)
	handler := newSessionHandler(service)

	registerRoutes(api, handler)

	return service
}

// registerRoutes registers all page session routes
func registerRoutes(api *gin.RouterGroup, handler *sessionHandler) {
	sessions := api.Group("/sessions")
	{
		sessions.POST("", handler.openSession)
		sessions.GET("/:sessionId", handler.getSession)
		sessions.DELETE("/:sessionId", handler.closeSession)
		sessions.POST("/:sessionId/events", handler.dispatchEvent)
		sessions.POST("/:sessionId/settings", handler.showSettings)
		sessions.POST("/:sessionId/fallback/accept", handler.acceptFallback)
		sessions.GET("/:sessionId/preferences", handler.getPreferences)
		sessions.DELETE("/:sessionId/toasts/:toastId", handler.dismissToast)
	}
}
