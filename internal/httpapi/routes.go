/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package httpapi

// routes sets up the routes for the HTTP server.
func (s *Server) routes() {
	s.router.GET("/health", s.health)

	api := s.router.Group("/api/v1")
	{
		api.POST("/register", s.register)
		api.POST("/login", s.login)
	}

	authed := api.Group("")
	authed.Use(s.authMiddleware())
	{
		authed.GET("/me", s.me)

		authed.POST("/funding-requests", s.createFundingRequest)
		authed.GET("/funding-requests", s.listFundingRequests)
		authed.POST("/withdrawal-requests", s.createWithdrawalRequest)
		authed.GET("/withdrawal-requests", s.listWithdrawalRequests)

		authed.GET("/notifications", s.listNotifications)
		authed.POST("/notifications/:id/read", s.markNotificationRead)

		authed.GET("/messages", s.listMessages)
		authed.POST("/messages", s.sendMessage)
	}

	admin := authed.Group("")
	admin.Use(s.adminMiddleware())
	{
		admin.GET("/users", s.listUsers)
		admin.PATCH("/users/:id/wallets", s.patchUserWallets)
		admin.PATCH("/users/:id/tier", s.patchUserTier)
		admin.PATCH("/users/:id/status", s.patchUserStatus)

		admin.POST("/funding-requests/:id/approve", s.approveFundingRequest)
		admin.POST("/funding-requests/:id/decline", s.declineFundingRequest)
		admin.POST("/withdrawal-requests/:id/approve", s.approveWithdrawalRequest)
		admin.POST("/withdrawal-requests/:id/decline", s.declineWithdrawalRequest)

		admin.POST("/notifications", s.createNotification)
	}
}
