package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, sessionAuth gin.HandlerFunc) {
	group := g.Group("/sessions")

	// === Public Routes ===
	group.POST("", h.Open)

	// === Session Token Routes ===
	session := group.Group("/:id")
	session.Use(sessionAuth)
	{
		session.GET("", h.Get)
		session.DELETE("", h.Close)
		session.PUT("/dates", h.SetDates)
		session.GET("/beds", h.Beds)
		session.POST("/beds/refresh", h.RefreshBeds)
		session.POST("/beds/:bed_id/toggle", h.ToggleBed)
		session.PATCH("/guest", h.UpdateGuest)
		session.PUT("/terms", h.SetTerms)
		session.POST("/next", h.Next)
		session.POST("/back", h.Back)
		session.POST("/reset", h.Reset)
		session.POST("/quote/refresh", h.RefreshQuote)
		session.POST("/submit", h.Submit)
		session.GET("/confirmation", h.Download)
		session.POST("/share", h.Share)
	}
}
