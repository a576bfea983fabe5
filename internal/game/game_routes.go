package game

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	mw "github.com/rallyhq/rally/internal/middleware"
)

// GameRoutes sets up all game-related routes.
func GameRoutes(router *gin.RouterGroup, db *gorm.DB, service *GameService, jwtSecret string) {
	controller := NewGameController(service)

	games := router.Group("/games")
	{
		// Public reads
		games.GET("", controller.GetGames)
		games.GET("/:id", controller.GetGameByID)
		games.GET("/:id/players", controller.GetGamePlayers)

		// Authenticated transitions
		authed := games.Group("")
		authed.Use(mw.AuthMiddleware(jwtSecret, db))
		{
			authed.POST("", controller.CreateGame)
			authed.POST("/:id/join", controller.JoinGame)
			authed.POST("/:id/leave", controller.LeaveGame)
			authed.DELETE("/:id/players/:userId", controller.RemovePlayer)
			authed.PATCH("/:id", controller.ModifyGame)
			authed.POST("/:id/cancel", controller.CancelGame)
		}
	}
}
