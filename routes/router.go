package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/rallyhq/rally/config"
	"github.com/rallyhq/rally/internal/game"
	"github.com/rallyhq/rally/internal/venue"
)

// SetupRoutes builds the gin engine and registers every route group. The game
// service arrives pre-wired from main because the reminder scheduler behind
// it also needs a handle outside the HTTP layer (startup re-arm).
func SetupRoutes(cfg *config.Config, db *gorm.DB, gameService *game.GameService) *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default()) // allows all origins, GET/POST/PUT

	// Welcome page
	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(`
			<html>
				<head><title>Rally</title></head>
				<body style="text-align:center; margin-top: 40px;">
					<h1>Rally 🏀 pickup games</h1>
					<p><a href="/swagger/index.html">API docs</a></p>
				</body>
			</html>
		`))
	})

	// Swagger route
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes
	api := r.Group("/api")
	game.GameRoutes(api, db, gameService, cfg.JWT.AccessTokenSecret)
	venue.VenueRoutes(api, db, cfg.JWT.AccessTokenSecret)

	return r
}
