// venue/routes.go
package venue

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	mw "github.com/rallyhq/rally/internal/middleware"
)

// VenueRoutes sets up all venue-directory routes.
func VenueRoutes(router *gin.RouterGroup, db *gorm.DB, jwtSecret string) {
	repo := NewVenueRepository(db)
	controller := NewVenueController(repo)

	venues := router.Group("/venues")
	{
		venues.GET("", controller.GetVenues)
		venues.GET("/:id", controller.GetVenueByID)

		authed := venues.Group("")
		authed.Use(mw.AuthMiddleware(jwtSecret, db))
		{
			authed.POST("", controller.CreateVenue)
		}
	}

	admin := router.Group("/admin/venues")
	admin.Use(mw.AuthMiddleware(jwtSecret, db))
	admin.Use(mw.RequireAdmin())
	{
		admin.PUT("/:id/approval", controller.SetApproval)
	}
}
