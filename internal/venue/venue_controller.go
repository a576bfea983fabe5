package venue

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rallyhq/rally/internal/middleware"
	"github.com/rallyhq/rally/pkg/responses"
)

// VenueController handles venue-related HTTP requests.
type VenueController struct {
	repo VenueRepository
}

// NewVenueController creates a new venue controller.
func NewVenueController(repo VenueRepository) *VenueController {
	return &VenueController{repo: repo}
}

// VenueInput defines the request payload for creating or updating a venue.
type VenueInput struct {
	Name        string `json:"name" binding:"required,min=2,max=200"`
	Address     string `json:"address" binding:"required,min=2,max=500"`
	Description string `json:"description" binding:"max=2000"`
}

// ApprovalInput flips the admin approval flag.
type ApprovalInput struct {
	Approved *bool `json:"approved" binding:"required"`
}

// CreateVenue godoc
// @Summary Submit a new venue
// @Description Adds a venue to the directory; it stays unapproved until an admin reviews it
// @Tags venues
// @Accept json
// @Produce json
// @Param venue body VenueInput true "Venue information"
// @Success 201 {object} responses.SuccessResponse
// @Failure 422 {object} responses.ErrorResponse "Invalid input"
// @Router /venues [post]
// @Security Bearer
func (vc *VenueController) CreateVenue(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	var input VenueInput
	if err := c.ShouldBindJSON(&input); err != nil {
		responses.SendValidationError(c, err)
		return
	}

	v := &Venue{
		Name:        input.Name,
		Address:     input.Address,
		Description: input.Description,
		CreatedByID: userID,
		Active:      true,
	}
	if err := vc.repo.CreateVenue(v); err != nil {
		responses.InternalServerError(c, "Failed to create venue")
		return
	}

	responses.SendSuccess(c, http.StatusCreated, "Venue submitted for approval", v)
}

// GetVenues godoc
// @Summary List venues
// @Tags venues
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param approved query bool false "Only approved venues"
// @Success 200 {object} responses.PaginatedResponse
// @Router /venues [get]
func (vc *VenueController) GetVenues(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	approvedOnly := c.Query("approved") == "true"

	venues, total, err := vc.repo.GetAllVenues(page, limit, approvedOnly)
	if err != nil {
		responses.InternalServerError(c, "Failed to list venues")
		return
	}

	responses.SendPaginated(c, http.StatusOK, "", venues, total, page, limit)
}

// GetVenueByID godoc
// @Summary Get a venue
// @Tags venues
// @Produce json
// @Param id path int true "Venue ID"
// @Success 200 {object} responses.SuccessResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /venues/{id} [get]
func (vc *VenueController) GetVenueByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		responses.BadRequest(c, "Invalid venue ID")
		return
	}

	v, err := vc.repo.GetVenueByID(uint(id))
	if err != nil {
		if errors.Is(err, ErrVenueNotFound) {
			responses.NotFound(c, "Venue")
			return
		}
		responses.InternalServerError(c, "Failed to load venue")
		return
	}

	responses.SendSuccess(c, http.StatusOK, "", v)
}

// SetApproval godoc
// @Summary Approve or revoke a venue
// @Description Admin only
// @Tags venues
// @Accept json
// @Produce json
// @Param id path int true "Venue ID"
// @Param approval body ApprovalInput true "Approval flag"
// @Success 200 {object} responses.SuccessResponse
// @Failure 403 {object} responses.ErrorResponse
// @Router /admin/venues/{id}/approval [put]
// @Security Bearer
func (vc *VenueController) SetApproval(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		responses.BadRequest(c, "Invalid venue ID")
		return
	}

	var input ApprovalInput
	if err := c.ShouldBindJSON(&input); err != nil {
		responses.SendValidationError(c, err)
		return
	}

	if err := vc.repo.SetApproval(uint(id), *input.Approved); err != nil {
		if errors.Is(err, ErrVenueNotFound) {
			responses.NotFound(c, "Venue")
			return
		}
		responses.InternalServerError(c, "Failed to update venue approval")
		return
	}

	responses.SendSuccess(c, http.StatusOK, "Venue approval updated", gin.H{"approved": *input.Approved})
}
