package game

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rallyhq/rally/internal/middleware"
	"github.com/rallyhq/rally/internal/skill"
	"github.com/rallyhq/rally/pkg/responses"
)

// GameController handles game-related HTTP requests.
type GameController struct {
	service *GameService
}

// NewGameController creates a new game controller.
func NewGameController(service *GameService) *GameController {
	return &GameController{service: service}
}

// --- DTOs for requests ---

// CreateGameRequest defines the request payload for creating a game.
type CreateGameRequest struct {
	VenueID    uint        `json:"venue_id" binding:"required"`
	StartTime  time.Time   `json:"start_time" binding:"required"`
	MinPlayers int         `json:"min_players" binding:"omitempty,min=2,max=8"`
	MaxPlayers int         `json:"max_players" binding:"omitempty,min=2,max=8"`
	SkillMin   *skill.Tier `json:"skill_min,omitempty"`
	SkillMax   *skill.Tier `json:"skill_max,omitempty"`
}

// ModifyGameRequest defines the organizer's patch payload.
type ModifyGameRequest struct {
	StartTime  *time.Time  `json:"start_time,omitempty"`
	VenueID    *uint       `json:"venue_id,omitempty"`
	MinPlayers *int        `json:"min_players,omitempty" binding:"omitempty,min=2,max=8"`
	MaxPlayers *int        `json:"max_players,omitempty" binding:"omitempty,min=2,max=8"`
	SkillMin   *skill.Tier `json:"skill_min,omitempty"`
	SkillMax   *skill.Tier `json:"skill_max,omitempty"`
}

// GameResponse is the game payload returned by every transition, with the
// status projected through the past rule.
type GameResponse struct {
	Game
	EffectiveStatus GameStatus `json:"effective_status"`
}

func gameResponse(g *Game) GameResponse {
	return GameResponse{Game: *g, EffectiveStatus: g.EffectiveStatus(time.Now())}
}

// respondError maps the typed error taxonomy to HTTP statuses.
func respondError(c *gin.Context, err error) {
	e, ok := err.(*Error)
	if !ok {
		responses.InternalServerError(c, "")
		return
	}

	var status int
	switch e.Kind {
	case KindValidation:
		status = http.StatusUnprocessableEntity
	case KindNotFound:
		status = http.StatusNotFound
	case KindForbidden:
		status = http.StatusForbidden
	case KindConflict:
		status = http.StatusConflict
	case KindDependency:
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}

	c.AbortWithStatusJSON(status, responses.ErrorResponse{
		Status:  "error",
		Message: e.Message,
		Code:    status,
		Errors:  errorDetails(e),
	})
}

func errorDetails(e *Error) interface{} {
	if len(e.Fields) > 0 {
		return map[string]interface{}{"reason": e.Reason, "fields": e.Fields}
	}
	return map[string]interface{}{"reason": e.Reason}
}

// CreateGame godoc
// @Summary Create a new game
// @Description Schedule a pickup game at an approved venue; the caller is enrolled as organizer
// @Tags games
// @Accept json
// @Produce json
// @Param game body CreateGameRequest true "Game information"
// @Success 201 {object} responses.SuccessResponse
// @Failure 422 {object} responses.ErrorResponse "Invalid input"
// @Router /games [post]
// @Security Bearer
func (gc *GameController) CreateGame(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	var req CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.SendValidationError(c, err)
		return
	}

	g, err := gc.service.CreateGame(userID, CreateGameInput{
		VenueID:    req.VenueID,
		StartTime:  req.StartTime,
		MinPlayers: req.MinPlayers,
		MaxPlayers: req.MaxPlayers,
		SkillMin:   req.SkillMin,
		SkillMax:   req.SkillMax,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	responses.SendSuccess(c, http.StatusCreated, "Game created", gameResponse(g))
}

// GetGames godoc
// @Summary List games
// @Tags games
// @Produce json
// @Param status query string false "Filter by stored status"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} responses.PaginatedResponse
// @Router /games [get]
func (gc *GameController) GetGames(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	status := GameStatus(c.Query("status"))

	games, total, err := gc.service.ListGames(status, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]GameResponse, 0, len(games))
	for i := range games {
		out = append(out, gameResponse(&games[i]))
	}
	responses.SendPaginated(c, http.StatusOK, "", out, total, page, limit)
}

// GetGameByID godoc
// @Summary Get a game
// @Tags games
// @Produce json
// @Param id path int true "Game ID"
// @Success 200 {object} responses.SuccessResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /games/{id} [get]
func (gc *GameController) GetGameByID(c *gin.Context) {
	gameID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	g, err := gc.service.GetGame(gameID)
	if err != nil {
		respondError(c, err)
		return
	}

	responses.SendSuccess(c, http.StatusOK, "", gameResponse(g))
}

// GetGamePlayers godoc
// @Summary List the players of a game
// @Tags games
// @Produce json
// @Param id path int true "Game ID"
// @Success 200 {object} responses.SuccessResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /games/{id}/players [get]
func (gc *GameController) GetGamePlayers(c *gin.Context) {
	gameID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	players, err := gc.service.ListParticipants(gameID)
	if err != nil {
		respondError(c, err)
		return
	}

	responses.SendSuccess(c, http.StatusOK, "", players)
}

// JoinGame godoc
// @Summary Join a game
// @Tags games
// @Produce json
// @Param id path int true "Game ID"
// @Success 200 {object} responses.SuccessResponse
// @Failure 409 {object} responses.ErrorResponse "Game full, window closed, already joined or skill mismatch"
// @Router /games/{id}/join [post]
// @Security Bearer
func (gc *GameController) JoinGame(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	gameID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	g, err := gc.service.JoinGame(gameID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	responses.SendSuccess(c, http.StatusOK, "Joined game", gameResponse(g))
}

// LeaveGame godoc
// @Summary Leave a game
// @Tags games
// @Produce json
// @Param id path int true "Game ID"
// @Success 200 {object} responses.SuccessResponse
// @Failure 409 {object} responses.ErrorResponse
// @Router /games/{id}/leave [post]
// @Security Bearer
func (gc *GameController) LeaveGame(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	gameID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	g, err := gc.service.LeaveGame(gameID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	responses.SendSuccess(c, http.StatusOK, "Left game", gameResponse(g))
}

// RemovePlayer godoc
// @Summary Remove a player from a game
// @Description Organizer or admin only; the organizer cannot be removed
// @Tags games
// @Produce json
// @Param id path int true "Game ID"
// @Param userId path int true "Target user ID"
// @Success 200 {object} responses.SuccessResponse
// @Failure 403 {object} responses.ErrorResponse
// @Router /games/{id}/players/{userId} [delete]
// @Security Bearer
func (gc *GameController) RemovePlayer(c *gin.Context) {
	actingUserID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	gameID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	targetUserID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}

	g, err := gc.service.RemoveParticipant(gameID, actingUserID, targetUserID, middleware.IsAdminFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	responses.SendSuccess(c, http.StatusOK, "Player removed", gameResponse(g))
}

// ModifyGame godoc
// @Summary Modify a game
// @Description Organizer only; changing the start time re-derives the reminders
// @Tags games
// @Accept json
// @Produce json
// @Param id path int true "Game ID"
// @Param patch body ModifyGameRequest true "Fields to change"
// @Success 200 {object} responses.SuccessResponse
// @Failure 409 {object} responses.ErrorResponse
// @Router /games/{id} [patch]
// @Security Bearer
func (gc *GameController) ModifyGame(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	gameID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ModifyGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.SendValidationError(c, err)
		return
	}

	g, err := gc.service.ModifyGame(gameID, userID, ModifyGameInput{
		StartTime:  req.StartTime,
		VenueID:    req.VenueID,
		MinPlayers: req.MinPlayers,
		MaxPlayers: req.MaxPlayers,
		SkillMin:   req.SkillMin,
		SkillMax:   req.SkillMax,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	responses.SendSuccess(c, http.StatusOK, "Game updated", gameResponse(g))
}

// CancelGame godoc
// @Summary Cancel a game
// @Description Organizer or admin only; terminal, notifies current players
// @Tags games
// @Produce json
// @Param id path int true "Game ID"
// @Success 200 {object} responses.SuccessResponse
// @Failure 409 {object} responses.ErrorResponse
// @Router /games/{id}/cancel [post]
// @Security Bearer
func (gc *GameController) CancelGame(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	gameID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	g, err := gc.service.CancelGame(gameID, userID, middleware.IsAdminFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	responses.SendSuccess(c, http.StatusOK, "Game cancelled", gameResponse(g))
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		responses.BadRequest(c, "Invalid "+name+" parameter")
		return 0, false
	}
	return uint(id), true
}
