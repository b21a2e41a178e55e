package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
	Timetable(ctx context.Context, query dto.TimetableQuery) ([]models.Slot, error)
	Periods(mode string) (*dto.PeriodGridResponse, error)
	Modes() []models.TimetableMode
}

type timetableEditor interface {
	Set(ctx context.Context, req dto.SetCellRequest) (*dto.SetCellResponse, error)
	Clear(ctx context.Context, req dto.ClearCellRequest) error
	TeacherChoices(ctx context.Context, query dto.TeacherChoicesQuery) (*dto.TeacherChoicesResponse, error)
}

// TimetableHandler exposes timetable generation and cell editing endpoints.
type TimetableHandler struct {
	generator timetableGenerator
	editor    timetableEditor
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(generator timetableGenerator, editor timetableEditor) *TimetableHandler {
	return &TimetableHandler{generator: generator, editor: editor}
}

// Register mounts the routes on group. Write routes run behind guards.
func (h *TimetableHandler) Register(group *gin.RouterGroup, guards ...gin.HandlerFunc) {
	timetables := group.Group("/timetables")
	timetables.GET("/modes", h.Modes)
	timetables.GET("/teacher-choices", h.TeacherChoices)
	timetables.GET("/:mode", h.Timetable)
	timetables.GET("/:mode/periods", h.Periods)

	writes := timetables.Group("", guards...)
	writes.POST("/:mode/generate", h.Generate)
	writes.PUT("/:mode/cells", h.SetCell)
	writes.DELETE("/:mode/cells", h.ClearCell)
}

// Modes godoc
// @Summary List timetable modes
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetables/modes [get]
func (h *TimetableHandler) Modes(c *gin.Context) {
	response.OK(c, h.generator.Modes())
}

// Periods godoc
// @Summary Get the period grid of a mode
// @Tags Timetable
// @Produce json
// @Param mode path string true "Timetable mode" Enums(upper_primary, junior, ecde)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /timetables/{mode}/periods [get]
func (h *TimetableHandler) Periods(c *gin.Context) {
	result, err := h.generator.Periods(c.Param("mode"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Timetable godoc
// @Summary Get the stored timetable of a mode
// @Tags Timetable
// @Produce json
// @Param mode path string true "Timetable mode"
// @Param classId query string false "Class ID"
// @Param streamId query string false "Stream ID (requires classId)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /timetables/{mode} [get]
func (h *TimetableHandler) Timetable(c *gin.Context) {
	query := dto.TimetableQuery{
		Mode:     c.Param("mode"),
		ClassID:  c.Query("classId"),
		StreamID: c.Query("streamId"),
	}
	slots, err := h.generator.Timetable(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, slots, map[string]interface{}{"count": len(slots)})
}

// Generate godoc
// @Summary Regenerate the whole timetable of a mode
// @Description Discards every stored slot of the mode and rebuilds it from the teacher assignments. Forced placements are reported, not rejected.
// @Tags Timetable
// @Produce json
// @Param mode path string true "Timetable mode"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /timetables/{mode}/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	result, err := h.generator.Generate(c.Request.Context(), dto.GenerateTimetableRequest{Mode: c.Param("mode")})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result, map[string]interface{}{
		"degraded": result.Degraded,
		"forced":   len(result.ForcedPlacements),
	})
}

// SetCell godoc
// @Summary Set one timetable cell
// @Tags Timetable
// @Accept json
// @Produce json
// @Param mode path string true "Timetable mode"
// @Param payload body dto.SetCellRequest true "Cell payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/{mode}/cells [put]
func (h *TimetableHandler) SetCell(c *gin.Context) {
	var req dto.SetCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cell payload"))
		return
	}
	req.Mode = c.Param("mode")
	result, err := h.editor.Set(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// ClearCell godoc
// @Summary Clear one timetable cell
// @Description Clearing an empty cell or a locked period succeeds without changes.
// @Tags Timetable
// @Param mode path string true "Timetable mode"
// @Param classId query string true "Class ID"
// @Param streamId query string true "Stream ID"
// @Param day query int true "Day of week (1=Monday)"
// @Param periodIndex query int true "Period index"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Router /timetables/{mode}/cells [delete]
func (h *TimetableHandler) ClearCell(c *gin.Context) {
	var req dto.ClearCellRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cell query"))
		return
	}
	req.Mode = c.Param("mode")
	if err := h.editor.Clear(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// TeacherChoices godoc
// @Summary Suggest teachers for a subject in a class
// @Description Returns the teachers assigned to the subject in the class, or every active teacher when none is.
// @Tags Timetable
// @Produce json
// @Param subjectId query string true "Subject ID"
// @Param classId query string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /timetables/teacher-choices [get]
func (h *TimetableHandler) TeacherChoices(c *gin.Context) {
	query := dto.TeacherChoicesQuery{
		SubjectID: c.Query("subjectId"),
		ClassID:   c.Query("classId"),
	}
	result, err := h.editor.TeacherChoices(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
