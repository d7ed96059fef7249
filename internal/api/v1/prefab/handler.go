package prefab

import (
	"fmt"
	"freelyforms-backend/internal/middleware"
	"freelyforms-backend/internal/schema"
	"freelyforms-backend/internal/services"
	"freelyforms-backend/internal/utils"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ListPrefabs godoc
// @Summary List my prefabs
// @Description List the prefabs owned by the caller, newest first
// @Tags prefabs
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} utils.Response{data=[]schema.SimpleView}
// @Failure 401 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /prefabs [get]
func ListPrefabs(c *gin.Context) {
	prefabs, err := services.ListPrefabs(c.Request.Context(), middleware.CurrentCaller(c))
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]schema.SimpleView, 0, len(prefabs))
	for _, p := range prefabs {
		views = append(views, schema.NewSimpleView(p))
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Prefabs retrieved successfully", views))
}

// GetPrefab godoc
// @Summary Get a prefab
// @Description Get the detailed view of a prefab. Hidden fields are omitted unless withHidden is true.
// @Tags prefabs
// @Produce json
// @Param id path string true "Prefab ID"
// @Param withHidden query bool false "Include hidden fields" default(false)
// @Success 200 {object} utils.Response{data=schema.DetailedView}
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /prefabs/{id} [get]
func GetPrefab(c *gin.Context) {
	withHidden, err := strconv.ParseBool(c.DefaultQuery("withHidden", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid withHidden flag"))
		return
	}

	view, err := services.GetPrefabView(c.Request.Context(), middleware.CurrentCaller(c), c.Param("id"), withHidden)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Prefab retrieved successfully", view))
}

// CreatePrefab godoc
// @Summary Create a prefab
// @Description Create a form template owned by the caller
// @Tags prefabs
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param input body schema.PrefabInput true "Prefab definition"
// @Success 201 {object} utils.Response{data=schema.DetailedView}
// @Failure 400 {object} utils.Response{data=SchemaErrorData}
// @Failure 401 {object} utils.Response
// @Router /prefabs [post]
func CreatePrefab(c *gin.Context) {
	var input schema.PrefabInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	caller := middleware.CurrentCaller(c)
	p, err := services.CreatePrefab(c.Request.Context(), caller, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, utils.NewCreatedResponse("Prefab created successfully", schema.NewDetailedView(p, caller, true, false)))
}

// UpdatePrefab godoc
// @Summary Update a prefab
// @Description Replace the content of a prefab. Only its owner may update it.
// @Tags prefabs
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Prefab ID"
// @Param input body schema.PrefabInput true "Prefab definition"
// @Success 200 {object} utils.Response{data=schema.DetailedView}
// @Failure 400 {object} utils.Response{data=SchemaErrorData}
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /prefabs/{id} [patch]
func UpdatePrefab(c *gin.Context) {
	var input schema.PrefabInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	caller := middleware.CurrentCaller(c)
	p, err := services.UpdatePrefab(c.Request.Context(), caller, c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Prefab updated successfully", schema.NewDetailedView(p, caller, true, false)))
}

// SetActivation godoc
// @Summary Activate or deactivate a prefab
// @Description An inactive prefab rejects new answers. Only its owner may change it.
// @Tags prefabs
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Prefab ID"
// @Param input body ActivationRequest true "Activation flag"
// @Success 200 {object} utils.Response{data=schema.SimpleView}
// @Failure 400 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /prefabs/{id}/activation [patch]
func SetActivation(c *gin.Context) {
	var input ActivationRequest
	if !utils.BindAndValidate(c, &input) {
		return
	}

	p, err := services.SetPrefabActive(c.Request.Context(), middleware.CurrentCaller(c), c.Param("id"), *input.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Prefab activation updated", schema.NewSimpleView(p)))
}

// DeletePrefab godoc
// @Summary Delete a prefab
// @Description Delete a prefab and its answers. Only its owner may delete it.
// @Tags prefabs
// @Security ApiKeyAuth
// @Param id path string true "Prefab ID"
// @Success 204
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /prefabs/{id} [delete]
func DeletePrefab(c *gin.Context) {
	if _, err := services.DeletePrefab(c.Request.Context(), middleware.CurrentCaller(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
	c.Writer.WriteHeaderNow()
}

// SubmitAnswer godoc
// @Summary Answer a prefab
// @Description Submit values keyed by field id. Every violated check is reported.
// @Tags prefabs
// @Accept json
// @Produce json
// @Param id path string true "Prefab ID"
// @Param input body AnswerRequest true "Answer values"
// @Success 201 {object} utils.Response{data=AnswerResponse}
// @Failure 400 {object} utils.Response{data=ViolationsData}
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /prefabs/{id}/answers [post]
func SubmitAnswer(c *gin.Context) {
	var input AnswerRequest
	if !utils.BindAndValidate(c, &input) {
		return
	}

	rec, err := services.SubmitAnswer(c.Request.Context(), middleware.CurrentCaller(c), c.Param("id"), input.Values)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, utils.NewCreatedResponse("Answer submitted successfully", AnswerResponse{
		ID:       rec.ID,
		PrefabID: rec.PrefabID,
	}))
}

// ExportAnswers godoc
// @Summary Export answers
// @Description Download every answer of a prefab as an xlsx spreadsheet
// @Tags prefabs
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security ApiKeyAuth
// @Param id path string true "Prefab ID"
// @Success 200 {file} file
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /prefabs/{id}/export [get]
func ExportAnswers(c *gin.Context) {
	export, err := services.ExportAnswers(c.Request.Context(), middleware.CurrentCaller(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename()))
	c.Data(http.StatusOK, services.XLSXContentType, export.Bytes())
}
