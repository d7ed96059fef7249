package prefab

import (
	"errors"
	"freelyforms-backend/internal/schema"
	"freelyforms-backend/internal/utils"
	"freelyforms-backend/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps service errors onto HTTP replies.
func respondError(c *gin.Context, err error) {
	var (
		sve *schema.SchemaValidationError
		ave *schema.AnswerValidationError
		ae  *schema.AuthorizationError
		nf  *schema.NotFoundError
		eio *schema.ExportIOError
	)

	switch {
	case errors.As(err, &sve):
		c.JSON(http.StatusBadRequest, utils.NewErrorResponseWithData(http.StatusBadRequest, sve.Error(), SchemaErrorData{
			Path:   sve.Path,
			Reason: sve.Reason,
		}))
	case errors.As(err, &ave):
		c.JSON(http.StatusBadRequest, utils.NewErrorResponseWithData(http.StatusBadRequest, "Invalid answers", ViolationsData{
			Violations: ave.Violations,
		}))
	case errors.As(err, &ae):
		c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, ae.Error()))
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, nf.Error()))
	case errors.Is(err, schema.ErrPrefabInactive):
		c.JSON(http.StatusConflict, utils.NewErrorResponse(http.StatusConflict, err.Error()))
	case errors.As(err, &eio):
		logger.Log.Error("Export failed", zap.String("prefab_id", eio.PrefabID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to generate export"))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Internal server error"))
	}
}
