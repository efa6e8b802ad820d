package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func (h *Handler) createExport(c *gin.Context) {
	if h.exports == nil {
		h.fail(c, errExportsDisabled)
		return
	}

	export, err := h.exports.Export(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.logger.WithFields(logrus.Fields{
		"user_id":  currentUser(c).ID,
		"location": export.Location,
	}).Info("statement exported")
	c.JSON(http.StatusCreated, exportToResponse(*export))
}

func (h *Handler) listExports(c *gin.Context) {
	if h.exports == nil {
		h.fail(c, errExportsDisabled)
		return
	}

	exports, err := h.exports.List(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := make([]ExportResponse, 0, len(exports))
	for _, e := range exports {
		resp = append(resp, exportToResponse(e))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) purgeExports(c *gin.Context) {
	if h.exports == nil {
		h.fail(c, errExportsDisabled)
		return
	}

	if err := h.exports.Purge(c.Request.Context(), currentUser(c).ID); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
