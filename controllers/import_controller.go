package controllers

import (
	"errors"
	"net/http"

	"device-lending-api/app"
	"device-lending-api/importer"

	"github.com/gin-gonic/gin"
)

type ImportController struct{ *Srv }

func NewImportController(s *Srv) *ImportController { return &ImportController{Srv: s} }

// POST /api/admin/devices/import - multipart upload, field name "file".
// The whole file lands in one transaction: either every accepted row is
// created or none are.
func (ic *ImportController) ImportDevices(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "missing import file"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "cannot read import file"})
		return
	}
	defer f.Close()

	rows, err := importer.CSVSource{Reader: f}.Rows()
	if err != nil {
		if errors.Is(err, importer.ErrMissingHeader) {
			c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, app.H{"error": "malformed import file"})
		return
	}

	res, err := ic.Repo.ImportDevices(c.Request.Context(), currentUserID(c), rows)
	if err != nil {
		ic.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{
		"created":          res.Created,
		"skippedMissing":   res.SkippedMissing,
		"skippedDuplicate": res.SkippedDuplicate,
		"duplicateSerials": res.DuplicateSerials,
	})
}
