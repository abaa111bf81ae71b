package controllers

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"

	"device-lending-api/app"
	"device-lending-api/db"
	"device-lending-api/models"
	"device-lending-api/notify"

	"github.com/gin-gonic/gin"
)

type DeviceController struct{ *Srv }

func NewDeviceController(s *Srv) *DeviceController { return &DeviceController{Srv: s} }

// GET /api/devices?query=&status=&category=&page=&size=
func (dc *DeviceController) ListDevices(c *gin.Context) {
	q := db.DeviceQuery{
		Query:    c.Query("query"),
		Status:   c.Query("status"),
		Category: c.Query("category"),
	}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.Size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := dc.Repo.ListDevices(c.Request.Context(), q)
	if err != nil {
		dc.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"total": res.Total, "devices": res.Devices})
}

// GET /api/devices/:id - detail plus ledger history
func (dc *DeviceController) GetDevice(c *gin.Context) {
	d, err := dc.Repo.FindDeviceByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		dc.respondErr(c, err)
		return
	}
	txs, err := dc.Repo.DeviceTransactions(c.Request.Context(), d.ID)
	if err != nil {
		dc.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"device": d, "transactions": txs})
}

type createDevicesReq struct {
	Name        string `json:"name" binding:"required"`
	Serials     string `json:"serials" binding:"required"` // newline-separated
	Category    string `json:"category"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Unit        string `json:"unit"`
	ImageURL    string `json:"imageUrl"`
}

// POST /api/devices - one name, one serial per line, like the add-device form
func (dc *DeviceController) CreateDevices(c *gin.Context) {
	var in createDevicesReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	serials := strings.Split(in.Serials, "\n")
	adminID := currentUserID(c)
	template := models.Device{
		Name:        strings.TrimSpace(in.Name),
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		Unit:        strings.TrimSpace(in.Unit),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		CreatedByID: &adminID,
	}

	added, existing, err := dc.Repo.CreateDeviceBatch(c.Request.Context(), template, serials)
	if err != nil {
		dc.respondErr(c, err)
		return
	}
	if len(added) == 0 {
		c.JSON(http.StatusConflict, app.H{"added": 0, "existingSerials": existing})
		return
	}
	c.JSON(http.StatusCreated, app.H{
		"added":           len(added),
		"devices":         added,
		"existingSerials": existing,
	})
}

type updateDeviceReq struct {
	Name        string  `json:"name" binding:"required"`
	Serial      string  `json:"serial" binding:"required"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Unit        string  `json:"unit"`
	Status      string  `json:"status"`
	ImageURL    *string `json:"imageUrl"`
}

// PUT /api/devices/:id
func (dc *DeviceController) UpdateDevice(c *gin.Context) {
	var in updateDeviceReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	d, err := dc.Repo.UpdateDevice(c.Request.Context(), c.Param("id"), db.UpdateDeviceInput{
		Name:        strings.TrimSpace(in.Name),
		Serial:      in.Serial,
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		Unit:        strings.TrimSpace(in.Unit),
		Status:      strings.TrimSpace(in.Status),
		ImageURL:    in.ImageURL,
	})
	if err != nil {
		dc.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"device": d})
}

// DELETE /api/devices/:id - cascades the device's ledger
func (dc *DeviceController) DeleteDevice(c *gin.Context) {
	if err := dc.Repo.DeleteDevice(c.Request.Context(), c.Param("id")); err != nil {
		dc.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

type adminBorrowReq struct {
	Username string `json:"username" binding:"required"`
	Note     string `json:"note"`
}

// POST /api/devices/:id/borrow - ad-hoc admin loan outside the cart flow
func (dc *DeviceController) AdminBorrow(c *gin.Context) {
	var in adminBorrowReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	borrower, err := dc.Repo.FindUserByUsername(c.Request.Context(), strings.TrimSpace(in.Username))
	if err != nil {
		dc.respondErr(c, err)
		return
	}

	tx, err := dc.Repo.BorrowDevice(c.Request.Context(), c.Param("id"), borrower.ID, in.Note)
	if err != nil {
		dc.respondErr(c, err)
		return
	}

	if d, derr := dc.Repo.FindDeviceByID(c.Request.Context(), tx.DeviceID); derr == nil {
		dc.notifyAsync(notify.BuildDeviceMessage(notify.EventBorrowed, borrower, d))
	}
	c.JSON(http.StatusCreated, app.H{"transaction": tx})
}

type adminReturnReq struct {
	Note string `json:"note"`
}

// POST /api/devices/:id/return
func (dc *DeviceController) AdminReturn(c *gin.Context) {
	var in adminReturnReq
	_ = c.ShouldBindJSON(&in)

	d, err := dc.Repo.FindDeviceByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		dc.respondErr(c, err)
		return
	}
	var borrower *models.User
	if d.BorrowerID != nil {
		borrower, _ = dc.Repo.FindUserByID(c.Request.Context(), *d.BorrowerID)
	}

	tx, err := dc.Repo.ReturnDevice(c.Request.Context(), d.ID, currentUserID(c), in.Note)
	if err != nil {
		dc.respondErr(c, err)
		return
	}

	if borrower != nil {
		d.Status = models.DeviceAvailable
		dc.notifyAsync(notify.BuildDeviceMessage(notify.EventReturnedOne, borrower, d))
	}
	c.JSON(http.StatusOK, app.H{"transaction": tx})
}

// GET /api/devices/export.csv
func (dc *DeviceController) ExportCSV(c *gin.Context) {
	devices, err := dc.Repo.AllDevices(c.Request.Context())
	if err != nil {
		dc.respondErr(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="devices_export.csv"`)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"ID", "Name", "Serial", "Category", "Unit", "Status", "Location", "Created At"})
	for _, d := range devices {
		_ = w.Write([]string{
			d.ID, d.Name, d.Serial, d.Category, d.Unit, d.Status, d.Location,
			d.CreatedAt.Format("2006-01-02"),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		dc.Log.Warn("csv export truncated", "error", err)
	}
}

// GET /api/dashboard - device counters plus recent ledger activity
func (dc *DeviceController) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	stats, err := dc.Repo.CountDevices(ctx)
	if err != nil {
		dc.respondErr(c, err)
		return
	}
	users, err := dc.Repo.CountUsers(ctx)
	if err != nil {
		dc.respondErr(c, err)
		return
	}
	txCount, err := dc.Repo.CountTransactions(ctx)
	if err != nil {
		dc.respondErr(c, err)
		return
	}
	recent, err := dc.Repo.RecentTransactions(ctx, 20)
	if err != nil {
		dc.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{
		"devices":            stats,
		"users":              users,
		"transactions":       txCount,
		"recentTransactions": recent,
	})
}

// GET /api/transactions?page=&size= - the paginated admin ledger
func (dc *DeviceController) ListTransactions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	res, err := dc.Repo.ListTransactions(c.Request.Context(), page, size)
	if err != nil {
		dc.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"total": res.Total, "transactions": res.Transactions})
}
