package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"device-lending-api/app"
	"device-lending-api/db"
	"device-lending-api/notify"

	"github.com/gin-gonic/gin"
)

type CartController struct{ *Srv }

func NewCartController(s *Srv) *CartController { return &CartController{Srv: s} }

// GET /api/my-list - the caller's draft cart, empty shape when none exists
func (cc *CartController) MyList(c *gin.Context) {
	list, err := cc.Repo.PendingList(c.Request.Context(), currentUserID(c))
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusOK, app.H{"list": nil, "items": []app.H{}})
		return
	}
	if err != nil {
		cc.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"list": list, "items": list.Items})
}

// GET /api/my-list/count - badge counter for the nav bar
func (cc *CartController) MyListCount(c *gin.Context) {
	n, err := cc.Repo.PendingItemCount(c.Request.Context(), currentUserID(c))
	if err != nil {
		cc.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"count": n})
}

type addToCartReq struct {
	DeviceID string `json:"deviceId" binding:"required"`
}

// POST /api/my-list/items
func (cc *CartController) AddItem(c *gin.Context) {
	var in addToCartReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	item, err := cc.Repo.AddToCart(c.Request.Context(), currentUserID(c), in.DeviceID)
	if err != nil {
		cc.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"item": item})
}

// DELETE /api/my-list/items/:itemId
func (cc *CartController) RemoveItem(c *gin.Context) {
	itemID, err := strconv.ParseUint(c.Param("itemId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid item id"})
		return
	}
	if err := cc.Repo.RemoveFromCart(c.Request.Context(), currentUserID(c), uint(itemID)); err != nil {
		cc.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

type submitListReq struct {
	ExpectedDate string `json:"expectedDate" binding:"required"` // YYYY-MM-DD
}

// POST /api/my-list/submit - hands the cart to the admins
func (cc *CartController) Submit(c *gin.Context) {
	var in submitListReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	expected, err := time.Parse("2006-01-02", in.ExpectedDate)
	if err != nil {
		cc.respondErr(c, db.ErrValidation)
		return
	}

	list, err := cc.Repo.SubmitList(c.Request.Context(), currentUserID(c), expected)
	if err != nil {
		cc.respondErr(c, err)
		return
	}

	// Reload with user and items for the response and the email.
	full, err := cc.Repo.GetList(c.Request.Context(), list.ID)
	if err != nil {
		cc.respondErr(c, err)
		return
	}
	if full.User != nil {
		cc.notifyAsync(notify.BuildListMessage(notify.EventSubmitted, full.User, full, devicesOf(full)))
	}
	c.JSON(http.StatusOK, app.H{"list": full})
}

// GET /api/my-requests - the caller's submitted history, newest first
func (cc *CartController) MyRequests(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	res, err := cc.Repo.ListRequests(c.Request.Context(), db.ListRequestsQuery{
		UserID: currentUserID(c),
		Status: c.Query("status"),
		Page:   page,
		Size:   size,
	})
	if err != nil {
		cc.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"total": res.Total, "requests": withOverdue(res.Lists, cc.Repo.Now())})
}
