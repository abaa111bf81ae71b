package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"device-lending-api/app"
	"device-lending-api/db"
	"device-lending-api/notify"

	"github.com/gin-gonic/gin"
)

type FulfillmentController struct{ *Srv }

func NewFulfillmentController(s *Srv) *FulfillmentController {
	return &FulfillmentController{Srv: s}
}

// GET /api/admin/requests?status=&page=&size= - the fulfillment queue.
// status=overdue filters to completed lists past their deadline.
func (fc *FulfillmentController) ListRequests(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	res, err := fc.Repo.ListRequests(c.Request.Context(), db.ListRequestsQuery{
		Status: c.Query("status"),
		Page:   page,
		Size:   size,
	})
	if err != nil {
		fc.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"total": res.Total, "requests": withOverdue(res.Lists, fc.Repo.Now())})
}

// GET /api/admin/requests/:id
func (fc *FulfillmentController) GetRequest(c *gin.Context) {
	list, err := fc.Repo.GetList(c.Request.Context(), c.Param("id"))
	if err != nil {
		fc.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"request": listView{BorrowList: *list, IsOverdue: list.IsOverdue(fc.Repo.Now())}})
}

// POST /api/admin/requests/:id/ready - the borrower is told their devices are
// waiting, so the send happens inline and its failure is surfaced.
func (fc *FulfillmentController) MarkReady(c *gin.Context) {
	staged, err := fc.Repo.MarkReady(c.Request.Context(), c.Param("id"))
	if err != nil {
		fc.respondErr(c, err)
		return
	}
	list, err := fc.Repo.GetList(c.Request.Context(), staged.ID)
	if err != nil {
		fc.respondErr(c, err)
		return
	}

	notified := false
	if list.User != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		msg := notify.BuildListMessage(notify.EventReady, list.User, list, devicesOf(list))
		if err := fc.Notifier.Send(ctx, msg); err != nil {
			fc.Log.Warn("ready notification failed", "list_id", list.ID, "error", err)
		} else {
			notified = true
		}
	}
	c.JSON(http.StatusOK, app.H{"request": list, "notified": notified})
}

// POST /api/admin/requests/:id/complete - hands the devices over
func (fc *FulfillmentController) MarkCompleted(c *gin.Context) {
	res, err := fc.Repo.MarkCompleted(c.Request.Context(), c.Param("id"), fc.gracePeriod())
	if err != nil {
		fc.respondErr(c, err)
		return
	}
	list, err := fc.Repo.GetList(c.Request.Context(), res.List.ID)
	if err != nil {
		fc.respondErr(c, err)
		return
	}

	if list.User != nil {
		fc.notifyAsync(notify.BuildListMessage(notify.EventCompleted, list.User, list, devicesOf(list)))
	}
	c.JSON(http.StatusOK, app.H{
		"request":  list,
		"affected": res.Affected,
		"warnings": res.Warnings,
	})
}

// POST /api/admin/requests/:id/cancel
func (fc *FulfillmentController) CancelRequest(c *gin.Context) {
	res, err := fc.Repo.CancelRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		fc.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{
		"request":  res.List,
		"affected": res.Affected,
		"warnings": res.Warnings,
	})
}

// POST /api/admin/requests/:id/return - closes the loan
func (fc *FulfillmentController) MarkReturned(c *gin.Context) {
	res, err := fc.Repo.MarkReturned(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		fc.respondErr(c, err)
		return
	}
	list, err := fc.Repo.GetList(c.Request.Context(), res.List.ID)
	if err != nil {
		fc.respondErr(c, err)
		return
	}

	if list.User != nil {
		fc.notifyAsync(notify.BuildListMessage(notify.EventReturned, list.User, list, devicesOf(list)))
	}
	c.JSON(http.StatusOK, app.H{
		"request":  list,
		"affected": res.Affected,
		"warnings": res.Warnings,
	})
}

// GET /api/admin/requests/overdue - completed loans past their deadline
func (fc *FulfillmentController) ListOverdue(c *gin.Context) {
	lists, err := fc.Repo.ListOverdueLists(c.Request.Context(), fc.Repo.Now())
	if err != nil {
		fc.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"requests": withOverdue(lists, fc.Repo.Now())})
}
