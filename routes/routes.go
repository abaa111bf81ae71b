package routes

import (
	"time"

	"device-lending-api/app"
	"device-lending-api/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(a *app.App) {
	srv := controllers.GetSrv(a)
	users := controllers.NewUserController(srv)
	devices := controllers.NewDeviceController(srv)
	cart := controllers.NewCartController(srv)
	fulfillment := controllers.NewFulfillmentController(srv)
	imports := controllers.NewImportController(srv)

	authMW := app.AuthRequired(srv.Sessions, srv.Repo)
	adminMW := app.AdminOnly()
	seenMW := app.TouchLastSeen(srv.Repo, a.RDB, 5*time.Minute)

	a.Router.GET("/healthz", func(c *gin.Context) { c.JSON(200, app.H{"ok": true}) })

	api := a.Router.Group("/api")
	{
		api.POST("/register", users.Register)
		api.POST("/login", users.Login)
	}

	auth := api.Group("/")
	auth.Use(authMW, seenMW)
	{
		auth.POST("/logout", users.Logout)
		auth.GET("/me", users.WhoAmI)
		auth.PUT("/me", users.UpdateProfile)

		auth.GET("/devices", devices.ListDevices)
		auth.GET("/devices/:id", devices.GetDevice)

		auth.GET("/my-list", cart.MyList)
		auth.GET("/my-list/count", cart.MyListCount)
		auth.POST("/my-list/items", cart.AddItem)
		auth.DELETE("/my-list/items/:itemId", cart.RemoveItem)
		auth.POST("/my-list/submit", cart.Submit)
		auth.GET("/my-requests", cart.MyRequests)
	}

	admin := api.Group("/admin")
	admin.Use(authMW, seenMW, adminMW)
	{
		admin.GET("/dashboard", devices.Dashboard)
		admin.GET("/transactions", devices.ListTransactions)

		admin.POST("/devices", devices.CreateDevices)
		admin.PUT("/devices/:id", devices.UpdateDevice)
		admin.DELETE("/devices/:id", devices.DeleteDevice)
		admin.POST("/devices/:id/borrow", devices.AdminBorrow)
		admin.POST("/devices/:id/return", devices.AdminReturn)
		admin.GET("/devices/export.csv", devices.ExportCSV)
		admin.POST("/devices/import", imports.ImportDevices)

		admin.GET("/requests", fulfillment.ListRequests)
		admin.GET("/requests/overdue", fulfillment.ListOverdue)
		admin.GET("/requests/:id", fulfillment.GetRequest)
		admin.POST("/requests/:id/ready", fulfillment.MarkReady)
		admin.POST("/requests/:id/complete", fulfillment.MarkCompleted)
		admin.POST("/requests/:id/cancel", fulfillment.CancelRequest)
		admin.POST("/requests/:id/return", fulfillment.MarkReturned)

		admin.GET("/users", users.ListUsers)
		admin.GET("/users/:id", users.GetUser)
		admin.DELETE("/users/:id", users.DeleteUser)
	}
}
