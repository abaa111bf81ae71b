package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"device-lending-api/app"
	"device-lending-api/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserController struct{ *Srv }

func NewUserController(s *Srv) *UserController { return &UserController{Srv: s} }

type registerReq struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FullName  string `json:"fullName"`
	StudentID string `json:"studentId"`
	ClassName string `json:"className"`
}

// POST /api/register
func (uc *UserController) Register(c *gin.Context) {
	var in registerReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	u := &models.User{
		ID:        uuid.NewString(),
		Username:  strings.TrimSpace(in.Username),
		Email:     strings.TrimSpace(in.Email),
		FullName:  strings.TrimSpace(in.FullName),
		ClassName: strings.TrimSpace(in.ClassName),
	}
	if sid := strings.TrimSpace(in.StudentID); sid != "" {
		u.StudentID = &sid
	}
	if err := u.SetPassword(in.Password); err != nil {
		uc.respondErr(c, err)
		return
	}

	if err := uc.Repo.CreateUser(c.Request.Context(), u); err != nil {
		uc.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"user": u})
}

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /api/login
func (uc *UserController) Login(c *gin.Context) {
	var in loginReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	u, err := uc.Repo.FindUserByUsername(c.Request.Context(), strings.TrimSpace(in.Username))
	if err != nil || !u.CheckPassword(in.Password) {
		c.JSON(http.StatusUnauthorized, app.H{"error": "invalid username or password"})
		return
	}

	if err := uc.issueSession(c.Request.Context(), c.Writer, u.ID); err != nil {
		uc.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"user": u})
}

// POST /api/logout
func (uc *UserController) Logout(c *gin.Context) {
	if ck, err := c.Request.Cookie(app.SessionCookie); err == nil && ck.Value != "" {
		_ = uc.Sessions.Delete(c.Request.Context(), ck.Value)
	}
	uc.setSessionCookie(c.Writer, "", -1)
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /api/me
func (uc *UserController) WhoAmI(c *gin.Context) {
	u, err := uc.Repo.FindUserByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		uc.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"user": u})
}

type profileReq struct {
	Email           string `json:"email" binding:"required,email"`
	FullName        string `json:"fullName"`
	StudentID       string `json:"studentId"`
	ClassName       string `json:"className"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// PUT /api/me
func (uc *UserController) UpdateProfile(c *gin.Context) {
	var in profileReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	u, err := uc.Repo.FindUserByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		uc.respondErr(c, err)
		return
	}

	u.Email = strings.TrimSpace(in.Email)
	u.FullName = strings.TrimSpace(in.FullName)
	u.ClassName = strings.TrimSpace(in.ClassName)
	if sid := strings.TrimSpace(in.StudentID); sid != "" {
		u.StudentID = &sid
	} else {
		u.StudentID = nil
	}

	if in.Password != "" {
		if in.Password != in.PasswordConfirm {
			c.JSON(http.StatusBadRequest, app.H{"error": "passwords do not match"})
			return
		}
		if err := u.SetPassword(in.Password); err != nil {
			uc.respondErr(c, err)
			return
		}
	}

	if err := uc.Repo.UpdateUser(c.Request.Context(), u); err != nil {
		uc.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"user": u})
}

// --- admin ---

// GET /api/admin/users?q=&page=&size=
func (uc *UserController) ListUsers(c *gin.Context) {
	q := c.Query("q")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := uc.Repo.ListUsers(c.Request.Context(), q, page, size)
	if err != nil {
		uc.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"total": res.Total, "users": res.Users})
}

// GET /api/admin/users/:id - user detail plus their ledger history
func (uc *UserController) GetUser(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid uuid"})
		return
	}
	u, err := uc.Repo.FindUserByID(c.Request.Context(), id)
	if err != nil {
		uc.respondErr(c, err)
		return
	}
	txs, err := uc.Repo.UserTransactions(c.Request.Context(), id)
	if err != nil {
		uc.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"user": u, "transactions": txs})
}

// DELETE /api/admin/users/:id
func (uc *UserController) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if id == currentUserID(c) {
		c.JSON(http.StatusBadRequest, app.H{"error": "cannot delete yourself"})
		return
	}

	target, err := uc.Repo.FindUserByID(c.Request.Context(), id)
	if err != nil {
		uc.respondErr(c, err)
		return
	}
	if target.IsAdmin {
		c.JSON(http.StatusForbidden, app.H{"error": "cannot delete an admin"})
		return
	}

	if err := uc.Repo.DeleteUserByID(c.Request.Context(), id); err != nil {
		uc.respondErr(c, err)
		return
	}
	_ = uc.Sessions.RevokeAllForUser(c.Request.Context(), id)
	c.JSON(http.StatusOK, app.H{"ok": true})
}
