package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"device-lending-api/app"
	"device-lending-api/db"
	"device-lending-api/logger"
	"device-lending-api/models"
	"device-lending-api/notify"
	"device-lending-api/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Srv struct {
	Repo     *db.Repo
	Sessions *session.Store
	Notifier notify.Notifier
	Log      *logger.Logger
	Cfg      appConfig
}

// appConfig is the slice of config the controllers actually use.
type appConfig struct {
	WebOrigin  string
	SessionTTL time.Duration
	GraceDays  int
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Repo:     db.NewRepo(a.DB),
		Sessions: a.Sessions,
		Notifier: a.Notifier,
		Log:      a.Log,
		Cfg: appConfig{
			WebOrigin:  a.Config.Server.WebOrigin,
			SessionTTL: a.Config.Session.TTL,
			GraceDays:  a.Config.Lending.ReturnGraceDays,
		},
	}
}

func (s *Srv) gracePeriod() time.Duration {
	days := s.Cfg.GraceDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}

// respondErr maps repo sentinels onto HTTP statuses. Anything unmapped is a
// storage failure and comes back as 500 without leaking internals.
func (s *Srv) respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, db.ErrValidation):
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
	case errors.Is(err, db.ErrForbidden):
		c.JSON(http.StatusForbidden, app.H{"error": err.Error()})
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": err.Error()})
	case errors.Is(err, db.ErrConflict):
		c.JSON(http.StatusConflict, app.H{"error": err.Error()})
	case errors.Is(err, db.ErrDuplicateItem):
		c.JSON(http.StatusConflict, app.H{"error": err.Error()})
	case errors.Is(err, db.ErrInvalidState):
		c.JSON(http.StatusConflict, app.H{"error": err.Error()})
	case errors.Is(err, db.ErrEmptyCart):
		c.JSON(http.StatusUnprocessableEntity, app.H{"error": err.Error()})
	default:
		s.Log.Error("request failed", "error", err)
		c.JSON(http.StatusInternalServerError, app.H{"error": "internal error"})
	}
}

func currentUserID(c *gin.Context) string {
	v, _ := c.Get("userID")
	uid, _ := v.(string)
	return uid
}

// --- session helpers ---

func (s *Srv) setSessionCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	secure := strings.HasPrefix(s.Cfg.WebOrigin, "https://")
	http.SetCookie(w, &http.Cookie{
		Name:     app.SessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		MaxAge:   int(maxAge / time.Second),
	})
}

func (s *Srv) issueSession(ctx context.Context, w http.ResponseWriter, userID string) error {
	_ = s.Repo.TouchUserLogin(ctx, userID) // best effort
	id := uuid.NewString()
	if err := s.Sessions.Create(ctx, id, userID); err != nil {
		return err
	}
	s.setSessionCookie(w, id, s.Cfg.SessionTTL)
	return nil
}

// notifyAsync delivers mail decoupled from the transition that already
// committed; a failed send is only ever a log line.
func (s *Srv) notifyAsync(msg notify.Message) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Notifier.Send(ctx, msg); err != nil {
			s.Log.Warn("notification failed", "event", string(msg.Event), "error", err)
		}
	}()
}

func devicesOf(list *models.BorrowList) []models.Device {
	out := make([]models.Device, 0, len(list.Items))
	for _, it := range list.Items {
		if it.Device != nil {
			out = append(out, *it.Device)
		}
	}
	return out
}

// listView wraps a list with its derived overdue flag for JSON responses.
type listView struct {
	models.BorrowList
	IsOverdue bool `json:"isOverdue"`
}

func withOverdue(lists []models.BorrowList, now time.Time) []listView {
	out := make([]listView, 0, len(lists))
	for _, l := range lists {
		out = append(out, listView{BorrowList: l, IsOverdue: l.IsOverdue(now)})
	}
	return out
}
