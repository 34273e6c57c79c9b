package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	applogger "PlayerCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover turns a handler panic into a logged 500. reply writes the body;
// nil falls back to a bare status. Nothing is written once the response has
// been committed.
func Recover(l *applogger.Logger, reply echo.HandlerFunc) echo.MiddlewareFunc {
	if reply == nil {
		reply = func(c echo.Context) error { return c.NoContent(http.StatusInternalServerError) }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}
				l.Error("panic in http handler",
					applogger.String("method", c.Request().Method),
					applogger.String("route", c.Path()),
					applogger.String("panic", fmt.Sprint(r)),
					applogger.String("stack", string(debug.Stack())))
				if c.Response().Committed {
					err = nil
					return
				}
				err = reply(c)
			}()
			return next(c)
		}
	}
}
