package telegram

import (
	"strings"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

func LogMiddleware(logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			start := time.Now()
			err := next(c)

			content := strings.TrimSpace(c.Text())
			kind := "text"
			if cb := c.Callback(); cb != nil {
				kind = "button"
				// Static buttons arrive with an empty Data and the name in Unique.
				content = strings.TrimSpace(cb.Data)
				if content == "" {
					content = strings.TrimSpace(cb.Unique)
				}
			}

			fields := []zap.Field{
				zap.String("kind", kind),
				zap.String("content", content),
				zap.Duration("duration", time.Since(start)),
			}
			if user := c.Sender(); user != nil {
				fields = append(fields, zap.Int64("user_id", user.ID), zap.String("username", user.Username))
			}
			if err != nil {
				logger.Warn("telegram update failed", append(fields, zap.Error(err))...)
				return err
			}
			logger.Info("telegram update", fields...)
			return nil
		}
	}
}
