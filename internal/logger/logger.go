package logger

import (
	"github.com/sirupsen/logrus"
)

// Log глобальный логгер приложения. До Init указывает на стандартный логгер logrus.
var Log = logrus.StandardLogger()

// Init настраивает уровень и формат логов: JSON в production, текст в development.
func Init(level string, production bool) {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if production {
		Log.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// WithRequest возвращает запись с идентификатором запроса.
func WithRequest(requestID string) *logrus.Entry {
	return Log.WithField("request_id", requestID)
}
