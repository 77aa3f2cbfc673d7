package contacts

import (
	"errors"

	"github.com/Daskott/kontakt/apierror"
	"go.uber.org/zap"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
)

// Notification is the user facing side channel for operation outcomes
type Notification struct {
	Level   Level
	Title   string
	Message string
}

type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a plain function to Notifier
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

// LogNotifier is used when no UI is attached
type LogNotifier struct {
	logg *zap.SugaredLogger
}

func NewLogNotifier(logg *zap.SugaredLogger) *LogNotifier {
	return &LogNotifier{logg: logg}
}

func (l *LogNotifier) Notify(n Notification) {
	switch n.Level {
	case LevelDanger:
		l.logg.Errorf("%s: %s", n.Title, n.Message)
	case LevelWarning:
		l.logg.Warnf("%s: %s", n.Title, n.Message)
	default:
		l.logg.Infof("%s: %s", n.Title, n.Message)
	}
}

// failureNotification distinguishes "the server rejected it" from "nothing came back"
func failureNotification(err error, fallback string) Notification {
	serverErr := &apierror.ServerError{}
	if errors.As(err, &serverErr) {
		return Notification{Level: LevelDanger, Title: "Server Error", Message: serverErr.MessageOr(fallback)}
	}

	networkErr := &apierror.NetworkError{}
	if errors.As(err, &networkErr) {
		return Notification{Level: LevelDanger, Title: "Network Error", Message: "Network error occurred. Please try again."}
	}

	return Notification{Level: LevelDanger, Title: "Error", Message: fallback}
}
