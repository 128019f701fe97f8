package dispatch

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// LogNotifier writes notifications to the log. It is always permitted.
type LogNotifier struct {
	logger log.FieldLogger
}

// NewLogNotifier creates a notifier logging through logger.
func NewLogNotifier(logger log.FieldLogger) *LogNotifier {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &LogNotifier{logger: logger.WithField("notifier", "log")}
}

func (l *LogNotifier) Permission(context.Context) Permission {
	return PermissionGranted
}

func (l *LogNotifier) RequestPermission(context.Context) Permission {
	return PermissionGranted
}

func (l *LogNotifier) Show(_ context.Context, n Notification) error {
	l.logger.WithFields(log.Fields{
		"tag":   n.Tag,
		"title": n.Title,
		"url":   n.URL,
	}).Info(n.Body)
	return nil
}
