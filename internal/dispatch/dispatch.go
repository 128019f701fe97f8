// Package dispatch turns reminder alerts into platform notifications.
package dispatch

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/metrics"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Permission is the notification permission state reported by the platform.
type Permission string

const (
	PermissionDefault     Permission = "default"
	PermissionGranted     Permission = "granted"
	PermissionDenied      Permission = "denied"
	PermissionUnsupported Permission = "unsupported"
)

const (
	// GroupThreshold is the largest batch still shown as individual notifications.
	GroupThreshold = 3
	// SummaryTag replaces any previous grouped notification on the platform.
	SummaryTag = "maintenance-summary"
	// MaintenancePath is the view opened when a notification is clicked.
	MaintenancePath = "/manutencoes"
	// DefaultIcon is attached to every notification unless overridden.
	DefaultIcon = "/favicon.ico"
)

// Notification is a single platform notification.
type Notification struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	Icon    string `json:"icon,omitempty"`
	Tag     string `json:"tag"`
	URL     string `json:"url,omitempty"`
	OnClick func() `json:"-"`
}

// Notifier is the platform notification facility.
type Notifier interface {
	Permission(ctx context.Context) Permission
	RequestPermission(ctx context.Context) Permission
	Show(ctx context.Context, n Notification) error
}

// Navigator brings the application to the front and opens a view.
type Navigator interface {
	Focus()
	Navigate(path string)
}

// TaskTag is the per-task tag, so distinct tasks are never collapsed by the platform.
func TaskTag(taskID string) string {
	return "maintenance-" + taskID
}

// Dispatcher decides between one grouped notification and one per alert.
type Dispatcher struct {
	notifier  Notifier
	navigator Navigator
	onClick   func(Notification)
	icon      string
	logger    log.FieldLogger
	metrics   *metrics.Metrics
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithNavigator sets the default click target.
func WithNavigator(nav Navigator) Option {
	return func(d *Dispatcher) { d.navigator = nav }
}

// WithClickHandler replaces the default focus-and-navigate click behaviour.
func WithClickHandler(fn func(Notification)) Option {
	return func(d *Dispatcher) { d.onClick = fn }
}

// WithIcon overrides DefaultIcon.
func WithIcon(icon string) Option {
	return func(d *Dispatcher) { d.icon = icon }
}

// WithMetrics counts emitted notifications.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// New creates a dispatcher emitting through notifier.
func New(notifier Notifier, logger log.FieldLogger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = log.StandardLogger()
	}
	d := &Dispatcher{
		notifier: notifier,
		icon:     DefaultIcon,
		logger:   logger.WithField("component", "dispatch"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch emits alerts and returns how many notifications were shown. It does nothing when
// notifications are switched off or the platform has not granted permission.
func (d *Dispatcher) Dispatch(ctx context.Context, s models.NotificationSettings, alerts []models.Alert) int {
	if !s.ShowBrowserNotifications || len(alerts) == 0 || d.notifier == nil {
		return 0
	}
	if !d.permitted(ctx) {
		return 0
	}

	if len(alerts) > GroupThreshold {
		n := d.decorate(Notification{
			Title: fmt.Sprintf("%d maintenance reminders", len(alerts)),
			Body:  SummaryBody(alerts),
			Tag:   SummaryTag,
		})
		if err := d.notifier.Show(ctx, n); err != nil {
			d.logger.WithError(err).Warn("Failed to show grouped notification")
			return 0
		}
		d.metrics.Notified("grouped", 1)
		return 1
	}

	shown := 0
	for _, a := range alerts {
		n := d.decorate(Notification{
			Title: a.Title,
			Body:  a.Body,
			Tag:   TaskTag(a.TaskID()),
		})
		if err := d.notifier.Show(ctx, n); err != nil {
			d.logger.WithError(err).WithField("tag", n.Tag).Warn("Failed to show notification")
			continue
		}
		shown++
	}
	d.metrics.Notified("individual", shown)
	return shown
}

// permitted asks for permission only when the platform has not been asked yet.
func (d *Dispatcher) permitted(ctx context.Context) bool {
	p := d.notifier.Permission(ctx)
	if p == PermissionDefault {
		p = d.notifier.RequestPermission(ctx)
	}
	if p != PermissionGranted {
		d.logger.WithField("permission", p).Debug("Notifications not permitted")
		return false
	}
	return true
}

func (d *Dispatcher) decorate(n Notification) Notification {
	n.Icon = d.icon
	n.URL = MaintenancePath
	snapshot := n
	n.OnClick = func() { d.click(snapshot) }
	return n
}

func (d *Dispatcher) click(n Notification) {
	if d.onClick != nil {
		d.onClick(n)
		return
	}
	if d.navigator == nil {
		return
	}
	d.navigator.Focus()
	d.navigator.Navigate(n.URL)
}

// SummaryBody counts alerts per kind, e.g. "2 overdue, 1 due today, 3 upcoming".
// Kinds with no alerts are left out.
func SummaryBody(alerts []models.Alert) string {
	counts := map[models.AlertKind]int{}
	for _, a := range alerts {
		counts[a.Kind]++
	}
	var parts []string
	if n := counts[models.AlertOverdue]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d overdue", n))
	}
	if n := counts[models.AlertToday]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d due today", n))
	}
	if n := counts[models.AlertUpcoming]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d upcoming", n))
	}
	return strings.Join(parts, ", ")
}
