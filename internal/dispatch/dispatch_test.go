package dispatch

import (
	"context"
	"errors"
	"io"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Permission(ctx context.Context) Permission {
	args := m.Called(ctx)
	return args.Get(0).(Permission)
}

func (m *MockNotifier) RequestPermission(ctx context.Context) Permission {
	args := m.Called(ctx)
	return args.Get(0).(Permission)
}

func (m *MockNotifier) Show(ctx context.Context, n Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type recordingNavigator struct {
	calls []string
}

func (r *recordingNavigator) Focus() { r.calls = append(r.calls, "focus") }

func (r *recordingNavigator) Navigate(path string) { r.calls = append(r.calls, "navigate "+path) }

func quietLogger() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

func alert(kind models.AlertKind) models.Alert {
	return models.Alert{
		Kind:  kind,
		Title: "Manutenção " + string(kind),
		Body:  "Viatura 4x4",
		Task:  models.MaintenanceTask{ID: primitive.NewObjectID()},
	}
}

func TestDispatch_Individual(t *testing.T) {
	n := new(MockNotifier)
	n.On("Permission", mock.Anything).Return(PermissionGranted)
	n.On("Show", mock.Anything, mock.Anything).Return(nil)

	alerts := []models.Alert{alert(models.AlertOverdue), alert(models.AlertToday)}
	shown := New(n, quietLogger()).Dispatch(context.Background(), models.DefaultNotificationSettings(), alerts)

	assert.Equal(t, 2, shown)
	n.AssertNumberOfCalls(t, "Show", 2)
	n.AssertNotCalled(t, "RequestPermission", mock.Anything)

	first := n.Calls[1].Arguments.Get(1).(Notification)
	assert.Equal(t, TaskTag(alerts[0].TaskID()), first.Tag)
	assert.Equal(t, alerts[0].Title, first.Title)
	assert.Equal(t, DefaultIcon, first.Icon)
	second := n.Calls[2].Arguments.Get(1).(Notification)
	assert.NotEqual(t, first.Tag, second.Tag)
}

func TestDispatch_GroupsAboveThreshold(t *testing.T) {
	n := new(MockNotifier)
	n.On("Permission", mock.Anything).Return(PermissionGranted)
	n.On("Show", mock.Anything, mock.MatchedBy(func(x Notification) bool {
		return x.Tag == SummaryTag && x.Body == "1 overdue, 1 due today, 2 upcoming"
	})).Return(nil).Once()

	alerts := []models.Alert{
		alert(models.AlertOverdue),
		alert(models.AlertToday),
		alert(models.AlertUpcoming),
		alert(models.AlertUpcoming),
	}
	shown := New(n, quietLogger()).Dispatch(context.Background(), models.DefaultNotificationSettings(), alerts)

	assert.Equal(t, 1, shown)
	n.AssertExpectations(t)
}

func TestDispatch_ExactlyThresholdStaysIndividual(t *testing.T) {
	n := new(MockNotifier)
	n.On("Permission", mock.Anything).Return(PermissionGranted)
	n.On("Show", mock.Anything, mock.Anything).Return(nil)

	alerts := []models.Alert{alert(models.AlertOverdue), alert(models.AlertOverdue), alert(models.AlertOverdue)}
	assert.Equal(t, 3, New(n, quietLogger()).Dispatch(context.Background(), models.DefaultNotificationSettings(), alerts))
}

func TestDispatch_Suppressed(t *testing.T) {
	alerts := []models.Alert{alert(models.AlertOverdue)}

	t.Run("browser notifications off", func(t *testing.T) {
		n := new(MockNotifier)
		s := models.DefaultNotificationSettings()
		s.ShowBrowserNotifications = false
		assert.Equal(t, 0, New(n, quietLogger()).Dispatch(context.Background(), s, alerts))
		n.AssertNotCalled(t, "Permission", mock.Anything)
	})

	t.Run("no alerts", func(t *testing.T) {
		n := new(MockNotifier)
		assert.Equal(t, 0, New(n, quietLogger()).Dispatch(context.Background(), models.DefaultNotificationSettings(), nil))
		n.AssertNotCalled(t, "Permission", mock.Anything)
	})

	for _, p := range []Permission{PermissionDenied, PermissionUnsupported} {
		t.Run(string(p), func(t *testing.T) {
			n := new(MockNotifier)
			n.On("Permission", mock.Anything).Return(p)
			assert.Equal(t, 0, New(n, quietLogger()).Dispatch(context.Background(), models.DefaultNotificationSettings(), alerts))
			n.AssertNotCalled(t, "RequestPermission", mock.Anything)
			n.AssertNotCalled(t, "Show", mock.Anything, mock.Anything)
		})
	}
}

func TestDispatch_LazyPermissionRequest(t *testing.T) {
	alerts := []models.Alert{alert(models.AlertToday)}

	t.Run("granted on request", func(t *testing.T) {
		n := new(MockNotifier)
		n.On("Permission", mock.Anything).Return(PermissionDefault)
		n.On("RequestPermission", mock.Anything).Return(PermissionGranted).Once()
		n.On("Show", mock.Anything, mock.Anything).Return(nil)
		assert.Equal(t, 1, New(n, quietLogger()).Dispatch(context.Background(), models.DefaultNotificationSettings(), alerts))
		n.AssertExpectations(t)
	})

	t.Run("refused on request", func(t *testing.T) {
		n := new(MockNotifier)
		n.On("Permission", mock.Anything).Return(PermissionDefault)
		n.On("RequestPermission", mock.Anything).Return(PermissionDenied).Once()
		assert.Equal(t, 0, New(n, quietLogger()).Dispatch(context.Background(), models.DefaultNotificationSettings(), alerts))
		n.AssertNotCalled(t, "Show", mock.Anything, mock.Anything)
	})
}

func TestDispatch_ShowFailureCountsOnlySuccesses(t *testing.T) {
	n := new(MockNotifier)
	n.On("Permission", mock.Anything).Return(PermissionGranted)
	n.On("Show", mock.Anything, mock.Anything).Return(errors.New("broker gone")).Once()
	n.On("Show", mock.Anything, mock.Anything).Return(nil)

	alerts := []models.Alert{alert(models.AlertOverdue), alert(models.AlertToday)}
	assert.Equal(t, 1, New(n, quietLogger()).Dispatch(context.Background(), models.DefaultNotificationSettings(), alerts))
}

func TestDispatch_Click(t *testing.T) {
	var shown []Notification
	n := new(MockNotifier)
	n.On("Permission", mock.Anything).Return(PermissionGranted)
	n.On("Show", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		shown = append(shown, args.Get(1).(Notification))
	}).Return(nil)

	t.Run("default focuses and navigates", func(t *testing.T) {
		shown = nil
		nav := &recordingNavigator{}
		New(n, quietLogger(), WithNavigator(nav)).
			Dispatch(context.Background(), models.DefaultNotificationSettings(), []models.Alert{alert(models.AlertToday)})
		require.Len(t, shown, 1)
		require.NotNil(t, shown[0].OnClick)
		shown[0].OnClick()
		assert.Equal(t, []string{"focus", "navigate " + MaintenancePath}, nav.calls)
	})

	t.Run("custom handler replaces navigation", func(t *testing.T) {
		shown = nil
		nav := &recordingNavigator{}
		var clicked string
		New(n, quietLogger(), WithNavigator(nav), WithClickHandler(func(x Notification) { clicked = x.Tag })).
			Dispatch(context.Background(), models.DefaultNotificationSettings(), []models.Alert{alert(models.AlertToday)})
		require.Len(t, shown, 1)
		shown[0].OnClick()
		assert.Equal(t, shown[0].Tag, clicked)
		assert.Empty(t, nav.calls)
	})
}

func TestSummaryBody(t *testing.T) {
	assert.Equal(t, "2 overdue", SummaryBody([]models.Alert{alert(models.AlertOverdue), alert(models.AlertOverdue)}))
	assert.Equal(t, "1 due today, 1 upcoming", SummaryBody([]models.Alert{alert(models.AlertUpcoming), alert(models.AlertToday)}))
	assert.Equal(t, "", SummaryBody(nil))
}
