package feedback

import (
	"context"
	"errors"
	"net/http"

	"github.com/jrsteele09/go-shop-admin/apiclient"
	"github.com/jrsteele09/go-shop-admin/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	MessageNetwork = "Network error. Please check your internet connection."
	MessageServer  = "Server error. Please try again later."
	MessageGeneric = "Something went wrong. Please try again."
)

type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelSuccess
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelSuccess:
		return "success"
	default:
		return "error"
	}
}

// Notification is a short message for the user.
type Notification struct {
	Level   Level
	Message string
}

// Notifier shows notifications to the user.
type Notifier interface {
	Notify(n Notification)
}

// Reporter turns request errors into notifications, and sends the user to the
// login screen when the API answered 401.
type Reporter struct {
	notifier  Notifier
	navigator sessions.Navigator
	logger    zerolog.Logger
}

type ReporterOption func(*Reporter)

func WithLogger(logger zerolog.Logger) ReporterOption {
	return func(r *Reporter) {
		r.logger = logger
	}
}

// NewReporter returns a Reporter. navigator may be nil.
func NewReporter(notifier Notifier, navigator sessions.Navigator, options ...ReporterOption) *Reporter {
	r := &Reporter{notifier: notifier, navigator: navigator, logger: log.Logger}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Report notifies the user about err and returns what was shown.
// A nil or cancelled err shows nothing and returns false.
func (r *Reporter) Report(err error) (Notification, bool) {
	if err == nil || errors.Is(err, context.Canceled) {
		return Notification{}, false
	}
	r.logger.Error().Err(err).Msg("request failed")

	n := Notification{Level: LevelError, Message: MessageGeneric}
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) {
		r.notifier.Notify(n)
		return n, true
	}

	switch {
	case apiErr.Kind == apiclient.KindNetwork:
		n.Message = MessageNetwork
	case apiErr.Status >= http.StatusInternalServerError:
		n.Message = MessageServer
	default:
		n.Message = apiErr.Message
	}
	r.notifier.Notify(n)

	if apiErr.Status == http.StatusUnauthorized && r.navigator != nil {
		r.navigator.Navigate(sessions.PathLogin)
	}
	return n, true
}

// Success shows message as a confirmation.
func (r *Reporter) Success(message string) {
	r.notifier.Notify(Notification{Level: LevelSuccess, Message: message})
}

// Warn shows message as a warning.
func (r *Reporter) Warn(message string) {
	r.notifier.Notify(Notification{Level: LevelWarning, Message: message})
}

// LogNotifier writes notifications to a zerolog logger.
type LogNotifier struct {
	logger zerolog.Logger
}

var _ Notifier = LogNotifier{}

func NewLogNotifier(logger zerolog.Logger) LogNotifier {
	return LogNotifier{logger: logger}
}

func (l LogNotifier) Notify(n Notification) {
	var event *zerolog.Event
	switch n.Level {
	case LevelSuccess:
		event = l.logger.Info()
	case LevelWarning:
		event = l.logger.Warn()
	default:
		event = l.logger.Error()
	}
	event.Msg(n.Message)
}
