package logging

import (
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Collaborators holds the external hooks the upstream contract describes
// (OAuth refresher, log writer, quota tracker). Every field is optional —
// a nil hook is simply skipped, so a gateway with no registered
// collaborators still gets its structured logrus lines.
type Collaborators struct {
	OnRequestStart func(*RequestLog)
	OnRequestEnd   func(*RequestLog)
	OnRotate       func(accountID string, reason string)
}

// Logger wraps a logrus.Logger with the RequestLog/collaborator plumbing.
type Logger struct {
	*logrus.Logger
	collab Collaborators
}

// New builds a Logger. In debug mode it uses a human-readable text
// formatter at debug level; otherwise a JSON formatter at info level, the
// split the teacher's executors apply between interactive and production
// output. requestLogPath, if non-empty, tees output through a
// lumberjack-rotated file alongside stdout.
func New(debug bool, requestLogPath string) *Logger {
	l := logrus.New()
	if debug {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
		l.SetLevel(logrus.InfoLevel)
	}

	out := io.Writer(os.Stdout)
	if requestLogPath != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   requestLogPath,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     14,
			Compress:   true,
		})
	}
	l.SetOutput(out)

	return &Logger{Logger: l}
}

// SetCollaborators registers the external-collaborator hooks. Safe to call
// again at any point (e.g. after a config reload swaps them out).
func (lg *Logger) SetCollaborators(c Collaborators) { lg.collab = c }

// NewRequestLog starts a RequestLog for one incoming request. id is left to
// the caller to plug in if it already has a correlation id (e.g. the
// fingerprinted sid); otherwise a fresh uuid is minted.
func NewRequestLog(proto Protocol, method, url, clientIP, clientModel string) *RequestLog {
	return &RequestLog{
		ID:          uuid.NewString(),
		Method:      method,
		URL:         url,
		ClientIP:    clientIP,
		ClientModel: clientModel,
		Protocol:    proto,
	}
}

// Start fires on_request_start and logs the inbound line.
func (lg *Logger) Start(log *RequestLog) {
	if lg.collab.OnRequestStart != nil {
		lg.collab.OnRequestStart(log)
	}
	lg.WithFields(fields(log)).Info("request start")
}

// End fires on_request_end and logs the completed line, warn-level on
// error so operators can grep failures out of an otherwise info-level feed.
func (lg *Logger) End(log *RequestLog) {
	if lg.collab.OnRequestEnd != nil {
		lg.collab.OnRequestEnd(log)
	}
	entry := lg.WithFields(fields(log))
	if log.Error != "" {
		entry.Warn("request failed")
		return
	}
	entry.Info("request completed")
}

// Rotate fires on_rotate and logs the account rotation: a non-2xx
// response that the retry table marks rotate-worthy.
func (lg *Logger) Rotate(accountID, reason string) {
	if lg.collab.OnRotate != nil {
		lg.collab.OnRotate(accountID, reason)
	}
	lg.WithFields(logrus.Fields{"account_id": accountID, "reason": reason}).Warn("account rotated")
}

func fields(log *RequestLog) logrus.Fields {
	return logrus.Fields{
		"id":             log.ID,
		"method":         log.Method,
		"url":            log.URL,
		"status":         log.Status,
		"duration_ms":    log.Duration.Milliseconds(),
		"client_model":   log.ClientModel,
		"physical_model": log.PhysicalModel,
		"account_email":  log.AccountEmail,
		"client_ip":      log.ClientIP,
		"error":          log.Error,
		"input_tokens":   log.InputTokens,
		"output_tokens":  log.OutputTokens,
		"protocol":       log.Protocol,
	}
}
