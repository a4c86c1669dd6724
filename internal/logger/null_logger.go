package logger

import "github.com/sirupsen/logrus"

// NullLogger discards everything. Pipeline tests use it where log
// output is noise; throttling tests that need to observe emissions use
// a recording fake instead.
type NullLogger struct{}

var _ Logger = (*NullLogger)(nil)

// NewNullLogger creates a logger that discards all output.
func NewNullLogger() Logger { return &NullLogger{} }

func (n *NullLogger) WithFields(map[string]interface{}) Logger { return n }
func (n *NullLogger) WithField(string, interface{}) Logger     { return n }
func (n *NullLogger) WithError(error) Logger                   { return n }

func (n *NullLogger) Debug(...interface{})             {}
func (n *NullLogger) Info(...interface{})              {}
func (n *NullLogger) Warn(...interface{})              {}
func (n *NullLogger) Error(...interface{})             {}
func (n *NullLogger) Log(logrus.Level, ...interface{}) {}

func (n *NullLogger) Debugf(string, ...interface{}) {}
func (n *NullLogger) Infof(string, ...interface{})  {}
func (n *NullLogger) Warnf(string, ...interface{})  {}
func (n *NullLogger) Errorf(string, ...interface{}) {}

// Fatal does not exit; a discarded fatal must not kill a test process.
func (n *NullLogger) Fatal(...interface{}) {}
