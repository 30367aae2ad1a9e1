/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package logger

import "github.com/sirupsen/logrus"

// logrusLogger is the default Logger, a thin logrus.FieldLogger adapter.
type logrusLogger struct {
	entry *logrus.Entry
}

// New wraps l (or logrus.StandardLogger() if l is nil) as a Logger.
func New(l *logrus.Logger) Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

func (o *logrusLogger) Debug(message string, fields Fields) {
	if o == nil {
		return
	}
	o.entry.WithFields(fields.Logrus()).Debug(message)
}

func (o *logrusLogger) Info(message string, fields Fields) {
	if o == nil {
		return
	}
	o.entry.WithFields(fields.Logrus()).Info(message)
}

func (o *logrusLogger) Warn(message string, fields Fields) {
	if o == nil {
		return
	}
	o.entry.WithFields(fields.Logrus()).Warn(message)
}

func (o *logrusLogger) Error(message string, fields Fields) {
	if o == nil {
		return
	}
	o.entry.WithFields(fields.Logrus()).Error(message)
}

// nopLogger is returned by NewNop and discards every call; it backs every
// reactor-core component's default (nil Logger passed at construction).
type nopLogger struct{}

// NewNop returns a Logger whose methods all do nothing.
func NewNop() Logger { return nopLogger{} }

func (nopLogger) Debug(string, Fields) {}
func (nopLogger) Info(string, Fields)  {}
func (nopLogger) Warn(string, Fields)  {}
func (nopLogger) Error(string, Fields) {}
