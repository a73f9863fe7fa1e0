// Copyright 2025 Trustline Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"fmt"
	"log/slog"
	"strings"
)

// BadgerLogger is a wrapper type to give our logger the expected interface
type BadgerLogger struct {
	*slog.Logger
}

func NewBadgerLogger(logger *slog.Logger) *BadgerLogger {
	return &BadgerLogger{Logger: logger.With("component", "blob")}
}

func (b *BadgerLogger) Errorf(msg string, args ...any) {
	b.Logger.Error(strings.TrimSuffix(fmt.Sprintf(msg, args...), "\n"))
}

func (b *BadgerLogger) Warningf(msg string, args ...any) {
	b.Logger.Warn(strings.TrimSuffix(fmt.Sprintf(msg, args...), "\n"))
}

func (b *BadgerLogger) Infof(msg string, args ...any) {
	b.Logger.Info(strings.TrimSuffix(fmt.Sprintf(msg, args...), "\n"))
}

func (b *BadgerLogger) Debugf(msg string, args ...any) {
	b.Logger.Debug(strings.TrimSuffix(fmt.Sprintf(msg, args...), "\n"))
}
