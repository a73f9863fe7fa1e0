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

package escrow

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates malformed or missing caller input. The
	// operation aborted before any write.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates the actor lacks permission for the
	// target action. No partial state change occurs.
	ErrUnauthorized = errors.New("not authorized")

	// ErrNotFound indicates the target entity does not exist or is not
	// visible to the caller.
	ErrNotFound = errors.New("not found")

	// ErrStaleState indicates another writer changed the entity between
	// read and conditional write. The caller should re-read and retry.
	ErrStaleState = errors.New("stale state")
)

// InvalidTransitionError is returned when the current status is not a
// legal predecessor for the attempted action.
type InvalidTransitionError struct {
	From   Status
	Action Action
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf(
		"invalid transition: action %q not allowed from status %q",
		e.Action,
		e.From,
	)
}

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
