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

import "slices"

// Role is the capacity in which an actor performs an operation on a
// transaction. Buyer and seller are relative to a transaction; admin is
// a global capability carried on the identity.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// Identity is the authenticated caller, passed explicitly into every
// operation. Authentication itself happens upstream; the core only
// trusts what it is handed.
type Identity struct {
	UserID string
	Email  string
	Roles  []Role
}

// IsAdmin reports whether the identity carries the admin role
func (i Identity) IsAdmin() bool {
	return slices.Contains(i.Roles, RoleAdmin)
}
