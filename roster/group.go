// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package roster

// Group is a named contact group, per spec.md §3. Membership is recorded
// by reference on each Contact's Groups set, not on the Group itself.
type Group struct {
	Name string
	GUID string
}
