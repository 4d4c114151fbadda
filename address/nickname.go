// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package address

import "golang.org/x/text/unicode/norm"

// NormalizeNickname applies the same normalization MSNP clients of this era
// apply to a friendly name before it is percent-escaped and placed on the
// wire: Unicode NFC normalization followed by fullwidth-form folding (done
// in EscapeArgument), so that two visually identical nicknames compare and
// escape identically regardless of input form.
func NormalizeNickname(s string) string {
	return norm.NFC.String(s)
}
