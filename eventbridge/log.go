// Copyright (c) 2025 The Monetarium developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package eventbridge

import "github.com/decred/slog"

// log is the package-level logger used by eventbridge. It is disabled by
// default; callers wire in a real backend via UseLogger.
var log = slog.Disabled

// UseLogger sets the package-level logger used by eventbridge.
func UseLogger(logger slog.Logger) {
	log = logger
}
