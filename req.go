// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package metasys

import "time"

// Req holds request-specific options applied via functional modifiers.
//
// Example:
//
//	client.WriteProperty(ctx, id, values,
//	    metasys.Priority("writePriorityEnumSet.priorityDefault"),
//	    metasys.Timeout(30*time.Second))
type Req struct {
	// Timeout is the request-specific timeout
	// Overrides client default timeout if set
	Timeout time.Duration

	// Priority is the write priority placed in write bodies
	// Empty means the server default
	Priority string
}

func newReq(mods []func(*Req)) *Req {
	req := &Req{}
	for _, mod := range mods {
		mod(req)
	}
	return req
}
