// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package metasys

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

func TestTimeout(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		want     time.Duration
	}{
		{"30 second timeout", 30 * time.Second, 30 * time.Second},
		{"2 minute timeout", 2 * time.Minute, 2 * time.Minute},
		{"zero timeout", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &Req{}
			Timeout(tt.duration)(req)

			if req.Timeout != tt.want {
				t.Errorf("Timeout() timeout = %v, want %v", req.Timeout, tt.want)
			}
		})
	}
}

func TestPriority(t *testing.T) {
	req := newReq([]func(*Req){
		Priority("writePriorityEnumSet.priorityDefault"),
		Timeout(time.Second),
	})

	if req.Priority != "writePriorityEnumSet.priorityDefault" {
		t.Errorf("Priority = %q", req.Priority)
	}
	if req.Timeout != time.Second {
		t.Errorf("Timeout = %v", req.Timeout)
	}
}

func TestNewReqNoModifiers(t *testing.T) {
	req := newReq(nil)
	if req == nil || req.Timeout != 0 || req.Priority != "" {
		t.Errorf("newReq(nil) = %+v, want zero Req", req)
	}
}

// TestCreateAttemptContext tests the timeout priority model
func TestCreateAttemptContext(t *testing.T) {
	client := &Client{OperationTimeout: 15 * time.Second}

	tests := []struct {
		name    string
		ctx     func() (context.Context, context.CancelFunc)
		req     *Req
		wantMax time.Duration
		wantMin time.Duration
	}{
		{
			name:    "request timeout wins",
			ctx:     func() (context.Context, context.CancelFunc) { return context.WithTimeout(context.Background(), time.Hour) },
			req:     &Req{Timeout: 2 * time.Second},
			wantMin: time.Second,
			wantMax: 2 * time.Second,
		},
		{
			name:    "context deadline kept",
			ctx:     func() (context.Context, context.CancelFunc) { return context.WithTimeout(context.Background(), time.Minute) },
			req:     &Req{},
			wantMin: 59 * time.Second,
			wantMax: time.Minute,
		},
		{
			name:    "client default",
			ctx:     func() (context.Context, context.CancelFunc) { return context.WithCancel(context.Background()) },
			req:     &Req{},
			wantMin: 14 * time.Second,
			wantMax: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent, cancel := tt.ctx()
			defer cancel()

			ctx, attemptCancel := client.createAttemptContext(parent, tt.req)
			defer attemptCancel()

			deadline, ok := ctx.Deadline()
			if !ok {
				t.Fatal("attempt context has no deadline")
			}
			remaining := time.Until(deadline)
			if remaining < tt.wantMin || remaining > tt.wantMax {
				t.Errorf("remaining = %v, want between %v and %v", remaining, tt.wantMin, tt.wantMax)
			}
		})
	}
}

// TestRequestTimeoutModifier tests that a slow command is cut off by Timeout
func TestRequestTimeoutModifier(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-release:
		case <-r.Context().Done():
		}
		fmt.Fprint(w, `{}`)
	})

	mock := &mockLogger{}
	client, _ := newTestClient(t, handler, WithLogger(mock))
	defer close(release)

	start := time.Now()
	client.SendCommand(context.Background(), testObjectID, "release", nil, Timeout(50*time.Millisecond))

	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("SendCommand() took %v, want cut off by the request timeout", elapsed)
	}
	if mock.errors() != 1 {
		t.Errorf("error logs = %d, want 1", mock.errors())
	}
}

func TestCheckContextCancellation(t *testing.T) {
	if err := checkContextCancellation(context.Background()); err != nil {
		t.Errorf("background context = %v, want nil", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := checkContextCancellation(ctx); err != context.Canceled {
		t.Errorf("canceled context = %v, want %v", err, context.Canceled)
	}
}
