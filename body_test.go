// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package metasys

import (
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

// TestBodySet tests basic Set operation
func TestBodySet(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		value    any
		wantJSON string
	}{
		{
			name:     "set string value",
			path:     "username",
			value:    "operator",
			wantJSON: `{"username":"operator"}`,
		},
		{
			name:     "set boolean value",
			path:     "outOfService",
			value:    true,
			wantJSON: `{"outOfService":true}`,
		},
		{
			name:     "set float value",
			path:     "presentValue",
			value:    72.5,
			wantJSON: `{"presentValue":72.5}`,
		},
		{
			name:     "set nested value",
			path:     "item.presentValue",
			value:    68,
			wantJSON: `{"item":{"presentValue":68}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			json, err := Body{}.Set(tt.path, tt.value).String()
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if json != tt.wantJSON {
				t.Errorf("Expected JSON %s, got %s", tt.wantJSON, json)
			}
		})
	}
}

// TestBodySetRawAndDelete tests raw JSON insertion and removal
func TestBodySetRawAndDelete(t *testing.T) {
	body := Body{}.
		SetRaw("item", `{"presentValue":1,"description":"temp"}`).
		Delete("item.description")

	json, err := body.String()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if json != `{"item":{"presentValue":1}}` {
		t.Errorf("unexpected JSON %s", json)
	}
}

// TestBodyErrorPropagation tests that the first error is kept and later operations are no-ops
func TestBodyErrorPropagation(t *testing.T) {
	body := Body{}.
		Set("item.presentValue", 1).
		Set("", "invalid-empty-path").
		Set("item.description", "after")

	if body.Err() == nil {
		t.Fatal("Expected error from empty path, got nil")
	}
	if !strings.Contains(body.Err().Error(), "Set") {
		t.Errorf("Expected error message to contain 'Set', got: %v", body.Err())
	}

	json, _ := body.String() //nolint:errcheck // Error intentionally ignored in test
	if strings.Contains(json, "after") {
		t.Errorf("Expected JSON to NOT contain value set after error: %s", json)
	}
	if body.Res() != "" {
		t.Errorf("Res() = %q, want empty after error", body.Res())
	}
	if b, err := body.Bytes(); err == nil || b != nil {
		t.Errorf("Bytes() = (%q, %v), want (nil, error)", b, err)
	}
}

// TestBodyImmutability tests that Set returns a new Body
func TestBodyImmutability(t *testing.T) {
	base := Body{}.Set("item.presentValue", 1)
	changed := base.Set("item.presentValue", 2)

	if gjson.Get(base.Res(), "item.presentValue").Int() != 1 {
		t.Errorf("base body was modified: %s", base.Res())
	}
	if gjson.Get(changed.Res(), "item.presentValue").Int() != 2 {
		t.Errorf("changed body = %s", changed.Res())
	}
}

func TestEscapePath(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"presentValue", "presentValue"},
		{"a.b", `a\.b`},
		{"x*y?", `x\*y\?`},
		{"#count", `\#count`},
		{`back\slash`, `back\\slash`},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := EscapePath(tt.key); got != tt.want {
				t.Errorf("EscapePath(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestWriteBody(t *testing.T) {
	tests := []struct {
		name       string
		attributes map[string]any
		priority   string
		want       string
	}{
		{
			name:       "single attribute",
			attributes: map[string]any{"presentValue": 72.5},
			want:       `{"item":{"presentValue":72.5}}`,
		},
		{
			name:       "sorted attributes with priority",
			attributes: map[string]any{"presentValue": 1, "description": "AHU"},
			priority:   "writePriorityEnumSet.priorityDefault",
			want:       `{"item":{"description":"AHU","presentValue":1,"priority":"writePriorityEnumSet.priorityDefault"}}`,
		},
		{
			name:       "enumeration value",
			attributes: map[string]any{"presentValue": "binarypvEnumSet.bacbinActive"},
			want:       `{"item":{"presentValue":"binarypvEnumSet.bacbinActive"}}`,
		},
		{
			name:       "key with path syntax",
			attributes: map[string]any{"a.b": true},
			want:       `{"item":{"a.b":true}}`,
		},
		{
			name: "empty",
			want: `{"item":{}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WriteBody(tt.attributes, tt.priority).String()
			if err != nil {
				t.Fatalf("WriteBody() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("WriteBody() = %s, want %s", got, tt.want)
			}
		})
	}
}

func BenchmarkWriteBody(b *testing.B) {
	attributes := map[string]any{
		"presentValue": 72.5,
		"description":  "Supply Air Temp",
		"outOfService": false,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = WriteBody(attributes, "writePriorityEnumSet.priorityDefault").Bytes()
	}
}
