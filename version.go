// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package metasys

import (
	"fmt"
	"strings"
)

// API version constants. The version is the last path segment of the base
// URL: https://<host>/api/<version>.
const (
	// APIVersion2 is the default and the version all endpoints here target
	APIVersion2 = "v2"

	APIVersion3 = "v3"
	APIVersion4 = "v4"
	APIVersion5 = "v5"
)

// ValidAPIVersions contains the list of accepted API versions
var ValidAPIVersions = []string{
	APIVersion2,
	APIVersion3,
	APIVersion4,
	APIVersion5,
}

// ValidateAPIVersion checks if the version is one of ValidAPIVersions.
//
// Example:
//
//	if err := metasys.ValidateAPIVersion("v2"); err != nil {
//	    log.Fatal(err)
//	}
func ValidateAPIVersion(version string) error {
	for _, valid := range ValidAPIVersions {
		if version == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid API version: %s (valid values: %s)", version, strings.Join(ValidAPIVersions, ", "))
}
