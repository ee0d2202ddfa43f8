// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package metasys provides a client for the REST API of Metasys building
// automation servers.
//
// The client logs in and keeps its bearer token fresh, resolves object
// references to identifiers, reads and writes object attributes, sends
// commands, and enumerates network devices and object trees.
//
// # Quick Start
//
//	client, err := metasys.NewClient(
//	    "adx.example.com",
//	    metasys.APIVersion("v2"),
//	    metasys.WithLogger(metasys.NewDefaultLogger(metasys.LogLevelInfo)),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	ctx := context.Background()
//	client.Login(ctx, "user", "secret")
//
//	id := client.GetObjectIdentifier(ctx, "site:adx/Building.AHU1.SAT")
//	v := client.ReadProperty(ctx, id, "presentValue")
//	fmt.Println(v.NumericValue, v.Reliability)
//
// # Values
//
// Attribute payloads arrive as scalars, as objects wrapping a value with
// reliability and priority metadata, or as arrays. NewVariant turns any of
// them into a Variant with string, numeric and boolean renderings. Payloads
// that cannot be interpreted produce the UnsupportedDataType sentinel
// instead of an error.
//
// # Error Handling
//
// Read and enumeration methods do not return errors. Transport and parse
// failures are logged through the configured Logger and yield sentinel
// values: the unsupported Variant, EmptyObjectID, or an empty list. Write
// and command methods log failures and return nothing.
//
// Transient HTTP failures (408, 429, 502, 503, 504) can be retried with
// exponential backoff:
//
//	client, err := metasys.NewClient("adx.example.com",
//	    metasys.MaxRetries(3),
//	    metasys.BackoffMinDelay(500*time.Millisecond))
//
// # Thread Safety
//
// A Client is safe for concurrent use. The session token is replaced as a
// whole on login and refresh; in-flight requests keep using the token they
// read. ReadPropertyMany and WritePropertyMany fan out up to MaxConcurrent
// requests.
//
// # References
//
//   - gjson: https://github.com/tidwall/gjson
//   - sjson: https://github.com/tidwall/sjson
package metasys
