// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package metasys

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

func objectPath(id uuid.UUID, segments ...string) string {
	path := "objects/" + id.String()
	for _, segment := range segments {
		path += "/" + url.PathEscape(segment)
	}
	return path
}

// GetObjectIdentifier resolves an object reference such as
// "site:adx/Building.AHU1.SAT" to the object's identifier.
//
// Returns EmptyObjectID when the reference is empty, the request fails, or
// the response is not a valid identifier.
func (c *Client) GetObjectIdentifier(ctx context.Context, reference string) uuid.UUID {
	if reference == "" {
		c.logger.Warn(ctx, "Metasys object identifier lookup skipped",
			"error", ErrEmptyReference.Error())
		return EmptyObjectID
	}

	query := url.Values{"fqr": {reference}}
	res, err := c.request(ctx, "get object identifier", http.MethodGet, "objectIdentifiers", query, nil, nil)
	if err != nil {
		c.logger.Error(ctx, "Metasys object identifier lookup failed",
			"reference", reference,
			"status", StatusCode(err),
			"error", err.Error())
		return EmptyObjectID
	}

	if res.Type != gjson.String {
		c.logger.Warn(ctx, "Metasys object identifier response is not a string",
			"reference", reference)
		return EmptyObjectID
	}
	id, err := uuid.Parse(res.Str)
	if err != nil {
		c.logger.Warn(ctx, "Metasys object identifier response is malformed",
			"reference", reference,
			"error", err.Error())
		return EmptyObjectID
	}
	return id
}

// ReadProperty reads one attribute of one object.
//
// Failures never surface as errors: a failed request yields the unsupported
// sentinel Variant with default reliability, and the failure is logged.
//
// Example:
//
//	v := client.ReadProperty(ctx, id, "presentValue")
//	if v.StringValue == metasys.UnsupportedDataType {
//	    // read failed or the payload was not understood
//	}
func (c *Client) ReadProperty(ctx context.Context, id uuid.UUID, attribute string) Variant {
	if id == uuid.Nil {
		c.logger.Warn(ctx, "Metasys read skipped",
			"attribute", attribute,
			"error", ErrEmptyObjectID.Error())
		return unsupportedVariant(id, attribute)
	}
	if attribute == "" {
		c.logger.Warn(ctx, "Metasys read skipped",
			"id", id.String(),
			"error", ErrEmptyAttributes.Error())
		return unsupportedVariant(id, attribute)
	}

	res, err := c.request(ctx, "read property", http.MethodGet, objectPath(id, "attributes", attribute), nil, nil, nil)
	if err != nil {
		c.logger.Error(ctx, "Metasys read failed",
			"id", id.String(),
			"attribute", attribute,
			"status", StatusCode(err),
			"error", err.Error())
		return unsupportedVariant(id, attribute)
	}

	return NewVariant(itemAttribute(res, attribute), id, attribute)
}

// itemAttribute returns item.<attribute> of a response without interpreting
// the attribute name as a path expression.
func itemAttribute(res gjson.Result, attribute string) gjson.Result {
	item := res.Get("item")
	if !item.IsObject() {
		return gjson.Result{}
	}
	return item.Map()[attribute]
}

// ReadPropertyMany reads every attribute of every object.
//
// One request is issued per (object, attribute) pair, at most MaxConcurrent
// at a time, and the call returns once all of them completed. A failed pair
// yields its sentinel Variant without affecting the others.
//
// Results follow the order of ids; within each group variants follow the
// order of attributes. Duplicate ids and attributes are read once. Returns
// nil without issuing requests if either input is empty.
//
// Example:
//
//	results := client.ReadPropertyMany(ctx,
//	    []uuid.UUID{ahu1, ahu2},
//	    []string{"presentValue", "description"})
//	for _, group := range results {
//	    for _, v := range group.Variants {
//	        fmt.Println(group.ID, v.Attribute, v.StringValue)
//	    }
//	}
func (c *Client) ReadPropertyMany(ctx context.Context, ids []uuid.UUID, attributes []string) []VariantMultiple {
	if len(ids) == 0 || len(attributes) == 0 {
		c.logger.Debug(ctx, "Metasys multiple read skipped",
			"ids", len(ids),
			"attributes", len(attributes))
		return nil
	}

	ids = uniqueIDs(ids)
	attributes = uniqueStrings(attributes)

	results := make([]VariantMultiple, len(ids))
	g := new(errgroup.Group)
	g.SetLimit(c.MaxConcurrent)

	for i, id := range ids {
		results[i] = VariantMultiple{ID: id, Variants: make([]Variant, len(attributes))}
		for j, attribute := range attributes {
			g.Go(func() error {
				results[i].Variants[j] = c.ReadProperty(ctx, id, attribute)
				return nil
			})
		}
	}
	_ = g.Wait() //nolint:errcheck // reads absorb their own failures

	c.logger.Debug(ctx, "Metasys multiple read complete",
		"ids", len(ids),
		"attributes", len(attributes))

	return results
}

// ReadObject reads the whole object and normalizes every attribute under
// item. Returns nil if the request fails.
func (c *Client) ReadObject(ctx context.Context, id uuid.UUID) map[string]Variant {
	if id == uuid.Nil {
		c.logger.Warn(ctx, "Metasys object read skipped",
			"error", ErrEmptyObjectID.Error())
		return nil
	}

	res, err := c.request(ctx, "read object", http.MethodGet, objectPath(id), nil, nil, nil)
	if err != nil {
		c.logger.Error(ctx, "Metasys object read failed",
			"id", id.String(),
			"status", StatusCode(err),
			"error", err.Error())
		return nil
	}

	variants := make(map[string]Variant)
	res.Get("item").ForEach(func(key, value gjson.Result) bool {
		variants[key.Str] = NewVariant(value, id, key.Str)
		return true
	})
	return variants
}

// WriteProperty writes attribute values to one object.
//
// The body is {"item": {...}} with an optional priority set via the
// Priority modifier. Success is silent; failures are logged.
//
// Example:
//
//	client.WriteProperty(ctx, id,
//	    map[string]any{"presentValue": 72.5},
//	    metasys.Priority("writePriorityEnumSet.priorityDefault"))
func (c *Client) WriteProperty(ctx context.Context, id uuid.UUID, attributes map[string]any, mods ...func(*Req)) {
	c.WritePropertyMany(ctx, []uuid.UUID{id}, attributes, mods...)
}

// WritePropertyMany writes the same attribute values to every object.
//
// One PATCH per object is issued, at most MaxConcurrent at a time, and the
// call returns once all of them completed. Each failure is logged on its
// own and does not cancel the others.
func (c *Client) WritePropertyMany(ctx context.Context, ids []uuid.UUID, attributes map[string]any, mods ...func(*Req)) {
	if len(ids) == 0 || len(attributes) == 0 {
		c.logger.Warn(ctx, "Metasys write skipped",
			"ids", len(ids),
			"attributes", len(attributes))
		return
	}

	req := newReq(mods)
	body, err := WriteBody(attributes, req.Priority).Bytes()
	if err != nil {
		c.logger.Error(ctx, "Metasys write body creation failed",
			"error", err.Error())
		return
	}

	g := new(errgroup.Group)
	g.SetLimit(c.MaxConcurrent)
	for _, id := range uniqueIDs(ids) {
		g.Go(func() error {
			c.writeObject(ctx, id, body, req)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // writes log their own failures
}

func (c *Client) writeObject(ctx context.Context, id uuid.UUID, body []byte, req *Req) {
	if id == uuid.Nil {
		c.logger.Warn(ctx, "Metasys write skipped",
			"error", ErrEmptyObjectID.Error())
		return
	}

	if _, err := c.request(ctx, "write property", http.MethodPatch, objectPath(id), nil, body, req); err != nil {
		c.logger.Error(ctx, "Metasys write failed",
			"id", id.String(),
			"status", StatusCode(err),
			"error", err.Error())
		return
	}

	c.logger.Debug(ctx, "Metasys write complete",
		"id", id.String())
}

// GetCommands lists the commands an object accepts. Returns nil if the
// request fails.
func (c *Client) GetCommands(ctx context.Context, id uuid.UUID) []Command {
	if id == uuid.Nil {
		c.logger.Warn(ctx, "Metasys command lookup skipped",
			"error", ErrEmptyObjectID.Error())
		return nil
	}

	res, err := c.request(ctx, "get commands", http.MethodGet, objectPath(id, "commands"), nil, nil, nil)
	if err != nil {
		c.logger.Error(ctx, "Metasys command lookup failed",
			"id", id.String(),
			"status", StatusCode(err),
			"error", err.Error())
		return nil
	}

	descriptors := res
	if res.IsObject() {
		descriptors = res.Get("items")
	}

	commands := []Command{}
	descriptors.ForEach(func(_, node gjson.Result) bool {
		if node.IsObject() {
			commands = append(commands, parseCommand(node))
		}
		return true
	})
	return commands
}

// SendCommand invokes command on an object with the given positional
// values. Success is silent; failures are logged.
//
// Example:
//
//	client.SendCommand(ctx, id, "adjust", []any{72.5})
//	client.SendCommand(ctx, id, "operatorOverride", []any{"binarypvEnumSet.bacbinActive"})
func (c *Client) SendCommand(ctx context.Context, id uuid.UUID, command string, values []any, mods ...func(*Req)) {
	if id == uuid.Nil || command == "" {
		err := ErrEmptyObjectID
		if command == "" {
			err = ErrEmptyCommand
		}
		c.logger.Warn(ctx, "Metasys command skipped",
			"command", command,
			"error", err.Error())
		return
	}

	body := Body{str: "[]"}
	for _, value := range values {
		body = body.Set("-1", value)
	}
	raw, err := body.Bytes()
	if err != nil {
		c.logger.Error(ctx, "Metasys command body creation failed",
			"command", command,
			"error", err.Error())
		return
	}

	req := newReq(mods)
	if _, err := c.request(ctx, "send command", http.MethodPut, objectPath(id, "commands", command), nil, raw, req); err != nil {
		c.logger.Error(ctx, "Metasys command failed",
			"id", id.String(),
			"command", command,
			"status", StatusCode(err),
			"error", err.Error())
	}
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
