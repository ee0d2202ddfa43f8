// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package metasys

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// GetNetworkDevices lists network devices across all pages, optionally
// filtered by deviceType (an enumeration key such as "5"; empty for all).
//
// Each device's typeUrl is resolved to a description. Devices are returned
// as one flat list in server order with Children left nil. A failed page
// ends the listing and the devices collected so far are returned.
func (c *Client) GetNetworkDevices(ctx context.Context, deviceType string) []MetasysObject {
	query := url.Values{}
	if deviceType != "" {
		query.Set("type", deviceType)
	}

	devices := c.collectPages(ctx, "get network devices", "networkDevices", query)
	if devices == nil {
		return []MetasysObject{}
	}
	return devices
}

// GetNetworkDeviceTypes lists the network device types available on the
// server. Types whose descriptor cannot be resolved are omitted.
func (c *Client) GetNetworkDeviceTypes(ctx context.Context) []MetasysObjectType {
	res, err := c.request(ctx, "get network device types", http.MethodGet, "networkDevices/availableTypes", nil, nil, nil)
	if err != nil {
		c.logger.Error(ctx, "Metasys network device type lookup failed",
			"status", StatusCode(err),
			"error", err.Error())
		return []MetasysObjectType{}
	}

	types := []MetasysObjectType{}
	res.Get("items").ForEach(func(_, item gjson.Result) bool {
		typeURL := item.Get("typeUrl").String()
		if typeURL == "" {
			return true
		}
		if t := c.resolveType(ctx, typeURL); t.ID != unresolvedType.ID {
			types = append(types, t)
		}
		return true
	})
	return types
}

// GetObjects enumerates the children of an object down to levels deep.
//
// With levels < 1 nothing is requested and nil is returned. With levels == 1
// only the immediate children are listed, each with nil Children. Deeper
// levels fill Children depth-first: an object's subtree is complete before
// its next sibling is visited, and every page is fetched in order. Children
// whose identifier cannot be parsed are kept as leaves.
//
// Example:
//
//	tree := client.GetObjects(ctx, equipmentID, 2)
//	for _, obj := range tree {
//	    fmt.Println(obj.ItemReference, obj.Type, len(obj.Children))
//	}
func (c *Client) GetObjects(ctx context.Context, id uuid.UUID, levels int) []MetasysObject {
	if levels < 1 {
		return nil
	}
	if id == uuid.Nil {
		c.logger.Warn(ctx, "Metasys object enumeration skipped",
			"error", ErrEmptyObjectID.Error())
		return nil
	}

	type frame struct {
		parent uuid.UUID
		levels int
		dest   *[]MetasysObject
	}

	var root []MetasysObject
	stack := []frame{{parent: id, levels: levels, dest: &root}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children := c.collectPages(ctx, "get objects", objectPath(f.parent, "objects"), nil)
		*f.dest = children
		if f.levels <= 1 {
			continue
		}

		// pushed in reverse so the first child is visited first
		for i := len(children) - 1; i >= 0; i-- {
			child := &children[i]
			if child.ID == uuid.Nil {
				continue
			}
			stack = append(stack, frame{parent: child.ID, levels: f.levels - 1, dest: &child.Children})
		}
	}

	if root == nil {
		return []MetasysObject{}
	}
	return root
}

// collectPages walks a paginated collection starting at page 1 and keeps
// requesting the next page while the response carries a non-null next.
// Every item's type is resolved before the next page is requested.
//
// Returns nil if the first page fails, otherwise the items collected so far.
func (c *Client) collectPages(ctx context.Context, operation, path string, query url.Values) []MetasysObject {
	var objects []MetasysObject

	for page := 1; ; page++ {
		if err := checkContextCancellation(ctx); err != nil {
			c.logger.Warn(ctx, "Metasys enumeration canceled",
				"operation", operation,
				"page", page)
			return objects
		}

		pageQuery := url.Values{}
		for key, values := range query {
			pageQuery[key] = values
		}
		pageQuery.Set("page", strconv.Itoa(page))

		res, err := c.request(ctx, operation, http.MethodGet, path, pageQuery, nil, nil)
		if err != nil {
			c.logger.Error(ctx, "Metasys enumeration page failed",
				"operation", operation,
				"page", page,
				"status", StatusCode(err),
				"error", err.Error())
			return objects
		}
		if objects == nil {
			objects = []MetasysObject{}
		}

		res.Get("items").ForEach(func(_, item gjson.Result) bool {
			objects = append(objects, c.newObject(ctx, operation, item))
			return true
		})

		c.logger.Debug(ctx, "Metasys enumeration page",
			"operation", operation,
			"page", page,
			"total", len(objects))

		next := res.Get("next")
		if !next.Exists() || next.Type == gjson.Null {
			return objects
		}
	}
}

// newObject decodes a list item and resolves its type. Items that fail to
// decode are kept with whatever fields decoded.
func (c *Client) newObject(ctx context.Context, operation string, item gjson.Result) MetasysObject {
	obj, err := decodeObject(item)
	if err != nil {
		c.logger.Warn(ctx, "Metasys list item could not be decoded",
			"operation", operation,
			"error", err.Error())
	}

	if obj.TypeURL != "" {
		t := c.resolveType(ctx, obj.TypeURL)
		obj.TypeID = t.ID
		obj.Type = t.Description
	}
	return obj
}

// resolveType dereferences a typeUrl to its descriptor, consulting the type
// cache first. Failed resolutions yield ID -1 and are not cached.
func (c *Client) resolveType(ctx context.Context, typeURL string) MetasysObjectType {
	if c.typeCache != nil {
		if t, ok := c.typeCache.Get(typeURL); ok {
			return t
		}
	}

	res, err := c.request(ctx, "resolve type", http.MethodGet, typeURL, nil, nil, nil)
	if err != nil {
		c.logger.Error(ctx, "Metasys type resolution failed",
			"typeUrl", typeURL,
			"status", StatusCode(err),
			"error", err.Error())
		return unresolvedType
	}

	id := res.Get("id")
	if id.Type != gjson.Number {
		c.logger.Warn(ctx, "Metasys type descriptor has no id",
			"typeUrl", typeURL)
		return unresolvedType
	}

	t := MetasysObjectType{
		ID:          int(id.Int()),
		Description: res.Get("description").String(),
	}
	if c.typeCache != nil {
		c.typeCache.Set(typeURL, t)
	}
	return t
}
