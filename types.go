// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package metasys

import (
	"reflect"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/tidwall/gjson"
)

// EmptyObjectID is returned when an object reference cannot be resolved
var EmptyObjectID = uuid.Nil

// MetasysObject is a node of an object or network device tree
type MetasysObject struct {
	// ID is uuid.Nil when the item carried no parsable identifier
	ID            uuid.UUID `mapstructure:"id"`
	ItemReference string    `mapstructure:"itemReference"`
	Name          string    `mapstructure:"name"`
	Description   string    `mapstructure:"description"`
	TypeURL       string    `mapstructure:"typeUrl"`
	CategoryURL   string    `mapstructure:"categoryUrl"`

	// Type is the resolved description of TypeURL, empty if resolution failed
	Type string `mapstructure:"-"`

	// TypeID is the resolved type id, -1 if resolution failed
	TypeID int `mapstructure:"-"`

	// Children is nil when the enumeration depth was exhausted and an empty
	// slice when the object has no children
	Children []MetasysObject `mapstructure:"-"`
}

// MetasysObjectType is a type descriptor dereferenced from a typeUrl
type MetasysObjectType struct {
	ID          int
	Description string
}

// unresolvedType marks a failed type resolution
var unresolvedType = MetasysObjectType{ID: -1}

// Command describes an invocable command of an object
type Command struct {
	CommandID string
	Title     string
	Items     []CommandItem
}

// CommandItem describes one positional value of a command
type CommandItem struct {
	Title   string
	Type    string
	Minimum *float64
	Maximum *float64

	// EnumerationValues lists the accepted values for enumerated items
	EnumerationValues []CommandEnum
}

// CommandEnum is one accepted value of an enumerated command item
type CommandEnum struct {
	ID    string
	Title string
}

// stringToUUIDHook decodes strings into uuid.UUID. Unparsable strings become
// uuid.Nil rather than failing the whole item.
func stringToUUIDHook(f reflect.Type, t reflect.Type, data any) (any, error) {
	if f.Kind() != reflect.String || t != reflect.TypeOf(uuid.UUID{}) {
		return data, nil
	}
	id, err := uuid.Parse(data.(string))
	if err != nil {
		return uuid.Nil, nil
	}
	return id, nil
}

// decodeObject decodes a raw list item into a MetasysObject
func decodeObject(item gjson.Result) (MetasysObject, error) {
	obj := MetasysObject{TypeID: unresolvedType.ID}

	raw, ok := item.Value().(map[string]any)
	if !ok {
		return obj, &MetasysError{Operation: "decode object", Message: "item is not an object", Body: item.Raw}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       stringToUUIDHook,
		WeaklyTypedInput: true,
		Result:           &obj,
	})
	if err != nil {
		return obj, err
	}
	if err := decoder.Decode(raw); err != nil {
		return obj, &MetasysError{Operation: "decode object", Message: err.Error(), Body: item.Raw}
	}
	return obj, nil
}

// parseCommand parses one command descriptor
func parseCommand(node gjson.Result) Command {
	cmd := Command{
		CommandID: node.Get("commandId").String(),
		Title:     node.Get("title").String(),
	}

	node.Get("items").ForEach(func(_, item gjson.Result) bool {
		ci := CommandItem{
			Title: item.Get("title").String(),
			Type:  item.Get("type").String(),
		}
		if minimum := item.Get("minimum"); minimum.Type == gjson.Number {
			value := minimum.Num
			ci.Minimum = &value
		}
		if maximum := item.Get("maximum"); maximum.Type == gjson.Number {
			value := maximum.Num
			ci.Maximum = &value
		}
		item.Get("oneOf").ForEach(func(_, entry gjson.Result) bool {
			ci.EnumerationValues = append(ci.EnumerationValues, CommandEnum{
				ID:    entry.Get("const").String(),
				Title: entry.Get("title").String(),
			})
			return true
		})
		cmd.Items = append(cmd.Items, ci)
		return true
	})

	return cmd
}
