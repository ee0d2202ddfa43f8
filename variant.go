// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package metasys

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Sentinel and default field values of a Variant
const (
	// Reliable is the reliability assigned when the server reports none
	Reliable = "reliable"

	// UnsupportedDataType is the StringValue of a Variant whose payload
	// could not be classified (missing, null, or an object without value)
	UnsupportedDataType = "Unsupported Data Type"

	// ArrayDataType is the StringValue of a Variant holding an array
	ArrayDataType = "Array"
)

// Variant is the normalized value of one attribute of one object.
//
// Every payload maps to exactly one fully populated Variant. Payloads that
// cannot be classified keep their reliability and priority metadata but
// carry the unsupported sentinel: StringValue UnsupportedDataType,
// NumericValue 1, BooleanValue false.
type Variant struct {
	// ID is the object the attribute belongs to
	ID uuid.UUID

	// Attribute is the attribute name, e.g. "presentValue"
	Attribute string

	StringValue  string
	NumericValue float64
	BooleanValue bool

	// ArrayValue holds the elements of an array payload, nil otherwise
	ArrayValue []Variant

	// Priority is the write priority the value was set with, empty if absent
	Priority string

	// Reliability as reported by the server, Reliable by default
	Reliability string

	// IsReliable is derived from Reliability
	IsReliable bool
}

// VariantMultiple groups the variants read for one object
type VariantMultiple struct {
	ID       uuid.UUID
	Variants []Variant
}

// NewVariant normalizes a JSON attribute payload.
//
// Classification, first match wins:
//  1. missing or null: unsupported sentinel, reliable
//  2. array: StringValue "Array", each element normalized with no priority
//  3. object: "value" is classified as a scalar and "reliability"/"priority"
//     are carried over; without "value" the scalar part is the unsupported
//     sentinel
//  4. boolean: NumericValue 1 or 0, StringValue "True" or "False"
//  5. number: BooleanValue is true for nonzero values
//  6. string: NumericValue 0, BooleanValue false
//
// NewVariant never fails.
//
// Example:
//
//	res := gjson.Parse(`{"value":60,"reliability":"reliabilityEnumSet.reliable"}`)
//	v := metasys.NewVariant(res, id, "presentValue")
//	fmt.Println(v.NumericValue, v.IsReliable) // 60 true
func NewVariant(node gjson.Result, id uuid.UUID, attribute string) Variant {
	v := Variant{ID: id, Attribute: attribute}

	switch {
	case !node.Exists() || node.Type == gjson.Null:
		v.setUnsupported()
		v.setReliability(Reliable)
	case node.IsArray():
		v.setArray(node)
	default:
		v.setNode(node)
	}

	return v
}

// setArray fills v from an array payload. Elements never carry a priority.
func (v *Variant) setArray(node gjson.Result) {
	v.StringValue = ArrayDataType
	v.NumericValue = 0
	v.BooleanValue = false
	v.setReliability(Reliable)

	elements := node.Array()
	v.ArrayValue = make([]Variant, 0, len(elements))
	for _, element := range elements {
		item := Variant{ID: v.ID, Attribute: v.Attribute}
		switch {
		case element.Type == gjson.Null:
			item.setUnsupported()
			item.setReliability(Reliable)
		case element.IsArray():
			item.setArray(element)
		default:
			item.setNode(element)
		}
		item.Priority = ""
		v.ArrayValue = append(v.ArrayValue, item)
	}
}

// setNode classifies an object or scalar payload
func (v *Variant) setNode(node gjson.Result) {
	if !node.IsObject() {
		v.setScalar(node)
		v.setReliability(Reliable)
		return
	}

	value := node.Get("value")
	reliability := node.Get("reliability")
	priority := node.Get("priority")

	if value.Exists() {
		v.setScalar(value)
	} else {
		v.setUnsupported()
	}

	v.setReliability(Reliable)
	if reliability.Exists() && reliability.Type != gjson.Null {
		v.setReliability(reliability.String())
	}
	if priority.Exists() && priority.Type != gjson.Null {
		v.Priority = priority.String()
	}
}

// setScalar fills the value fields from a boolean, number or string.
// Anything else yields the unsupported sentinel.
func (v *Variant) setScalar(node gjson.Result) {
	switch node.Type {
	case gjson.True, gjson.False:
		v.BooleanValue = node.Type == gjson.True
		v.NumericValue = 0
		v.StringValue = "False"
		if v.BooleanValue {
			v.NumericValue = 1
			v.StringValue = "True"
		}
	case gjson.Number:
		v.NumericValue = node.Num
		v.BooleanValue = node.Num != 0
		v.StringValue = strconv.FormatFloat(node.Num, 'f', -1, 64)
	case gjson.String:
		v.StringValue = node.Str
		v.NumericValue = 0
		v.BooleanValue = false
	default:
		v.setUnsupported()
	}
}

func (v *Variant) setUnsupported() {
	v.StringValue = UnsupportedDataType
	v.NumericValue = 1
	v.BooleanValue = false
	v.ArrayValue = nil
}

// setReliability sets Reliability and derives IsReliable. Both the bare
// "reliable" and the enumeration form "reliabilityEnumSet.reliable" count as
// reliable.
func (v *Variant) setReliability(reliability string) {
	v.Reliability = reliability
	v.IsReliable = reliability == Reliable || strings.HasSuffix(reliability, "."+Reliable)
}

// unsupportedVariant is the result of a read that failed before any payload
// was received.
func unsupportedVariant(id uuid.UUID, attribute string) Variant {
	return NewVariant(gjson.Result{}, id, attribute)
}
