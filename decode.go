// Copyright (C) 2025 The rapi Authors. All Rights Reserved.

package rapi

import (
	"fmt"
	"time"

	"go4.org/mem"
)

// Kind selects the accessor a FieldSpec applies to its target.
type Kind int

const (
	KindInt Kind = iota
	KindUint
	KindBool
	KindString
	KindDatetime
	KindObject
	KindUintArray
)

// A FieldSpec declares one field of an endpoint's response: its name, the
// value kind expected, and the target the decoded value is stored in.
// Arrays of objects are not expressible as a spec; walk them with an
// Iterator instead.
type FieldSpec struct {
	Name     string
	Kind     Kind
	Target   any  // *int, *uint32, *bool, *string or *time.Time per Kind
	Required bool
	Default  any // used by optional fields; same type as Target's element

	// Fields declares the sub-structure of a KindObject spec; Target and
	// Default are ignored for objects.
	Fields []FieldSpec
}

// DecodeFields interprets a declarative field table against the JSON
// object src: one scanning pass locates every named field, then each spec
// is applied to its target. Required specs fail like the Required
// accessors; optional specs store their Default on any failure.
//
// A target or default whose type does not match the spec's Kind is a
// programming error and panics.
func (r *Response) DecodeFields(src mem.RO, specs []FieldSpec) error {
	fields := make([]*Field, len(specs))
	for i := range specs {
		fields[i] = &Field{Name: specs[i].Name}
	}
	if err := ScanFields(src, fields...); err != nil {
		return r.fail(err)
	}
	for i := range specs {
		if err := r.applySpec(&specs[i], fields[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Response) applySpec(spec *FieldSpec, f *Field) error {
	switch spec.Kind {
	case KindInt:
		out := target[int](spec)
		if spec.Required {
			return r.RequiredInt(out, f)
		}
		r.OptionalInt(out, f, defaultOf[int](spec))

	case KindUint:
		out := target[uint32](spec)
		if spec.Required {
			return r.RequiredUint(out, f)
		}
		r.OptionalUint(out, f, defaultOf[uint32](spec))

	case KindBool:
		out := target[bool](spec)
		if spec.Required {
			return r.RequiredBool(out, f)
		}
		r.OptionalBool(out, f, defaultOf[bool](spec))

	case KindString:
		out := target[string](spec)
		if spec.Required {
			return r.RequiredString(out, f)
		}
		r.OptionalString(out, f, defaultOf[string](spec))

	case KindDatetime:
		out := target[time.Time](spec)
		if spec.Required {
			return r.RequiredDatetime(out, f)
		}
		r.OptionalDatetime(out, f, defaultOf[time.Time](spec))

	case KindUintArray:
		out := target[[]uint32](spec)
		if spec.Required {
			return r.RequiredUintArray(out, f)
		}
		if v, err := f.UintArray(r.b); err == nil {
			*out = v
		} else {
			*out = defaultOf[[]uint32](spec)
		}

	case KindObject:
		if !f.Found() {
			if spec.Required {
				return r.fail(f.wrap(ErrNotFound))
			}
			return nil
		}
		if classify(f.Raw()) != kindObject {
			if spec.Required {
				return r.fail(f.wrap(ErrWrongType))
			}
			return nil
		}
		return r.DecodeFields(f.Raw(), spec.Fields)

	default:
		panic(fmt.Sprintf("rapi: unknown field kind %d", spec.Kind))
	}
	return nil
}

func target[T any](spec *FieldSpec) *T {
	out, ok := spec.Target.(*T)
	if !ok {
		panic(fmt.Sprintf("rapi: field %q: target is %T", spec.Name, spec.Target))
	}
	return out
}

func defaultOf[T any](spec *FieldSpec) T {
	if spec.Default == nil {
		var zero T
		return zero
	}
	def, ok := spec.Default.(T)
	if !ok {
		panic(fmt.Sprintf("rapi: field %q: default is %T", spec.Name, spec.Default))
	}
	return def
}
