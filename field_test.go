// Copyright (C) 2025 The rapi Authors. All Rights Reserved.

package rapi_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"
	"go4.org/mem"

	"github.com/rcnet/rapi"
)

// scan locates the named fields in src and returns their raw value text,
// keyed by name, omitting fields that were not found.
func scan(t *testing.T, src string, names ...string) map[string]string {
	t.Helper()
	fields := make([]*rapi.Field, len(names))
	for i, name := range names {
		fields[i] = &rapi.Field{Name: name}
	}
	if err := rapi.ScanFields(mem.S(src), fields...); err != nil {
		t.Fatalf("ScanFields failed: %v", err)
	}
	got := make(map[string]string)
	for _, f := range fields {
		if f.Found() {
			got[f.Name] = f.Raw().StringCopy()
		}
	}
	return got
}

func TestScanFields(t *testing.T) {
	tests := []struct {
		desc  string
		input string
		names []string
		want  map[string]string
	}{
		{"empty object", `{}`, []string{"a"}, map[string]string{}},
		{"scalars", `{"a":1,"b":"two","c":true,"d":null}`,
			[]string{"a", "b", "c", "d"},
			map[string]string{"a": "1", "b": `"two"`, "c": "true", "d": "null"}},
		{"whitespace", "{ \"a\" :\t1 ,\n\"b\" : \"x\" }",
			[]string{"a", "b"},
			map[string]string{"a": "1", "b": `"x"`}},
		{"absent field is not an error", `{"a":1}`, []string{"a", "z"},
			map[string]string{"a": "1"}},
		{"value to buffer end", `{"a":"xyz"}`, []string{"a"},
			map[string]string{"a": `"xyz"`}},
		{"nested values skipped whole", `{"a":{"x":[1,{"y":2}]},"b":3}`,
			[]string{"a", "b"},
			map[string]string{"a": `{"x":[1,{"y":2}]}`, "b": "3"}},
		{"escaped quote in key and value", `{"a\"b":"c\"d"}`,
			[]string{`a\"b`},
			map[string]string{`a\"b`: `"c\"d"`}},
		{"matching is case-sensitive", `{"User":1,"user":2}`,
			[]string{"user"},
			map[string]string{"user": "2"}},
		{"negative and fractional numbers", `{"a":-15,"b":2.5}`,
			[]string{"a", "b"},
			map[string]string{"a": "-15", "b": "2.5"}},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			got := scan(t, test.input, test.names...)
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("ScanFields(%#q): (-want, +got)\n%s", test.input, diff)
			}
		})
	}
}

func TestScanFieldsOrderIndependent(t *testing.T) {
	inputs := []string{
		`{"Success":true,"User":"ABC","Score":1500}`,
		`{"Score":1500,"Success":true,"User":"ABC"}`,
		`{"User":"ABC","Score":1500,"Success":true}`,
	}
	want := map[string]string{"Success": "true", "User": `"ABC"`, "Score": "1500"}
	for _, input := range inputs {
		got := scan(t, input, "Success", "User", "Score")
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ScanFields(%#q): (-want, +got)\n%s", input, diff)
		}
	}
}

func TestScanFieldsNestedIsolation(t *testing.T) {
	// An "id" inside a sub-object must never match a top-level lookup.
	got := scan(t, `{"nested":{"id":42},"other":1}`, "id")
	if len(got) != 0 {
		t.Errorf("top-level id = %v, want not found", got)
	}

	got = scan(t, `{"nested":{"id":42},"id":7}`, "id")
	if diff := cmp.Diff(map[string]string{"id": "7"}, got); diff != "" {
		t.Errorf("top-level id: (-want, +got)\n%s", diff)
	}
}

func TestScanFieldsStopsWhenDone(t *testing.T) {
	// Once every registered field is located the scan stops, so trailing
	// garbage after the last wanted field is never visited.
	input := `{"a":1,"b":2,"c":%%% not json at all`
	got := scan(t, input, "a", "b")
	want := map[string]string{"a": "1", "b": "2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ScanFields(%#q): (-want, +got)\n%s", input, diff)
	}
}

func TestScanFieldsMalformed(t *testing.T) {
	tests := []string{
		``,
		`42`,               // not an object
		`[1,2,3]`,          // not an object
		`{"a":1`,           // truncated before close
		`{"a":"xyz`,        // unterminated string
		`{"a":"x\`,         // escape at buffer end
		`{"a":{"b":1}`,     // unbalanced brackets
		`{"a":[1,2}`,       // close without matching open is fine for the depth counter, but the object never closes
		`{"a" 1}`,       // missing colon
		`{"a":1 "b":2}`, // missing comma
	}
	for _, input := range tests {
		var f rapi.Field
		f.Name = "a"
		err := rapi.ScanFields(mem.S(input), &f)
		if err == nil {
			t.Errorf("ScanFields(%#q): no error", input)
			continue
		}
		if !errors.Is(err, rapi.ErrMalformed) {
			t.Errorf("ScanFields(%#q): error %v is not ErrMalformed", input, err)
		}
	}
}

func TestIteratorObject(t *testing.T) {
	it := rapi.NewIterator(mem.S(`{"a":1,"b":[2,3],"c":{"d":4}}`))
	var got [][2]string
	var f rapi.Field
	for it.NextField(&f) {
		got = append(got, [2]string{f.Key().StringCopy(), f.Raw().StringCopy()})
	}
	if err := it.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
	want := [][2]string{
		{"a", "1"},
		{"b", "[2,3]"},
		{"c", `{"d":4}`},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("iteration (-want, +got)\n%s", diff)
	}
}

func TestIteratorArray(t *testing.T) {
	it := rapi.NewIterator(mem.S(` [1, "two", [3], {"four":4}, null ] `))
	var got []string
	var f rapi.Field
	for it.NextField(&f) {
		if f.Key().Len() != 0 {
			t.Errorf("array element has key %q", f.Key().StringCopy())
		}
		got = append(got, f.Raw().StringCopy())
	}
	if err := it.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
	want := []string{"1", `"two"`, "[3]", `{"four":4}`, "null"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("iteration (-want, +got)\n%s", diff)
	}
}

func TestIteratorNextObject(t *testing.T) {
	src := mem.S(`[{"ID":1,"Title":"First"},{"Title":"Second","ID":2},{"ID":3}]`)
	id := &rapi.Field{Name: "ID"}
	title := &rapi.Field{Name: "Title"}

	type entry struct {
		ID         string
		Title      string
		TitleFound bool
	}
	var got []entry
	it := rapi.NewIterator(src)
	for it.NextObject(id, title) {
		e := entry{ID: id.Raw().StringCopy(), TitleFound: title.Found()}
		if title.Found() {
			e.Title = title.Raw().StringCopy()
		}
		got = append(got, e)
	}
	if err := it.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
	want := []entry{
		{ID: "1", Title: `"First"`, TitleFound: true},
		{ID: "2", Title: `"Second"`, TitleFound: true},
		{ID: "3"}, // fields reset per element; Title must not leak over
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("iteration (-want, +got)\n%s", diff)
	}
}

func TestIteratorMalformed(t *testing.T) {
	tests := []string{
		`[1,2`,     // unterminated
		`[1,,2]`,   // empty element
		`[1 2]`,    // missing comma
		`{"a" 1}`,  // missing colon
		`{1:2}`,    // non-string key
		`"scalar"`, // not an object or array
	}
	for _, input := range tests {
		it := rapi.NewIterator(mem.S(input))
		var f rapi.Field
		for it.NextField(&f) {
		}
		if err := it.Err(); err == nil {
			t.Errorf("NewIterator(%#q): iteration reported no error", input)
		} else if !errors.Is(err, rapi.ErrMalformed) {
			t.Errorf("NewIterator(%#q): error %v is not ErrMalformed", input, err)
		}
	}
}

func BenchmarkScanFields(b *testing.B) {
	body := []byte(`{"Success":true,"User":"player one","Score":125780,` +
		`"SoftcoreScore":4211,"Rank":1337,"Achievements":[` +
		`{"ID":1,"Points":5,"Title":"First Steps"},` +
		`{"ID":2,"Points":10,"Title":"Getting Somewhere"},` +
		`{"ID":3,"Points":25,"Title":"Halfway There"}],` +
		`"Updated":1493188608}`)

	b.Run("ScanFields", func(b *testing.B) {
		src := mem.B(body)
		user := &rapi.Field{Name: "User"}
		score := &rapi.Field{Name: "Score"}
		rank := &rapi.Field{Name: "Rank"}
		for i := 0; i < b.N; i++ {
			if err := rapi.ScanFields(src, user, score, rank); err != nil {
				b.Fatalf("ScanFields: %v", err)
			}
		}
	})

	// The standard library builds a full document tree; this is the cost
	// the single-pass scan avoids.
	b.Run("StdlibUnmarshal", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var m map[string]any
			if err := json.Unmarshal(body, &m); err != nil {
				b.Fatalf("Unmarshal: %v", err)
			}
		}
	})
}

// TestScanAgainstGJSON cross-checks span extraction against an independent
// JSON getter over a fixture exercising nesting, escapes and arrays.
func TestScanAgainstGJSON(t *testing.T) {
	const fixture = `{
	  "Name": "night ★ rider",
	  "Score": 123456,
	  "Ratio": -0.25,
	  "Active": true,
	  "Tags": [1, 2, 3],
	  "Inner": {"Name": "shadowed", "Depth": 2},
	  "Last": null
	}`
	names := []string{"Name", "Score", "Ratio", "Active", "Tags", "Inner", "Last"}

	got := scan(t, fixture, names...)
	for _, name := range names {
		oracle := gjson.Get(fixture, name)
		if !oracle.Exists() {
			t.Fatalf("oracle is missing %q", name)
		}
		if got[name] != oracle.Raw {
			t.Errorf("field %q = %#q, oracle says %#q", name, got[name], oracle.Raw)
		}
	}
}
