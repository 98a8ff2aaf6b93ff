package session

import (
	"reflect"
	"slices"
	"testing"
)

func TestAddID(t *testing.T) {
	cases := []struct {
		name string
		ids  []uint64
		id   uint64
		want []uint64
	}{
		{"append to empty", nil, 3, []uint64{3}},
		{"append preserves order", []uint64{5, 1}, 3, []uint64{5, 1, 3}},
		{"duplicate is ignored", []uint64{5, 1}, 5, []uint64{5, 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := addID(tc.ids, tc.id)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("addID(%v, %d) = %v, want %v", tc.ids, tc.id, got, tc.want)
			}
		})
	}
}

func TestRemoveID(t *testing.T) {
	cases := []struct {
		name string
		ids  []uint64
		id   uint64
		want []uint64
	}{
		{"remove middle keeps order", []uint64{5, 1, 3}, 1, []uint64{5, 3}},
		{"absent id is a no-op", []uint64{5, 1}, 7, []uint64{5, 1}},
		{"remove from empty", []uint64{}, 7, []uint64{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := removeID(slices.Clone(tc.ids), tc.id)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("removeID(%v, %d) = %v, want %v", tc.ids, tc.id, got, tc.want)
			}
		})
	}
}

func TestWithoutAll(t *testing.T) {
	cases := []struct {
		name string
		ids  []uint64
		drop []uint64
		want []uint64
	}{
		{"drop several keeps order", []uint64{5, 1, 3, 9}, []uint64{1, 9}, []uint64{5, 3}},
		{"drop nothing returns input", []uint64{5, 1}, nil, []uint64{5, 1}},
		{"drop everything", []uint64{5, 1}, []uint64{5, 1}, []uint64{}},
		{"unknown ids in drop are ignored", []uint64{5}, []uint64{7}, []uint64{5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := withoutAll(tc.ids, tc.drop)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("withoutAll(%v, %v) = %v, want %v", tc.ids, tc.drop, got, tc.want)
			}
		})
	}
}
