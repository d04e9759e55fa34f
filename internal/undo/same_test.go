package undo

import "testing"

func TestSame(t *testing.T) {
	p := &counter{value: 1}
	m := map[string]int{"a": 1}
	s := []int{1, 2, 3}
	ch := make(chan int)
	fn := func() {}

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"nil nil", nil, nil, true},
		{"nil value", nil, 1, false},
		{"same pointer", p, p, true},
		{"equal pointees", p, &counter{value: 1}, false},
		{"same map", m, m, true},
		{"equal maps", m, map[string]int{"a": 1}, false},
		{"same slice", s, s, true},
		{"shorter slice", s, s[:2], false},
		{"same chan", ch, ch, true},
		{"func", fn, fn, false},
		{"equal ints", 3, 3, true},
		{"different ints", 3, 4, false},
		{"different types", 3, int64(3), false},
		{"equal strings", "x", "x", true},
		{"comparable structs", counter{value: 2}, counter{value: 2}, true},
		{"struct sharing a slice", struct{ v []int }{s}, struct{ v []int }{s}, true},
		{"struct with equal slices", struct{ v []int }{s}, struct{ v []int }{[]int{1, 2, 3}}, true},
		{"struct with different slices", struct{ v []int }{s}, struct{ v []int }{s[:2]}, false},
		{"struct with maps", struct{ m map[string]int }{m}, struct{ m map[string]int }{map[string]int{"a": 2}}, false},
		{"array of slices", [1][]int{s}, [1][]int{{1, 2, 3}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Same(tt.a, tt.b); got != tt.want {
				t.Errorf("Same(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
