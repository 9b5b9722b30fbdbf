package domain

import (
	"reflect"
	"testing"
)

func TestNewUserSet_重複排除(t *testing.T) {
	s := NewUserSet("U2", "U1", "U2", "U1", "U3")
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	if got, want := s.Sorted(), []string{"U1", "U2", "U3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Sorted() = %v, want %v", got, want)
	}
}

func TestUserSet_Difference(t *testing.T) {
	tests := []struct {
		name     string
		set      UserSet
		other    UserSet
		expected []string
	}{
		{
			name:     "一部が重なる",
			set:      NewUserSet("A", "B", "C", "D"),
			other:    NewUserSet("A", "B", "C"),
			expected: []string{"D"},
		},
		{
			name:     "重ならない",
			set:      NewUserSet("A", "B"),
			other:    NewUserSet(),
			expected: []string{"A", "B"},
		},
		{
			name:     "すべて含まれる",
			set:      NewUserSet("A"),
			other:    NewUserSet("A", "Z"),
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.set.Difference(tt.other).Sorted()
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Difference() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserSet_Contains(t *testing.T) {
	s := NewUserSet("U1")
	if !s.Contains("U1") {
		t.Error("Contains(U1) = false, want true")
	}
	if s.Contains("U2") {
		t.Error("Contains(U2) = true, want false")
	}
}
