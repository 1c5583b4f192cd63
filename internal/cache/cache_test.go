// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package cache

import (
	"sync"
	"testing"
)

func TestLRUGetAdd(t *testing.T) {
	t.Parallel()

	c := NewLRU[string, float64](2)
	c.Add("a", 1)
	c.Add("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %v, %v, want 1, true", v, ok)
	}

	// "b" is now least recently used and must be evicted.
	c.Add("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("Get(b) found an evicted entry")
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Errorf("Get(c) = %v, %v, want 3, true", v, ok)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	hits, misses, evictions := c.Stats()
	if hits != 2 || misses != 1 || evictions != 1 {
		t.Errorf("Stats() = %d, %d, %d, want 2, 1, 1", hits, misses, evictions)
	}
}

func TestLRUUpdateExisting(t *testing.T) {
	t.Parallel()

	c := NewLRU[int, int](2)
	c.Add(1, 10)
	c.Add(2, 20)
	c.Add(1, 11)
	c.Add(3, 30)

	if v, ok := c.Get(1); !ok || v != 11 {
		t.Errorf("Get(1) = %v, %v, want 11, true", v, ok)
	}
	if _, ok := c.Get(2); ok {
		t.Error("Get(2) should have been evicted after key 1 was refreshed")
	}
}

func TestLRUDefaultCapacity(t *testing.T) {
	t.Parallel()

	c := NewLRU[int, int](0)
	for i := 0; i < 10001; i++ {
		c.Add(i, i)
	}
	if c.Len() != 10000 {
		t.Errorf("Len() = %d, want 10000", c.Len())
	}
}

func TestLRUConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := NewLRU[int, int](64)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				c.Add(w*1000+i, i)
				c.Get(w*1000 + i/2)
			}
		}(w)
	}
	wg.Wait()

	if c.Len() > 64 {
		t.Errorf("Len() = %d, want <= 64", c.Len())
	}
}

type scored struct {
	id    int
	score float64
}

func byScoreThenID(a, b scored) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.id < b.id
}

func TestTopK(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		k     int
		input []scored
		want  []int
	}{
		{
			name:  "keeps best three",
			k:     3,
			input: []scored{{1, 0.1}, {2, 0.9}, {3, 0.5}, {4, 0.7}, {5, 0.2}},
			want:  []int{2, 4, 3},
		},
		{
			name:  "ties resolved by id",
			k:     2,
			input: []scored{{9, 1}, {3, 1}, {5, 1}},
			want:  []int{3, 5},
		},
		{
			name:  "fewer values than k",
			k:     10,
			input: []scored{{1, 0.3}, {2, 0.6}},
			want:  []int{2, 1},
		},
		{
			name:  "zero k",
			k:     0,
			input: []scored{{1, 0.3}},
			want:  []int{},
		},
		{
			name:  "negative k",
			k:     -1,
			input: []scored{{1, 0.3}},
			want:  []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			top := NewTopK(tt.k, byScoreThenID)
			for _, v := range tt.input {
				top.Push(v)
			}
			got := top.Sorted()
			if len(got) != len(tt.want) {
				t.Fatalf("len(Sorted()) = %d, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i].id != tt.want[i] {
					t.Errorf("Sorted()[%d].id = %d, want %d", i, got[i].id, tt.want[i])
				}
			}
		})
	}
}

func TestTopKMatchesFullSort(t *testing.T) {
	t.Parallel()

	top := NewTopK(5, byScoreThenID)
	for i := 0; i < 100; i++ {
		top.Push(scored{id: i, score: float64((i * 37) % 17)})
	}

	got := top.Sorted()
	// Score 16 is reached by ids with i*37 % 17 == 16, i.e. i % 17 == 11.
	want := []int{11, 28, 45, 62, 79}
	for i := range want {
		if got[i].id != want[i] {
			t.Errorf("Sorted()[%d].id = %d, want %d", i, got[i].id, want[i])
		}
	}
}
