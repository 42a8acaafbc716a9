package qbvh

import "testing"

func TestEncodeDecodeLeaf(t *testing.T) {
	cases := []struct {
		start, count int
	}{
		{0, 1},
		{5, 16},
		{startMaskMax(), 8},
	}
	for _, tt := range cases {
		code := encodeLeaf(tt.start, tt.count)
		if !isLeaf(code) {
			t.Fatalf("encodeLeaf(%d, %d) did not produce a leaf code", tt.start, tt.count)
		}
		if isEmpty(code) {
			t.Fatalf("encodeLeaf(%d, %d) collided with the empty sentinel", tt.start, tt.count)
		}
		gotStart, gotCount := decodeLeaf(code)
		if gotStart != tt.start || gotCount != tt.count {
			t.Errorf("decodeLeaf(encodeLeaf(%d, %d)) = (%d, %d)", tt.start, tt.count, gotStart, gotCount)
		}
	}
}

func startMaskMax() int { return int(startMask) }

func TestEmptyChildIsNeitherLeafNorIndex(t *testing.T) {
	if !isEmpty(emptyChild) {
		t.Fatal("emptyChild should be empty")
	}
	if isLeaf(emptyChild) {
		t.Fatal("emptyChild must never be read as a leaf code")
	}
}
