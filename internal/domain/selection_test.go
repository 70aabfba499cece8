package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func makeFiles(n int) []FileHandle {
	files := make([]FileHandle, n)
	for i := range files {
		files[i] = FileHandle(fmt.Sprintf("https://example.org/files/f%02d.mseed", i))
	}
	return files
}

func TestSelectFiles(t *testing.T) {
	tests := []struct {
		name  string
		files int
		n     int
		want  []int
	}{
		{"empty listing", 0, 4, nil},
		{"single file is kept", 1, 4, []int{0}},
		{"two files skips newest", 2, 4, []int{0}},
		{"five files take two", 5, 2, []int{2, 3}},
		{"exact fit", 5, 4, []int{0, 1, 2, 3}},
		{"count larger than listing", 5, 50, []int{0, 1, 2, 3}},
		{"zero count", 5, 0, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := makeFiles(tt.files)
			got := SelectFiles(files, tt.n)

			var want []FileHandle
			if tt.want != nil {
				want = make([]FileHandle, 0, len(tt.want))
				for _, i := range tt.want {
					want = append(want, files[i])
				}
			}
			assert.Len(t, got, len(want))
			if len(want) > 0 {
				assert.Equal(t, want, got)
			}
		})
	}
}

func TestSelectFiles_NeverIncludesNewest(t *testing.T) {
	for size := 2; size <= 12; size++ {
		for n := 1; n <= 15; n++ {
			files := makeFiles(size)
			got := SelectFiles(files, n)

			assert.NotContains(t, got, files[size-1], "size=%d n=%d", size, n)
			assert.Len(t, got, min(n, size-1), "size=%d n=%d", size, n)
		}
	}
}

func TestSelectFiles_DoesNotAliasInput(t *testing.T) {
	files := makeFiles(4)
	got := SelectFiles(files, 2)
	got[0] = "changed"
	assert.Equal(t, FileHandle("https://example.org/files/f01.mseed"), files[1])
}
