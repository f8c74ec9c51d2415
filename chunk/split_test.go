package chunk_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/fwojciec/research/chunk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reconstruct(windows []chunk.Window, overlap int) string {
	var b strings.Builder
	for i, w := range windows {
		if i == 0 {
			b.WriteString(w.Text)
			continue
		}
		r := []rune(w.Text)
		b.WriteString(string(r[overlap:]))
	}
	return b.String()
}

func TestSplit(t *testing.T) {
	t.Parallel()

	t.Run("blank text yields no windows", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, chunk.Split("  \n\t ", 10, 2))
	})

	t.Run("short text is a single window", func(t *testing.T) {
		t.Parallel()

		windows := chunk.Split("hello", 10, 2)

		require.Len(t, windows, 1)
		assert.Equal(t, "hello", windows[0].Text)
		assert.Zero(t, windows[0].Start)
	})

	t.Run("windows overlap exactly and reconstruct the text", func(t *testing.T) {
		t.Parallel()

		text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40) +
			"\n\nSecond paragraph with ünïcödé characters.\nAnd another line."

		for _, tc := range []struct{ size, overlap int }{{80, 20}, {100, 0}, {50, 49}, {7, 3}} {
			windows := chunk.Split(text, tc.size, tc.overlap)

			require.NotEmpty(t, windows)
			assert.Equal(t, text, reconstruct(windows, tc.overlap), "size=%d overlap=%d", tc.size, tc.overlap)
			for i, w := range windows {
				assert.LessOrEqual(t, utf8.RuneCountInString(w.Text), tc.size)
				if i > 0 {
					prev := []rune(windows[i-1].Text)
					cur := []rune(w.Text)
					assert.Equal(t, string(prev[len(prev)-tc.overlap:]), string(cur[:tc.overlap]))
					assert.Equal(t, windows[i-1].Start+len(prev)-tc.overlap, w.Start)
				}
			}
		}
	})

	t.Run("prefers paragraph boundaries", func(t *testing.T) {
		t.Parallel()

		text := strings.Repeat("a", 30) + "\n\n" + strings.Repeat("b", 30)

		windows := chunk.Split(text, 40, 0)

		require.Len(t, windows, 2)
		assert.Equal(t, strings.Repeat("a", 30)+"\n\n", windows[0].Text)
		assert.Equal(t, strings.Repeat("b", 30), windows[1].Text)
	})

	t.Run("cuts hard when no boundary exists", func(t *testing.T) {
		t.Parallel()

		windows := chunk.Split(strings.Repeat("x", 25), 10, 0)

		require.Len(t, windows, 3)
		assert.Equal(t, strings.Repeat("x", 10), windows[0].Text)
		assert.Equal(t, strings.Repeat("x", 5), windows[2].Text)
	})
}
