package rag

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkText(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		target int
		want   []string
	}{
		{"empty", "", 100, nil},
		{"whitespace only", "  \n\n  ", 100, nil},
		{"fits in one chunk", "alpha\n\nbeta", 100, []string{"alpha\n\nbeta"}},
		{"split on size", "aaaaaaaaaa\n\nbbbbbbbbbb", 15, []string{"aaaaaaaaaa", "bbbbbbbbbb"}},
		{"oversized paragraph kept whole", "short\n\n" + strings.Repeat("x", 40), 10, []string{"short", strings.Repeat("x", 40)}},
		{"reaching target starts new chunk", "aaaa\n\nbbbb", 10, []string{"aaaa", "bbbb"}},
		{"non-positive target", "alpha", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChunkText(tt.text, tt.target, 0)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ChunkText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChunkText_Properties(t *testing.T) {
	var paras []string
	for i := 0; i < 40; i++ {
		paras = append(paras, fmt.Sprintf("Paragraph %d %s", i, strings.Repeat("word ", i%9)+"end"))
	}
	paras = append(paras, strings.Repeat("long ", 60)+"tail")
	text := strings.Join(paras, "\n\n")

	for _, target := range []int{20, 50, 120, 500} {
		chunks := ChunkText(text, target, 50)

		var rebuilt []string
		for _, c := range chunks {
			rebuilt = append(rebuilt, strings.Split(c, "\n\n")...)
			if strings.Contains(c, "\n\n") && utf8.RuneCountInString(c) >= target {
				t.Errorf("target %d: multi-paragraph chunk of length %d", target, utf8.RuneCountInString(c))
			}
		}
		if !reflect.DeepEqual(rebuilt, paras) {
			t.Errorf("target %d: chunks do not reconstruct the paragraphs", target)
		}
	}
}

func TestChunkText_OverlapHasNoEffect(t *testing.T) {
	text := "one two three\n\nfour five six\n\nseven eight nine"
	a := ChunkText(text, 20, 0)
	b := ChunkText(text, 20, 15)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("overlap changed output: %q vs %q", a, b)
	}
}
