package rag

import "testing"

func TestAssemble(t *testing.T) {
	tests := []struct {
		name    string
		results []Result
		want    string
	}{
		{"empty", nil, NoContext},
		{
			name: "ordered sources",
			results: []Result{
				{Chunk: Chunk{Source: "80d.md", Text: "Medical insurance premiums."}, Distance: 0.1},
				{Chunk: Chunk{Source: "80c.md", Text: "PPF and ELSS.\n"}, Distance: 0.4},
			},
			want: "Relevant Tax Information:\n\n" +
				"[Source 1: 80d.md]\nMedical insurance premiums.\n\n" +
				"[Source 2: 80c.md]\nPPF and ELSS.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Assemble(tt.results); got != tt.want {
				t.Errorf("Assemble() = %q, want %q", got, tt.want)
			}
		})
	}
}
