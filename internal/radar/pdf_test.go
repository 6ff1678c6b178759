package radar

import "testing"

func TestFindDateCandidate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "prefers labeled date over earlier one",
			text: "Publicado em 01/01/2026. Data de abertura da sessão: 15/02/2026 às 10h.",
			want: "15/02/2026",
		},
		{
			name: "first date when nothing is labeled",
			text: "Edital publicado em 03/01/2026, retificado em 08/01/2026.",
			want: "03/01/2026",
		},
		{
			name: "iso format",
			text: "Recebimento das propostas até 2026-02-20.",
			want: "2026-02-20",
		},
		{
			name: "long form portuguese",
			text: "A sessão pública ocorrerá no dia 12 de março de 2026 na sede.",
			want: "12 de março de 2026",
		},
		{
			name: "no date",
			text: "Edital de credenciamento permanente, sem data definida.",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findDateCandidate(tt.text); got != tt.want {
				t.Errorf("findDateCandidate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractPDFTextMalformed(t *testing.T) {
	// The parser must never panic on garbage input.
	if _, err := extractPDFText([]byte("definitely not a pdf")); err == nil {
		t.Error("expected an error for malformed content")
	}
}
