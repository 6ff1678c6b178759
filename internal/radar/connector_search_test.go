package radar

import (
	"context"
	"errors"
	"strings"
	"testing"

	"licitaradar/internal/models"
)

type mockSearcher struct {
	text        string
	err         error
	instruction string
}

func (m *mockSearcher) Search(_ context.Context, instruction string) (string, error) {
	m.instruction = instruction
	return m.text, m.err
}

func searchInstitution() models.Institution {
	return models.Institution{
		ID:       "20",
		Name:     "SEBRAE",
		State:    "Bahia",
		Initials: "SEBRAE BA",
		URL:      "https://www.ba.sebrae.com.br",
	}
}

func TestSearchConnectorNoResultsDetection(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"explicit nenhuma", "Nenhuma oportunidade encontrada"},
		{"nenhuma embedded", "Após pesquisar, nenhuma licitação foi publicada no período."},
		{"too short", "Sem dados."},
		{"blank", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := NewSearchConnector(&mockSearcher{text: tt.text})
			res := conn.Fetch(context.Background(), searchInstitution(), "últimos 15 dias")
			if res.Outcome != OutcomeEmpty {
				t.Errorf("expected empty, got %s with %d items", res.Outcome, len(res.Items))
			}
		})
	}
}

func TestSearchConnectorSplitsLines(t *testing.T) {
	text := `- Pregão eletrônico para aquisição de material gráfico e impressos
* Credenciamento de consultores em gestão empresarial para 2026
ok
• Chamada pública para contratação de instrutores de cursos técnicos`

	conn := NewSearchConnector(&mockSearcher{text: text})
	res := conn.Fetch(context.Background(), searchInstitution(), "últimos 15 dias")

	if res.Outcome != OutcomeFound {
		t.Fatalf("expected found, got %s", res.Outcome)
	}
	if len(res.Items) != 3 {
		t.Fatalf("expected 3 items (short line dropped), got %d", len(res.Items))
	}

	first := res.Items[0]
	if first.Title != "Oportunidade 1 em SEBRAE" {
		t.Errorf("unexpected title: %s", first.Title)
	}
	if !strings.HasPrefix(first.Description, "Pregão eletrônico") {
		t.Errorf("bullet marker should be stripped: %q", first.Description)
	}
	if first.Link != "https://www.ba.sebrae.com.br" {
		t.Errorf("expected portal URL as link, got %s", first.Link)
	}
	if !first.IsNew {
		t.Error("search results should be flagged as new")
	}
}

func TestSearchConnectorFallbackSingleRecord(t *testing.T) {
	// Long enough to be informative, but every individual line is short.
	text := "Edital 12\nSESC BA\npublicado\nrecentemente\nver portal"

	conn := NewSearchConnector(&mockSearcher{text: text})
	res := conn.Fetch(context.Background(), searchInstitution(), "últimos 15 dias")

	if res.Outcome != OutcomeFound {
		t.Fatalf("expected found, got %s", res.Outcome)
	}
	if len(res.Items) != 1 {
		t.Fatalf("expected single fallback record, got %d", len(res.Items))
	}
	if res.Items[0].Description != text {
		t.Errorf("fallback should wrap the whole text, got %q", res.Items[0].Description)
	}
}

func TestSearchConnectorErrorDegradesToEmpty(t *testing.T) {
	conn := NewSearchConnector(&mockSearcher{err: errors.New("quota exceeded")})
	res := conn.Fetch(context.Background(), searchInstitution(), "últimos 15 dias")
	if res.Outcome != OutcomeEmpty {
		t.Errorf("backend errors should degrade to empty, got %s", res.Outcome)
	}
}

func TestSearchConnectorNilSearcher(t *testing.T) {
	conn := NewSearchConnector(nil)
	res := conn.Fetch(context.Background(), searchInstitution(), "últimos 15 dias")
	if res.Outcome != OutcomeEmpty {
		t.Errorf("missing credential should short-circuit to empty, got %s", res.Outcome)
	}
}

func TestSearchConnectorInstructionContents(t *testing.T) {
	searcher := &mockSearcher{text: "Nenhuma oportunidade encontrada"}
	conn := NewSearchConnector(searcher)
	conn.Fetch(context.Background(), searchInstitution(), "últimos 30 dias")

	for _, want := range []string{"SEBRAE", "Bahia", "https://www.ba.sebrae.com.br", "últimos 30 dias"} {
		if !strings.Contains(searcher.instruction, want) {
			t.Errorf("instruction missing %q:\n%s", want, searcher.instruction)
		}
	}
}
