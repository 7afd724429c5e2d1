// README: Retriever tests over small CSV fixtures.
package kb

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const fixtureCSV = `question,réponse
Comment nettoyer le tire-lait ?,Lavez les pièces à l'eau savonneuse après chaque utilisation.
Le tire-lait ne fonctionne pas,Vérifiez la batterie et le branchement du tuyau.
Quels sont les tarifs de location ?,La location est prise en charge avec une ordonnance.
`

func newTestService(t *testing.T, csvContent string) *Service {
	t.Helper()
	path := writeCSV(t, "QR.csv", csvContent)
	s := NewService(path, nil, zerolog.Nop())
	if n, err := s.Load(); err != nil || n != 3 {
		t.Fatalf("Load = (%d, %v), want 3 rows", n, err)
	}
	return s
}

func TestLoadSemicolonDelimiter(t *testing.T) {
	path := writeCSV(t, "QR.csv", "question;reponse\nQ1;A1\nQ2;A2\n")
	s := NewService(path, nil, zerolog.Nop())
	if n, err := s.Load(); err != nil || n != 2 {
		t.Fatalf("Load = (%d, %v), want 2 rows", n, err)
	}
}

func TestLoadCP1252(t *testing.T) {
	// 0xE9 is "é" in cp1252 and invalid UTF-8
	raw := []byte("question,reponse\nProbl\xe8me batterie,V\xe9rifiez le chargeur\n")
	path := filepath.Join(t.TempDir(), "QR.csv")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewService(path, nil, zerolog.Nop())
	if n, err := s.Load(); err != nil || n != 1 {
		t.Fatalf("Load = (%d, %v), want 1 row", n, err)
	}
	res := s.Retrieve(context.Background(), "probleme batterie", 3)
	if len(res) == 0 || res[0].Answer != "Vérifiez le chargeur" {
		t.Fatalf("cp1252 row not retrievable: %+v", res)
	}
}

func TestLoadRowFallbackWithoutHeader(t *testing.T) {
	// no recognizable header: last two non-empty cells become Q/A
	path := writeCSV(t, "QR.csv", "id,misc,champ1,champ2\n1,,Q1,A1\n2,x,Q2,A2\n")
	s := NewService(path, nil, zerolog.Nop())
	if n, err := s.Load(); err != nil || n != 2 {
		t.Fatalf("Load = (%d, %v), want 2 rows", n, err)
	}
}

func TestRetrieveLexical(t *testing.T) {
	s := newTestService(t, fixtureCSV)

	res := s.Retrieve(context.Background(), "comment nettoyer le tire lait", 3)
	if len(res) == 0 || res[0].Question != "Comment nettoyer le tire-lait ?" {
		t.Fatalf("Retrieve = %+v", res)
	}
	// shorthand expansion: "tl" overlaps "tire lait" docs
	res = s.Retrieve(context.Background(), "mon tl est en panne, il ne fonctionne pas", 3)
	if len(res) == 0 {
		t.Fatal("shorthand query found nothing")
	}
	if res := s.Retrieve(context.Background(), "", 3); res != nil {
		t.Fatalf("empty query must return nil, got %+v", res)
	}
}

func TestRetrieveFuzzyFallback(t *testing.T) {
	s := newTestService(t, fixtureCSV)
	// misspelled beyond token overlap but close in bigram space
	res := s.Retrieve(context.Background(), "commment netoyer le tirre-lai", 3)
	if len(res) == 0 {
		t.Fatal("fuzzy fallback found nothing")
	}
}

func TestQuickAnswer(t *testing.T) {
	s := newTestService(t, fixtureCSV)

	if a, ok := s.QuickAnswer("Comment nettoyer le tire-lait ?"); !ok || a == "" {
		t.Fatalf("exact question must hit: (%q, %v)", a, ok)
	}
	// substring of a stored question
	if _, ok := s.QuickAnswer("nettoyer le tire-lait"); !ok {
		t.Fatal("substring question must hit")
	}
	if _, ok := s.QuickAnswer("pouvez-vous livrer en Belgique demain matin"); ok {
		t.Fatal("unrelated question must miss")
	}
	if _, ok := s.QuickAnswer(""); ok {
		t.Fatal("empty query must miss")
	}
}

func TestReloadSwapsIndex(t *testing.T) {
	path := writeCSV(t, "QR.csv", "question,reponse\nQ1,A1\n")
	s := NewService(path, nil, zerolog.Nop())
	if _, err := s.Load(); err != nil {
		t.Fatal(err)
	}
	if s.Count() != 1 {
		t.Fatalf("Count = %d", s.Count())
	}

	if err := os.WriteFile(path, []byte("question,reponse\nQ1,A1\nQ2,A2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if n, err := s.Load(); err != nil || n != 2 {
		t.Fatalf("reload = (%d, %v)", n, err)
	}
	if s.Count() != 2 {
		t.Fatalf("Count after reload = %d", s.Count())
	}
}

type stubEmbedder struct {
	byText map[string][]float64
	err    error
}

func (e stubEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	if v, ok := e.byText[text]; ok {
		return v, nil
	}
	return []float64{0, 1}, nil
}

func TestRetrieveEmbedding(t *testing.T) {
	path := writeCSV(t, "QR.csv", "question,reponse\nQA,AA\nQB,AB\n")
	emb := stubEmbedder{byText: map[string][]float64{
		"zzz":          {1, 0},
		"Q: QA\nA: AA": {1, 0}, // aligned with the query
		"Q: QB\nA: AB": {0, 1},
	}}
	s := NewService(path, emb, zerolog.Nop())
	if _, err := s.Load(); err != nil {
		t.Fatal(err)
	}

	res := s.Retrieve(context.Background(), "zzz", 1)
	if len(res) != 1 || res[0].Answer != "AA" {
		t.Fatalf("embedding retrieval = %+v", res)
	}
}

func TestRetrieveEmbedderFailureFallsBack(t *testing.T) {
	path := writeCSV(t, "QR.csv", "question,reponse\nnettoyage du biberon,A1\n")
	s := NewService(path, stubEmbedder{err: errors.New("quota")}, zerolog.Nop())
	if _, err := s.Load(); err != nil {
		t.Fatal(err)
	}
	res := s.Retrieve(context.Background(), "nettoyage biberon", 3)
	if len(res) != 1 {
		t.Fatalf("lexical fallback failed: %+v", res)
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := NewService(filepath.Join(t.TempDir(), "absent.csv"), nil, zerolog.Nop())
	if _, err := s.Load(); err == nil {
		t.Fatal("missing file must error")
	}
}
