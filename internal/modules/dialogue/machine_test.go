// README: State machine tests: the full rental scenario, bulk parsing,
// edit mode, the guard rule and the return sub-flow.
package dialogue

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"tlx/internal/modules/intent"
	"tlx/internal/modules/language"
	"tlx/internal/types"
)

type captureArchiver struct {
	subs []Submission
	err  error
}

func (a *captureArchiver) Archive(_ context.Context, sub Submission) error {
	a.subs = append(a.subs, sub)
	return a.err
}

type stubDropoff struct {
	lines []string
	err   error
	calls int
}

func (d *stubDropoff) Nearby(_ context.Context, _ string) ([]string, error) {
	d.calls++
	return d.lines, d.err
}

func newTestMachine(t *testing.T, arch Archiver, drop DropoffFinder) (*Machine, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return NewMachine(store, arch, drop, zerolog.Nop()), store
}

// turn feeds an utterance through the same classifiers the service uses.
func turn(t *testing.T, m *Machine, sid, utterance string, files ...string) TurnResult {
	t.Helper()
	res, err := m.Turn(context.Background(), TurnInput{
		SessionID:   types.ID(sid),
		Utterance:   utterance,
		Lang:        language.FR,
		Intent:      intent.Classify(utterance),
		Polarity:    intent.Polarize(utterance),
		Attachments: files,
	})
	if err != nil {
		t.Fatalf("Turn(%q): %v", utterance, err)
	}
	return res
}

func getState(t *testing.T, store *MemoryStore, sid string) (State, bool) {
	t.Helper()
	st, ok, err := store.Get(context.Background(), types.ID(sid))
	if err != nil {
		t.Fatalf("store.Get: %v", err)
	}
	return st, ok
}

// checkSummaryInvariant asserts the four scalar slots are filled
// whenever a session sits at the summary stage.
func checkSummaryInvariant(t *testing.T, store *MemoryStore, sid string) {
	t.Helper()
	st, ok := getState(t, store, sid)
	if !ok {
		return
	}
	cs, isCS := st.(ConfirmingSummary)
	if !isCS {
		return
	}
	d := cs.Details
	if d.Name == "" || d.StartDate == "" || d.EndDate == "" || d.PostalCode == "" {
		t.Fatalf("confirm_summary with empty scalar slot: %+v", d)
	}
}

func TestFullRentScenario(t *testing.T) {
	arch := &captureArchiver{}
	m, store := newTestMachine(t, arch, nil)
	sid := "s1"

	res := turn(t, m, sid, "Je veux louer un tire-lait")
	if !res.Handled || !strings.Contains(res.Reply, "louer un tire-lait") {
		t.Fatalf("expected rent confirmation prompt, got %+v", res)
	}
	if st, ok := getState(t, store, sid); !ok || st.Stage() != StageAwaitingConfirmation {
		t.Fatalf("expected asked_confirm, got %v", st)
	}

	res = turn(t, m, sid, "oui")
	if !strings.Contains(res.Reply, "Nom et Prenom") {
		t.Fatalf("expected name prompt, got %q", res.Reply)
	}

	res = turn(t, m, sid, "Dupont, Marie")
	if !strings.Contains(res.Reply, "Date de debut") {
		t.Fatalf("expected start date prompt, got %q", res.Reply)
	}
	st, _ := getState(t, store, sid)
	if cd := st.(CollectingDetails); cd.Details.Name != "Dupont Marie" {
		t.Fatalf("name = %q", cd.Details.Name)
	}

	// both dates in one step
	res = turn(t, m, sid, "22/01/2026 29/01/2026")
	if !strings.Contains(res.Reply, "Code postal") {
		t.Fatalf("expected postal prompt, got %q", res.Reply)
	}
	st, _ = getState(t, store, sid)
	if cd := st.(CollectingDetails); cd.Details.StartDate != "22/01/2026" || cd.Details.EndDate != "29/01/2026" {
		t.Fatalf("dates = %q..%q", cd.Details.StartDate, cd.Details.EndDate)
	}

	res = turn(t, m, sid, "75001", "/uploads/ord.pdf", "/uploads/mut.pdf")
	if !strings.Contains(res.Reply, "Recapitulatif") || res.Summary == nil {
		t.Fatalf("expected summary, got %+v", res)
	}
	checkSummaryInvariant(t, store, sid)

	res = turn(t, m, sid, "oui")
	if !res.Confirm || !strings.Contains(res.Reply, "24h") {
		t.Fatalf("expected final success, got %+v", res)
	}
	if _, ok := getState(t, store, sid); ok {
		t.Fatal("session must be removed after completion")
	}
	if len(arch.subs) != 1 || arch.subs[0].Details.PostalCode != "75001" {
		t.Fatalf("expected archived submission, got %+v", arch.subs)
	}
}

func TestBulkSubmissionRoundTrip(t *testing.T) {
	m, store := newTestMachine(t, nil, nil)
	sid := "s1"
	if err := store.Put(context.Background(), types.ID(sid), CollectingDetails{Intent: intent.Rent}); err != nil {
		t.Fatal(err)
	}

	res := turn(t, m, sid, "Dupont, Marie 22/01/2026 29/01/2026 75001", "/uploads/a.pdf", "/uploads/b.pdf")
	if res.Summary == nil {
		t.Fatalf("full submission must reach the summary in one turn, got %+v", res)
	}
	st, _ := getState(t, store, sid)
	cs, ok := st.(ConfirmingSummary)
	if !ok {
		t.Fatalf("stage = %v, want confirm_summary", st.Stage())
	}
	d := cs.Details
	if d.Name != "Dupont Marie" || d.StartDate != "22/01/2026" || d.EndDate != "29/01/2026" || d.PostalCode != "75001" {
		t.Fatalf("details = %+v", d)
	}
	checkSummaryInvariant(t, store, sid)
}

func TestBulkPartialReportsAllMissing(t *testing.T) {
	m, store := newTestMachine(t, nil, nil)
	sid := "s1"
	store.Put(context.Background(), types.ID(sid), CollectingDetails{Intent: intent.Rent})

	res := turn(t, m, sid, "Dupont, Marie 75001")
	if !strings.Contains(res.Reply, "Date debut et date fin") || !strings.Contains(res.Reply, "Ordonnance") {
		t.Fatalf("expected aggregated missing fields, got %q", res.Reply)
	}
	st, _ := getState(t, store, sid)
	if cd := st.(CollectingDetails); cd.Details.Name != "Dupont Marie" || cd.Details.PostalCode != "75001" {
		t.Fatalf("bulk fill lost fields: %+v", cd.Details)
	}
}

func TestIdempotentResubmission(t *testing.T) {
	m, store := newTestMachine(t, nil, nil)
	sid := "s1"
	store.Put(context.Background(), types.ID(sid), CollectingDetails{
		Intent:  intent.Rent,
		Details: Details{Name: "Dupont Marie"},
	})

	// re-sending the already-filled name must not corrupt anything nor
	// move the pointer backward
	res := turn(t, m, sid, "Dupont, Marie")
	if !strings.Contains(res.Reply, "Date de debut") {
		t.Fatalf("expected start date prompt, got %q", res.Reply)
	}
	st, _ := getState(t, store, sid)
	if cd := st.(CollectingDetails); cd.Details.Name != "Dupont Marie" || cd.Details.StartDate != "" {
		t.Fatalf("details corrupted: %+v", cd.Details)
	}
}

func TestGuardOverridesActiveFlow(t *testing.T) {
	m, store := newTestMachine(t, nil, nil)
	sid := "s1"
	store.Put(context.Background(), types.ID(sid), CollectingDetails{
		Intent:  intent.Rent,
		Details: Details{Name: "Dupont Marie", StartDate: "22/01/2026"},
	})

	res := turn(t, m, sid, "je veux retourner l'appareil")
	if !strings.Contains(res.Reply, "retourner") {
		t.Fatalf("expected return confirmation, got %q", res.Reply)
	}
	st, _ := getState(t, store, sid)
	ac, ok := st.(AwaitingConfirmation)
	if !ok || ac.Intent != intent.Return {
		t.Fatalf("expected asked_confirm(return), got %+v", st)
	}
}

func TestEditModePostalCorrection(t *testing.T) {
	m, store := newTestMachine(t, nil, nil)
	sid := "s1"
	base := Details{
		Name:        "Dupont Marie",
		StartDate:   "22/01/2026",
		EndDate:     "29/01/2026",
		PostalCode:  "75001",
		Attachments: []string{"/uploads/a.pdf", "/uploads/b.pdf"},
	}
	store.Put(context.Background(), types.ID(sid), ConfirmingSummary{Intent: intent.Rent, Details: base})

	res := turn(t, m, sid, "non")
	if !strings.Contains(res.Reply, "champ") {
		t.Fatalf("expected edit prompt, got %q", res.Reply)
	}
	st, _ := getState(t, store, sid)
	if cd := st.(CollectingDetails); !cd.Edit {
		t.Fatal("edit flag must be set after rejecting the summary")
	}

	res = turn(t, m, sid, "Code postal : 69001")
	if !strings.Contains(res.Reply, "Recapitulatif") {
		t.Fatalf("edit must route back to the summary, got %q", res.Reply)
	}
	st, _ = getState(t, store, sid)
	cs, ok := st.(ConfirmingSummary)
	if !ok {
		t.Fatalf("stage = %v, want confirm_summary", st.Stage())
	}
	if cs.Details.PostalCode != "69001" {
		t.Fatalf("postal = %q, want 69001", cs.Details.PostalCode)
	}
	if cs.Details.Name != base.Name || cs.Details.StartDate != base.StartDate || cs.Details.EndDate != base.EndDate {
		t.Fatalf("other fields changed: %+v", cs.Details)
	}
}

func TestEditModeUnrecognizedStaysInEdit(t *testing.T) {
	m, store := newTestMachine(t, nil, nil)
	sid := "s1"
	store.Put(context.Background(), types.ID(sid), CollectingDetails{
		Intent:  intent.Rent,
		Details: Details{Name: "Dupont Marie"},
		Edit:    true,
	})

	res := turn(t, m, sid, "je ne comprends pas")
	if !strings.Contains(res.Reply, "champ") {
		t.Fatalf("expected edit help, got %q", res.Reply)
	}
	st, _ := getState(t, store, sid)
	if cd := st.(CollectingDetails); !cd.Edit {
		t.Fatal("edit flag must survive an unrecognized correction")
	}
}

func TestSummaryInlineCorrection(t *testing.T) {
	m, store := newTestMachine(t, nil, nil)
	sid := "s1"
	store.Put(context.Background(), types.ID(sid), ConfirmingSummary{
		Intent: intent.Return,
		Details: Details{
			Name:       "Dupont Marie",
			StartDate:  "22/01/2026",
			EndDate:    "29/01/2026",
			PostalCode: "75001",
		},
	})

	res := turn(t, m, sid, "Date fin : 30/01/2026")
	if !strings.Contains(res.Reply, "30/01/2026") {
		t.Fatalf("summary not re-rendered with correction: %q", res.Reply)
	}
	st, _ := getState(t, store, sid)
	if cs := st.(ConfirmingSummary); cs.Details.EndDate != "30/01/2026" {
		t.Fatalf("end date = %q", cs.Details.EndDate)
	}
}

func TestCancelAtConfirm(t *testing.T) {
	m, store := newTestMachine(t, nil, nil)
	sid := "s1"

	turn(t, m, sid, "location")
	res := turn(t, m, sid, "non")
	if !strings.Contains(res.Reply, "annule") {
		t.Fatalf("expected cancel reply, got %q", res.Reply)
	}
	if _, ok := getState(t, store, sid); ok {
		t.Fatal("session must be removed on cancel")
	}

	// and the next open question falls through to Q&A
	res = turn(t, m, sid, "quels sont vos tarifs ?")
	if res.Handled {
		t.Fatalf("expected fall-through, got %+v", res)
	}
}

func TestAmbiguousFirstTurnIsFreshTrigger(t *testing.T) {
	m, store := newTestMachine(t, nil, nil)
	sid := "s1"

	// an utterance that is both an intent keyword and an affirmative
	res := turn(t, m, sid, "oui je veux louer")
	if !strings.Contains(res.Reply, "Pour confirmer") {
		t.Fatalf("ambiguous first turn must re-confirm, got %q", res.Reply)
	}
	if st, ok := getState(t, store, sid); !ok || st.Stage() != StageAwaitingConfirmation {
		t.Fatalf("expected asked_confirm, got %v", st)
	}
}

func TestReturnEndOfUse(t *testing.T) {
	drop := &stubDropoff{lines: []string{"Relais A — 1 rue de la Paix", "Relais B — 2 avenue Foch"}}
	m, store := newTestMachine(t, nil, drop)
	sid := "s1"
	store.Put(context.Background(), types.ID(sid), CollectingDetails{Intent: intent.Return})

	res := turn(t, m, sid, "fin d'utilisation, 75001")
	if !strings.Contains(res.Reply, "Chronopost") || !strings.Contains(res.Reply, "Relais A") {
		t.Fatalf("expected end-of-use reply with drop-off points, got %q", res.Reply)
	}
	if drop.calls != 1 {
		t.Fatalf("drop-off finder calls = %d", drop.calls)
	}
	if _, ok := getState(t, store, sid); ok {
		t.Fatal("end-of-use return must remove the session")
	}
}

func TestReturnEndOfUseDropoffFailureIsSoft(t *testing.T) {
	drop := &stubDropoff{err: errors.New("quota exceeded")}
	m, store := newTestMachine(t, nil, drop)
	sid := "s1"
	store.Put(context.Background(), types.ID(sid), CollectingDetails{Intent: intent.Return})

	res := turn(t, m, sid, "fin d'utilisation, 75001")
	if !strings.Contains(res.Reply, "Chronopost") {
		t.Fatalf("lookup failure must not lose the reply, got %q", res.Reply)
	}
}

func TestReturnIssueFlow(t *testing.T) {
	arch := &captureArchiver{}
	m, store := newTestMachine(t, arch, nil)
	sid := "s1"
	store.Put(context.Background(), types.ID(sid), CollectingDetails{Intent: intent.Return})

	res := turn(t, m, sid, "panne")
	if !strings.Contains(res.Reply, "Échange ou remboursement") || !strings.Contains(res.Reply, "Photo") {
		t.Fatalf("expected aggregated return missing fields, got %q", res.Reply)
	}

	res = turn(t, m, sid, "remboursement", "/uploads/photo.jpg")
	if !res.Confirm || !strings.Contains(res.Reply, "24h") {
		t.Fatalf("expected return completion, got %+v", res)
	}
	if _, ok := getState(t, store, sid); ok {
		t.Fatal("session must be removed on completion")
	}
	if len(arch.subs) != 1 || arch.subs[0].Details.Choice != "refund" {
		t.Fatalf("expected archived return case, got %+v", arch.subs)
	}
}

func TestArchiveFailureDoesNotFailTurn(t *testing.T) {
	arch := &captureArchiver{err: errors.New("db down")}
	m, store := newTestMachine(t, arch, nil)
	sid := "s1"
	store.Put(context.Background(), types.ID(sid), ConfirmingSummary{
		Intent: intent.Rent,
		Details: Details{
			Name: "Dupont Marie", StartDate: "22/01/2026", EndDate: "29/01/2026", PostalCode: "75001",
			Attachments: []string{"/uploads/a.pdf", "/uploads/b.pdf"},
		},
	})

	res := turn(t, m, sid, "oui")
	if !res.Confirm {
		t.Fatalf("archive failure must not fail the turn: %+v", res)
	}
}
