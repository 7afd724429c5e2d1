// README: The dialogue state machine. Owns every transition of the
// intake flows: intent confirmation, progressive slot collection with a
// bulk pre-parse, targeted edits, the return sub-flow, and the final
// summary confirmation. Nothing else writes session state.
package dialogue

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"tlx/internal/modules/intent"
	"tlx/internal/modules/language"
)

type Machine struct {
	store   Store
	locks   *keyMutex
	archive Archiver
	dropoff DropoffFinder
	log     zerolog.Logger
}

// NewMachine builds the state machine. archive and dropoff may be nil;
// the corresponding steps are skipped.
func NewMachine(store Store, archive Archiver, dropoff DropoffFinder, log zerolog.Logger) *Machine {
	return &Machine{
		store:   store,
		locks:   newKeyMutex(),
		archive: archive,
		dropoff: dropoff,
		log:     log,
	}
}

// Turn runs one dialogue turn. Turns for the same session id are
// serialized; Handled=false means no flow is active for this utterance
// and the caller should fall through to open Q&A.
func (m *Machine) Turn(ctx context.Context, in TurnInput) (TurnResult, error) {
	unlock := m.locks.Lock(in.SessionID)
	defer unlock()

	// An explicit intent that is not a yes/no always (re)starts its
	// confirmation stage, interrupting whatever flow was in progress.
	// UI intent buttons rely on this.
	if in.Intent.Flow() && in.Polarity == intent.Neither {
		if err := m.store.Put(ctx, in.SessionID, AwaitingConfirmation{Intent: in.Intent}); err != nil {
			return TurnResult{}, err
		}
		return TurnResult{
			Handled: true,
			Reply:   render(msgConfirmIntent, in.Lang, intentPhrase(in.Intent, in.Lang)),
			Intent:  in.Intent,
		}, nil
	}

	st, ok, err := m.store.Get(ctx, in.SessionID)
	if err != nil {
		return TurnResult{}, err
	}
	if !ok {
		// A yes/no that also matches an intent keyword is ambiguous;
		// treat it as a fresh trigger rather than guessing.
		if in.Intent.Flow() {
			if err := m.store.Put(ctx, in.SessionID, AwaitingConfirmation{Intent: in.Intent}); err != nil {
				return TurnResult{}, err
			}
			return TurnResult{
				Handled: true,
				Reply:   render(msgConfirmIntent, in.Lang, intentPhrase(in.Intent, in.Lang)),
				Intent:  in.Intent,
			}, nil
		}
		return TurnResult{}, nil
	}

	switch s := st.(type) {
	case AwaitingConfirmation:
		return m.confirmTurn(ctx, in, s)
	case CollectingDetails:
		if s.Intent == intent.Return {
			return m.returnTurn(ctx, in, s)
		}
		return m.collectTurn(ctx, in, s)
	case ConfirmingSummary:
		return m.summaryTurn(ctx, in, s)
	}
	return TurnResult{}, nil
}

func (m *Machine) confirmTurn(ctx context.Context, in TurnInput, s AwaitingConfirmation) (TurnResult, error) {
	switch in.Polarity {
	case intent.Affirmative:
		next := CollectingDetails{Intent: s.Intent, Details: Details{Attachments: in.Attachments}}
		if err := m.store.Put(ctx, in.SessionID, next); err != nil {
			return TurnResult{}, err
		}
		key := msgAskName
		if s.Intent == intent.Return {
			key = msgReturnReason
		}
		return TurnResult{
			Handled:     true,
			Reply:       render(key, in.Lang),
			Intent:      s.Intent,
			Attachments: in.Attachments,
		}, nil
	case intent.Negative:
		if err := m.store.Delete(ctx, in.SessionID); err != nil {
			return TurnResult{}, err
		}
		return TurnResult{Handled: true, Reply: render(msgCancelled, in.Lang)}, nil
	default:
		return TurnResult{
			Handled: true,
			Reply:   render(msgConfirmIntent, in.Lang, intentPhrase(s.Intent, in.Lang)),
			Intent:  s.Intent,
		}, nil
	}
}

// collectTurn advances the rent/renew slot set by one step: either a
// bulk fill when the utterance carries several field kinds at once, or
// the single next-missing slot otherwise.
func (m *Machine) collectTurn(ctx context.Context, in TurnInput, s CollectingDetails) (TurnResult, error) {
	s.Details.Attachments = append(s.Details.Attachments, in.Attachments...)

	if s.Edit {
		return m.editTurn(ctx, in, s)
	}

	bulk := bulkFill(&s.Details, in.Utterance)
	if !bulk {
		progressiveFill(&s.Details, in.Utterance)
	}

	if complete(s.Details, s.Intent) {
		return m.toSummary(ctx, in, ConfirmingSummary{Intent: s.Intent, Details: s.Details})
	}
	if err := m.store.Put(ctx, in.SessionID, s); err != nil {
		return TurnResult{}, err
	}

	var reply string
	if bulk {
		reply = render(msgMissingFields, in.Lang, strings.Join(missingLabels(s.Details, s.Intent, in.Lang), ", "))
	} else {
		reply = render(promptFor(nextSlot(s.Details, s.Intent)), in.Lang)
	}
	return TurnResult{Handled: true, Reply: reply, Intent: s.Intent, Attachments: in.Attachments}, nil
}

// editTurn applies a single "label: value" correction. The edit flag
// clears only on a successful typed parse.
func (m *Machine) editTurn(ctx context.Context, in TurnInput, s CollectingDetails) (TurnResult, error) {
	if f, v, ok := parseLabeled(in.Utterance); ok && applyEdit(&s.Details, f, v) {
		s.Edit = false
		if complete(s.Details, s.Intent) {
			return m.toSummary(ctx, in, ConfirmingSummary{Intent: s.Intent, Details: s.Details})
		}
		if err := m.store.Put(ctx, in.SessionID, s); err != nil {
			return TurnResult{}, err
		}
		return TurnResult{
			Handled: true,
			Reply:   render(promptFor(nextSlot(s.Details, s.Intent)), in.Lang),
			Intent:  s.Intent,
		}, nil
	}
	if err := m.store.Put(ctx, in.SessionID, s); err != nil {
		return TurnResult{}, err
	}
	return TurnResult{Handled: true, Reply: render(msgEditHelp, in.Lang), Intent: s.Intent}, nil
}

func (m *Machine) summaryTurn(ctx context.Context, in TurnInput, s ConfirmingSummary) (TurnResult, error) {
	s.Details.Attachments = append(s.Details.Attachments, in.Attachments...)

	switch in.Polarity {
	case intent.Affirmative:
		m.archiveSubmission(ctx, in, s.Intent, s.Details)
		if err := m.store.Delete(ctx, in.SessionID); err != nil {
			return TurnResult{}, err
		}
		d := s.Details
		return TurnResult{
			Handled: true,
			Reply:   render(msgDone, in.Lang),
			Intent:  s.Intent,
			Confirm: true,
			Summary: &d,
		}, nil
	case intent.Negative:
		next := CollectingDetails{Intent: s.Intent, Details: s.Details, Edit: true}
		if err := m.store.Put(ctx, in.SessionID, next); err != nil {
			return TurnResult{}, err
		}
		return TurnResult{Handled: true, Reply: render(msgEditHelp, in.Lang), Intent: s.Intent}, nil
	default:
		// Inline labeled corrections work here too, then the summary is
		// re-rendered either way.
		if f, v, ok := parseLabeled(in.Utterance); ok {
			applyEdit(&s.Details, f, v)
		}
		if err := m.store.Put(ctx, in.SessionID, s); err != nil {
			return TurnResult{}, err
		}
		d := s.Details
		return TurnResult{
			Handled: true,
			Reply:   summaryReply(s.Details, in.Lang),
			Intent:  s.Intent,
			Summary: &d,
		}, nil
	}
}

var issueWords = []string{
	"ne fonctionne", "ne marche", "panne", "cass", "n'aspire", "aspire pas",
	"problem", "problème", "issue", "not working", "broken", "doesn't", "does not",
	"لا يعمل", "معطل",
}

var endWords = []string{
	"fin", "plus besoin", "rendre", "restituer", "retour simple",
	"etiquette", "étiquette", "label", "chronopost", "déposer", "depot",
	"انتهاء", "إرجاع", "إعادة", "رجوع",
}

// returnTurn handles the return sub-flow: an end-of-use reason ends the
// flow with the shipping procedure, anything else runs the issue slot
// set (order reference, exchange/refund choice, one photo).
func (m *Machine) returnTurn(ctx context.Context, in TurnInput, s CollectingDetails) (TurnResult, error) {
	lt := strings.ToLower(in.Utterance)
	hasIssue := anyContained(lt, issueWords)
	hasEnd := anyContained(lt, endWords)

	if hasEnd && !hasIssue {
		if err := m.store.Delete(ctx, in.SessionID); err != nil {
			return TurnResult{}, err
		}
		reply := render(msgEndOfUse, in.Lang)
		if postal := extractPostal(in.Utterance); postal != "" && m.dropoff != nil {
			pts, err := m.dropoff.Nearby(ctx, postal)
			switch {
			case err != nil:
				m.log.Warn().Err(err).Str("postal_code", postal).Msg("drop-off lookup failed")
			case len(pts) > 0:
				reply += "\n\n" + strings.Join(pts, "\n")
			}
		}
		return TurnResult{Handled: true, Reply: reply, Intent: intent.Return}, nil
	}

	s.Details.Attachments = append(s.Details.Attachments, in.Attachments...)
	if s.Details.OrderRef == "" {
		s.Details.OrderRef = extractOrderRef(in.Utterance)
	}
	if s.Details.Choice == "" {
		s.Details.Choice = extractChoice(in.Utterance)
	}

	var missing []string
	if s.Details.OrderRef == "" {
		missing = append(missing, fieldLabel(slotOrderRef, in.Lang))
	}
	if s.Details.Choice == "" {
		missing = append(missing, fieldLabel(slotChoice, in.Lang))
	}
	if len(s.Details.Attachments) < 1 {
		missing = append(missing, fieldLabel(slotPhoto, in.Lang))
	}

	if len(missing) > 0 {
		if err := m.store.Put(ctx, in.SessionID, s); err != nil {
			return TurnResult{}, err
		}
		return TurnResult{
			Handled:     true,
			Reply:       render(msgReturnMissing, in.Lang, strings.Join(missing, ", ")),
			Intent:      intent.Return,
			Attachments: in.Attachments,
		}, nil
	}

	m.archiveSubmission(ctx, in, intent.Return, s.Details)
	if err := m.store.Delete(ctx, in.SessionID); err != nil {
		return TurnResult{}, err
	}
	return TurnResult{Handled: true, Reply: render(msgReturnDone, in.Lang), Intent: intent.Return, Confirm: true}, nil
}

func (m *Machine) toSummary(ctx context.Context, in TurnInput, s ConfirmingSummary) (TurnResult, error) {
	if err := m.store.Put(ctx, in.SessionID, s); err != nil {
		return TurnResult{}, err
	}
	d := s.Details
	return TurnResult{
		Handled:     true,
		Reply:       summaryReply(s.Details, in.Lang),
		Intent:      s.Intent,
		Attachments: in.Attachments,
		Summary:     &d,
	}, nil
}

// archiveSubmission hands a finished intake to the archive. Failures are
// logged and swallowed: the flow's contract ends at acknowledged.
func (m *Machine) archiveSubmission(ctx context.Context, in TurnInput, i intent.Intent, d Details) {
	if m.archive == nil {
		return
	}
	sub := Submission{SessionID: in.SessionID, Intent: i, Lang: in.Lang, Details: d}
	if err := m.archive.Archive(ctx, sub); err != nil {
		m.log.Error().Err(err).Str("session_id", string(in.SessionID)).Msg("archive submission failed")
	}
}

// bulkFill fills every still-empty scalar slot the utterance provides,
// but only when it carries at least two distinct field kinds. Filled
// slots are never overwritten.
func bulkFill(d *Details, utterance string) bool {
	dates := extractDates(utterance)
	postal := extractPostal(utterance)
	name := extractName(stripScalarTokens(utterance))

	kinds := 0
	if name != "" {
		kinds++
	}
	if len(dates) > 0 {
		kinds++
	}
	if postal != "" {
		kinds++
	}
	if kinds < 2 {
		return false
	}

	if d.Name == "" && name != "" {
		d.Name = name
	}
	if len(dates) > 0 && d.StartDate == "" {
		d.StartDate = dates[0]
	}
	if len(dates) > 1 && d.EndDate == "" {
		d.EndDate = dates[len(dates)-1]
	}
	if d.PostalCode == "" && postal != "" {
		d.PostalCode = postal
	}
	return true
}

// progressiveFill parses the utterance only against the next missing
// slot. The date extractor at the start-date step greedily takes a
// second date for the end date; at the end-date step the last date in
// the utterance wins.
func progressiveFill(d *Details, utterance string) {
	switch {
	case d.Name == "":
		if n := extractName(utterance); n != "" {
			d.Name = n
		}
	case d.StartDate == "":
		if ds := extractDates(utterance); len(ds) > 0 {
			d.StartDate = ds[0]
			if d.EndDate == "" && len(ds) > 1 {
				d.EndDate = ds[1]
			}
		}
	case d.EndDate == "":
		if ds := extractDates(utterance); len(ds) > 0 {
			d.EndDate = ds[len(ds)-1]
		}
	case d.PostalCode == "":
		if p := extractPostal(utterance); p != "" {
			d.PostalCode = p
		}
	}
}

func stripScalarTokens(s string) string {
	s = dateRe.ReplaceAllString(s, "")
	return postalRe.ReplaceAllString(s, "")
}

// complete reports whether the slot set is satisfied: all four scalars,
// plus two attachments for the flows that require the documents.
func complete(d Details, i intent.Intent) bool {
	if d.Name == "" || d.StartDate == "" || d.EndDate == "" || d.PostalCode == "" {
		return false
	}
	if i == intent.Rent || i == intent.Renew {
		return len(d.Attachments) >= 2
	}
	return true
}

func nextSlot(d Details, i intent.Intent) slot {
	switch {
	case d.Name == "":
		return slotName
	case d.StartDate == "":
		return slotStart
	case d.EndDate == "":
		return slotEnd
	case d.PostalCode == "":
		return slotPostal
	}
	return slotFiles
}

func promptFor(s slot) templateKey {
	switch s {
	case slotName:
		return msgAskName
	case slotStart:
		return msgAskStartDate
	case slotEnd:
		return msgAskEndDate
	case slotPostal:
		return msgAskPostal
	}
	return msgAskAttachments
}

func missingLabels(d Details, i intent.Intent, lang language.Code) []string {
	var out []string
	if d.Name == "" {
		out = append(out, fieldLabel(slotName, lang))
	}
	if d.StartDate == "" || d.EndDate == "" {
		out = append(out, fieldLabel(slotDates, lang))
	}
	if d.PostalCode == "" {
		out = append(out, fieldLabel(slotPostal, lang))
	}
	if (i == intent.Rent || i == intent.Renew) && len(d.Attachments) < 2 {
		out = append(out, fieldLabel(slotFiles, lang))
	}
	return out
}

func summaryReply(d Details, lang language.Code) string {
	return render(msgSummary, lang, d.Name, d.StartDate, d.EndDate, d.PostalCode, len(d.Attachments))
}

func anyContained(t string, words []string) bool {
	for _, w := range words {
		if strings.Contains(t, w) {
			return true
		}
	}
	return false
}
