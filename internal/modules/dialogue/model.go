// README: Session state model for the intake dialogue. State is a tagged
// union over the three stages so each variant carries only the data that
// applies to it.
package dialogue

import (
	"context"
	"encoding/json"
	"fmt"

	"tlx/internal/modules/intent"
	"tlx/internal/modules/language"
	"tlx/internal/types"
)

// Stage identifies the discrete phase of a flow instance.
type Stage string

const (
	StageAwaitingConfirmation Stage = "asked_confirm"
	StageCollectingDetails    Stage = "collect_details"
	StageConfirmingSummary    Stage = "confirm_summary"
)

// State is the per-session dialogue state. Exactly one of the three
// variants below implements it.
type State interface {
	Stage() Stage
}

// AwaitingConfirmation waits for a yes/no on the proposed intent.
type AwaitingConfirmation struct {
	Intent intent.Intent
}

func (AwaitingConfirmation) Stage() Stage { return StageAwaitingConfirmation }

// CollectingDetails gathers slot values one field per turn. Edit marks
// targeted-correction mode, entered after the user rejects a summary.
type CollectingDetails struct {
	Intent  intent.Intent
	Details Details
	Edit    bool
}

func (CollectingDetails) Stage() Stage { return StageCollectingDetails }

// ConfirmingSummary shows the filled slots and waits for approval. All
// four scalar slots are non-empty here, and rent/renew flows carry at
// least two attachments.
type ConfirmingSummary struct {
	Intent  intent.Intent
	Details Details
}

func (ConfirmingSummary) Stage() Stage { return StageConfirmingSummary }

// Details holds the slot values collected during a flow. OrderRef and
// Choice belong to the return issue sub-flow only.
type Details struct {
	Name        string   `json:"name,omitempty"`
	StartDate   string   `json:"start_date,omitempty"`
	EndDate     string   `json:"end_date,omitempty"`
	PostalCode  string   `json:"postal_code,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
	OrderRef    string   `json:"order_ref,omitempty"`
	Choice      string   `json:"choice,omitempty"`
}

// TurnInput is everything the machine needs for one turn.
type TurnInput struct {
	SessionID   types.ID
	Utterance   string
	Lang        language.Code
	Intent      intent.Intent
	Polarity    intent.Polarity
	Attachments []string
}

// TurnResult is the machine's answer for one turn. Handled=false means
// no flow is active and the caller should fall through to open Q&A.
type TurnResult struct {
	Handled     bool
	Reply       string
	Intent      intent.Intent
	Attachments []string
	Confirm     bool
	Summary     *Details
}

// Submission is a completed intake handed to the archive.
type Submission struct {
	SessionID types.ID
	Intent    intent.Intent
	Lang      language.Code
	Details   Details
}

// Archiver records completed submissions. The flow's contract ends at
// "acknowledged and queued"; archive failures never fail the turn.
type Archiver interface {
	Archive(ctx context.Context, sub Submission) error
}

// DropoffFinder lists nearby parcel drop-off points for a postal code,
// one formatted line per point.
type DropoffFinder interface {
	Nearby(ctx context.Context, postalCode string) ([]string, error)
}

// stateEnvelope is the wire form used by serializing stores.
type stateEnvelope struct {
	Stage   Stage         `json:"stage"`
	Intent  intent.Intent `json:"intent"`
	Details *Details      `json:"details,omitempty"`
	Edit    bool          `json:"edit,omitempty"`
}

// EncodeState serializes a State for external stores.
func EncodeState(st State) ([]byte, error) {
	var env stateEnvelope
	switch s := st.(type) {
	case AwaitingConfirmation:
		env = stateEnvelope{Stage: s.Stage(), Intent: s.Intent}
	case CollectingDetails:
		d := s.Details
		env = stateEnvelope{Stage: s.Stage(), Intent: s.Intent, Details: &d, Edit: s.Edit}
	case ConfirmingSummary:
		d := s.Details
		env = stateEnvelope{Stage: s.Stage(), Intent: s.Intent, Details: &d}
	default:
		return nil, fmt.Errorf("dialogue: encode unknown state %T", st)
	}
	return json.Marshal(env)
}

// DecodeState is the inverse of EncodeState.
func DecodeState(b []byte) (State, error) {
	var env stateEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("dialogue: decode state: %w", err)
	}
	switch env.Stage {
	case StageAwaitingConfirmation:
		return AwaitingConfirmation{Intent: env.Intent}, nil
	case StageCollectingDetails:
		st := CollectingDetails{Intent: env.Intent, Edit: env.Edit}
		if env.Details != nil {
			st.Details = *env.Details
		}
		return st, nil
	case StageConfirmingSummary:
		st := ConfirmingSummary{Intent: env.Intent}
		if env.Details != nil {
			st.Details = *env.Details
		}
		return st, nil
	}
	return nil, fmt.Errorf("dialogue: decode unknown stage %q", env.Stage)
}
