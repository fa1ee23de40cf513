package stub

import (
	"time"

	"github.com/getmockd/stubd/pkg/jsonvalue"
	"github.com/getmockd/stubd/pkg/normalize"
)

// View is the client-facing form of a Definition with its JSON fields
// normalized.
type View struct {
	ID                    string          `json:"id"`
	Name                  string          `json:"name"`
	Request               jsonvalue.Value `json:"request"`
	Response              jsonvalue.Value `json:"response"`
	Priority              *int            `json:"priority,omitempty"`
	ScenarioName          string          `json:"scenarioName,omitempty"`
	RequiredScenarioState string          `json:"requiredScenarioState,omitempty"`
	NewScenarioState      string          `json:"newScenarioState,omitempty"`
	Persistent            bool            `json:"persistent"`
	Enabled               bool            `json:"enabled"`
	Metadata              jsonvalue.Value `json:"metadata"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

// View normalizes d for presentation. The Definition itself is not modified.
func (d *Definition) View(n *normalize.Normalizer) View {
	if n == nil {
		n = normalize.New(nil)
	}
	return View{
		ID:                    d.ID,
		Name:                  d.Name,
		Request:               n.Normalize(d.RequestSpec, d.ID, normalize.FieldRequest),
		Response:              n.NormalizeResponse(d.ResponseSpec, d.ID),
		Priority:              d.Priority,
		ScenarioName:          d.ScenarioName,
		RequiredScenarioState: d.RequiredScenarioState,
		NewScenarioState:      d.NewScenarioState,
		Persistent:            d.Persistent,
		Enabled:               d.Enabled,
		Metadata:              n.Normalize(d.Metadata, d.ID, normalize.FieldMetadata),
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
}
