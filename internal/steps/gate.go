// Package steps sequences a session through the upload, frame selection and
// panorama steps. Entering the panorama step needs something on the canvas
// and, unless already granted, a processing consent confirmed by the user.
package steps

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lehigh-university-libraries/framestitch/internal/models"
)

// Step describes one stage of the workflow
type Step struct {
	Label       string `json:"label" yaml:"label"`
	DisplayName string `json:"display_name" yaml:"display_name"`
}

// Default is the workflow used by every session
var Default = []Step{
	{Label: "upload", DisplayName: "Upload"},
	{Label: "frameSelector", DisplayName: "Frame Selector"},
	{Label: "panorama", DisplayName: "Panorama"},
}

// ConsentStep is the step that needs processing consent before entry
const ConsentStep = 2

// State is what the gate reads from the session store
type State interface {
	CanvasLen() int
	Consent(t models.ConsentType) bool
}

// Confirmer asks the user to confirm a named consent
type Confirmer interface {
	AwaitConfirmation(ctx context.Context, name string) (bool, error)
}

type Gate struct {
	steps     []Step
	state     State
	confirmer Confirmer

	mu      sync.Mutex
	current int
}

func New(state State, confirmer Confirmer) *Gate {
	return &Gate{
		steps:     Default,
		state:     state,
		confirmer: confirmer,
	}
}

func (g *Gate) Steps() []Step {
	out := make([]Step, len(g.steps))
	copy(out, g.steps)
	return out
}

func (g *Gate) Current() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Next advances one step and reports whether it moved
func (g *Gate) Next() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current+1 >= len(g.steps) {
		return false
	}
	g.current++
	return true
}

// Prev goes back one step and reports whether it moved
func (g *Gate) Prev() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == 0 {
		return false
	}
	g.current--
	return true
}

// GoTo jumps to index. It refuses out of range indexes and the last step
// while the canvas is empty. Entering ConsentStep without processing consent
// waits for the user's confirmation; a decline leaves the step unchanged.
// The only error returned is ctx's, when it ends during that wait.
func (g *Gate) GoTo(ctx context.Context, index int) (bool, error) {
	if index < 0 || index >= len(g.steps) {
		slog.Warn("Step index out of range", "index", index, "steps", len(g.steps))
		return false, nil
	}

	if index == len(g.steps)-1 && g.state.CanvasLen() == 0 {
		slog.Debug("Refusing final step with an empty canvas")
		return false, nil
	}

	if index == ConsentStep && !g.state.Consent(models.ConsentProcessing) {
		ok, err := g.confirmer.AwaitConfirmation(ctx, string(models.ConsentProcessing))
		if err != nil {
			return false, err
		}
		if !ok {
			slog.Info("Processing consent declined", "step", g.steps[index].Label)
			return false, nil
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.current = index
	return true, nil
}
