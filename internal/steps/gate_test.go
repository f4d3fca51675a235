package steps

import (
	"context"
	"errors"
	"testing"

	"github.com/lehigh-university-libraries/framestitch/internal/models"
)

type fakeState struct {
	canvas     int
	processing bool
}

func (f *fakeState) CanvasLen() int { return f.canvas }

func (f *fakeState) Consent(t models.ConsentType) bool {
	return t == models.ConsentProcessing && f.processing
}

type fakeConfirmer struct {
	answer bool
	err    error
	calls  int
}

func (f *fakeConfirmer) AwaitConfirmation(ctx context.Context, name string) (bool, error) {
	f.calls++
	return f.answer, f.err
}

func TestNextPrevBounds(t *testing.T) {
	g := New(&fakeState{}, &fakeConfirmer{})

	if g.Prev() {
		t.Error("Expected Prev at step 0 to be refused")
	}
	for i := 1; i < len(Default); i++ {
		if !g.Next() {
			t.Fatalf("Expected Next to move to %d", i)
		}
	}
	if g.Next() {
		t.Error("Expected Next at the last step to be refused")
	}
	if g.Current() != len(Default)-1 {
		t.Errorf("Expected step %d, got %d", len(Default)-1, g.Current())
	}
	if !g.Prev() || g.Current() != len(Default)-2 {
		t.Errorf("Expected Prev to move back, at %d", g.Current())
	}
}

func TestGoToOutOfRange(t *testing.T) {
	conf := &fakeConfirmer{answer: true}
	g := New(&fakeState{canvas: 1, processing: true}, conf)

	for _, idx := range []int{-1, len(Default), 99} {
		moved, err := g.GoTo(context.Background(), idx)
		if moved || err != nil {
			t.Errorf("GoTo(%d): expected (false, nil), got (%v, %v)", idx, moved, err)
		}
	}
	if g.Current() != 0 {
		t.Errorf("Expected step 0, got %d", g.Current())
	}
}

func TestGoToLastStepRequiresCanvas(t *testing.T) {
	state := &fakeState{processing: true}
	conf := &fakeConfirmer{answer: true}
	g := New(state, conf)
	last := len(Default) - 1

	if moved, _ := g.GoTo(context.Background(), last); moved || g.Current() != 0 {
		t.Errorf("Expected empty canvas to block the last step, at %d", g.Current())
	}
	if conf.calls != 0 {
		t.Error("Expected no confirmation prompt when the canvas is empty")
	}

	state.canvas = 1
	if moved, _ := g.GoTo(context.Background(), last); !moved || g.Current() != last {
		t.Errorf("Expected move to last step, at %d", g.Current())
	}
	if conf.calls != 0 {
		t.Error("Expected granted consent to skip the prompt")
	}
}

func TestGoToConsentStep(t *testing.T) {
	tests := []struct {
		name      string
		answer    bool
		err       error
		wantMoved bool
		wantStep  int
	}{
		{"confirmed", true, nil, true, ConsentStep},
		{"declined", false, nil, false, 0},
		{"canceled", false, context.Canceled, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := &fakeConfirmer{answer: tt.answer, err: tt.err}
			g := New(&fakeState{canvas: 2}, conf)

			moved, err := g.GoTo(context.Background(), ConsentStep)
			if moved != tt.wantMoved {
				t.Errorf("Expected moved=%v, got %v", tt.wantMoved, moved)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("Expected error %v, got %v", tt.err, err)
			}
			if g.Current() != tt.wantStep {
				t.Errorf("Expected step %d, got %d", tt.wantStep, g.Current())
			}
			if conf.calls != 1 {
				t.Errorf("Expected exactly one prompt, got %d", conf.calls)
			}
		})
	}
}

func TestGoToEarlierStepSkipsGates(t *testing.T) {
	conf := &fakeConfirmer{}
	g := New(&fakeState{}, conf)

	if moved, err := g.GoTo(context.Background(), 1); !moved || err != nil {
		t.Errorf("Expected move to step 1, got (%v, %v)", moved, err)
	}
	if conf.calls != 0 {
		t.Error("Expected no prompt for an ungated step")
	}
}
