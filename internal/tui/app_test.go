package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func typeKeys(t *testing.T, a App, msgs ...tea.KeyMsg) App {
	t.Helper()
	for _, m := range msgs {
		model, _ := a.Update(m)
		var ok bool
		a, ok = model.(App)
		if !ok {
			t.Fatalf("Update returned %T, want App", model)
		}
	}
	return a
}

func TestTypingSpaceInsertsSingleSpace(t *testing.T) {
	a := New(context.Background(), nil, "ana")
	a = typeKeys(t, a,
		tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("ver")},
		tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}},
		tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("bancos")},
	)
	if a.input != "ver bancos" {
		t.Fatalf("input = %q, want %q", a.input, "ver bancos")
	}
}

func TestBackspaceRemovesLastByte(t *testing.T) {
	a := New(context.Background(), nil, "ana")
	a = typeKeys(t, a,
		tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("venta")},
		tea.KeyMsg{Type: tea.KeyBackspace},
		tea.KeyMsg{Type: tea.KeyBackspace},
	)
	if a.input != "ven" {
		t.Fatalf("input = %q, want %q", a.input, "ven")
	}
	// Backspace on empty input is a no-op.
	a.input = ""
	a = typeKeys(t, a, tea.KeyMsg{Type: tea.KeyBackspace})
	if a.input != "" {
		t.Fatalf("input = %q, want empty", a.input)
	}
}

func TestEnterOnEmptyInputDoesNothing(t *testing.T) {
	a := New(context.Background(), nil, "ana")
	a = typeKeys(t, a, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	model, cmd := a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	a = model.(App)
	if cmd != nil {
		t.Fatal("blank input must not be submitted")
	}
	if len(a.history) != 1 {
		t.Fatalf("history length = %d, want 1 (greeting only)", len(a.history))
	}
}
