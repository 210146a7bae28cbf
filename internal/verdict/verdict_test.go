package verdict

import (
	"sync"
	"testing"
)

func TestParse_FinalAnswerLine(t *testing.T) {
	got, ok := Parse("blah blah Resposta: Verdadeiro")
	if !ok || !got {
		t.Fatalf("got=%v ok=%v", got, ok)
	}
}

func TestParse_NoPrefixNeeded(t *testing.T) {
	got, ok := Parse("Falso, pois a afirmação contradiz o texto.")
	if !ok || got {
		t.Fatalf("got=%v ok=%v", got, ok)
	}
}

func TestParse_LastWins(t *testing.T) {
	{
		got, ok := Parse("Poderia ser Verdadeiro... mas analisando melhor, Falso")
		if !ok || got {
			t.Fatalf("got=%v ok=%v", got, ok)
		}
	}

	{
		got, ok := Parse("Falso? Não. Resposta: Verdadeiro")
		if !ok || !got {
			t.Fatalf("got=%v ok=%v", got, ok)
		}
	}

	// last-wins over the whole text, not per line
	{
		got, ok := Parse("Resposta: Verdadeiro\nCorreção: Falso")
		if !ok || got {
			t.Fatalf("got=%v ok=%v", got, ok)
		}
	}
}

func TestParse_NoMarker(t *testing.T) {
	for _, s := range []string{"inconclusivo", "", "   ", "não sei dizer"} {
		if _, ok := Parse(s); ok {
			t.Fatalf("Parse(%q): expected no verdict", s)
		}
	}
}

func TestParse_CaseInsensitive(t *testing.T) {
	cases := map[string]bool{
		"VERDADEIRO":           true,
		"verdadeiro":           true,
		"VeRdAdEiRo":           true,
		"FALSO":                false,
		"Resposta: FALSO.":     false,
		"resposta: verdadeiro": true,
	}
	for in, want := range cases {
		got, ok := Parse(in)
		if !ok || got != want {
			t.Fatalf("Parse(%q)=%v ok=%v, want %v", in, got, ok, want)
		}
	}
}

func TestParse_AccentTolerant(t *testing.T) {
	// providers occasionally emit accented or decomposed variants
	cases := map[string]bool{
		"Resposta: Verdadéiro":    true,
		"A afirmação é FÁLSO":     false,
		"Resposta final: vérdadeiro": true,
	}
	for in, want := range cases {
		got, ok := Parse(in)
		if !ok || got != want {
			t.Fatalf("Parse(%q)=%v ok=%v, want %v", in, got, ok, want)
		}
	}
}

func TestParse_WordBoundaries(t *testing.T) {
	// embedded in longer words must not match
	for _, s := range []string{"falsos positivos", "verdadeiros amigos", "falsificado"} {
		if _, ok := Parse(s); ok {
			t.Fatalf("Parse(%q): expected no verdict", s)
		}
	}

	// punctuation neighbors still match
	{
		got, ok := Parse("(Falso)")
		if !ok || got {
			t.Fatalf("got=%v ok=%v", got, ok)
		}
	}
}

func TestParse_Concurrent(t *testing.T) {
	t.Parallel()

	// Accented inputs exercise the diacritic folding path from many
	// goroutines at once; run under -race.
	inputs := []struct {
		text string
		want bool
	}{
		{"Resposta: Verdadéiro", true},
		{"A afirmação é FÁLSO", false},
		{"Poderia ser Verdadeiro... mas não: Fálso", false},
		{"Análise longa com acentuação variada. Resposta final: vérdadeiro", true},
	}

	var wg sync.WaitGroup
	errs := make(chan string, 8*100)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				in := inputs[i%len(inputs)]
				got, ok := Parse(in.text)
				if !ok || got != in.want {
					errs <- in.text
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	if bad, ok := <-errs; ok {
		t.Fatalf("concurrent Parse(%q) gave a wrong or missing verdict", bad)
	}
}

func TestLabel(t *testing.T) {
	if Label(true) != "Verdadeiro" || Label(false) != "Falso" {
		t.Fatalf("Label(true)=%q Label(false)=%q", Label(true), Label(false))
	}
}
