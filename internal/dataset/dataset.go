// Package dataset loads the Verdadeiro/Falso benchmark and expands its
// question groups into individually scored test items.
//
// The benchmark file is a JSON array of groups, one per source document:
//
//	[{"arquivo": "capitulo_01.txt", "titulo": "...", "perguntas": ["...", ...]}]
//
// Questions inside a group are logically paired: even positions (0, 2, 4…)
// expect Verdadeiro, odd positions expect Falso. An odd-length group keeps
// its trailing question with the verdict its position implies.
package dataset

import "strings"

type QuestionGroup struct {
	SourceFile string
	Title      string
	Questions  []string
}

// TestItem is one question with the verdict its position assigns. Items are
// created once by Expand and never mutated afterwards.
type TestItem struct {
	SourceFile string
	Title      string
	LocalIndex int
	Question   string
	Expected   bool
}

// Expand flattens groups into test items, preserving input order. LocalIndex
// is the question's 0-based position within its own group and Expected is
// assigned purely by position parity, independent of pairing completeness.
func Expand(groups []QuestionGroup) []TestItem {
	total := 0
	for _, g := range groups {
		total += len(g.Questions)
	}

	out := make([]TestItem, 0, total)
	for _, g := range groups {
		for i, q := range g.Questions {
			out = append(out, TestItem{
				SourceFile: g.SourceFile,
				Title:      g.Title,
				LocalIndex: i,
				Question:   q,
				Expected:   i%2 == 0,
			})
		}
	}
	return out
}

type Stats struct {
	Groups        int
	Questions     int
	ExpectedTrue  int
	ExpectedFalse int
	OddGroups     int
	SourceFiles   int
}

// Summarize reports group and parity counts for a loaded benchmark.
func Summarize(groups []QuestionGroup) Stats {
	var st Stats
	st.Groups = len(groups)

	files := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		if f := strings.TrimSpace(g.SourceFile); f != "" {
			files[f] = struct{}{}
		}
		st.Questions += len(g.Questions)
		for i := range g.Questions {
			if i%2 == 0 {
				st.ExpectedTrue++
			} else {
				st.ExpectedFalse++
			}
		}
		if len(g.Questions)%2 != 0 {
			st.OddGroups++
		}
	}
	st.SourceFiles = len(files)
	return st
}
