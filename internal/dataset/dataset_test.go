package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestExpand_ParityAndOrder(t *testing.T) {
	groups := []QuestionGroup{
		{SourceFile: "a.txt", Title: "A", Questions: []string{"q0", "q1", "q2", "q3"}},
		{SourceFile: "b.txt", Title: "B", Questions: []string{"r0", "r1"}},
	}

	items := Expand(groups)
	if len(items) != 6 {
		t.Fatalf("len=%d", len(items))
	}

	for i, item := range items[:4] {
		if item.SourceFile != "a.txt" || item.Title != "A" {
			t.Fatalf("items[%d]=%#v", i, item)
		}
		if item.LocalIndex != i {
			t.Fatalf("items[%d].LocalIndex=%d", i, item.LocalIndex)
		}
		if item.Expected != (i%2 == 0) {
			t.Fatalf("items[%d].Expected=%v", i, item.Expected)
		}
	}

	// local index restarts per group, parity with it
	if items[4].LocalIndex != 0 || !items[4].Expected {
		t.Fatalf("items[4]=%#v", items[4])
	}
	if items[5].LocalIndex != 1 || items[5].Expected {
		t.Fatalf("items[5]=%#v", items[5])
	}

	want := []string{"q0", "q1", "q2", "q3", "r0", "r1"}
	for i, q := range want {
		if items[i].Question != q {
			t.Fatalf("items[%d].Question=%q want %q", i, items[i].Question, q)
		}
	}
}

func TestExpand_OddGroupKeepsTrailingQuestion(t *testing.T) {
	items := Expand([]QuestionGroup{
		{SourceFile: "a.txt", Title: "A", Questions: []string{"q0", "q1", "q2"}},
	})
	if len(items) != 3 {
		t.Fatalf("len=%d", len(items))
	}
	if !items[2].Expected {
		t.Fatalf("trailing question should expect Verdadeiro, got %#v", items[2])
	}
}

func TestExpand_EmptyInputs(t *testing.T) {
	if got := Expand(nil); len(got) != 0 {
		t.Fatalf("got=%#v", got)
	}
	got := Expand([]QuestionGroup{{SourceFile: "a.txt", Title: "A", Questions: []string{}}})
	if len(got) != 0 {
		t.Fatalf("got=%#v", got)
	}
}

func TestExpand_Idempotent(t *testing.T) {
	groups := Sample()
	first := Expand(groups)
	second := Expand(groups)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expand is not deterministic")
	}
}

func TestParse_Valid(t *testing.T) {
	b := []byte(`[{"arquivo":"a.txt","titulo":"T","perguntas":["Q1","Q2"]}]`)
	groups, err := Parse(b)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("len=%d", len(groups))
	}
	if groups[0].SourceFile != "a.txt" || groups[0].Title != "T" || len(groups[0].Questions) != 2 {
		t.Fatalf("groups[0]=%#v", groups[0])
	}
}

func TestParse_EmptyPerguntasIsLegal(t *testing.T) {
	groups, err := Parse([]byte(`[{"arquivo":"a.txt","titulo":"T","perguntas":[]}]`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(groups) != 1 || len(groups[0].Questions) != 0 {
		t.Fatalf("groups=%#v", groups)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"missing arquivo", `[{"titulo":"T","perguntas":["Q"]}]`, "missing arquivo"},
		{"missing titulo", `[{"arquivo":"a.txt","perguntas":["Q"]}]`, "missing titulo"},
		{"missing perguntas", `[{"arquivo":"a.txt","titulo":"T"}]`, "missing perguntas"},
		{"null perguntas", `[{"arquivo":"a.txt","titulo":"T","perguntas":null}]`, "missing perguntas"},
		{"non-string question", `[{"arquivo":"a.txt","titulo":"T","perguntas":[1]}]`, "parse"},
		{"empty question", `[{"arquivo":"a.txt","titulo":"T","perguntas":["  "]}]`, "empty question"},
		{"not an array", `{"arquivo":"a.txt"}`, "parse"},
	}

	for _, tc := range cases {
		_, err := Parse([]byte(tc.in))
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: err=%v, want ErrValidation", tc.name, err)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: err=%q", tc.name, err.Error())
		}
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.json")
	body := `[{"arquivo":"a.txt","titulo":"T","perguntas":["Q1","Q2","Q3"]}]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	groups, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(groups) != 1 || len(groups[0].Questions) != 3 {
		t.Fatalf("groups=%#v", groups)
	}
}

func TestLoad_Missing(t *testing.T) {
	{
		_, err := Load("  ")
		if err == nil || !strings.Contains(err.Error(), "missing path") {
			t.Fatalf("err=%v", err)
		}
	}

	{
		_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
		if err == nil {
			t.Fatalf("expected error")
		}
	}
}

func TestSummarize(t *testing.T) {
	st := Summarize([]QuestionGroup{
		{SourceFile: "a.txt", Title: "A", Questions: []string{"q0", "q1", "q2"}},
		{SourceFile: "b.txt", Title: "B", Questions: []string{"r0", "r1"}},
		{SourceFile: "b.txt", Title: "C", Questions: nil},
	})

	if st.Groups != 3 || st.Questions != 5 {
		t.Fatalf("st=%#v", st)
	}
	if st.ExpectedTrue != 3 || st.ExpectedFalse != 2 {
		t.Fatalf("st=%#v", st)
	}
	if st.OddGroups != 1 {
		t.Fatalf("st=%#v", st)
	}
	if st.SourceFiles != 2 {
		t.Fatalf("st=%#v", st)
	}
}

func TestSample_ExpandsCleanly(t *testing.T) {
	groups := Sample()
	if len(groups) == 0 {
		t.Fatalf("empty sample")
	}
	items := Expand(groups)
	if len(items) == 0 {
		t.Fatalf("no items")
	}
	for i, item := range items {
		if strings.TrimSpace(item.Question) == "" {
			t.Fatalf("items[%d]: empty question", i)
		}
	}
}
