package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/stellarlinkco/vfbench/internal/metrics"
	"github.com/stellarlinkco/vfbench/internal/runner"
)

// ProgressLine formats the streaming partial-accuracy line printed as
// outcomes arrive.
func ProgressLine(snap runner.Snapshot) string {
	return fmt.Sprintf("Acurácia parcial: %d/%d = %.3f", snap.Correct, snap.Completed, snap.Accuracy())
}

// PrintSummary writes the end-of-run box in the benchmark's console format.
func PrintSummary(w io.Writer, model string, sum metrics.Summary, now time.Time) {
	if w == nil {
		return
	}

	line := strings.Repeat("=", 50)
	fmt.Fprintln(w)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, strings.Repeat(" ", 15)+"RESUMO DA AVALIAÇÃO")
	fmt.Fprintln(w, line)

	if model != "" {
		fmt.Fprintf(w, "Modelo:           %s\n", model)
	}
	fmt.Fprintf(w, "Data:             %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Total perguntas:  %d\n", sum.Overall.Total)
	fmt.Fprintf(w, "Acertos:          %d\n", sum.Overall.Correct)
	fmt.Fprintf(w, "Erros:            %d\n", sum.Overall.Total-sum.Overall.Correct)
	fmt.Fprintf(w, "Acurácia:         %.4f\n", sum.Overall.Accuracy)
	fmt.Fprintf(w, "Sem resposta:     %d\n", sum.ParseFailures+sum.CallFailures)

	if len(sum.ByFile) > 0 {
		fmt.Fprintln(w, strings.Repeat("-", 50))
		fmt.Fprintln(w, "Acurácia por arquivo:")
		files := make([]string, 0, len(sum.ByFile))
		for f := range sum.ByFile {
			files = append(files, f)
		}
		sort.Strings(files)
		for _, f := range files {
			m := sum.ByFile[f]
			fmt.Fprintf(w, "  %s: %.4f (%d/%d)\n", f, m.Accuracy, m.Correct, m.Total)
		}
	}

	fmt.Fprintln(w, line)
}
