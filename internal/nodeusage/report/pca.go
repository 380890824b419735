// Package report writes the outputs of an analysis run: the PCA statistics report, the projection table consumed
// by chart renderers, and the console summary.
package report

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/nodeusage/nodeusage/internal/common/util"
	"github.com/nodeusage/nodeusage/internal/nodeusage/reduce"
)

const PCAReportTitle = "--- PCA Statistics ---"

// FormatPCAReport renders the eigenvalues, explained variance ratios and loadings of a computed reduction,
// followed by the biplot arrows.
func FormatPCAReport(result *reduce.Result) (string, error) {
	if result == nil || result.Outcome != reduce.Computed {
		return "", errors.New("no computed reduction to report")
	}
	pca := result.PCA
	k := pca.NumComponents()
	names := componentNames(k)

	var sb strings.Builder
	sb.WriteString(PCAReportTitle + "\n")
	sb.WriteString(fmt.Sprintf("Eigenvalues: %s\n", formatVector(pca.Eigenvalues)))
	sb.WriteString(fmt.Sprintf("Explained variance ratio: %s\n", formatVector(pca.ExplainedVarianceRatio)))
	sb.WriteString("\nEigenvectors (loadings):\n")

	loadings := util.NewTabbedStringBuilder(1, 1, 2, ' ', 0)
	header := append([]any{"feature"}, toAny(names)...)
	loadings.WriteRow(header...)
	for j, label := range reduce.FeatureLabels {
		row := []any{label}
		for i := 0; i < k; i++ {
			row = append(row, fmt.Sprintf("%.6f", pca.Components.At(i, j)))
		}
		loadings.WriteRow(row...)
	}
	sb.WriteString(loadings.String())

	sb.WriteString(fmt.Sprintf("\nBiplot (scale %.6f):\n", result.Biplot.Scale))
	arrows := util.NewTabbedStringBuilder(1, 1, 2, ' ', 0)
	arrows.WriteRow("feature", "x", "y", "label_x", "label_y")
	for _, a := range result.Biplot.Arrows {
		arrows.WriteRow(a.Feature,
			fmt.Sprintf("%.6f", a.X), fmt.Sprintf("%.6f", a.Y),
			fmt.Sprintf("%.6f", a.LabelX), fmt.Sprintf("%.6f", a.LabelY))
	}
	sb.WriteString(arrows.String())
	return sb.String(), nil
}

// WritePCAReport overwrites path with the PCA report of result.
func WritePCAReport(path string, result *reduce.Result) error {
	content, err := FormatPCAReport(result)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, []byte(content))
}

func componentNames(k int) []string {
	rv := make([]string, k)
	for i := range rv {
		rv[i] = fmt.Sprintf("PC%d", i+1)
	}
	return rv
}

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%.6f", x)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func toAny(s []string) []any {
	rv := make([]any, len(s))
	for i, v := range s {
		rv[i] = v
	}
	return rv
}
