package runtime

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// goldenTest runs a .jez file and compares its output to a .expected file.
func goldenTest(t *testing.T, name string) {
	t.Helper()

	srcPath := filepath.Join("..", "..", "testdata", name+".jez")
	expectedPath := filepath.Join("..", "..", "testdata", name+".expected")

	source, err := os.ReadFile(srcPath)
	require.NoError(t, err)
	expected, err := os.ReadFile(expectedPath)
	require.NoError(t, err)

	got, err := runSource(t, string(source))
	require.NoError(t, err, "runtime error")

	expectedLines := strings.Split(strings.TrimRight(string(expected), "\n"), "\n")
	gotLines := strings.Split(strings.TrimRight(got, "\n"), "\n")

	maxLines := len(expectedLines)
	if len(gotLines) > maxLines {
		maxLines = len(gotLines)
	}
	for i := 0; i < maxLines; i++ {
		exp, g := "<missing>", "<missing>"
		if i < len(expectedLines) {
			exp = expectedLines[i]
		}
		if i < len(gotLines) {
			g = gotLines[i]
		}
		if exp != g {
			t.Errorf("%s line %d: expected=%q got=%q", name, i+1, exp, g)
		}
	}
}

func TestGoldenClosures(t *testing.T) {
	goldenTest(t, "golden_closures")
}

func TestGoldenTemplates(t *testing.T) {
	goldenTest(t, "golden_templates")
}

func TestGoldenControl(t *testing.T) {
	goldenTest(t, "golden_control")
}
