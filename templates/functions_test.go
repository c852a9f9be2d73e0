package templates

import (
	"bytes"
	"html/template"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/kizu/types"
)

func TestGetTemplateFunc(t *testing.T) {
	tmpl, err := template.New("t").Funcs(GetTemplateFunc()).Parse(
		`{{formatDuration .Short}}|{{formatDuration .Long}}|{{testStatus .Pass}}|{{testStatus .Fail}}|{{passRate 1 3}}|{{passRate 0 0}}|{{getStatusClass true}}`)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tmpl.Execute(&buf, map[string]any{
		"Short": 250 * time.Millisecond,
		"Long":  1500*time.Millisecond + 300*time.Microsecond,
		"Pass":  types.TestResults{Assertions: []types.Assertion{{Pass: true}}},
		"Fail":  types.TestResults{Assertions: []types.Assertion{{Pass: false}}},
	}))
	assert.Equal(t, "250ms|1.5s|pass|fail|33%|0%|pass", buf.String())
}
