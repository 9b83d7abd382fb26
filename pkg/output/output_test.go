package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lcalzada-xor/axss/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = models.Finding{
	URL:       "http://t/search?q=%3Cscript%3Ealert(1)%3C%2Fscript%3E",
	Method:    models.MethodGET,
	Parameter: "q",
	Payload:   "<script>alert(1)</script>",
	Type:      models.XSSReflectedGET,
	Context:   models.ContextTag,
	Snippet:   "<p><script>alert(1)</script></p>",
}

func TestParseFormat(t *testing.T) {
	for raw, want := range map[string]Format{"": FormatHuman, "JSON": FormatJSON, " url ": FormatURL, "human": FormatHuman} {
		got, err := ParseFormat(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestFormatter_Format(t *testing.T) {
	t.Run("url", func(t *testing.T) {
		assert.Equal(t, sample.URL, NewFormatter(FormatURL, true).Format(sample))
	})

	t.Run("json is one line", func(t *testing.T) {
		line := NewFormatter(FormatJSON, false).Format(sample)
		assert.NotContains(t, line, "\n")
		var got models.Finding
		require.NoError(t, json.Unmarshal([]byte(line), &got))
		assert.Equal(t, sample.Parameter, got.Parameter)
		assert.Equal(t, sample.Type, got.Type)
	})

	t.Run("human without colour", func(t *testing.T) {
		out := NewFormatter(FormatHuman, false).Format(sample)
		assert.NotContains(t, out, "\x1b[")
		assert.Contains(t, out, "[+] XSS Vulnerability Found")
		assert.Contains(t, out, "Parameter:  q")
		assert.Contains(t, out, "Reflected XSS (GET)")
		assert.Contains(t, out, "Snippet:")
	})
}

func TestFormatter_Summary(t *testing.T) {
	clean := NewFormatter(FormatHuman, false).Summary(models.Stats{URLsTested: 3, ParamsTested: 5}, "run-1")
	assert.Contains(t, clean, "No XSS vulnerabilities detected")
	assert.Contains(t, clean, "run-1")
	assert.NotContains(t, clean, "Errors:")

	dirty := NewFormatter(FormatHuman, false).Summary(models.Stats{VulnerabilitiesFound: 2, Errors: 1}, "")
	assert.NotContains(t, dirty, "No XSS")
	assert.Contains(t, dirty, "Errors:")

	assert.NotContains(t, dirty, "WAF:")

	blocked := NewFormatter(FormatHuman, false).Summary(models.Stats{Timeouts: 3, WAFs: []string{"Cloudflare", "Sucuri"}}, "")
	assert.Contains(t, blocked, "Timeouts:   3")
	assert.Contains(t, blocked, "WAF:        Cloudflare, Sucuri")

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(NewFormatter(FormatJSON, false).Summary(models.Stats{URLsTested: 1, WAFs: []string{"Akamai"}}, "r")), &doc))
	assert.Equal(t, "r", doc["run_id"])
	assert.Equal(t, []any{"Akamai"}, doc["summary"].(map[string]any)["wafs"])
}

func TestReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, FormatURL, false)
	mirror := filepath.Join(t.TempDir(), "findings.txt")
	require.NoError(t, r.MirrorTo(mirror))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Report(sample)
		}()
	}
	wg.Wait()
	r.Summary(models.Stats{VulnerabilitiesFound: 10}, "run")
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	assert.Equal(t, 10, r.Count())
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 10, "url output carries no summary")

	data, err := os.ReadFile(mirror)
	require.NoError(t, err)
	assert.Equal(t, 10, strings.Count(string(data), sample.URL+"\n"))
	assert.Contains(t, string(data), "SCAN SUMMARY")
}

func TestReport_WriteJSONReport(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	rep := NewReport([]string{"http://t/"}, start)
	_, err := uuid.Parse(rep.RunID)
	require.NoError(t, err)

	rep.Finish([]models.Finding{sample}, models.Stats{VulnerabilitiesFound: 1}, start.Add(time.Minute))
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, rep.WriteJSONReport(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Report
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, rep.RunID, got.RunID)
	assert.Equal(t, []string{"http://t/"}, got.Targets)
	require.Len(t, got.Findings, 1)
	assert.Equal(t, "q", got.Findings[0].Parameter)
	assert.Equal(t, time.Minute, got.FinishedAt.Sub(got.StartedAt))
}

func TestReport_EmptyFindingsSerializeAsArray(t *testing.T) {
	rep := NewReport(nil, time.Now())
	rep.Finish(nil, models.Stats{}, time.Now())
	data, err := json.Marshal(rep)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"findings":[]`)
}
