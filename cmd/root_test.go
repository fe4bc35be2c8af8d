package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magnusknutas/genesis/internal/log"
)

// writeConfig writes a config file into a temp directory and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// run executes a fresh command tree and returns stdout and stderr.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	lipgloss.SetColorProfile(termenv.Ascii)

	root, a := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := execute(root, a)
	return stdout.String(), stderr.String(), err
}

func TestTokensCmd_Bracket(t *testing.T) {
	cfg := writeConfig(t, "grammar: bracket\n")

	out, _, err := run(t, "~ a [b]\n", "--config", cfg, "tokens")
	require.NoError(t, err)

	assert.Contains(t, out, "0:0-1\tatom.marker.active")
	assert.Contains(t, out, "0:1-4\tatom.content")
	assert.Contains(t, out, "0:4-5\tenvelope.open")
	assert.Contains(t, out, "0:5-6\tenvelope.content")
	assert.Contains(t, out, "0:6-7\tenvelope.close")
	assert.True(t, strings.HasSuffix(out, "state: TopLevel\n"), "got %q", out)
}

func TestTokensCmd_JSONUnterminated(t *testing.T) {
	cfg := writeConfig(t, "grammar: bracket\n")

	out, _, err := run(t, "x [a\nb", "--config", cfg, "tokens", "--json")
	require.NoError(t, err)

	var got struct {
		Tokens []tokenRecord `json:"tokens"`
		State  string        `json:"state"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, "InsideEnvelope", got.State)
	require.Len(t, got.Tokens, 4)
	last := got.Tokens[3]
	require.Equal(t, 1, last.Line)
	require.Equal(t, "envelope.content", last.Category.String())
	require.Equal(t, "b", last.Value)
}

func TestTokensCmd_GrammarFlagOverridesConfig(t *testing.T) {
	cfg := writeConfig(t, "grammar: bracket\n")

	out, _, err := run(t, "## note\ncloset\n", "--config", cfg, "--grammar", "registration", "tokens")
	require.NoError(t, err)

	assert.Contains(t, out, "0:0-2\tenvelope.open")
	assert.Contains(t, out, "1:0-6\tenvelope.close")
	assert.Contains(t, out, "state: TopLevel")
}

func TestTokensCmd_File(t *testing.T) {
	cfg := writeConfig(t, "grammar: bracket\n")
	path := filepath.Join(t.TempDir(), "notes.genesis")
	require.NoError(t, os.WriteFile(path, []byte("~\n"), 0o644))

	out, _, err := run(t, "", "--config", cfg, "tokens", path)
	require.NoError(t, err)
	assert.Contains(t, out, "0:0-1\tatom.marker.inactive")
}

func TestTokensCmd_MissingFile(t *testing.T) {
	cfg := writeConfig(t, "grammar: bracket\n")

	_, _, err := run(t, "", "--config", cfg, "tokens", filepath.Join(t.TempDir(), "missing.genesis"))
	require.Error(t, err)
}

func TestCompleteCmd(t *testing.T) {
	cfg := writeConfig(t, "grammar: bracket\n")

	tests := []struct {
		name     string
		args     []string
		contains []string
		absent   []string
	}{
		{
			name:     "hash fragment",
			args:     []string{"complete", "#"},
			contains: []string{"##", "Create an envelope"},
			absent:   []string{"Create a registration line"},
		},
		{
			name:     "bracket fragment",
			args:     []string{"complete", "["},
			contains: []string{"Create an inline envelope"},
		},
		{
			name:     "no fragment lists everything",
			args:     []string{"complete"},
			contains: []string{"Create an envelope", "Create a registration line", "Create an inline envelope"},
		},
		{
			name:   "no match",
			args:   []string{"complete", "zzz"},
			absent: []string{"Create"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, "", append([]string{"--config", cfg}, tt.args...)...)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tt.absent {
				assert.NotContains(t, out, unwanted)
			}
		})
	}
}

func TestCompleteCmd_RegistrationHasNoInlineEnvelope(t *testing.T) {
	cfg := writeConfig(t, "grammar: registration\n")

	out, _, err := run(t, "", "--config", cfg, "complete")
	require.NoError(t, err)
	assert.Contains(t, out, "Create an envelope")
	assert.NotContains(t, out, "Create an inline envelope")
}

func TestCompleteCmd_LineJSON(t *testing.T) {
	cfg := writeConfig(t, "grammar: bracket\n")

	out, _, err := run(t, "", "--config", cfg, "complete", "--json", "--line", "  ~", "--column", "3")
	require.NoError(t, err)

	var got struct {
		Range struct {
			Start int
			End   int
		} `json:"range"`
		Suggestions []struct {
			Label string `json:"label"`
			Kind  string `json:"kind"`
		} `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, 2, got.Range.Start)
	require.Equal(t, 3, got.Range.End)
	require.Len(t, got.Suggestions, 1)
	require.Equal(t, "~", got.Suggestions[0].Label)
	require.Equal(t, "keyword", got.Suggestions[0].Kind)
}

func TestCompleteCmd_FragmentAndLineConflict(t *testing.T) {
	cfg := writeConfig(t, "grammar: bracket\n")

	_, _, err := run(t, "", "--config", cfg, "complete", "#", "--line", "#")
	require.Error(t, err)
}

func TestHighlightCmd_Lipgloss(t *testing.T) {
	cfg := writeConfig(t, "grammar: bracket\noutput:\n  formatter: lipgloss\n")

	out, stderr, err := run(t, "~ hello [world]\n", "--config", cfg, "highlight")
	require.NoError(t, err)
	assert.Equal(t, "~ hello [world]\n", ansi.Strip(out))
	assert.Empty(t, stderr)
}

func TestHighlightCmd_WarnsOnUnterminatedEnvelope(t *testing.T) {
	cfg := writeConfig(t, "grammar: bracket\n")

	_, stderr, err := run(t, "a\nb [open\nstill open\n", "--config", cfg, "highlight")
	require.NoError(t, err)
	assert.Contains(t, stderr, "envelope opened on line 2 is never closed")
}

func TestHighlightCmd_HTML(t *testing.T) {
	cfg := writeConfig(t, "grammar: bracket\ntheme:\n  preset: dark\n")

	out, _, err := run(t, "a [b]\n", "--config", cfg, "highlight", "--formatter", "html")
	require.NoError(t, err)
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "#bd93f9")
}

func TestHighlightCmd_ChromaTerminal(t *testing.T) {
	cfg := writeConfig(t, "grammar: registration\n")

	out, _, err := run(t, "## x\ncloset\n", "--config", cfg, "highlight", "-f", "terminal256")
	require.NoError(t, err)
	assert.Contains(t, out, "closet")
	assert.Contains(t, out, "\x1b[")
}

func TestHighlightCmd_UnknownFormatter(t *testing.T) {
	cfg := writeConfig(t, "grammar: bracket\n")

	_, _, err := run(t, "a\n", "--config", cfg, "highlight", "-f", "postscript")
	require.Error(t, err)
}

func TestHighlightCmd_WatchNeedsFile(t *testing.T) {
	cfg := writeConfig(t, "grammar: bracket\n")

	_, _, err := run(t, "a\n", "--config", cfg, "highlight", "--watch")
	require.Error(t, err)
}

func TestHighlightCmd_WatchRejectsSeveralFiles(t *testing.T) {
	cfg := writeConfig(t, "grammar: bracket\n")
	dir := t.TempDir()
	first := filepath.Join(dir, "a.genesis")
	second := filepath.Join(dir, "b.genesis")
	require.NoError(t, os.WriteFile(first, []byte("a\n"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("b\n"), 0o644))

	_, _, err := run(t, "", "--config", cfg, "highlight", "--watch", first, second)
	require.Error(t, err)
}

func TestHighlightCmd_SeveralFilesAreIndependent(t *testing.T) {
	cfg := writeConfig(t, "grammar: bracket\n")
	dir := t.TempDir()
	first := filepath.Join(dir, "open.genesis")
	second := filepath.Join(dir, "plain.genesis")
	require.NoError(t, os.WriteFile(first, []byte("x [never closed\n"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("plain ~ text\n"), 0o644))

	out, stderr, err := run(t, "", "--config", cfg, "highlight", first, second)
	require.NoError(t, err)

	assert.Equal(t,
		"==> "+first+" <==\nx [never closed\n\n==> "+second+" <==\nplain ~ text\n",
		ansi.Strip(out))
	assert.Contains(t, stderr, first+": envelope opened on line 1 is never closed")
	assert.NotContains(t, stderr, second)
}

func TestThemeCmd(t *testing.T) {
	light := writeConfig(t, "theme:\n  preset: light\n")
	out, _, err := run(t, "", "--config", light, "theme", "--yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: genesis-theme")
	assert.Contains(t, out, "atom.marker.active")

	dark := writeConfig(t, "theme:\n  preset: dark\n  rules:\n    \"atom.marker.active\": \"#123456 bold\"\n")
	out, _, err = run(t, "", "--config", dark, "theme", "--yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: genesis-dark")
	assert.Contains(t, out, "#123456")

	out, _, err = run(t, "", "--config", dark, "theme")
	require.NoError(t, err)
	assert.Contains(t, out, "genesis-dark")
	assert.Contains(t, out, "envelope.content")
}

func TestInitCmd_DoesNotOverwrite(t *testing.T) {
	cfg := writeConfig(t, "grammar: bracket\n")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, _, err := run(t, "", "--config", cfg, "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "grammar: bracket")

	require.NoError(t, os.WriteFile(path, []byte("grammar: registration\n"), 0o600))
	_, _, err = run(t, "", "--config", cfg, "init", path)
	require.NoError(t, err)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "grammar: registration\n", string(data))
}

func TestSetup_InvalidConfig(t *testing.T) {
	cfg := writeConfig(t, "grammar: cuneiform\n")

	_, _, err := run(t, "a\n", "--config", cfg, "tokens")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grammar")
}

func TestSetup_MissingExplicitConfig(t *testing.T) {
	_, _, err := run(t, "a\n", "--config", filepath.Join(t.TempDir(), "nope.yaml"), "tokens")
	require.Error(t, err)
}

func TestCLIHost_RejectsUnknownLanguage(t *testing.T) {
	h := newCLIHost()
	require.Error(t, h.SetTokenizer("genesis", nil))
	require.Error(t, h.SetCompletionProvider("genesis", nil))
}

func TestExecute_ClosesDebugLogOnError(t *testing.T) {
	cfg := writeConfig(t, "grammar: bracket\n")
	logPath := filepath.Join(t.TempDir(), "debug.log")

	root, a := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", cfg, "--debug", "--log-file", logPath,
		"tokens", filepath.Join(t.TempDir(), "missing.genesis")})

	require.Error(t, execute(root, a))
	assert.Nil(t, a.closeLog)

	log.Info(log.CatCLI, "after teardown")
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBUG] [config] config loaded")
	assert.NotContains(t, string(data), "after teardown")
}

func TestDebugLog_Stderr(t *testing.T) {
	cfg := writeConfig(t, "grammar: bracket\n")

	_, stderr, err := run(t, "a [b]\n", "--config", cfg, "--debug", "--log-file", "-", "highlight")
	require.NoError(t, err)
	assert.Contains(t, stderr, "[DEBUG] [config] config loaded")
	assert.Contains(t, stderr, "[DEBUG] [render] rendered")
	_, statErr := os.Stat("-")
	assert.True(t, os.IsNotExist(statErr), "no file named - is created")
}

func TestDebugLog_Level(t *testing.T) {
	cfg := writeConfig(t, "grammar: bracket\nlog_level: warn\n")

	_, stderr, err := run(t, "a\n", "--config", cfg, "--debug", "--log-file", "-", "tokens")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "[DEBUG]")
}

func TestSetup_InvalidLogLevel(t *testing.T) {
	cfg := writeConfig(t, "log_level: loud\n")

	_, _, err := run(t, "a\n", "--config", cfg, "--debug", "--log-file", "-", "tokens")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
}
