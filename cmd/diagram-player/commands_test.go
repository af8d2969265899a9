package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/park285/cheese-diagram-player/internal/config"
	"github.com/park285/cheese-diagram-player/internal/domain"
	"github.com/park285/cheese-diagram-player/internal/msgcat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const samplePGN = `[White "Anna"]
[Black "Boris"]

1. e4 e5 2. Nf3 *
`

func testEnv(t *testing.T, out *bytes.Buffer) *env {
	t.Helper()
	return &env{cfg: config.Defaults(), labels: msgcat.NewLabels(nil), logger: zaptest.NewLogger(t), stdout: out}
}

func buildSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "game.pgn")
	out := filepath.Join(dir, "game.yaml")
	require.NoError(t, os.WriteFile(in, []byte(samplePGN), 0o644))

	var buf bytes.Buffer
	require.NoError(t, testEnv(t, &buf).build([]string{"-in", in, "-out", out}))
	return out
}

func TestBuildWritesDocument(t *testing.T) {
	path := buildSample(t)
	doc, err := domain.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Anna - Boris", doc.Title)
	assert.Len(t, doc.Diagrams, 1)
	assert.Len(t, doc.Moves, 4)
}

func TestPlayAutoplaysToEndOfLine(t *testing.T) {
	path := buildSample(t)
	var buf bytes.Buffer
	require.NoError(t, testEnv(t, &buf).play(context.Background(), []string{path}))

	out := buf.String()
	assert.Contains(t, out, `render d0 framed=true "Initial position"`)
	assert.Equal(t, 3, strings.Count(out, " slow\n"))
	assert.Contains(t, out, `"Position after 2.Nf3"`)
	assert.True(t, strings.HasSuffix(out, "controls d0 back=true forward=false play=none\n"), out)
}

func TestPlayStepsThenBack(t *testing.T) {
	path := buildSample(t)
	var buf bytes.Buffer
	require.NoError(t, testEnv(t, &buf).play(context.Background(), []string{"-steps", "2", "-back", "1", path}))

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, " fast\n"))
	assert.Contains(t, out, `"Position after 1.e4"`)
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, run(context.Background(), nil, &buf), errUsage)
	assert.ErrorIs(t, run(context.Background(), []string{"launch"}, &buf), errUsage)
	require.NoError(t, run(context.Background(), []string{"help"}, &buf))
	assert.Contains(t, buf.String(), "commands:")
}

func TestLoadDocumentNeedsPath(t *testing.T) {
	var buf bytes.Buffer
	err := testEnv(t, &buf).play(context.Background(), nil)
	assert.ErrorContains(t, err, "no document")
}
