package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// run executes the root command with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), err
}

func TestSimulateScroll(t *testing.T) {
	out, err := run(t, "simulate", writeScenario(t, scrollScenario))
	require.NoError(t, err)

	var r Report
	require.NoError(t, yaml.Unmarshal([]byte(out), &r))
	assert.Equal(t, 10, r.Frames)
	assert.GreaterOrEqual(t, r.Drawn, 1)
	assert.GreaterOrEqual(t, r.Activations, 2)
	assert.GreaterOrEqual(t, r.MainFrames, 1)
	assert.GreaterOrEqual(t, r.Commits, 2)
	assert.GreaterOrEqual(t, r.SourceFrame, 2)
	assert.Equal(t, 1.0, r.PageScale)
	assert.Equal(t, OffsetReport{X: 30, Y: 0}, r.Offsets[2])
}

func TestSimulateFramesFlag(t *testing.T) {
	out, err := run(t, "simulate", "--frames", "3", writeScenario(t, scrollScenario))
	require.NoError(t, err)

	var r Report
	require.NoError(t, yaml.Unmarshal([]byte(out), &r))
	assert.Equal(t, 3, r.Frames)
	assert.Equal(t, OffsetReport{}, r.Offsets[2])
}

func TestSimulateErrors(t *testing.T) {
	_, err := run(t, "simulate")
	assert.Error(t, err)

	_, err = run(t, "simulate", writeScenario(t, "viewport: {width: 0, height: 0}"))
	assert.ErrorIs(t, err, errInvalidScenario)

	_, err = run(t, "--set", "no_such_setting=1", "simulate", writeScenario(t, scrollScenario))
	assert.Error(t, err)

	_, err = run(t, "--sink", "no-such-sink", "simulate", writeScenario(t, scrollScenario))
	assert.Error(t, err)

	_, err = run(t, "--log-level", "loud", "simulate", writeScenario(t, scrollScenario))
	assert.Error(t, err)
}

func TestSimulateCanceled(t *testing.T) {
	sc, err := ParseScenario([]byte(scrollScenario))
	require.NoError(t, err)
	p, err := newScenarioPipeline(&globalFlags{}, sc, nil)
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = simulate(ctx, p, sc, newSceneProducer(sc))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSinksCommand(t *testing.T) {
	out, err := run(t, "sinks")
	require.NoError(t, err)
	assert.Contains(t, out, "recording")
}
