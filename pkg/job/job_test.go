package job

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketmill/pkg/geom"
)

func testFace(t *testing.T, size, depth float64) geom.PathFace {
	t.Helper()
	face, err := geom.NewPathFace([]geom.Vector{
		{X: 0, Y: 0, Z: -depth},
		{X: size, Y: 0, Z: -depth},
		{X: size, Y: size, Z: -depth},
		{X: 0, Y: size, Z: -depth},
	}, nil)
	require.NoError(t, err)
	return face
}

func TestNewDefaults(t *testing.T) {
	metric := New("m", Metric, 300, 10000)
	assert.Equal(t, 10.0, metric.RapidHeight)
	assert.Equal(t, 1.0, metric.SafeHeight)
	assert.Equal(t, 300.0, metric.PlungeFeed, "plunge feed defaults to the cutting feed")
	assert.Equal(t, 3, metric.Precision)

	imperial := New("i", Imperial, 12, 10000)
	assert.Equal(t, 0.4, imperial.RapidHeight)
	assert.Equal(t, 0.04, imperial.SafeHeight)
}

func TestPocketRequiresTool(t *testing.T) {
	j := New("j", Metric, 300, 10000)
	_, err := j.Pocket([]geom.PathFace{testFace(t, 5, 1)}, nil, PocketOptions{})
	assert.ErrorIs(t, err, ErrMissingTool)
}

func TestPocketCopyOnWrite(t *testing.T) {
	base := New("j", Metric, 300, 10000).WithTool(1, 1)
	withPocket, err := base.Pocket([]geom.PathFace{testFace(t, 5, 1)}, nil, PocketOptions{})
	require.NoError(t, err)

	assert.Empty(t, base.Operations(), "fluent call must not mutate the receiver")
	require.Len(t, withPocket.Operations(), 1)

	// branching from the same base must not leak into the sibling
	other, err := base.Pocket([]geom.PathFace{testFace(t, 3, 1)}, nil, PocketOptions{})
	require.NoError(t, err)
	assert.Len(t, other.Operations(), 1)
	assert.Len(t, withPocket.Operations(), 1)

	chained, err := withPocket.Pocket([]geom.PathFace{testFace(t, 3, 1)}, nil, PocketOptions{})
	require.NoError(t, err)
	assert.Len(t, chained.Operations(), 2)
	assert.Len(t, withPocket.Operations(), 1)
}

func TestProgramStructure(t *testing.T) {
	j := New("TestJob", Metric, 300, 10000).WithTool(1, 1)
	j, err := j.Pocket([]geom.PathFace{testFace(t, 5, 1)}, nil, PocketOptions{})
	require.NoError(t, err)

	program := j.ToGcode()
	lines := strings.Split(program, "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Equal(t, "(TestJob - Feedrate: 300 - Unit: G21)", lines[0])
	assert.Equal(t, "G90", lines[1])
	assert.Equal(t, "G21", lines[2])
	assert.Equal(t, "(TestJob - Pocket)", lines[3])
	assert.True(t, strings.HasSuffix(program, "G1Z0\nG0Z10\nX0Y0"), "missing return-to-home footer")

	// the first motion is a rapid to clearance height
	assert.True(t, strings.HasPrefix(lines[4], "G0Z10"), "got %q", lines[4])
	assert.Contains(t, program, "F300")
	assert.Contains(t, program, "Z-1")
	assert.NotContains(t, program, "\n\nG", "blank command lines must be omitted")
}

func TestToolChangeBetweenOperations(t *testing.T) {
	j := New("j", Metric, 300, 10000).WithTool(1, 1)
	j, err := j.Pocket([]geom.PathFace{testFace(t, 5, 1)}, nil, PocketOptions{})
	require.NoError(t, err)

	j = j.WithTool(3.175, 2)
	j, err = j.Pocket([]geom.PathFace{testFace(t, 8, 1)}, nil, PocketOptions{})
	require.NoError(t, err)

	program := j.ToGcode()
	assert.Contains(t, program, "T2 H2 M6")
	assert.Contains(t, program, "M3 S10000")
	assert.Equal(t, 1, strings.Count(program, "M6"), "only one tool change expected")
}

func TestSpeedChangeRestartsSpindle(t *testing.T) {
	j := New("j", Metric, 300, 10000).WithTool(1, 1)
	j, err := j.Pocket([]geom.PathFace{testFace(t, 5, 1)}, nil, PocketOptions{})
	require.NoError(t, err)

	j.Speed = 20000
	j, err = j.Pocket([]geom.PathFace{testFace(t, 8, 1)}, nil, PocketOptions{})
	require.NoError(t, err)

	program := j.ToGcode()
	assert.NotContains(t, program, "M6")
	assert.Contains(t, program, "M5\nM3 S20000")
}

func TestPocketWithAvoid(t *testing.T) {
	avoid, err := geom.NewPathFace([]geom.Vector{
		{X: 3, Y: 3, Z: -1},
		{X: 5, Y: 5, Z: -1},
		{X: 3, Y: 5, Z: -1},
	}, nil)
	require.NoError(t, err)

	j := New("j", Metric, 300, 10000).WithTool(1, 1)
	j, err = j.Pocket([]geom.PathFace{testFace(t, 8, 1)}, []geom.PathFace{avoid}, PocketOptions{})
	require.NoError(t, err)
	require.Len(t, j.Operations(), 1)
	assert.NotEmpty(t, j.Operations()[0].Commands)
}

func TestProfile(t *testing.T) {
	j := New("j", Metric, 300, 10000).WithTool(1, 1)

	wire := geom.PolygonWire(geom.Polygon{
		{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4}, {X: 0, Y: 0},
	}, -2)
	j, err := j.Profile([]geom.Wire{wire}, ProfileOptions{Stepdown: 1})
	require.NoError(t, err)
	require.Len(t, j.Operations(), 1)

	program := j.ToGcode()
	assert.Contains(t, program, "(j - Profile)")
	assert.Contains(t, program, "Z-1", "stepdown layer missing")
	assert.Contains(t, program, "Z-2", "bottom pass missing")
}

func TestProfileRequiresTool(t *testing.T) {
	j := New("j", Metric, 300, 10000)
	_, err := j.Profile(nil, ProfileOptions{})
	assert.ErrorIs(t, err, ErrMissingTool)
}

func TestSaveGcode(t *testing.T) {
	j := New("j", Metric, 300, 10000).WithTool(1, 1)
	j, err := j.Pocket([]geom.PathFace{testFace(t, 5, 1)}, nil, PocketOptions{})
	require.NoError(t, err)

	path := t.TempDir() + "/out.nc"
	require.NoError(t, j.SaveGcode(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, j.ToGcode(), string(data))
}
