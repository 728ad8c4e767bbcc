package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvPseudoMasterDiscardsOverlappingChild(t *testing.T) {
	conf := testConf(t)
	kit := newTestKit(conf, &fakeInput{})
	stats, err := NewStats(conf.OutputDir)
	require.NoError(t, err)

	kit.Working.InsertHit(Hit{GeneID: "A", HeaderBase: "tr7", Score: 500, EnvStart: 5, EnvEnd: 80})
	kit.Working.InsertHit(Hit{GeneID: "B", HeaderBase: "tr7", Score: 100, EnvStart: 10, EnvEnd: 75})

	CheckEnvPseudoMaster(kit, stats)
	require.NoError(t, stats.Close())

	// master survives unchanged, the weaker cross-gene child is dropped
	require.Equal(t, 1, kit.Working.Len())
	master, ok := kit.Working.Hit(1)
	require.True(t, ok)
	assert.Equal(t, 5, master.EnvStart)
	assert.Equal(t, 80, master.EnvEnd)

	assertFileContains(t, conf.OutputDir, "filtered-hits.txt", "B,tr7,env-overlap")
}

func TestEnvPseudoMasterSameGeneChild(t *testing.T) {
	conf := testConf(t)
	kit := newTestKit(conf, &fakeInput{})
	stats, err := NewStats(conf.OutputDir)
	require.NoError(t, err)

	kit.Working.InsertHit(Hit{GeneID: "A", HeaderBase: "tr7", Score: 500, EnvStart: 5, EnvEnd: 80})
	kit.Working.InsertHit(Hit{GeneID: "A", HeaderBase: "tr7", Score: 400, EnvStart: 5, EnvEnd: 80})

	CheckEnvPseudoMaster(kit, stats)
	require.NoError(t, stats.Close())

	require.Equal(t, 1, kit.Working.Len())
	assertFileContains(t, conf.OutputDir, "filtered-hits.txt", "A,tr7,env-pseudo-master")
}

func TestEnvPseudoMasterExtendsMaster(t *testing.T) {
	conf := testConf(t)
	conf.EnvScoreDiscardThreshold = 100 // keep the child
	kit := newTestKit(conf, &fakeInput{})
	stats, err := NewStats(conf.OutputDir)
	require.NoError(t, err)
	defer stats.Close()

	kit.Working.InsertHit(Hit{GeneID: "A", HeaderBase: "tr7", Score: 500, EnvStart: 20, EnvEnd: 60})
	kit.Working.InsertHit(Hit{GeneID: "B", HeaderBase: "tr7", Score: 400, EnvStart: 10, EnvEnd: 90})

	CheckEnvPseudoMaster(kit, stats)

	master, ok := kit.Working.Hit(1)
	require.True(t, ok)
	assert.Equal(t, 10, master.EnvStart)
	assert.Equal(t, 90, master.EnvEnd)
}

func TestEnvPseudoMasterMinisculeDiscardsGroup(t *testing.T) {
	conf := testConf(t)
	kit := newTestKit(conf, &fakeInput{})
	stats, err := NewStats(conf.OutputDir)
	require.NoError(t, err)

	kit.Working.InsertHit(Hit{GeneID: "A", HeaderBase: "tr7", Score: 500, EnvStart: 5, EnvEnd: 80})
	// barely any coverage of the master span
	kit.Working.InsertHit(Hit{GeneID: "B", HeaderBase: "tr7", Score: 100, EnvStart: 78, EnvEnd: 79})

	CheckEnvPseudoMaster(kit, stats)
	require.NoError(t, stats.Close())

	assert.Equal(t, 0, kit.Working.Len())
	assertFileContains(t, conf.OutputDir, "filtered-hits.txt", "A,tr7,env-overlap")
	assertFileContains(t, conf.OutputDir, "filtered-hits.txt", "B,tr7,env-overlap")
}

// repeated application of the master extension is a fixed point
func TestExtendMasterCoordsIdempotent(t *testing.T) {
	master := &Hit{ID: 1, EnvStart: 20, EnvEnd: 60}
	children := []*Hit{master, {ID: 2, EnvStart: 10, EnvEnd: 90}}

	start, end := extendMasterCoords(master, children, false)
	assert.Equal(t, 10, start)
	assert.Equal(t, 90, end)

	extended := &Hit{ID: 1, EnvStart: start, EnvEnd: end}
	start2, end2 := extendMasterCoords(extended, []*Hit{extended, children[1]}, false)
	assert.Equal(t, start, start2)
	assert.Equal(t, end, end2)
}

// the compat comparator lets a later child shrink the running end; the
// default policy takes the maximum
func TestExtendMasterCoordsCompatDivergence(t *testing.T) {
	master := &Hit{ID: 1, EnvStart: 5, EnvEnd: 100}
	children := []*Hit{
		master,
		{ID: 2, EnvStart: 5, EnvEnd: 40},
	}

	_, end := extendMasterCoords(master, children, false)
	assert.Equal(t, 100, end)

	_, compatEnd := extendMasterCoords(master, children, true)
	assert.Equal(t, 40, compatEnd)
}
