package benchmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationArgs(t *testing.T) {
	t.Run("full lhe point", func(t *testing.T) {
		c := Configuration{Kind: Query, Packing: PackingBalanced, LogQ: 32, P: 1186, SqrtN: 14331, Mode: ModeHybrid, Iters: 5}
		args, err := c.Args()
		require.NoError(t, err)
		assert.Equal(t, []string{
			"-bench=query", "-packing=balanced", "-q=32", "-p=1186",
			"-rows=14331", "-cols=14331", "-mode=hybrid", "-test.benchtime=5x",
		}, args)
	})

	t.Run("unset flags are omitted", func(t *testing.T) {
		c := Configuration{Kind: PBC, Packing: PackingStorage, Hash: HashCuckoo}
		args, err := c.Args()
		require.NoError(t, err)
		assert.Equal(t, []string{"-bench=pbc", "-packing=storage", "-hash=cuckoo"}, args)
	})

	t.Run("memprofile last", func(t *testing.T) {
		c := Configuration{Kind: DPIR, Packing: PackingStorage, MemProfile: "mem.prof"}
		args, err := c.Args()
		require.NoError(t, err)
		assert.Equal(t, "-memprofile=mem.prof", args[len(args)-1])
	})

	t.Run("invalid", func(t *testing.T) {
		for _, c := range []Configuration{
			{Kind: "bogus", Packing: PackingBalanced},
			{Kind: Query, Packing: "dense"},
			{Kind: Query, Packing: PackingBalanced, LogQ: 48},
			{Kind: Query, Packing: PackingBalanced, Mode: "fast"},
			{Kind: PBC, Packing: PackingBalanced, Hash: "robin"},
			{Kind: Query, Packing: PackingBalanced, Iters: -1},
		} {
			_, err := c.Args()
			assert.Error(t, err, "%+v", c)
		}
	})

	t.Run("command", func(t *testing.T) {
		c := Configuration{Kind: Preprocessing, Packing: PackingBalanced, LogQ: 64}
		cmd, err := c.Command("./bench.out", "benches")
		require.NoError(t, err)
		assert.Equal(t, "./bench.out", cmd.Name)
		assert.Equal(t, "benches", cmd.Dir)
		assert.Equal(t, "cd benches && ./bench.out -bench=preprocessing -packing=balanced -q=64", cmd.String())
	})
}

func TestClientConfigurationArgs(t *testing.T) {
	c := ClientConfiguration{Rows: 8, Cols: 164408, BatchSize: 8, P: 593, PIRAddr: "10.0.0.1", HintAddr: "10.0.0.2"}
	args, err := c.Args()
	require.NoError(t, err)
	assert.Equal(t, []string{"-rows=8", "-cols=164408", "-batch_size=8", "-p=593", "-pir=10.0.0.1", "-hint=10.0.0.2"}, args)

	c.HintMs = 526.25
	c.Bits = 4480
	args, err = c.Args()
	require.NoError(t, err)
	assert.Equal(t, []string{"-hint_ms=526.25", "-bits=4480"}, args[6:])

	for _, bad := range []ClientConfiguration{
		{Rows: 0, Cols: 1, BatchSize: 1, P: 2, PIRAddr: "a", HintAddr: "b"},
		{Rows: 1, Cols: 1, BatchSize: 0, P: 2, PIRAddr: "a", HintAddr: "b"},
		{Rows: 1, Cols: 1, BatchSize: 1, P: 1, PIRAddr: "a", HintAddr: "b"},
		{Rows: 1, Cols: 1, BatchSize: 1, P: 2, HintAddr: "b"},
		{Rows: 1, Cols: 1, BatchSize: 1, P: 2, PIRAddr: "a", HintAddr: "b", HintMs: -1},
	} {
		_, err := bad.Args()
		assert.Error(t, err, "%+v", bad)
	}
}
