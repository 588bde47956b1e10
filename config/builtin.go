package config

// Parameters from the paper:
//
//	Size (GB) | q = 2^32        | q = 2^64
//	          |  p   | sqrt(N)  |  p       | sqrt(N)
//	0.25        1186   14331      77749042   8945
//	0.5         997    20519      77749042   12650
//	1           997    29366      65378890   18190
//	2           838    41529      65378890   25724
//	3           838    51515      65378890   31506
//	4           838    59484      54976875   36556
func Default() *Config {
	return &Config{
		Widths: []Width{
			{LogQ: 32, Points: []SizePoint{
				{SizeGB: 0.25, P: 1186, SqrtN: 14331},
				{SizeGB: 0.5, P: 997, SqrtN: 20519},
				{SizeGB: 1, P: 997, SqrtN: 29366},
				{SizeGB: 2, P: 838, SqrtN: 41529},
				{SizeGB: 3, P: 838, SqrtN: 51515},
				{SizeGB: 4, P: 838, SqrtN: 59484},
			}},
			{LogQ: 64, Points: []SizePoint{
				{SizeGB: 0.25, P: 77749042, SqrtN: 8945},
				{SizeGB: 0.5, P: 77749042, SqrtN: 12650},
				{SizeGB: 1, P: 65378890, SqrtN: 18190},
				{SizeGB: 2, P: 65378890, SqrtN: 25724},
				{SizeGB: 3, P: 65378890, SqrtN: 31506},
				{SizeGB: 4, P: 54976875, SqrtN: 36556},
			}},
		},
		Query: QueryConfig{HybridIters: 5},
		Preprocessing: PreprocessingConfig{
			HybridIters:           5,
			ExcludedSizesGB:       []float64{3},
			BaselineSampleSizesGB: []float64{0.25},
			Historical: []HistoricalSeries{
				{LogQ: 32, Points: []HistoricalPoint{
					{SizeGB: 0.25, ThroughputGBps: 0.001811725487},
					{SizeGB: 0.5, ThroughputGBps: 0.001635269492},
					{SizeGB: 1, ThroughputGBps: 0.001490312966},
					{SizeGB: 2, ThroughputGBps: 0.001441618072},
					{SizeGB: 4, ThroughputGBps: 0.001345297513},
				}},
				{LogQ: 64, Points: []HistoricalPoint{
					{SizeGB: 0.25, ThroughputGBps: 0.0005891085609},
					{SizeGB: 0.5, ThroughputGBps: 0.0005879240402},
					{SizeGB: 1, ThroughputGBps: 0.00056891559},
					{SizeGB: 2, ThroughputGBps: 0.0005692572616},
					{SizeGB: 4, ThroughputGBps: 0.0005597631083},
				}},
			},
		},
		Batching: BatchingConfig{
			BatchSizes: []int{8, 16, 24, 32, 40, 48, 56, 64},
			Packing:    "storage",
		},
		Cost: CostConfig{
			CorrelationWeight: 0.01,
			Shards: []ShardProfile{
				{Type: Popular, QueriesPerClient: 8, Rows: 8, Cols: 164408, P: 593, Buckets: 1, HintShards: 1, PIRShards: 1},
				{Type: Full, QueriesPerClient: 3, Rows: 7, Cols: 596656, P: 419, Buckets: 8, HintShards: 3, PIRShards: 16},
				{Type: Baseline, QueriesPerClient: 2, Rows: 8, Cols: 380053, P: 498, Buckets: 24, HintShards: 6, PIRShards: 24},
			},
			Pricing: []Price{
				{Class: CPU, DollarsPerHr: 0.36, InstanceType: "c5.2xlarge"},
				{Class: GPU, DollarsPerHr: 3.1, InstanceType: "p3.2xlarge", RequiresGPU: true},
			},
			Recorded: []Recorded{
				{Type: Popular, HintLatencyMs: 526, BatchCapacity: 1300},
				{Type: Full, HintLatencyMs: 475, BatchCapacity: 275},
				{Type: Baseline, HintLatencyMs: 529, BatchCapacity: 21},
			},
			BaselinePrecision: 3,
			ShardPrecision:    15,
			CombinedPrecision: 4,
		},
		Build: BuildConfig{
			MinGoVersion: "1.22",
			BenchDir:     "benches",
			ClientDir:    "service/bin/client",
			HintDir:      "external/hintless_pir",
			HintTarget:   "//dpir:dpir_client",
			BinaryName:   "crowdsurf-bench.out",
		},
		E2E: E2EConfig{PIRPort: 8728, HintPort: 8729},
	}
}
