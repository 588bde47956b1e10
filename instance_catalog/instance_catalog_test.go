package instancecatalog

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2Types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/ryanleh/crowdsurf/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEC2 struct {
	infos     []ec2Types.InstanceTypeInfo
	requested []ec2Types.InstanceType
}

func (f *fakeEC2) DescribeInstanceTypes(ctx context.Context, params *ec2.DescribeInstanceTypesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstanceTypesOutput, error) {
	f.requested = append(f.requested, params.InstanceTypes...)
	return &ec2.DescribeInstanceTypesOutput{InstanceTypes: f.infos}, nil
}

func cpuInfo() ec2Types.InstanceTypeInfo {
	return ec2Types.InstanceTypeInfo{
		InstanceType: "c5.2xlarge",
		VCpuInfo:     &ec2Types.VCpuInfo{DefaultVCpus: aws.Int32(8)},
		MemoryInfo:   &ec2Types.MemoryInfo{SizeInMiB: aws.Int64(16384)},
		NetworkInfo:  &ec2Types.NetworkInfo{NetworkPerformance: aws.String("Up to 10 Gigabit")},
	}
}

func gpuInfo(gpus int32) ec2Types.InstanceTypeInfo {
	return ec2Types.InstanceTypeInfo{
		InstanceType: "p3.2xlarge",
		VCpuInfo:     &ec2Types.VCpuInfo{DefaultVCpus: aws.Int32(8)},
		GpuInfo:      &ec2Types.GpuInfo{Gpus: []ec2Types.GpuDeviceInfo{{Count: aws.Int32(gpus)}}},
		NetworkInfo:  &ec2Types.NetworkInfo{NetworkPerformance: aws.String("10 Gigabit")},
	}
}

func prices() []config.Price {
	return []config.Price{
		{Class: config.CPU, DollarsPerHr: 0.36, InstanceType: "c5.2xlarge"},
		{Class: config.GPU, DollarsPerHr: 3.1, InstanceType: "p3.2xlarge", RequiresGPU: true},
	}
}

func TestVerify(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		api := &fakeEC2{infos: []ec2Types.InstanceTypeInfo{cpuInfo(), gpuInfo(1)}}
		infos, err := NewWithClient(api).Verify(context.Background(), prices())
		require.NoError(t, err)
		require.Len(t, infos, 2)
		assert.Equal(t, InstanceInfo{Class: config.CPU, InstanceType: "c5.2xlarge", VCPUs: 8, MemoryMiB: 16384, NetworkGbps: 10, DollarsPerHrPriced: 0.36}, infos[0])
		assert.Equal(t, int32(1), infos[1].GPUs)
		assert.Equal(t, []ec2Types.InstanceType{"c5.2xlarge", "p3.2xlarge"}, api.requested)
	})

	t.Run("gpu class without gpu", func(t *testing.T) {
		api := &fakeEC2{infos: []ec2Types.InstanceTypeInfo{cpuInfo(), gpuInfo(0)}}
		_, err := NewWithClient(api).Verify(context.Background(), prices())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires a GPU")
	})

	t.Run("unknown instance type", func(t *testing.T) {
		api := &fakeEC2{infos: []ec2Types.InstanceTypeInfo{cpuInfo()}}
		_, err := NewWithClient(api).Verify(context.Background(), prices())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("nothing configured", func(t *testing.T) {
		api := &fakeEC2{}
		infos, err := NewWithClient(api).Verify(context.Background(), []config.Price{{Class: config.CPU, DollarsPerHr: 1}})
		require.NoError(t, err)
		assert.Empty(t, infos)
		assert.Empty(t, api.requested)
	})
}

func TestParseNetworkPerformance(t *testing.T) {
	n, err := ParseNetworkPerformance("Up to 12.5 Gigabit")
	require.Error(t, err)
	assert.Equal(t, 0, n)

	n, err = ParseNetworkPerformance("25 Gigabit")
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	_, err = ParseNetworkPerformance("Moderate")
	require.Error(t, err)
}
