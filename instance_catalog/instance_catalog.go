// Package instancecatalog checks the EC2 instance types behind the pricing classes of the cost model.
package instancecatalog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2Types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/ryanleh/crowdsurf/config"
)

// DescribeInstanceTypesAPI is the part of *ec2.Client the catalog uses.
type DescribeInstanceTypesAPI interface {
	DescribeInstanceTypes(ctx context.Context, params *ec2.DescribeInstanceTypesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstanceTypesOutput, error)
}

type InstanceInfo struct {
	Class              config.InstanceClass `json:"class"`
	InstanceType       string               `json:"instance_type"`
	VCPUs              int32                `json:"vcpus"`
	MemoryMiB          int64                `json:"memory_mib"`
	GPUs               int32                `json:"gpus"`
	NetworkGbps        int                  `json:"network_gbps"`
	DollarsPerHrPriced float64              `json:"dollars_per_hour"`
}

type Catalog struct {
	ec2 DescribeInstanceTypesAPI
}

func New(awsConfig aws.Config) *Catalog {
	return &Catalog{ec2: ec2.NewFromConfig(awsConfig)}
}

func NewWithClient(api DescribeInstanceTypesAPI) *Catalog {
	return &Catalog{ec2: api}
}

// Verify looks up the instance type of every priced class that names one. A class priced as a GPU class
// must resolve to an instance type with at least one GPU.
func (c *Catalog) Verify(ctx context.Context, prices []config.Price) ([]InstanceInfo, error) {
	byType := map[ec2Types.InstanceType]config.Price{}
	var types []ec2Types.InstanceType
	for _, p := range prices {
		if p.InstanceType == "" {
			slog.Debug("no instance type configured, skipping", slog.String("class", string(p.Class)))
			continue
		}
		t := ec2Types.InstanceType(p.InstanceType)
		if _, ok := byType[t]; !ok {
			types = append(types, t)
		}
		byType[t] = p
	}
	if len(types) == 0 {
		return nil, nil
	}

	resp, err := c.ec2.DescribeInstanceTypes(ctx, &ec2.DescribeInstanceTypesInput{InstanceTypes: types})
	if err != nil {
		return nil, fmt.Errorf("describing instance types failed: %w", err)
	}
	found := map[ec2Types.InstanceType]ec2Types.InstanceTypeInfo{}
	for _, it := range resp.InstanceTypes {
		found[it.InstanceType] = it
	}

	out := make([]InstanceInfo, 0, len(prices))
	for _, p := range prices {
		if p.InstanceType == "" {
			continue
		}
		it, ok := found[ec2Types.InstanceType(p.InstanceType)]
		if !ok {
			return nil, fmt.Errorf("instance type %s of class %s does not exist", p.InstanceType, p.Class)
		}
		info := describe(p, it)
		if p.RequiresGPU && info.GPUs == 0 {
			return nil, fmt.Errorf("class %s requires a GPU but instance type %s has none", p.Class, p.InstanceType)
		}
		slog.Info("verified instance type",
			slog.String("class", string(p.Class)),
			slog.String("instanceType", p.InstanceType),
			slog.Int("vcpus", int(info.VCPUs)),
			slog.Int("gpus", int(info.GPUs)))
		out = append(out, info)
	}
	return out, nil
}

func describe(p config.Price, it ec2Types.InstanceTypeInfo) InstanceInfo {
	info := InstanceInfo{
		Class:              p.Class,
		InstanceType:       p.InstanceType,
		DollarsPerHrPriced: p.DollarsPerHr,
	}
	if it.VCpuInfo != nil {
		info.VCPUs = aws.ToInt32(it.VCpuInfo.DefaultVCpus)
	}
	if it.MemoryInfo != nil {
		info.MemoryMiB = aws.ToInt64(it.MemoryInfo.SizeInMiB)
	}
	if it.GpuInfo != nil {
		for _, g := range it.GpuInfo.Gpus {
			info.GPUs += aws.ToInt32(g.Count)
		}
	}
	if it.NetworkInfo != nil && it.NetworkInfo.NetworkPerformance != nil {
		gbps, err := ParseNetworkPerformance(*it.NetworkInfo.NetworkPerformance)
		if err != nil {
			slog.Debug("can't parse network performance", slog.String("instanceType", p.InstanceType), slog.String("error", err.Error()))
		}
		info.NetworkGbps = gbps
	}
	return info
}

// ParseNetworkPerformance parses EC2 strings such as "25 Gigabit" or "Up to 10 Gigabit".
func ParseNetworkPerformance(perf string) (int, error) {
	parts := strings.Fields(perf)
	if len(parts) < 2 {
		return 0, fmt.Errorf("unknown network performance: %q", perf)
	}
	unit := parts[len(parts)-1]
	num := parts[len(parts)-2]
	if unit == "Gigabit" {
		return strconv.Atoi(num)
	}
	return 0, fmt.Errorf("unknown unit: %s", unit)
}
