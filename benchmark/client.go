package benchmark

import (
	"fmt"
	"strconv"

	"github.com/ryanleh/crowdsurf/target"
)

// ClientConfiguration is one run of the e2e client against a PIR server and a hint server.
type ClientConfiguration struct {
	Rows      uint64
	Cols      uint64
	BatchSize uint64
	P         uint64
	PIRAddr   string
	HintAddr  string
	HintMs    float64 // 0 = let the client measure hint latency itself
	Bits      uint64  // 0 = client default
}

func (c ClientConfiguration) Validate() error {
	if c.Rows == 0 || c.Cols == 0 {
		return fmt.Errorf("rows and cols must be positive, got %d x %d", c.Rows, c.Cols)
	}
	if c.BatchSize == 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.P < 2 {
		return fmt.Errorf("plaintext modulus must be at least 2, got %d", c.P)
	}
	if c.PIRAddr == "" || c.HintAddr == "" {
		return fmt.Errorf("both pir and hint addresses are required")
	}
	if c.HintMs < 0 {
		return fmt.Errorf("hint latency override must not be negative, got %f", c.HintMs)
	}
	return nil
}

func (c ClientConfiguration) Args() ([]string, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	args := []string{
		"-rows=" + strconv.FormatUint(c.Rows, 10),
		"-cols=" + strconv.FormatUint(c.Cols, 10),
		"-batch_size=" + strconv.FormatUint(c.BatchSize, 10),
		"-p=" + strconv.FormatUint(c.P, 10),
		"-pir=" + c.PIRAddr,
		"-hint=" + c.HintAddr,
	}
	if c.HintMs != 0 {
		args = append(args, "-hint_ms="+strconv.FormatFloat(c.HintMs, 'f', -1, 64))
	}
	if c.Bits != 0 {
		args = append(args, "-bits="+strconv.FormatUint(c.Bits, 10))
	}
	return args, nil
}

func (c ClientConfiguration) Command(binary, dir string) (target.Command, error) {
	args, err := c.Args()
	if err != nil {
		return target.Command{}, err
	}
	return target.Command{Name: binary, Args: args, Dir: dir}, nil
}
