package carve

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

// Everything that controls a carving run. Loaded from toml, then overridden
// by whatever was given on the command line
type Config struct {
	Stride    int64  `toml:"stride"`
	BlockSize int    `toml:"block_size"`
	Output    string `toml:"output"`
	KeepGoing bool   `toml:"keep_going"`
	Mkdir     bool   `toml:"mkdir"` // Create the output folder if it's missing
	Hex       bool   `toml:"hex"`   // Input is Intel HEX rather than raw binary
}

func DefaultConfig() Config {
	return Config{
		Stride:    DefaultStride,
		BlockSize: DefaultBlockSize,
		Output:    DefaultOutputDir,
	}
}

// Parse toml on top of the defaults. Keys not in the toml keep their default
func ParseConfig(data []byte) (Config, error) {
	config := DefaultConfig()
	err := toml.Unmarshal(data, &config)
	if err != nil {
		return config, err
	}
	return config, config.Validate()
}

func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig(), err
	}
	return ParseConfig(data)
}

func (c *Config) Validate() error {
	if c.Stride < int64(SignatureLength) {
		return fmt.Errorf("stride must be at least %d, got %d", SignatureLength, c.Stride)
	}
	if c.BlockSize < 1 {
		return fmt.Errorf("block_size must be at least 1, got %d", c.BlockSize)
	}
	if c.Output == "" {
		return fmt.Errorf("output folder can't be empty")
	}
	return nil
}

// Make sure the output folder is there, if we're allowed to create it
func (c *Config) PrepareOutput() error {
	if !c.Mkdir {
		return nil
	}
	return os.MkdirAll(c.Output, 0770)
}

// Build a scanner from this config writing into the given sink. A nil sink
// writes files into the configured output folder
func (c *Config) NewScanner(sink ImageSink) *Scanner {
	if sink == nil {
		sink = &DirectorySink{Dir: c.Output}
	}
	scanner := NewScanner(sink)
	scanner.Stride = c.Stride
	scanner.BlockSize = c.BlockSize
	scanner.KeepGoing = c.KeepGoing
	return scanner
}
