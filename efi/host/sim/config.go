package sim

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/joshuapare/efikit/efi"
	"github.com/joshuapare/efikit/internal/format"
)

// ErrConfig indicates an invalid firmware configuration.
var ErrConfig = errors.New("sim: invalid config")

// Config describes the simulated firmware.
//
// Example:
//
//	revision        = "2.70"
//	pool_size       = 1048576
//	descriptor_size = 48
//	image_path      = '\EFI\BOOT\BOOTX64.EFI'
//
//	[[region]]
//	type  = "Conventional"
//	start = 0x100000
//	pages = 256
type Config struct {
	// Revision is "major.minor", e.g. "2.70".
	Revision string `toml:"revision"`
	// PoolSize is the size of the pool arena in bytes.
	PoolSize int `toml:"pool_size"`
	// DescriptorSize is the memory map stride. It must be at least the size
	// of a memory descriptor and a multiple of 8.
	DescriptorSize int `toml:"descriptor_size"`
	// MapSlack is added to the size GetMemoryMap asks for when the caller's
	// buffer is too small.
	MapSlack int `toml:"map_slack"`
	// ImagePath is the file path of the running image on the volume.
	ImagePath string `toml:"image_path"`
	// Regions are reported by GetMemoryMap ahead of live page allocations.
	Regions []Region `toml:"region"`
}

// Region is one static memory map entry.
type Region struct {
	Type      string `toml:"type"`
	Start     uint64 `toml:"start"`
	Pages     uint64 `toml:"pages"`
	Attribute uint64 `toml:"attribute"`
}

// DefaultConfig returns a UEFI 2.70 machine with a 1 MiB pool and a typical
// six-entry memory map.
func DefaultConfig() Config {
	return Config{
		Revision:       "2.70",
		PoolSize:       1 << 20,
		DescriptorSize: 48,
		ImagePath:      `\EFI\BOOT\BOOTX64.EFI`,
		Regions: []Region{
			{Type: "BootServicesCode", Start: 0x0, Pages: 1, Attribute: 0xF},
			{Type: "Conventional", Start: 0x1000, Pages: 159, Attribute: 0xF},
			{Type: "Reserved", Start: 0xA0000, Pages: 96, Attribute: 0x1},
			{Type: "LoaderCode", Start: 0x100000, Pages: 64, Attribute: 0xF},
			{Type: "Conventional", Start: 0x140000, Pages: 7872, Attribute: 0xF},
			{Type: "ACPIReclaim", Start: 0x2000000, Pages: 16, Attribute: 0xF},
		},
	}
}

// ParseConfig decodes TOML over DefaultConfig. Keys absent from data keep
// their defaults.
func ParseConfig(data string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("sim: parse config: %w", err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return Config{}, fmt.Errorf("%w: unknown key %q", ErrConfig, undec[0].String())
	}
	return cfg, cfg.Validate()
}

// LoadConfig reads a TOML file over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("sim: load config: %w", err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return Config{}, fmt.Errorf("%w: %s: unknown key %q", ErrConfig, path, undec[0].String())
	}
	return cfg, cfg.Validate()
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if _, err := c.revision(); err != nil {
		return err
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("%w: pool_size %d", ErrConfig, c.PoolSize)
	}
	if c.DescriptorSize < format.MemoryDescriptorSize || c.DescriptorSize%8 != 0 {
		return fmt.Errorf("%w: descriptor_size %d", ErrConfig, c.DescriptorSize)
	}
	if c.MapSlack < 0 {
		return fmt.Errorf("%w: map_slack %d", ErrConfig, c.MapSlack)
	}
	for i, r := range c.Regions {
		if _, ok := efi.ParseMemoryType(r.Type); !ok {
			return fmt.Errorf("%w: region %d: unknown memory type %q", ErrConfig, i, r.Type)
		}
	}
	return nil
}

// revision encodes Revision as (major << 16) | minor.
func (c Config) revision() (uint32, error) {
	major, minor, ok := strings.Cut(c.Revision, ".")
	if !ok {
		return 0, fmt.Errorf("%w: revision %q", ErrConfig, c.Revision)
	}
	hi, err := strconv.ParseUint(major, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: revision %q: %w", ErrConfig, c.Revision, err)
	}
	lo, err := strconv.ParseUint(minor, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: revision %q: %w", ErrConfig, c.Revision, err)
	}
	return uint32(hi)<<16 | uint32(lo), nil
}

func (c Config) descriptors() []efi.MemoryDescriptor {
	out := make([]efi.MemoryDescriptor, 0, len(c.Regions))
	for _, r := range c.Regions {
		mt, _ := efi.ParseMemoryType(r.Type)
		out = append(out, efi.MemoryDescriptor{
			Type:          mt,
			PhysicalStart: r.Start,
			NumberOfPages: r.Pages,
			Attribute:     r.Attribute,
		})
	}
	return out
}
