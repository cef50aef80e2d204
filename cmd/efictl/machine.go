package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"

	"github.com/joshuapare/efikit/efi/alloc"
	"github.com/joshuapare/efikit/efi/boot"
	"github.com/joshuapare/efikit/efi/fs"
	"github.com/joshuapare/efikit/efi/host/sim"
	"github.com/joshuapare/efikit/efi/owned"
)

// machine is one booted simulation.
type machine struct {
	fw  *sim.Firmware
	a   *alloc.Allocator
	bs  *boot.Services
	img *boot.LoadedImage
}

func loadConfig() (sim.Config, error) {
	if configPath == "" {
		return sim.DefaultConfig(), nil
	}
	return sim.LoadConfig(configPath)
}

func volume() (afero.Fs, error) {
	if volumeDir == "" {
		return afero.NewMemMapFs(), nil
	}
	fi, err := os.Stat(volumeDir)
	if err != nil {
		return nil, fmt.Errorf("volume: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("volume: %s is not a directory", volumeDir)
	}
	return afero.NewBasePathFs(afero.NewOsFs(), volumeDir), nil
}

func bootMachine() (*machine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	fsys, err := volume()
	if err != nil {
		return nil, err
	}
	fw, err := sim.New(cfg, fsys)
	if err != nil {
		return nil, err
	}
	a := alloc.New(fw)
	return &machine{
		fw:  fw,
		a:   a,
		bs:  boot.NewServices(fw, a),
		img: boot.NewLoadedImage(fw.Image(), a),
	}, nil
}

func (m *machine) root() (*owned.Owned[fs.File], error) {
	vol, ok := m.img.Device().FileSystem()
	if !ok {
		return nil, fmt.Errorf("boot device has no file system")
	}
	return vol.OpenRoot()
}

func (m *machine) close() {
	_ = m.fw.Close()
}
