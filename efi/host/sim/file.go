package sim

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/joshuapare/efikit/efi"
	"github.com/joshuapare/efikit/efi/host"
	"github.com/joshuapare/efikit/efi/ucs2"
	"github.com/joshuapare/efikit/internal/format"
	"github.com/joshuapare/efikit/internal/logger"
)

// unspecifiedTimeZone is EFI_UNSPECIFIED_TIMEZONE.
const unspecifiedTimeZone = 0x07FF

// handle is an open file or directory on the volume.
type handle struct {
	fw    *Firmware
	vol   *volume
	name  string // slash-separated, rooted at "/"
	modes efi.FileModes
	dir   bool
	f     afero.File // nil for directories

	pos     uint64
	entries []os.FileInfo // directory snapshot, taken on first read
	closed  bool
}

var _ host.File = (*handle)(nil)

func (fw *Firmware) newHandle(v *volume, name string, modes efi.FileModes) *handle {
	fw.open.Add(1)
	return &handle{fw: fw, vol: v, name: name, modes: modes, dir: true}
}

func validModes(m efi.FileModes) bool {
	switch m {
	case efi.FileModeRead,
		efi.FileModeRead | efi.FileModeWrite,
		efi.FileModeRead | efi.FileModeWrite | efi.FileModeCreate:
		return true
	}
	return false
}

// resolve turns a '\'-separated name into a volume path relative to h.
func (h *handle) resolve(name string) string {
	base := h.name
	if !h.dir {
		base = path.Dir(base)
	}
	if strings.HasPrefix(name, `\`) {
		base = "/"
	}
	return path.Join(base, strings.ReplaceAll(name, `\`, "/"))
}

func statusOf(err error) efi.Status {
	switch {
	case err == nil:
		return efi.Success
	case errors.Is(err, fs.ErrNotExist):
		return efi.NotFound
	case errors.Is(err, fs.ErrPermission):
		return efi.AccessDenied
	case errors.Is(err, fs.ErrExist):
		return efi.AccessDenied
	default:
		return efi.DeviceError
	}
}

// Open implements host.File.
func (h *handle) Open(units []uint16, modes efi.FileModes, attrs efi.FileAttributes) (host.File, efi.Status) {
	if h.closed || !validModes(modes) {
		return nil, efi.InvalidParameter
	}
	s, err := ucs2.FromUnits(units)
	if err != nil {
		return nil, efi.InvalidParameter
	}
	name := h.resolve(s.String())
	fsys := h.vol.fs

	fi, err := fsys.Stat(name)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && modes&efi.FileModeCreate != 0:
		if attrs.Has(efi.FileDirectory) {
			err = fsys.Mkdir(name, 0o755)
		} else {
			var f afero.File
			f, err = fsys.OpenFile(name, os.O_RDWR|os.O_CREATE, 0o644)
			if err == nil {
				err = f.Close()
			}
		}
		if err != nil {
			logger.Debug("sim: create failed", "name", name, "err", err)
			return nil, statusOf(err)
		}
		if fi, err = fsys.Stat(name); err != nil {
			return nil, statusOf(err)
		}
	default:
		return nil, statusOf(err)
	}

	if modes&efi.FileModeWrite != 0 && fi.Mode().Perm()&0o200 == 0 {
		return nil, efi.WriteProtected
	}
	nh := &handle{fw: h.fw, vol: h.vol, name: name, modes: modes, dir: fi.IsDir()}
	if !nh.dir {
		flag := os.O_RDONLY
		if modes&efi.FileModeWrite != 0 {
			flag = os.O_RDWR
		}
		f, err := fsys.OpenFile(name, flag, 0)
		if err != nil {
			return nil, statusOf(err)
		}
		nh.f = f
	}
	h.fw.open.Add(1)
	logger.Debug("sim: open", "name", name, "modes", uint64(modes), "dir", nh.dir)
	return nh, efi.Success
}

// Close implements host.File.
func (h *handle) Close() efi.Status {
	if h.closed {
		return efi.InvalidParameter
	}
	h.closed = true
	h.fw.open.Add(-1)
	if h.f != nil {
		return statusOf(h.f.Close())
	}
	return efi.Success
}

// Read implements host.File. Directories yield one EFI_FILE_INFO per call.
func (h *handle) Read(buf []byte) (int, efi.Status) {
	if h.closed {
		return 0, efi.InvalidParameter
	}
	if h.dir {
		return h.readDir(buf)
	}
	n, err := h.f.ReadAt(buf, int64(h.pos))
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, efi.DeviceError
	}
	h.pos += uint64(n)
	return n, efi.Success
}

func (h *handle) readDir(buf []byte) (int, efi.Status) {
	if h.entries == nil {
		entries, err := afero.ReadDir(h.vol.fs, h.name)
		if err != nil {
			return 0, statusOf(err)
		}
		h.entries = entries
	}
	if h.pos >= uint64(len(h.entries)) {
		return 0, efi.Success
	}
	n, st := putInfo(buf, h.entries[h.pos], h.entries[h.pos].Name())
	if st.IsSuccess() {
		h.pos++
	}
	return n, st
}

// Write implements host.File.
func (h *handle) Write(buf []byte) (int, efi.Status) {
	switch {
	case h.closed:
		return 0, efi.InvalidParameter
	case h.dir:
		return 0, efi.Unsupported
	case h.modes&efi.FileModeWrite == 0:
		return 0, efi.AccessDenied
	}
	n, err := h.f.WriteAt(buf, int64(h.pos))
	h.pos += uint64(n)
	if err != nil {
		return n, efi.DeviceError
	}
	return n, efi.Success
}

// SetPosition implements host.File. Directories only accept 0, which
// restarts the listing.
func (h *handle) SetPosition(pos uint64) efi.Status {
	if h.closed {
		return efi.InvalidParameter
	}
	if h.dir {
		if pos != 0 {
			return efi.Unsupported
		}
		h.pos, h.entries = 0, nil
		return efi.Success
	}
	if pos == ^uint64(0) {
		fi, err := h.f.Stat()
		if err != nil {
			return efi.DeviceError
		}
		pos = uint64(fi.Size())
	}
	h.pos = pos
	return efi.Success
}

// GetInfo implements host.File for the file info type.
func (h *handle) GetInfo(id efi.Guid, buf []byte) (int, efi.Status) {
	if h.closed {
		return 0, efi.InvalidParameter
	}
	if id != efi.FileInfoID {
		return 0, efi.Unsupported
	}
	fi, err := h.vol.fs.Stat(h.name)
	if err != nil {
		return 0, statusOf(err)
	}
	name := ""
	if h.name != "/" {
		name = path.Base(h.name)
	}
	return putInfo(buf, fi, name)
}

// SetInfo implements host.File. It applies size, modification time, the
// read-only attribute and renames within the same directory.
func (h *handle) SetInfo(id efi.Guid, buf []byte) efi.Status {
	if h.closed {
		return efi.InvalidParameter
	}
	if id != efi.FileInfoID {
		return efi.Unsupported
	}
	info, units, err := format.ParseFileInfo(buf)
	if err != nil {
		return efi.BadBufferSize
	}
	name, err := ucs2.FromUnits(units)
	if err != nil {
		return efi.InvalidParameter
	}
	fsys := h.vol.fs
	cur, err := fsys.Stat(h.name)
	if err != nil {
		return statusOf(err)
	}
	if info.Attribute.Has(efi.FileDirectory) != cur.IsDir() {
		return efi.AccessDenied
	}

	if !h.dir && info.FileSize != uint64(cur.Size()) {
		if h.modes&efi.FileModeWrite == 0 {
			return efi.AccessDenied
		}
		if err := h.f.Truncate(int64(info.FileSize)); err != nil {
			return statusOf(err)
		}
	}
	if !info.ModifyTime.IsZero() {
		mt := fromEFITime(info.ModifyTime)
		at := mt
		if !info.AccessTime.IsZero() {
			at = fromEFITime(info.AccessTime)
		}
		if err := fsys.Chtimes(h.name, at, mt); err != nil {
			return statusOf(err)
		}
	}
	perm := cur.Mode().Perm()
	if info.Attribute.Has(efi.FileReadOnly) {
		perm &^= 0o222
	} else {
		perm |= 0o200
	}
	if perm != cur.Mode().Perm() {
		if err := fsys.Chmod(h.name, perm); err != nil {
			return statusOf(err)
		}
	}
	if s := name.String(); s != "" && h.name != "/" && s != path.Base(h.name) {
		if strings.ContainsAny(s, `\/`) {
			return efi.InvalidParameter
		}
		to := path.Join(path.Dir(h.name), s)
		if err := fsys.Rename(h.name, to); err != nil {
			return statusOf(err)
		}
		h.name = to
	}
	return efi.Success
}

// Flush implements host.File.
func (h *handle) Flush() efi.Status {
	switch {
	case h.closed:
		return efi.InvalidParameter
	case h.dir:
		return efi.Success
	case h.modes&efi.FileModeWrite == 0:
		return efi.AccessDenied
	}
	return statusOf(h.f.Sync())
}

// putInfo encodes an EFI_FILE_INFO for fi into buf, or reports the size
// required.
func putInfo(buf []byte, fi os.FileInfo, name string) (int, efi.Status) {
	s, err := ucs2.New(name)
	if err != nil {
		return 0, efi.Unsupported
	}
	units := s.Units()
	size := format.FileInfoSize(len(units))
	if len(buf) < size {
		return size, efi.BufferTooSmall
	}
	var attr efi.FileAttributes
	if fi.IsDir() {
		attr |= efi.FileDirectory
	} else {
		attr |= efi.FileArchive
	}
	if fi.Mode().Perm()&0o200 == 0 {
		attr |= efi.FileReadOnly
	}
	mod := toEFITime(fi.ModTime())
	rec := format.FileInfo{
		Attribute:  attr,
		CreateTime: mod,
		AccessTime: mod,
		ModifyTime: mod,
	}
	if !fi.IsDir() {
		rec.FileSize = uint64(fi.Size())
		rec.PhysicalSize = (rec.FileSize + 511) &^ 511
	}
	return format.PutFileInfo(buf, rec, units), efi.Success
}

func toEFITime(t time.Time) efi.Time {
	t = t.UTC()
	return efi.Time{
		Year:       uint16(t.Year()),
		Month:      uint8(t.Month()),
		Day:        uint8(t.Day()),
		Hour:       uint8(t.Hour()),
		Minute:     uint8(t.Minute()),
		Second:     uint8(t.Second()),
		Nanosecond: uint32(t.Nanosecond()),
		TimeZone:   unspecifiedTimeZone,
	}
}

func fromEFITime(t efi.Time) time.Time {
	return time.Date(int(t.Year), time.Month(t.Month), int(t.Day),
		int(t.Hour), int(t.Minute), int(t.Second), int(t.Nanosecond), time.UTC)
}
