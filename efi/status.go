package efi

import (
	"fmt"
	"math/bits"
)

// Status is an EFI_STATUS. The high bit of the machine word marks an error.
// Status implements error so host failures can be wrapped and matched with
// errors.Is / errors.As.
type Status uint64

const errorBit = uint64(1) << (bits.UintSize - 1)

const (
	Success Status = 0

	LoadError        = Status(errorBit | 1)
	InvalidParameter = Status(errorBit | 2)
	Unsupported      = Status(errorBit | 3)
	BadBufferSize    = Status(errorBit | 4)
	BufferTooSmall   = Status(errorBit | 5)
	NotReady         = Status(errorBit | 6)
	DeviceError      = Status(errorBit | 7)
	WriteProtected   = Status(errorBit | 8)
	OutOfResources   = Status(errorBit | 9)
	VolumeCorrupted  = Status(errorBit | 10)
	VolumeFull       = Status(errorBit | 11)
	NoMedia          = Status(errorBit | 12)
	NotFound         = Status(errorBit | 14)
	AccessDenied     = Status(errorBit | 15)
	EndOfFile        = Status(errorBit | 31)
	Aborted          = Status(errorBit | 21)
)

var statusText = map[Status]string{
	Success:          "the operation completed successfully",
	LoadError:        "the image failed to load",
	InvalidParameter: "a parameter was incorrect",
	Unsupported:      "the operation is not supported",
	BadBufferSize:    "the buffer was not the proper size for the request",
	BufferTooSmall:   "the buffer is not large enough",
	NotReady:         "there is no data pending upon return",
	DeviceError:      "the physical device reported an error",
	WriteProtected:   "the device cannot be written to",
	OutOfResources:   "a resource has run out",
	VolumeCorrupted:  "an inconstancy was detected on the file system",
	VolumeFull:       "there is no more space on the file system",
	NoMedia:          "the device does not contain any medium",
	NotFound:         "the item was not found",
	AccessDenied:     "access was denied",
	EndOfFile:        "there is no more data in the file",
	Aborted:          "the operation was aborted",
}

// IsSuccess reports whether s is Success.
func (s Status) IsSuccess() bool { return s == Success }

// IsError reports whether the error bit is set.
func (s Status) IsError() bool { return uint64(s)&errorBit != 0 }

// Err returns nil for Success and s otherwise.
func (s Status) Err() error {
	if s.IsSuccess() {
		return nil
	}
	return s
}

func (s Status) Error() string {
	if t, ok := statusText[s]; ok {
		return t
	}
	return fmt.Sprintf("status %#x", uint64(s))
}

func (s Status) String() string { return s.Error() }
