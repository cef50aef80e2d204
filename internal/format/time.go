package format

import (
	"fmt"

	"github.com/joshuapare/efikit/efi"
	"github.com/joshuapare/efikit/internal/buf"
)

// DecodeTime reads an EFI_TIME from b.
func DecodeTime(b []byte) (efi.Time, error) {
	if !buf.Has(b, 0, TimeSize) {
		return efi.Time{}, fmt.Errorf("time: %w", ErrTruncated)
	}
	return efi.Time{
		Year:       ReadU16(b, TimeYearOffset),
		Month:      b[TimeMonthOffset],
		Day:        b[TimeDayOffset],
		Hour:       b[TimeHourOffset],
		Minute:     b[TimeMinuteOffset],
		Second:     b[TimeSecondOffset],
		Nanosecond: ReadU32(b, TimeNanosecondOffset),
		TimeZone:   ReadI16(b, TimeZoneOffset),
		Daylight:   b[TimeDaylightOffset],
	}, nil
}

// PutTime writes t into b, zeroing the padding bytes.
func PutTime(b []byte, t efi.Time) {
	clear(b[:TimeSize])
	PutU16(b, TimeYearOffset, t.Year)
	b[TimeMonthOffset] = t.Month
	b[TimeDayOffset] = t.Day
	b[TimeHourOffset] = t.Hour
	b[TimeMinuteOffset] = t.Minute
	b[TimeSecondOffset] = t.Second
	PutU32(b, TimeNanosecondOffset, t.Nanosecond)
	PutI16(b, TimeZoneOffset, t.TimeZone)
	b[TimeDaylightOffset] = t.Daylight
}
