// Package mseed decodes SEED 2.4 data records ("MiniSEED") into waveform
// segments.
//
// Supported encodings are INT16, INT32, FLOAT32, FLOAT64, STEIM1 and STEIM2.
// Every record must carry blockette 1000. Consecutive records from the same
// channel that are contiguous in time are joined into a single segment.
package mseed

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/couchcryptid/hydrophone-sonify/internal/domain"
)

const (
	fixedHeaderLen = 48
	steimFrameLen  = 64

	encodingInt16   = 1
	encodingInt32   = 3
	encodingFloat32 = 4
	encodingFloat64 = 5
	encodingSteim1  = 10
	encodingSteim2  = 11

	blocketteRate = 100
	blocketteData = 1000
)

var errNoRecords = errors.New("no miniSEED records found")

// Decoder implements domain.Decoder.
type Decoder struct{}

// NewDecoder creates a MiniSEED decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// record is the parsed header of one data record.
type record struct {
	source     string
	start      time.Time
	rate       float64
	numSamples int
	encoding   byte
	dataOrder  binary.ByteOrder
	length     int
	dataOffset int
}

// Decode parses every record in data and returns the resulting segments in
// file order.
func (d *Decoder) Decode(data []byte) ([]domain.Segment, error) {
	var segs []domain.Segment
	parsed := 0

	for off := 0; off+fixedHeaderLen <= len(data); {
		rec, err := parseHeader(data[off:])
		if err != nil {
			return nil, fmt.Errorf("record at offset %d: %w", off, err)
		}
		if off+rec.length > len(data) {
			return nil, fmt.Errorf("record at offset %d: truncated (need %d bytes, have %d)", off, rec.length, len(data)-off)
		}

		samples, err := decodeSamples(rec, data[off+rec.dataOffset:off+rec.length])
		if err != nil {
			return nil, fmt.Errorf("record at offset %d: %w", off, err)
		}
		off += rec.length
		parsed++

		rate := int(math.Round(rec.rate))
		if rate <= 0 || len(samples) == 0 {
			continue
		}
		segs = appendRecord(segs, rec, rate, samples)
	}

	if parsed == 0 {
		return nil, errNoRecords
	}
	return segs, nil
}

// appendRecord joins samples onto the last segment when the record continues
// it without a gap of more than half a sample period.
func appendRecord(segs []domain.Segment, rec record, rate int, samples []int32) []domain.Segment {
	if n := len(segs); n > 0 {
		last := &segs[n-1]
		if last.Source == rec.source && last.SampleRate == rate {
			period := time.Duration(float64(time.Second) / rec.rate)
			expected := last.StartTime.Add(time.Duration(len(last.Samples)) * period)
			if gap := rec.start.Sub(expected); gap.Abs() <= period/2 {
				last.Samples = append(last.Samples, samples...)
				return segs
			}
		}
	}
	return append(segs, domain.Segment{
		Source:     rec.source,
		Samples:    samples,
		SampleRate: rate,
		StartTime:  rec.start,
	})
}

func parseHeader(buf []byte) (record, error) {
	switch buf[6] {
	case 'D', 'R', 'Q', 'M':
	default:
		return record{}, fmt.Errorf("invalid data quality indicator %q", buf[6])
	}

	order, err := headerByteOrder(buf)
	if err != nil {
		return record{}, err
	}

	rec := record{
		source:     sourceID(buf),
		start:      btime(buf[20:30], order),
		numSamples: int(order.Uint16(buf[30:32])),
		rate:       nominalRate(int16(order.Uint16(buf[32:34])), int16(order.Uint16(buf[34:36]))),
		dataOffset: int(order.Uint16(buf[44:46])),
	}

	// Bit 1 of the activity flags says the correction is already applied.
	if buf[36]&0x02 == 0 {
		corr := int32(order.Uint32(buf[40:44]))
		rec.start = rec.start.Add(time.Duration(corr) * 100 * time.Microsecond)
	}

	found1000 := false
	numBlockettes := int(buf[39])
	next := int(order.Uint16(buf[46:48]))
	for i := 0; i < numBlockettes && next != 0; i++ {
		if next+4 > len(buf) {
			return record{}, fmt.Errorf("blockette offset %d out of range", next)
		}
		kind := order.Uint16(buf[next : next+2])
		following := int(order.Uint16(buf[next+2 : next+4]))

		switch kind {
		case blocketteData:
			if next+8 > len(buf) {
				return record{}, errors.New("blockette 1000 truncated")
			}
			rec.encoding = buf[next+4]
			rec.dataOrder = binary.LittleEndian
			if buf[next+5] == 1 {
				rec.dataOrder = binary.BigEndian
			}
			exp := buf[next+6]
			if exp < 7 || exp > 20 {
				return record{}, fmt.Errorf("invalid record length exponent %d", exp)
			}
			rec.length = 1 << exp
			found1000 = true
		case blocketteRate:
			if next+8 <= len(buf) {
				if r := math.Float32frombits(order.Uint32(buf[next+4 : next+8])); r > 0 {
					rec.rate = float64(r)
				}
			}
		}

		if following != 0 && following <= next {
			return record{}, fmt.Errorf("blockette chain loops at offset %d", following)
		}
		next = following
	}

	if !found1000 {
		return record{}, errors.New("missing blockette 1000")
	}
	if rec.dataOffset < fixedHeaderLen || rec.dataOffset > rec.length {
		if rec.numSamples == 0 {
			rec.dataOffset = rec.length
		} else {
			return record{}, fmt.Errorf("invalid data offset %d", rec.dataOffset)
		}
	}
	return rec, nil
}

// headerByteOrder infers the header byte order from the plausibility of the
// start year.
func headerByteOrder(buf []byte) (binary.ByteOrder, error) {
	if y := binary.BigEndian.Uint16(buf[20:22]); y >= 1900 && y <= 2100 {
		return binary.BigEndian, nil
	}
	if y := binary.LittleEndian.Uint16(buf[20:22]); y >= 1900 && y <= 2100 {
		return binary.LittleEndian, nil
	}
	return nil, errors.New("cannot determine header byte order")
}

func sourceID(buf []byte) string {
	field := func(b []byte) string { return strings.TrimSpace(string(b)) }
	return strings.Join([]string{
		field(buf[18:20]), // network
		field(buf[8:13]),  // station
		field(buf[13:15]), // location
		field(buf[15:18]), // channel
	}, ".")
}

// btime decodes a SEED BTIME: year, day of year, hour, minute, second, unused,
// and ten-thousandths of a second.
func btime(b []byte, order binary.ByteOrder) time.Time {
	year := int(order.Uint16(b[0:2]))
	doy := int(order.Uint16(b[2:4]))
	fract := int(order.Uint16(b[8:10]))
	t := time.Date(year, time.January, 1, int(b[4]), int(b[5]), int(b[6]), 0, time.UTC)
	return t.AddDate(0, 0, doy-1).Add(time.Duration(fract) * 100 * time.Microsecond)
}

// nominalRate applies the SEED sample rate factor and multiplier rules.
func nominalRate(factor, mult int16) float64 {
	if factor == 0 || mult == 0 {
		return 0
	}
	rate := float64(factor)
	if factor < 0 {
		rate = -1 / float64(factor)
	}
	if mult > 0 {
		return rate * float64(mult)
	}
	return rate / -float64(mult)
}

func decodeSamples(rec record, payload []byte) ([]int32, error) {
	n := rec.numSamples
	if n == 0 {
		return nil, nil
	}

	switch rec.encoding {
	case encodingInt16:
		return decodeFixed(payload, n, 2, func(b []byte) int32 { return int32(int16(rec.dataOrder.Uint16(b))) })
	case encodingInt32:
		return decodeFixed(payload, n, 4, func(b []byte) int32 { return int32(rec.dataOrder.Uint32(b)) })
	case encodingFloat32:
		return decodeFixed(payload, n, 4, func(b []byte) int32 {
			return int32(math.Float32frombits(rec.dataOrder.Uint32(b)))
		})
	case encodingFloat64:
		return decodeFixed(payload, n, 8, func(b []byte) int32 {
			return int32(math.Float64frombits(rec.dataOrder.Uint64(b)))
		})
	case encodingSteim1:
		return decodeSteim(payload, n, rec.dataOrder, false)
	case encodingSteim2:
		return decodeSteim(payload, n, rec.dataOrder, true)
	default:
		return nil, fmt.Errorf("unsupported encoding %d", rec.encoding)
	}
}

func decodeFixed(payload []byte, n, width int, conv func([]byte) int32) ([]int32, error) {
	if len(payload) < n*width {
		return nil, fmt.Errorf("payload holds %d bytes, need %d for %d samples", len(payload), n*width, n)
	}
	out := make([]int32, n)
	for i := range out {
		out[i] = conv(payload[i*width:])
	}
	return out, nil
}

// decodeSteim unpacks Steim-1 or Steim-2 compressed frames. The first word of
// each 64-byte frame holds 2-bit codes for the 15 data words that follow;
// frame 0 additionally stores the first and last sample in words 1 and 2.
func decodeSteim(payload []byte, n int, order binary.ByteOrder, steim2 bool) ([]int32, error) {
	diffs := make([]int32, 0, n+7)
	var first int32

	frames := len(payload) / steimFrameLen
	for f := 0; f < frames && len(diffs) < n; f++ {
		frame := payload[f*steimFrameLen : (f+1)*steimFrameLen]
		codes := order.Uint32(frame[0:4])

		for w := 1; w < 16; w++ {
			word := order.Uint32(frame[w*4 : w*4+4])
			if f == 0 && w == 1 {
				first = int32(word)
				continue
			}
			if f == 0 && w == 2 {
				continue
			}

			var err error
			code := (codes >> (30 - 2*uint(w))) & 0x3
			if steim2 {
				diffs, err = unpackSteim2(diffs, code, word)
			} else {
				diffs = unpackSteim1(diffs, code, word)
			}
			if err != nil {
				return nil, fmt.Errorf("frame %d word %d: %w", f, w, err)
			}
		}
	}

	if len(diffs) < n {
		return nil, fmt.Errorf("steim data holds %d differences, header declares %d samples", len(diffs), n)
	}

	out := make([]int32, n)
	out[0] = first
	for i := 1; i < n; i++ {
		out[i] = out[i-1] + diffs[i]
	}
	return out, nil
}

func unpackSteim1(diffs []int32, code, word uint32) []int32 {
	switch code {
	case 1:
		return unpack(diffs, word, 8, 4)
	case 2:
		return unpack(diffs, word, 16, 2)
	case 3:
		return append(diffs, int32(word))
	}
	return diffs
}

func unpackSteim2(diffs []int32, code, word uint32) ([]int32, error) {
	dnib := word >> 30
	switch code {
	case 0:
		return diffs, nil
	case 1:
		return unpack(diffs, word, 8, 4), nil
	case 2:
		switch dnib {
		case 1:
			return unpack(diffs, word, 30, 1), nil
		case 2:
			return unpack(diffs, word, 15, 2), nil
		case 3:
			return unpack(diffs, word, 10, 3), nil
		}
	case 3:
		switch dnib {
		case 0:
			return unpack(diffs, word, 6, 5), nil
		case 1:
			return unpack(diffs, word, 5, 6), nil
		case 2:
			return unpack(diffs, word, 4, 7), nil
		}
	}
	return nil, fmt.Errorf("invalid steim2 code %d/%d", code, dnib)
}

// unpack appends count signed values of the given bit width, taken from the
// low count*bits bits of word, most significant first.
func unpack(diffs []int32, word uint32, bits, count uint) []int32 {
	mask := uint32(1)<<bits - 1
	for i := count; i > 0; i-- {
		v := (word >> ((i - 1) * bits)) & mask
		diffs = append(diffs, signExtend(v, bits))
	}
	return diffs
}

func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}
