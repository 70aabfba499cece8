package audio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	wavHeaderLen     = 44
	wavChannels      = 1
	wavBitsPerSample = 16
	wavFormatPCM     = 1
)

// WriteWAV writes mono 16-bit PCM samples as a RIFF/WAVE file.
func WriteWAV(w io.Writer, samples []int16, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	dataLen := len(samples) * 2
	if uint64(dataLen)+wavHeaderLen-8 > 0xFFFFFFFF {
		return fmt.Errorf("%d samples exceed the 4 GiB WAV limit", len(samples))
	}

	blockAlign := wavChannels * wavBitsPerSample / 8
	byteRate := sampleRate * blockAlign

	hdr := make([]byte, wavHeaderLen)
	le := binary.LittleEndian
	copy(hdr[0:4], "RIFF")
	le.PutUint32(hdr[4:8], uint32(wavHeaderLen-8+dataLen))
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	le.PutUint32(hdr[16:20], 16)
	le.PutUint16(hdr[20:22], wavFormatPCM)
	le.PutUint16(hdr[22:24], wavChannels)
	le.PutUint32(hdr[24:28], uint32(sampleRate))
	le.PutUint32(hdr[28:32], uint32(byteRate))
	le.PutUint16(hdr[32:34], uint16(blockAlign))
	le.PutUint16(hdr[34:36], wavBitsPerSample)
	copy(hdr[36:40], "data")
	le.PutUint32(hdr[40:44], uint32(dataLen))

	bw := bufio.NewWriterSize(w, 64*1024)
	if _, err := bw.Write(hdr); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}
	var sample [2]byte
	for _, s := range samples {
		le.PutUint16(sample[:], uint16(s))
		if _, err := bw.Write(sample[:]); err != nil {
			return fmt.Errorf("write wav data: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write wav data: %w", err)
	}
	return nil
}

// EncodeWAV returns the WAV file for samples as a byte slice.
func EncodeWAV(samples []int16, sampleRate int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(wavHeaderLen + len(samples)*2)
	if err := WriteWAV(&buf, samples, sampleRate); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
