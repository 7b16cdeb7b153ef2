package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// wavReader reads 16-bit PCM WAV files chunk by chunk.
type wavReader struct {
	file       *os.File
	sampleRate int
	channels   int
	dataLeft   int
}

func openWAV(path string) (*wavReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	riff := make([]byte, 12)
	if _, err := io.ReadFull(f, riff); err != nil {
		f.Close()
		return nil, fmt.Errorf("audio: short riff header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		f.Close()
		return nil, fmt.Errorf("audio: %s is not a wav file", path)
	}

	r := &wavReader{file: f}
	foundFmt := false
	for {
		hdr := make([]byte, 8)
		if _, err := io.ReadFull(f, hdr); err != nil {
			f.Close()
			return nil, fmt.Errorf("audio: missing data chunk: %w", err)
		}
		id := string(hdr[0:4])
		size := binary.LittleEndian.Uint32(hdr[4:8])
		pad := int64(size % 2)

		switch id {
		case "fmt ":
			if size < 16 {
				f.Close()
				return nil, fmt.Errorf("audio: fmt chunk too small")
			}
			fmtData := make([]byte, size)
			if _, err := io.ReadFull(f, fmtData); err != nil {
				f.Close()
				return nil, err
			}
			if pad > 0 {
				f.Seek(pad, io.SeekCurrent)
			}
			r.channels = int(binary.LittleEndian.Uint16(fmtData[2:4]))
			r.sampleRate = int(binary.LittleEndian.Uint32(fmtData[4:8]))
			if bits := binary.LittleEndian.Uint16(fmtData[14:16]); bits != 16 {
				f.Close()
				return nil, fmt.Errorf("audio: only 16-bit pcm supported, got %d-bit", bits)
			}
			foundFmt = true
		case "data":
			if !foundFmt {
				f.Close()
				return nil, fmt.Errorf("audio: data chunk before fmt chunk")
			}
			r.dataLeft = int(size)
			return r, nil
		default:
			if _, err := f.Seek(int64(size)+pad, io.SeekCurrent); err != nil {
				f.Close()
				return nil, err
			}
		}
	}
}

// Read fills p with PCM bytes, returning io.EOF once the data chunk is
// exhausted.
func (r *wavReader) Read(p []byte) (int, error) {
	if r.dataLeft <= 0 {
		return 0, io.EOF
	}
	if len(p) > r.dataLeft {
		p = p[:r.dataLeft]
	}
	n, err := r.file.Read(p)
	r.dataLeft -= n
	if err == nil && r.dataLeft == 0 {
		err = io.EOF
	}
	return n, err
}

func (r *wavReader) Close() error { return r.file.Close() }
