package metadata

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tunesport/pkg/models"

	"github.com/dhowden/tag"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/sirupsen/logrus"
	"github.com/tcolgate/mp3"
)

// DefaultFormats are the extensions ExtractFromFile knows how to time.
var DefaultFormats = []string{".mp3", ".flac", ".wav", ".m4a"}

// Extractor reads tags and real durations from audio files on disk
type Extractor struct {
	supportedFormats []string
	logger           *logrus.Logger
	durations        map[string]func(string) (int, error)
}

// NewExtractor creates a new metadata extractor
func NewExtractor(supportedFormats []string, logger *logrus.Logger) *Extractor {
	e := &Extractor{
		supportedFormats: supportedFormats,
		logger:           logger,
	}
	e.durations = map[string]func(string) (int, error){
		".mp3":  e.durationMP3,
		".flac": durationFLAC,
		".wav":  durationWAV,
		".m4a":  durationM4A,
	}
	return e
}

// ExtractFromFile reads the tags, size and duration of an audio file.
// Files without readable tags still return a FileInfo titled after the
// file name, with Tagged unset.
func (e *Extractor) ExtractFromFile(filePath string) (models.FileInfo, error) {
	startTime := time.Now()

	file, err := os.Open(filePath)
	if err != nil {
		return models.FileInfo{}, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return models.FileInfo{}, err
	}

	info := models.FileInfo{
		Path:        filePath,
		Title:       strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath)),
		FileSize:    stat.Size(),
		ContentType: e.GetContentType(filePath),
	}

	duration, err := e.calculateDuration(filePath)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"filePath": filePath,
			"error":    err.Error(),
		}).Debug("Failed to calculate duration")
	}
	info.Duration = duration

	metadata, err := tag.ReadFrom(file)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"filePath": filePath,
			"error":    err.Error(),
		}).Debug("No readable tags, using filename")
		return info, nil
	}

	info.Tagged = true
	if title := metadata.Title(); title != "" {
		info.Title = title
	}
	info.Artist = metadata.Artist()
	info.Album = metadata.Album()
	info.TrackNumber, _ = metadata.Track()
	info.HasAlbumArt = metadata.Picture() != nil

	e.logger.WithFields(logrus.Fields{
		"filePath":       filePath,
		"title":          info.Title,
		"duration":       info.Duration,
		"processingTime": time.Since(startTime),
	}).Debug("Extracted metadata")

	return info, nil
}

func (e *Extractor) calculateDuration(filePath string) (int, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	fn, ok := e.durations[ext]
	if !ok {
		return 0, fmt.Errorf("unsupported format: %s", ext)
	}
	return fn(filePath)
}

// durationMP3 sums decoded frame durations. A file where no frame decodes
// falls back to a 192 kbps size estimate.
func (e *Extractor) durationMP3(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := mp3.NewDecoder(f)
	var (
		total   time.Duration
		skipped int
		frames  int
	)
	for {
		var fr mp3.Frame
		if err := dec.Decode(&fr, &skipped); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if frames == 0 {
				return estimateFromFileSize(path, 192000)
			}
			break
		}
		total += fr.Duration()
		frames++
	}
	return int(total.Seconds() + 0.5), nil
}

// durationFLAC reads the STREAMINFO block
func durationFLAC(path string) (int, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return 0, err
	}
	defer stream.Close()

	si := stream.Info
	if si.NSamples == 0 || si.SampleRate == 0 {
		return 0, errors.New("flac stream missing sample info")
	}
	return int(float64(si.NSamples)/float64(si.SampleRate) + 0.5), nil
}

func durationWAV(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, errors.New("invalid wav file")
	}
	if dec.SampleRate == 0 || dec.BitDepth == 0 || dec.NumChans == 0 {
		return 0, errors.New("invalid wav header")
	}
	st, err := f.Stat()
	if err != nil {
		return 0, err
	}

	// assumes a canonical 44 byte header
	pcmBytes := st.Size() - 44
	if pcmBytes < 0 {
		pcmBytes = 0
	}
	frameSize := int64(dec.BitDepth/8) * int64(dec.NumChans)
	if frameSize <= 0 {
		return 0, errors.New("invalid sample frame size")
	}
	secs := float64(pcmBytes/frameSize) / float64(dec.SampleRate)
	return int(secs + 0.5), nil
}

// durationM4A reads timescale and duration from moov/mvhd.
func durationM4A(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if _, err := findAtom(f, "moov"); err != nil {
		return 0, err
	}
	if _, err := findAtom(f, "mvhd"); err != nil {
		return 0, err
	}

	var version [4]byte // version + flags
	if _, err := io.ReadFull(f, version[:]); err != nil {
		return 0, err
	}
	if version[0] == 1 {
		// 64-bit creation and modification times
		if _, err := f.Seek(16, io.SeekCurrent); err != nil {
			return 0, err
		}
		var buf [12]byte
		if _, err := io.ReadFull(f, buf[:]); err != nil {
			return 0, err
		}
		return scaleDuration(binary.BigEndian.Uint32(buf[0:4]), binary.BigEndian.Uint64(buf[4:12]))
	}
	if _, err := f.Seek(8, io.SeekCurrent); err != nil {
		return 0, err
	}
	var buf [8]byte
	if _, err := io.ReadFull(f, buf[:]); err != nil {
		return 0, err
	}
	return scaleDuration(binary.BigEndian.Uint32(buf[0:4]), uint64(binary.BigEndian.Uint32(buf[4:8])))
}

func scaleDuration(timescale uint32, units uint64) (int, error) {
	if timescale == 0 {
		return 0, errors.New("invalid timescale")
	}
	return int(float64(units)/float64(timescale) + 0.5), nil
}

// findAtom advances r to the payload of the next atom named name, skipping
// siblings. It returns the payload size.
func findAtom(r io.ReadSeeker, name string) (int64, error) {
	for {
		size, atom, err := readAtomHeader(r)
		if errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("%s atom not found", name)
		}
		if err != nil {
			return 0, err
		}
		if atom == name {
			return size - 8, nil
		}
		if _, err := r.Seek(size-8, io.SeekCurrent); err != nil {
			return 0, err
		}
	}
}

func readAtomHeader(r io.Reader) (int64, string, error) {
	var head [8]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return 0, "", err
	}
	size := int64(binary.BigEndian.Uint32(head[0:4]))
	if size < 8 {
		return 0, "", errors.New("invalid atom size")
	}
	return size, string(head[4:8]), nil
}

func estimateFromFileSize(path string, bitrate int) (int, error) {
	if bitrate <= 0 {
		return 0, errors.New("invalid bitrate")
	}
	st, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return int((st.Size() * 8) / int64(bitrate)), nil
}

// IsAudioFile checks if a file is a supported audio format
func (e *Extractor) IsAudioFile(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, format := range e.supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

// GetContentType returns the MIME type for an audio file
func (e *Extractor) GetContentType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".mp3":
		return "audio/mpeg"
	case ".flac":
		return "audio/flac"
	case ".wav":
		return "audio/wav"
	case ".m4a":
		return "audio/mp4"
	default:
		return "application/octet-stream"
	}
}
