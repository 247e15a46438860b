package corpus

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/RyanBlaney/sonido-pulso/beat"
	"github.com/RyanBlaney/sonido-pulso/logging"
)

// audioExtensions lists the file types registered as corpus tracks
var audioExtensions = map[string]bool{
	".wav":  true,
	".au":   true,
	".mp3":  true,
	".flac": true,
	".ogg":  true,
}

// FSCorpus is a filesystem-backed Provider with the layout
//
//	root/
//	  audio/<genre>/<track_id>.<ext>   audio files, one directory per genre
//	  beats/<track_id>.beats           beat times in seconds, one per line
//	  tempo/<track_id>.bpm             a single tempo value in BPM
//
// beats/ lines may carry a trailing metrical-position column, which is
// ignored. Lines starting with '#' are comments. tempo/ files are optional
// per track; a track with no .bpm file simply has no tempo metadata.
type FSCorpus struct {
	root   string
	ids    []string
	tracks map[string]*trackEntry
	logger logging.Logger
}

type trackEntry struct {
	id        string
	genre     string
	audioPath string
}

// Open loads the dataset index under root. Fails with ErrCorpusNotFound
// when root does not contain an audio/ directory.
func Open(root string) (*FSCorpus, error) {
	audioDir := filepath.Join(root, "audio")
	info, err := os.Stat(audioDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s has no audio/ directory", ErrCorpusNotFound, root)
	}

	c := &FSCorpus{
		root:   root,
		tracks: make(map[string]*trackEntry),
		logger: logging.GetGlobalLogger().WithFields(logging.Fields{"component": "corpus"}),
	}

	genreDirs, err := os.ReadDir(audioDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorpusNotFound, err)
	}

	for _, genreDir := range genreDirs {
		if !genreDir.IsDir() {
			continue
		}
		genre := genreDir.Name()

		files, err := os.ReadDir(filepath.Join(audioDir, genre))
		if err != nil {
			continue
		}

		for _, file := range files {
			if file.IsDir() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(file.Name()))
			if !audioExtensions[ext] {
				continue
			}

			id := strings.TrimSuffix(file.Name(), filepath.Ext(file.Name()))
			if _, exists := c.tracks[id]; exists {
				c.logger.Warn("duplicate track id, keeping first", logging.Fields{"track_id": id})
				continue
			}

			c.tracks[id] = &trackEntry{
				id:        id,
				genre:     genre,
				audioPath: filepath.Join(audioDir, genre, file.Name()),
			}
			c.ids = append(c.ids, id)
		}
	}

	if len(c.ids) == 0 {
		return nil, fmt.Errorf("%w: %s contains no audio files", ErrCorpusNotFound, root)
	}

	sort.Strings(c.ids)

	c.logger.Info("opened corpus", logging.Fields{
		"root":   root,
		"tracks": len(c.ids),
	})

	return c, nil
}

// TrackIDs lists every track identifier in sorted order
func (c *FSCorpus) TrackIDs() []string {
	ids := make([]string, len(c.ids))
	copy(ids, c.ids)
	return ids
}

// AudioPath returns the audio file path for a track
func (c *FSCorpus) AudioPath(trackID string) (string, error) {
	entry, ok := c.tracks[trackID]
	if !ok {
		return "", fmt.Errorf("unknown track id %q", trackID)
	}
	return entry.audioPath, nil
}

// ReferenceBeats parses beats/<id>.beats into a beat sequence. The returned
// sequence is sorted ascending; duplicate timestamps are dropped.
func (c *FSCorpus) ReferenceBeats(trackID string) (beat.BeatSequence, error) {
	if _, ok := c.tracks[trackID]; !ok {
		return nil, fmt.Errorf("unknown track id %q", trackID)
	}

	path := filepath.Join(c.root, "beats", trackID+".beats")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("no reference beats for track %q: %v", trackID, err)
	}
	defer f.Close()

	var beats beat.BeatSequence

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		t, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("bad beat annotation in %s: %q", path, line)
		}
		beats = append(beats, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %v", path, err)
	}

	sort.Float64s(beats)

	// Enforce strict monotonicity
	deduped := beats[:0]
	for i, t := range beats {
		if i == 0 || t > deduped[len(deduped)-1] {
			deduped = append(deduped, t)
		}
	}

	return deduped, nil
}

// Genre returns the genre label derived from the audio directory layout
func (c *FSCorpus) Genre(trackID string) (string, bool) {
	entry, ok := c.tracks[trackID]
	if !ok {
		return "", false
	}
	return entry.genre, true
}

// Tempo parses tempo/<id>.bpm; absence of the file means no tempo metadata
func (c *FSCorpus) Tempo(trackID string) (float64, bool) {
	if _, ok := c.tracks[trackID]; !ok {
		return 0, false
	}

	path := filepath.Join(c.root, "tempo", trackID+".bpm")
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}

	tempo, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil || tempo <= 0 {
		c.logger.Warn("unparseable tempo annotation", logging.Fields{"track_id": trackID})
		return 0, false
	}

	return tempo, true
}
