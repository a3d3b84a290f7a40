// Package ingest turns user input (files, pasted text, recordings) into a
// Source that the rest of the pipeline can transcribe.
package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedType is returned for files whose extension is not accepted.
var ErrUnsupportedType = errors.New("only MP3 and TXT files are supported")

// Kind identifies where a Source came from.
type Kind int

const (
	// KindAudioFile is an audio file on disk that needs transcription.
	KindAudioFile Kind = iota
	// KindTextFile is a plain text file whose content is the transcript.
	KindTextFile
	// KindText is raw text pasted by the user.
	KindText
	// KindRecording is a WAV file captured from the microphone.
	KindRecording
)

func (k Kind) String() string {
	switch k {
	case KindAudioFile:
		return "audio"
	case KindTextFile:
		return "text-file"
	case KindText:
		return "text"
	case KindRecording:
		return "recording"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Source is the input of one request or session.
// Path is set for file and recording kinds, Text for KindText.
type Source struct {
	Kind Kind
	Path string
	Text string
}

// NeedsTranscription reports whether the source must go through the speech model.
func (s Source) NeedsTranscription() bool {
	return s.Kind == KindAudioFile || s.Kind == KindRecording
}

// uploadTypes are the extensions accepted by the HTTP upload endpoint.
var uploadTypes = map[string]Kind{
	".mp3": KindAudioFile,
	".txt": KindTextFile,
}

// localTypes extends uploadTypes with formats ffmpeg can convert for
// local callers (interactive flow and watcher).
var localTypes = map[string]Kind{
	".mp3":  KindAudioFile,
	".wav":  KindAudioFile,
	".m4a":  KindAudioFile,
	".ogg":  KindAudioFile,
	".flac": KindAudioFile,
	".webm": KindAudioFile,
	".txt":  KindTextFile,
}

// Ext returns the lowercased extension of name.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// IsUploadable reports whether name has an extension the upload endpoint accepts.
func IsUploadable(name string) bool {
	_, ok := uploadTypes[Ext(name)]
	return ok
}

// IsSupported reports whether name can be used as a local source.
func IsSupported(name string) bool {
	_, ok := localTypes[Ext(name)]
	return ok
}

// SourceFromPath classifies a file path by extension.
func SourceFromPath(path string) (Source, error) {
	kind, ok := localTypes[Ext(path)]
	if !ok {
		return Source{}, fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Base(path))
	}
	return Source{Kind: kind, Path: path}, nil
}

// UploadSourceFromPath classifies a path using the narrower set of
// extensions the HTTP service accepts.
func UploadSourceFromPath(path string) (Source, error) {
	kind, ok := uploadTypes[Ext(path)]
	if !ok {
		return Source{}, fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Base(path))
	}
	return Source{Kind: kind, Path: path}, nil
}

// TextSource wraps raw text.
func TextSource(text string) Source {
	return Source{Kind: KindText, Text: text}
}

// RecordingSource wraps a freshly captured WAV file.
func RecordingSource(path string) Source {
	return Source{Kind: KindRecording, Path: path}
}
