package daemon

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"slidecast/internal/api"
	"slidecast/internal/logging"
)

// uploadFormField is the multipart field carrying the audio blob.
const uploadFormField = "audio"

// audioExtensions maps accepted audio MIME types to on-disk extensions.
var audioExtensions = map[string]string{
	"audio/mpeg":  ".mp3",
	"audio/mp3":   ".mp3",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/mp4":   ".mp4",
	"audio/m4a":   ".m4a",
	"audio/x-m4a": ".m4a",
	"audio/webm":  ".webm",
	"audio/ogg":   ".ogg",
}

// handleUpload stores a multipart audio blob and attaches it to the deck.
// AttachAudio returns the deck to processing, so a re-upload restarts the
// pipeline for errored and completed decks alike.
func (s *apiServer) handleUpload(w http.ResponseWriter, r *http.Request, id int64) {
	existing, err := s.daemon.store.GetByID(r.Context(), id)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if existing == nil {
		s.writeError(w, http.StatusNotFound, "deck not found")
		return
	}

	maxBytes := s.cfg.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusBadRequest,
				fmt.Sprintf("audio file exceeds the %d byte upload limit", maxBytes))
			return
		}
		s.writeError(w, http.StatusBadRequest, "multipart audio field is required")
		return
	}
	defer file.Close()

	ext, err := audioExtension(header.Header.Get("Content-Type"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fileID := uuid.NewString()
	audioPath := filepath.Join(s.cfg.Paths.AudioDir, fileID+ext)
	if err := saveAudioFile(audioPath, file); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusBadRequest,
				fmt.Sprintf("audio file exceeds the %d byte upload limit", maxBytes))
			return
		}
		s.writeFailure(w, err)
		return
	}

	updated, err := s.daemon.store.AttachAudio(r.Context(), id, audioPath, fileID)
	if err != nil {
		_ = os.Remove(audioPath)
		s.writeFailure(w, err)
		return
	}

	s.log().Info("audio attached",
		logging.Int64(logging.FieldDeckID, id),
		logging.String("audio_file", filepath.Base(audioPath)),
		logging.Int64("size_bytes", header.Size))
	s.writeJSON(w, http.StatusOK, api.DeckResponse{Deck: api.FromDeck(updated)})
}

// audioExtension validates the declared MIME type against the allow-list and
// returns the extension used for the stored blob.
func audioExtension(contentType string) (string, error) {
	trimmed := strings.TrimSpace(contentType)
	if trimmed == "" {
		return "", errors.New("audio content type is required")
	}
	mediaType, _, err := mime.ParseMediaType(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid audio content type %q", trimmed)
	}
	ext, ok := audioExtensions[strings.ToLower(mediaType)]
	if !ok {
		return "", fmt.Errorf("unsupported audio type %q: accepted types are mpeg, wav, mp4, m4a, webm, ogg", mediaType)
	}
	return ext, nil
}

func saveAudioFile(path string, src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create audio directory: %w", err)
	}
	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create audio file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write audio file: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("close audio file: %w", err)
	}
	return nil
}
