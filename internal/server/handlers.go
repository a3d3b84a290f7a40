package server

import (
	"errors"
	"mime/multipart"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/chaz8081/gostt-summarizer/internal/ingest"
	"github.com/chaz8081/gostt-summarizer/internal/summarize"
	"github.com/chaz8081/gostt-summarizer/internal/transcribe"
)

const (
	msgNoFilePart      = "No file part"
	msgNoSelectedFile  = "No selected file"
	msgUnsupported     = "Only MP3 and TXT files are supported"
	msgInvalidPath     = "Invalid file path"
	msgNothingToDo     = "No transcript or file path provided"
	msgNoPastedText    = "No pasted text provided"
	msgTextProcessed   = "Pasted text processed successfully"
	msgTxtUploaded     = "TXT file uploaded successfully"
	msgFileUploaded    = "File uploaded successfully"
	msgInvalidJSONBody = "Invalid JSON body"
)

type transcribeRequest struct {
	Filepath string `json:"filepath"`
}

type summarizeRequest struct {
	Transcript string `json:"transcript"`
	Filepath   string `json:"filepath"`
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func (s *Server) handleUpload(c *fiber.Ctx) error {
	// MultipartForm fails for url-encoded bodies, which may still carry pasted_text.
	form, _ := c.MultipartForm()

	var files []*multipart.FileHeader
	if form != nil {
		files = form.File["file"]
	}

	if len(files) == 0 {
		if text := c.FormValue("pasted_text"); strings.TrimSpace(text) != "" {
			return c.JSON(fiber.Map{"message": msgTextProcessed, "pasted_text": text})
		}
		// A file input submitted with nothing chosen arrives as an empty value.
		if form != nil {
			if _, ok := form.Value["file"]; ok {
				return fail(c, fiber.StatusBadRequest, msgNoSelectedFile)
			}
		}
		return fail(c, fiber.StatusBadRequest, msgNoFilePart)
	}

	fh := files[0]
	if fh.Filename == "" {
		return fail(c, fiber.StatusBadRequest, msgNoSelectedFile)
	}
	if !ingest.IsUploadable(fh.Filename) {
		return fail(c, fiber.StatusUnsupportedMediaType, msgUnsupported)
	}

	f, err := fh.Open()
	if err != nil {
		s.logger.Error("open upload", "file", fh.Filename, "error", err)
		return fail(c, fiber.StatusBadRequest, "Could not read uploaded file")
	}
	defer f.Close()

	path, err := s.uploads.Save(fh.Filename, f)
	if err != nil {
		return s.pipelineError(c, err)
	}
	s.logger.Info("file uploaded", "path", path, "bytes", fh.Size)

	if ingest.Ext(path) == ".txt" {
		content, err := os.ReadFile(path)
		if err != nil {
			return s.pipelineError(c, err)
		}
		return c.JSON(fiber.Map{"message": msgTxtUploaded, "filepath": path, "content": string(content)})
	}
	return c.JSON(fiber.Map{"message": msgFileUploaded, "filepath": path})
}

func (s *Server) handleTranscribe(c *fiber.Ctx) error {
	var req transcribeRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, msgInvalidJSONBody)
	}
	if req.Filepath == "" {
		return fail(c, fiber.StatusBadRequest, msgInvalidPath)
	}
	if _, err := os.Stat(req.Filepath); err != nil {
		return fail(c, fiber.StatusNotFound, msgInvalidPath)
	}

	src, err := ingest.UploadSourceFromPath(req.Filepath)
	if err != nil {
		return s.pipelineError(c, err)
	}

	text, err := s.runner.Transcribe(c.UserContext(), src)
	if err != nil {
		return s.pipelineError(c, err)
	}
	return c.JSON(fiber.Map{"transcription": text})
}

func (s *Server) handleSummarize(c *fiber.Ctx) error {
	var req summarizeRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, msgInvalidJSONBody)
	}
	if req.Transcript == "" && req.Filepath == "" {
		return fail(c, fiber.StatusBadRequest, msgNothingToDo)
	}

	transcript := req.Transcript
	if req.Filepath != "" {
		if _, err := os.Stat(req.Filepath); err != nil {
			return fail(c, fiber.StatusNotFound, msgInvalidPath)
		}
		src, err := ingest.UploadSourceFromPath(req.Filepath)
		if err != nil {
			return s.pipelineError(c, err)
		}
		transcript, err = s.runner.Transcribe(c.UserContext(), src)
		if err != nil {
			return s.pipelineError(c, err)
		}
	}

	res, err := s.runner.Summarize(c.UserContext(), transcript)
	if err != nil {
		return s.pipelineError(c, err)
	}
	return c.JSON(fiber.Map{"summary": res.Summary, "record": res.RecordPath})
}

func (s *Server) handlePasteText(c *fiber.Ctx) error {
	text := c.FormValue("pasted_text")
	if strings.TrimSpace(text) == "" {
		return fail(c, fiber.StatusBadRequest, msgNoPastedText)
	}

	res, err := s.runner.Summarize(c.UserContext(), text)
	if err != nil {
		return s.pipelineError(c, err)
	}
	return c.JSON(fiber.Map{"message": msgTextProcessed, "pasted_text": text, "summary": res.Summary})
}

// pipelineError maps the error taxonomy onto HTTP statuses.
func (s *Server) pipelineError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := err.Error()

	switch {
	case errors.Is(err, ingest.ErrUnsupportedType):
		status, msg = fiber.StatusUnsupportedMediaType, msgUnsupported
	case errors.Is(err, ingest.ErrEmptyFilename):
		status, msg = fiber.StatusBadRequest, msgNoSelectedFile
	case errors.Is(err, transcribe.ErrFileNotFound):
		status, msg = fiber.StatusNotFound, msgInvalidPath
	case errors.Is(err, transcribe.ErrInvalidAudio),
		errors.Is(err, summarize.ErrEmptyTranscript):
		status = fiber.StatusBadRequest
	case errors.Is(err, summarize.ErrBackend),
		errors.Is(err, summarize.ErrEmptyResponse):
		status = fiber.StatusBadGateway
	}

	level := s.logger.Warn
	if status >= fiber.StatusInternalServerError {
		level = s.logger.Error
	}
	level("request failed", "path", c.Path(), "status", status, "error", err)

	return fail(c, status, msg)
}
