package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/anvikal/askapi/internal/config"
	"github.com/anvikal/askapi/internal/domain/docModel"
	"github.com/anvikal/askapi/pkg/logger_i"
)

type rawPage struct {
	Number  int    `json:"number"`
	Content string `json:"content"`
}

type docType string

const (
	typePDF     docType = "pdf"
	typeDoc     docType = "doc"
	typeUnknown docType = "unknown"
)

var logger = logger_i.NewLogger("Note Ingestion")

// FromText turns free-form supplemental text into note documents ready for
// the indexing pipeline. Input beyond the learn cap is truncated, not
// rejected.
func FromText(source string, text string) ([]docModel.Document, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("empty note text")
	}
	if len(text) > config.MaxLearnChars {
		logger.Warn("Note text truncated", "source", source, "length", len(text))
		text = cutAtRuneBoundary(text, config.MaxLearnChars)
	}

	return chunkPages([]rawPage{{Number: 1, Content: text}}, source), nil
}

// FromFile extracts text from a local pdf/docx/txt/rtf file and turns it
// into note documents.
func FromFile(path string) ([]docModel.Document, error) {
	pages, err := extractText(path, getDocType(path))
	if err != nil {
		return nil, err
	}

	total := 0
	for i := range pages {
		if total >= config.MaxLearnChars {
			pages = pages[:i]
			logger.Warn("Document truncated at learn cap", "path", path, "pages_kept", i)
			break
		}
		if total+len(pages[i].Content) > config.MaxLearnChars {
			pages[i].Content = cutAtRuneBoundary(pages[i].Content, config.MaxLearnChars-total)
		}
		total += len(pages[i].Content)
	}

	docs := chunkPages(pages, filepath.Base(path))
	if len(docs) == 0 {
		return nil, fmt.Errorf("no text extracted from %s", path)
	}
	return docs, nil
}

func chunkPages(pages []rawPage, source string) []docModel.Document {
	var docs []docModel.Document

	for _, page := range pages {
		chunks := splitTextIntoChunks(page.Content, config.NoteChunkSize, config.NoteOverlap)
		for i, text := range chunks {
			docs = append(docs, docModel.Document{
				Content: "NOTE\nSource: " + source + "\n" + text,
				Kind:    docModel.KindNote,
				Metadata: docModel.Metadata{
					"source": source,
					"page":   page.Number,
					"chunk":  i,
				},
			})
		}
	}

	return docs
}

// cutAtRuneBoundary cuts s to at most limit bytes without splitting a
// multi-byte rune.
func cutAtRuneBoundary(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func getDocType(docPath string) docType {
	ext := strings.ToLower(filepath.Ext(docPath))
	switch ext {
	case ".pdf":
		return typePDF
	case ".docx", ".txt", ".rtf", ".odt", ".md":
		return typeDoc
	default:
		return typeUnknown
	}
}

// splitTextIntoChunks breaks text on the most meaningful separator it can
// find, carrying a tail overlap into each following chunk.
func splitTextIntoChunks(text string, limit int, overlap int) []string {
	var chunks []string

	if len(text) <= limit {
		return []string{text}
	}

	// Separators ordered from "best" to "worst" for semantic meaning
	separators := []string{"\n\n", "\n", ". ", " ", ""}

	var splitChar string
	found := false
	for _, s := range separators {
		if strings.Contains(text, s) {
			splitChar = s
			found = true
			break
		}
	}

	if !found {
		// Hard cut if no separator found (rare)
		return []string{text[:limit]}
	}

	parts := strings.Split(text, splitChar)
	var currentChunk strings.Builder

	for _, part := range parts {
		if currentChunk.Len()+len(part)+len(splitChar) > limit {
			if currentChunk.Len() > 0 {
				chunks = append(chunks, currentChunk.String())
			}

			overlapContent := ""
			if currentChunk.Len() > overlap {
				overlapContent = currentChunk.String()[currentChunk.Len()-overlap:]
			}

			currentChunk.Reset()
			currentChunk.WriteString(overlapContent)
		}

		if currentChunk.Len() > 0 && splitChar != "" {
			currentChunk.WriteString(splitChar)
		}
		currentChunk.WriteString(part)
	}

	if currentChunk.Len() > 0 {
		chunks = append(chunks, currentChunk.String())
	}

	return chunks
}
