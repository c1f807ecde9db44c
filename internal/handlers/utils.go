package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/anvikal/askapi/internal/adapter"
	"github.com/anvikal/askapi/internal/config"
	"github.com/anvikal/askapi/internal/domain/jobModel"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logRH.Error("Error encoding response", "error", err)
	}
}

func validateId(id string, traceId string) (result jobModel.Job, isFound bool) {
	if id == "" {
		logRH.Warn("Empty Job ID")
		return jobModel.Job{}, false
	}
	return GetJobStatus(id, traceId)
}

func validateContext(ctx context.Context) bool {
	logRH.With("traceId:", ctx.Value(config.TRACE_ID_KEY).(string))
	if ctx.Err() != nil {
		logRH.Warn("context error", "error", ctx.Err())
		return false
	}

	select {
	case <-ctx.Done():
		logRH.Warn("context cancelled")
		return false
	default:
		return true
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, error string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, error, httpCode))
}

func getTargetDirectory() (string, string) {
	root, err := os.Getwd()
	if err != nil {
		return "", "Storage Error"
	}

	targetDir := filepath.Join(root, "temporary_data")
	if err := os.MkdirAll(targetDir, 0750); err != nil {
		return "", "Storage Error"
	}
	return targetDir, ""
}

// saveUploadedFile copies a multipart upload into the temporary data
// directory and returns its display name and on-disk path. On failure it
// writes the error response itself and returns ok=false.
func saveUploadedFile(w http.ResponseWriter, r *http.Request, nameField string, fileField string) (name string, path string, ok bool) {
	targetDir, errString := getTargetDirectory()
	if errString != "" {
		logRH.Error("Couldn't get target directory :", "err", errString)
		WriteErrorResponse(w, http.StatusInternalServerError, "", errString)
		return "", "", false
	}

	const maxUploadSize = 32 << 20 //32mb
	err := r.ParseMultipartForm(maxUploadSize)
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "File too large or bad request")
		return "", "", false
	}

	name = r.FormValue(nameField)
	if name == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", nameField+" is required")
		return "", "", false
	}

	fileReader, fileMetadata, err := r.FormFile(fileField)
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, name, "Could not retrieve file")
		return "", "", false
	}
	defer fileReader.Close()

	filename := fmt.Sprintf("%d-%s", time.Now().UnixNano(), fileMetadata.Filename)
	tempFilePath := filepath.Join(targetDir, filename)
	destinationFileWriter, err := os.Create(tempFilePath)
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, name, "Storage error")
		return "", "", false
	}
	defer destinationFileWriter.Close()

	if _, err := io.Copy(destinationFileWriter, fileReader); err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, name, "Write error")
		return "", "", false
	}
	return name, tempFilePath, true
}

func acceptJob(w http.ResponseWriter, newJob newJobData) {
	CreateNewJob(newJob)
	res := adapter.ToInitJobResponse(newJob.id)
	writeJsonResponse(w, http.StatusAccepted, res)
}
