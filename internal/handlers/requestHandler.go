package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/anvikal/askapi/internal/adapter"
	"github.com/anvikal/askapi/internal/adapter/utils"
	"github.com/anvikal/askapi/internal/api"
	"github.com/anvikal/askapi/internal/config"
	"github.com/anvikal/askapi/internal/domain/jobModel"
	"github.com/anvikal/askapi/pkg/logger_i"
)

var logRH *logger_i.Logger

type newJobData struct {
	id        string
	chatId    string
	message   string
	isNewChat bool
	traceId   string
	jobType   jobModel.JobType
	name      string //spec name or note source
	source    string //temp file path for uploads
	noteText  string
}

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	return
}

// ChatHandler godoc
// @Summary      Ask a question about the active API
// @Description  Accepts a question, initializes a background processing job, and returns a job ID to track status.
// @Tags         Messaging
// @Accept       json
// @Produce      json
// @Param        request  body      api.ChatRequest      true  "Question and optional Chat ID"
// @Success      202      {object}  api.InitJobResponse  "Job successfully created"
// @Failure      400      {object}  api.JobResponse      "Invalid request data or chat ID"
// @Router       /chat [post]
func ChatHandler(w http.ResponseWriter, request *http.Request) {
	if validateContext(request.Context()) {
		var requestData api.ChatRequest
		defer func(Body io.ReadCloser) {
			err := Body.Close()
			if err != nil {
				logRH.Error("Couldn't close the Chat handler reader :", "error", err)
			}
		}(request.Body)
		if err := json.NewDecoder(request.Body).Decode(&requestData); err != nil || !ValidateChatRequest(requestData) {
			logRH.Warn("Bad Chat Request: ", "error:", err, "request data:", requestData)
			WriteErrorResponse(w, http.StatusBadRequest, requestData.ChatID, "Bad Request")
			return
		}

		chatID := requestData.ChatID
		isNewChat := false
		if chatID == "" {
			chatID = utils.GetNewUUID()
			logRH.Debug(" New Chat request : ", "chatID:", chatID)
			isNewChat = true
		}

		acceptJob(w, newJobData{
			id:        utils.GetNewUUID(),
			chatId:    chatID,
			message:   requestData.Message,
			isNewChat: isNewChat,
			traceId:   request.Context().Value(config.TRACE_ID_KEY).(string),
			jobType:   jobModel.JobTypeQuery,
		})
		return
	}
	logRH.Warn("Invalid Context by request ", "remote", request.RemoteAddr)
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current status of a specific job using its ID.
// @Tags         Job Status
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse   "Successful retrieval of job status"
// @Failure      404  {object}  api.JobResponse   "Job not found (returns Error object within JobResponse)"
// @Router       /status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		idString := utils.GetChiURLParam(r, "id")
		result, isFound := validateId(idString, r.Context().Value(config.TRACE_ID_KEY).(string))

		logRH.Debug("Get Status Request:", "URL path", r.URL.Path)
		if !isFound {
			WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
			return
		}

		writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
	}
}

// PostSpecHandler godoc
// @Summary      Upload an OpenAPI spec for indexing
// @Description  Receives an OpenAPI spec (json/yaml) via multipart/form-data, saves it to a temporary directory, and queues an indexing job. The indexed spec becomes the active collection.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Param        spec_name  formData  string  true  "The display name of the spec"
// @Param        spec       formData  file    true  "The OpenAPI spec file (.json, .yaml, .yml)"
// @Success      202  {object}  api.InitJobResponse  "Accepted - returns job id"
// @Failure      400  {object}  api.JobResponse      "Bad Request - Missing fields or file too large"
// @Failure      500  {object}  api.JobResponse      "Internal Server Error - Storage or Write Error"
// @Router       /spec [post]
func PostSpecHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		name, path, ok := saveUploadedFile(w, r, "spec_name", "spec")
		if !ok {
			return
		}

		acceptJob(w, newJobData{
			id:      utils.GetNewUUID(),
			traceId: r.Context().Value(config.TRACE_ID_KEY).(string),
			jobType: jobModel.JobTypeIngestSpec,
			name:    name,
			source:  path,
		})
		return
	}
	logRH.Warn("Invalid Context by request ", "remote", r.RemoteAddr)
}

// PostIngestHandler godoc
// @Summary      Upload a supplemental document
// @Description  Receives a PDF, DOCX or text file via multipart/form-data and queues a job that indexes its content as notes into the active collection.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Param        document_name  formData  string  true  "The display name of the document"
// @Param        document       formData  file    true  "The PDF, DOCX or text file to upload"
// @Success      202  {object}  api.InitJobResponse  "Accepted - returns job id"
// @Failure      400  {object}  api.JobResponse      "Bad Request - Missing fields or file too large"
// @Failure      500  {object}  api.JobResponse      "Internal Server Error - Storage or Write Error"
// @Router       /ingest [post]
func PostIngestHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		name, path, ok := saveUploadedFile(w, r, "document_name", "document")
		if !ok {
			return
		}

		acceptJob(w, newJobData{
			id:      utils.GetNewUUID(),
			traceId: r.Context().Value(config.TRACE_ID_KEY).(string),
			jobType: jobModel.JobTypeIngestNote,
			name:    name,
			source:  path,
		})
		return
	}
	logRH.Warn("Invalid Context by request ", "remote", r.RemoteAddr)
}

// PostIngestTextHandler godoc
// @Summary      Add supplemental text notes
// @Description  Accepts free-form text and queues a job that indexes it as notes into the active collection.
// @Tags         Ingestion
// @Accept       json
// @Produce      json
// @Param        request  body      api.IngestNoteRequest  true  "Note text and optional source label"
// @Success      202  {object}  api.InitJobResponse  "Accepted - returns job id"
// @Failure      400  {object}  api.JobResponse      "Bad Request - Missing text"
// @Router       /ingest/text [post]
func PostIngestTextHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		var requestData api.IngestNoteRequest
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil || requestData.Text == "" {
			logRH.Warn("Bad note request", "error:", err)
			WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
			return
		}

		source := requestData.Source
		if source == "" {
			source = "user_note"
		}

		acceptJob(w, newJobData{
			id:       utils.GetNewUUID(),
			traceId:  r.Context().Value(config.TRACE_ID_KEY).(string),
			jobType:  jobModel.JobTypeIngestNote,
			name:     source,
			noteText: requestData.Text,
		})
		return
	}
	logRH.Warn("Invalid Context by request ", "remote", r.RemoteAddr)
}
