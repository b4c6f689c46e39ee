package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/candlr-app/candlr/internal/db"
	"github.com/candlr-app/candlr/internal/genai"
	"github.com/candlr-app/candlr/internal/httputil"
	"github.com/candlr-app/candlr/internal/imagecodec"
	"github.com/candlr-app/candlr/internal/mold"
	"github.com/candlr-app/candlr/internal/monitoring"
	"github.com/candlr-app/candlr/internal/version"
)

// Request bodies are capped well above any realistic 4K PNG payload.
const maxRequestBytes = 64 << 20

const stlFilename = "candle_mold.stl"

type generateMoldRequest struct {
	ImageBase64 string `json:"image_base64"`
	mold.Params
}

type imageRequest struct {
	ImageBase64 string `json:"image_base64"`
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type imageResponse struct {
	ImageBase64 string `json:"image_base64"`
	PromptUsed  string `json:"prompt_used"`
	ModelUsed   string `json:"model_used"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(v); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func (s *Server) generateMold(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	req := generateMoldRequest{Params: mold.DefaultParams()}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ImageBase64 == "" {
		httputil.BadRequest(w, "image_base64 is required")
		return
	}
	if err := req.Params.Validate(); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	id := uuid.NewString()
	start := time.Now()
	stl, err := s.gen.Generate(req.ImageBase64, req.Params, s.images.StartSession())
	s.recordGeneration(id, req.Params, stl, time.Since(start), err)
	if err != nil {
		if errors.Is(err, imagecodec.ErrDecode) {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.InternalServerError(w, fmt.Sprintf("mold generation failed: %v", err))
		return
	}

	httputil.WriteAttachment(w, stlFilename, "model/stl", stl)
}

// recordGeneration writes one history row. History failures are logged and
// never fail the request that produced the mold.
func (s *Server) recordGeneration(id string, p mold.Params, stl []byte, elapsed time.Duration, genErr error) {
	if s.db == nil {
		return
	}
	g := db.Generation{
		ID:         id,
		Status:     db.StatusOK,
		DurationMs: elapsed.Milliseconds(),
		STLBytes:   int64(len(stl)),
	}
	if len(stl) >= 84 {
		g.Triangles = int64(len(stl)-84) / 50
	}
	if genErr != nil {
		g.Status = db.StatusError
		g.Error = genErr.Error()
	}
	if params, err := json.Marshal(p); err == nil {
		g.ParamsJSON = string(params)
	}
	if err := s.db.RecordGeneration(g); err != nil {
		monitoring.Logf("api: record generation %s: %v", id, err)
	}
}

func (s *Server) createDepthMap(w http.ResponseWriter, r *http.Request) {
	s.imageOperation(w, r, s.ai.CreateDepthMap)
}

func (s *Server) extractSubject(w http.ResponseWriter, r *http.Request) {
	s.imageOperation(w, r, s.ai.ExtractSubject)
}

// imageOperation handles the shared request/response shape of the two
// image-in, image-out endpoints.
func (s *Server) imageOperation(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, imageB64 string) (genai.ImageResult, error)) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req imageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ImageBase64 == "" {
		httputil.BadRequest(w, "image_base64 is required")
		return
	}

	res, err := op(r.Context(), req.ImageBase64)
	if err != nil {
		writeImageError(w, err)
		return
	}
	httputil.WriteJSONOK(w, imageResponseOf(res))
}

func (s *Server) generateImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req promptRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Prompt == "" {
		httputil.BadRequest(w, "prompt is required")
		return
	}

	res, err := s.ai.GenerateImage(r.Context(), req.Prompt)
	if err != nil {
		writeImageError(w, err)
		return
	}
	httputil.WriteJSONOK(w, imageResponseOf(res))
}

func imageResponseOf(res genai.ImageResult) imageResponse {
	return imageResponse{
		ImageBase64: res.ImageBase64,
		PromptUsed:  res.PromptUsed,
		ModelUsed:   res.ModelUsed,
	}
}

func writeImageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, imagecodec.ErrDecode):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, genai.ErrUnavailable):
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, err.Error())
	default:
		httputil.InternalServerError(w, err.Error())
	}
}

func (s *Server) listPrompts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.ai.PromptTemplates())
}

func (s *Server) listGenerations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.db == nil {
		httputil.WriteJSONOK(w, []db.Generation{})
		return
	}

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			httputil.BadRequest(w, "invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	generations, err := s.db.Generations(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to retrieve generations: %v", err))
		return
	}
	if generations == nil {
		generations = []db.Generation{}
	}
	httputil.WriteJSONOK(w, generations)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{
		"status":  "ok",
		"version": version.Version,
		"git_sha": version.GitSHA,
	})
}
