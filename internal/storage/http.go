package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/localboard/sketchrelay/internal/state"
)

// HTTPGateway reaches a stroke store mounted with NewHandler.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway targets the store at baseURL, for example
// "http://10.0.0.5:8888".
func NewHTTPGateway(baseURL string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

type fetchResponse struct {
	Strokes []state.Stroke `json:"strokes"`
}

func (h *HTTPGateway) Save(ctx context.Context, s state.Stroke) error {
	return h.post(ctx, "/strokes", s)
}

func (h *HTTPGateway) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return h.post(ctx, "/strokes/delete", deleteRequest{IDs: ids})
}

func (h *HTTPGateway) FetchAll(ctx context.Context) ([]state.Stroke, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/strokes", nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: GET /strokes: %d", ErrUnavailable, resp.StatusCode)
	}
	var out fetchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode strokes: %v", ErrUnavailable, err)
	}
	return out.Strokes, nil
}

func (h *HTTPGateway) post(ctx context.Context, path string, body any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: POST %s: %d", ErrUnavailable, path, resp.StatusCode)
	}
	return nil
}

// NewHandler serves g over HTTP:
//
//	GET  /strokes         -> {"strokes": [...]}
//	POST /strokes         <- stroke
//	POST /strokes/delete  <- {"ids": [...]}
func NewHandler(g Gateway) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/strokes", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			strokes, err := g.FetchAll(r.Context())
			if err != nil {
				glog.Errorf("[store] fetch: %v\n", err)
				http.Error(w, "fetch failed", http.StatusServiceUnavailable)
				return
			}
			if strokes == nil {
				strokes = []state.Stroke{}
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(fetchResponse{Strokes: strokes})
		case http.MethodPost:
			var s state.Stroke
			if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
				http.Error(w, "bad json", http.StatusBadRequest)
				return
			}
			if s.ID == "" {
				http.Error(w, "missing id", http.StatusBadRequest)
				return
			}
			s.Width = state.ClampWidth(s.Width)
			if err := g.Save(r.Context(), s); err != nil {
				glog.Errorf("[store] save %s: %v\n", s.ID, err)
				http.Error(w, "save failed", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/strokes/delete", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req deleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := g.DeleteByIDs(r.Context(), req.IDs); err != nil {
			glog.Errorf("[store] delete: %v\n", err)
			http.Error(w, "delete failed", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}
