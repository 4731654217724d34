// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/poiesic/kbsearch/core"
	"github.com/poiesic/kbsearch/storage"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := s.searcher.Search(r.Context(), core.SearchRequest{
		Query:    req.Query,
		Filters:  req.Filters,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSearchResponse(resp))
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	suggestions, err := s.searcher.Suggest(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	s.writeJSON(w, http.StatusOK, suggestResponse{Suggestions: suggestions})
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	id, err := articleID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	article, err := s.store.GetArticle(r.Context(), id)
	if err != nil {
		s.writeError(w, r, storeError(err))
		return
	}
	if !article.Published {
		s.writeError(w, r, storage.ErrNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, toArticleResponse(article))
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := articleID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req feedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	feedback := &core.Feedback{ArticleId: id, Rating: req.Rating, Comment: req.Comment}
	if err := core.ValidateFeedback(feedback); err != nil {
		s.writeError(w, r, err)
		return
	}

	stored, err := s.store.AddFeedback(r.Context(), feedback)
	if err != nil {
		s.writeError(w, r, storeError(err))
		return
	}
	s.writeJSON(w, http.StatusCreated, feedbackResponse{
		ID:        stored.Id,
		ArticleID: stored.ArticleId,
		Rating:    stored.Rating,
		Comment:   stored.Comment,
		CreatedAt: stored.CreatedAt,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	articles, err := s.store.ListArticles(r.Context())
	if err != nil {
		s.writeError(w, r, storeError(err))
		return
	}
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:       "healthy",
		Documents:    len(articles),
		IndexEntries: s.indexEntries(),
	})
}

func articleID(r *http.Request) (core.ID, error) {
	raw := mux.Vars(r)["id"]
	id, err := core.ParseID(raw)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: article id %q", core.ErrInvalidInput, raw)
	}
	return id, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %w", core.ErrInvalidInput, err)
	}
	return nil
}

// storeError marks raw repository failures as ErrStoreUnavailable,
// leaving not-found and already classified errors alone.
func storeError(err error) error {
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, core.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err, "request_id", RequestID(r.Context()))
		message = http.StatusText(status)
	} else if status == http.StatusServiceUnavailable {
		s.logger.Warn("store unavailable", "path", r.URL.Path, "err", err, "request_id", RequestID(r.Context()))
		message = "store unavailable"
	}
	s.writeJSON(w, status, errorResponse{Error: message, RequestID: RequestID(r.Context())})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Debug("writing response", "err", err)
	}
}
