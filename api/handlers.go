package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/vfbench/internal/dataset"
	"github.com/stellarlinkco/vfbench/internal/store"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	limit, err := parseLimitParam(c.Query("limit"), 20)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	since, err := parseTimeParam(c.Query("since"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	until, err := parseTimeParam(c.Query("until"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	filter := store.RunFilter{
		Provider: strings.TrimSpace(c.Query("provider")),
		Model:    strings.TrimSpace(c.Query("model")),
		Dataset:  strings.TrimSpace(c.Query("dataset")),
		Since:    since,
		Until:    until,
		Limit:    limit,
	}

	runs, err := s.store.ListRuns(c.Request.Context(), filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	out := make([]runPayload, 0, len(runs))
	for _, run := range runs {
		if run == nil {
			continue
		}
		out = append(out, newRunPayload(run))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetRun(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing run id"))
		return
	}

	run, err := s.store.GetRun(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(c, http.StatusNotFound, fmt.Errorf("run %q not found", id))
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, newRunPayload(run))
}

func (s *Server) handleGetRunItems(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing run id"))
		return
	}

	if _, err := s.store.GetRun(c.Request.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(c, http.StatusNotFound, fmt.Errorf("run %q not found", id))
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	items, err := s.store.GetItems(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	out := make([]itemPayload, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, newItemPayload(item))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	limit, err := parseLimitParam(c.Query("limit"), 20)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	filter := store.LeaderboardFilter{
		Dataset: strings.TrimSpace(c.Query("dataset")),
		Limit:   limit,
	}

	entries, err := s.store.Leaderboard(c.Request.Context(), filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	out := make([]leaderboardPayload, 0, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		out = append(out, leaderboardPayload{
			Provider:       e.Provider,
			Model:          e.Model,
			Dataset:        e.Dataset,
			Runs:           e.Runs,
			BestAccuracy:   e.BestAccuracy,
			LatestAccuracy: e.LatestAccuracy,
			LatestRunID:    e.LatestRunID,
			LatestRunAt:    e.LatestRunAt.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleDatasetSummary(c *gin.Context) {
	st := dataset.Summarize(s.groups)
	c.JSON(http.StatusOK, gin.H{
		"arquivos":       st.SourceFiles,
		"grupos":         st.Groups,
		"perguntas":      st.Questions,
		"esperado_v":     st.ExpectedTrue,
		"esperado_f":     st.ExpectedFalse,
		"grupos_impares": st.OddGroups,
	})
}

func (s *Server) handleListProviders(c *gin.Context) {
	if s == nil || s.config == nil {
		c.JSON(http.StatusOK, []providerPayload{})
		return
	}

	out := make([]providerPayload, 0, len(s.config.Providers))
	for _, p := range s.config.Providers {
		out = append(out, providerPayload{
			Name:  p.Name,
			Type:  p.Type,
			Model: p.Model,
		})
	}
	c.JSON(http.StatusOK, out)
}

type runPayload struct {
	ID             string  `json:"id"`
	StartedAt      string  `json:"started_at"`
	FinishedAt     string  `json:"finished_at"`
	Provider       string  `json:"provider"`
	Model          string  `json:"model"`
	Dataset        string  `json:"dataset"`
	Prompt         string  `json:"prompt"`
	Total          int     `json:"total"`
	Correct        int     `json:"acertos"`
	Accuracy       float64 `json:"acuracia"`
	ParseFailures  int     `json:"falhas_parse"`
	CallFailures   int     `json:"falhas_chamada"`
	TotalElapsedMs int64   `json:"tempo_total_ms"`
}

func newRunPayload(run *store.RunRecord) runPayload {
	return runPayload{
		ID:             run.ID,
		StartedAt:      run.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt:     run.FinishedAt.UTC().Format(time.RFC3339),
		Provider:       run.Provider,
		Model:          run.Model,
		Dataset:        run.Dataset,
		Prompt:         run.Prompt,
		Total:          run.Total,
		Correct:        run.Correct,
		Accuracy:       run.Accuracy,
		ParseFailures:  run.ParseFailures,
		CallFailures:   run.CallFailures,
		TotalElapsedMs: run.TotalElapsedMs,
	}
}

type itemPayload struct {
	SourceFile  string `json:"arquivo"`
	Title       string `json:"titulo"`
	LocalIndex  int    `json:"idx_local"`
	Question    string `json:"pergunta"`
	Expected    string `json:"esperado"`
	Predicted   string `json:"pred"`
	Status      string `json:"status"`
	Correct     bool   `json:"correta"`
	ElapsedMs   int64  `json:"tempo_ms"`
	ErrorDetail string `json:"erro,omitempty"`
}

func newItemPayload(item *store.ItemRecord) itemPayload {
	return itemPayload{
		SourceFile:  item.SourceFile,
		Title:       item.Title,
		LocalIndex:  item.LocalIndex,
		Question:    item.Question,
		Expected:    item.Expected,
		Predicted:   item.Predicted,
		Status:      item.Status,
		Correct:     item.Correct,
		ElapsedMs:   item.ElapsedMs,
		ErrorDetail: item.ErrorDetail,
	}
}

type leaderboardPayload struct {
	Provider       string  `json:"provider"`
	Model          string  `json:"model"`
	Dataset        string  `json:"dataset"`
	Runs           int     `json:"runs"`
	BestAccuracy   float64 `json:"melhor_acuracia"`
	LatestAccuracy float64 `json:"ultima_acuracia"`
	LatestRunID    string  `json:"ultimo_run_id"`
	LatestRunAt    string  `json:"ultimo_run_em"`
}

type providerPayload struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Model string `json:"model"`
}

func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		c.Status(status)
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseLimitParam(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	if v <= 0 {
		return 0, fmt.Errorf("limit must be > 0")
	}
	return v, nil
}

func parseTimeParam(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	layouts := []string{time.RFC3339, "2006-01-02"}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (expected RFC3339 or YYYY-MM-DD)", raw)
}
