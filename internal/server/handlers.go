package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/repolens/repolens/internal/analyze"
	"github.com/repolens/repolens/internal/scan"
	"github.com/repolens/repolens/internal/types"
)

type scanRequest struct {
	Repo string `json:"repo"`
}

type analyzeRequest struct {
	Repo     string `json:"repo"`
	Question string `json:"question"`
}

type statusResponse struct {
	Repo          string    `json:"repo"`
	TotalIssues   int       `json:"total_issues"`
	LastScannedAt time.Time `json:"last_scanned_at"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleScan(c *gin.Context) {
	var req scanRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := types.ValidateRepoSlug(req.Repo); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	result, err := s.scanner.Scan(c.Request.Context(), req.Repo)
	if err != nil {
		switch {
		case errors.Is(err, scan.ErrRepoNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "repository not found or not accessible"})
		default:
			s.logger.Error("scan failed", "repo", req.Repo, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "scan failed: " + err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := types.ValidateRepoSlug(req.Repo); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if req.Question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	answer, err := s.analyzer.Analyze(c.Request.Context(), req.Repo, req.Question)
	if err != nil {
		switch {
		case errors.Is(err, analyze.ErrNoCachedIssues):
			c.JSON(http.StatusNotFound, gin.H{"error": "no cached issues for repository, scan it first"})
		default:
			s.logger.Error("analysis failed", "repo", req.Repo, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "analysis failed: " + err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"repo": req.Repo, "answer": answer})
}

func (s *Server) handleStatus(c *gin.Context) {
	repo := c.Param("owner") + "/" + c.Param("name")
	if err := types.ValidateRepoSlug(repo); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	state, err := s.store.GetScanState(c.Request.Context(), repo)
	if err != nil {
		s.logger.Error("status lookup failed", "repo", repo, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "status lookup failed"})
		return
	}
	if state == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "repository has never been scanned"})
		return
	}

	c.JSON(http.StatusOK, statusResponse{
		Repo:          state.Repo,
		TotalIssues:   state.TotalIssues,
		LastScannedAt: state.LastScannedAt,
	})
}
