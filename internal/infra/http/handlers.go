package http

import (
	"errors"
	"net/http"
	"time"

	"notary/internal/domain"
	"notary/internal/usecase"

	"github.com/gin-gonic/gin"
)

type locationInput struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type uploadRequest struct {
	Content     string         `json:"content"`
	Publisher   string         `json:"publisher"`
	Creator     string         `json:"creator"`
	Description string         `json:"description"`
	Location    *locationInput `json:"location"`
	Timestamp   *time.Time     `json:"timestamp"`
}

type uploadResponse struct {
	Success bool   `json:"success"`
	AssetID string `json:"asset_id,omitempty"`
	Message string `json:"message"`
}

type verifyResponse struct {
	Success       bool                 `json:"success"`
	Matched       bool                 `json:"matched"`
	AssetID       string               `json:"asset_id,omitempty"`
	Discrepancies []domain.Discrepancy `json:"discrepancies,omitempty"`
	Message       string               `json:"message"`
}

type assetSummary struct {
	AssetID     string `json:"asset_id"`
	Description string `json:"description"`
}

type assetsListResponse struct {
	Success bool           `json:"success"`
	Assets  []assetSummary `json:"assets"`
	Message string         `json:"message"`
}

type assetBody struct {
	AssetID         string        `json:"asset_id"`
	Description     string        `json:"description"`
	Content         string        `json:"content"`
	Location        locationInput `json:"location"`
	Timestamp       time.Time     `json:"timestamp"`
	Creator         string        `json:"creator"`
	Publisher       string        `json:"publisher"`
	LedgerReference string        `json:"ledger_reference,omitempty"`
}

type assetResponse struct {
	Success bool       `json:"success"`
	Asset   *assetBody `json:"asset,omitempty"`
	Message string     `json:"message"`
}

type failureResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "ok", Message: "notaryd is running"})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "healthy", Message: "API server is operational"})
}

func (s *Server) handleUpload(c *gin.Context) {
	if s.registerUC == nil {
		writeFailure(c, domain.ErrNotFound)
		return
	}
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failureResponse{Success: false, Message: "invalid json"})
		return
	}

	// Location and timestamp defaults are a boundary convenience; the
	// registry itself treats both as opaque caller data.
	location := s.defaultLocation
	if req.Location != nil {
		location = domain.Location{Latitude: req.Location.Latitude, Longitude: req.Location.Longitude}
	}
	var timestamp time.Time
	if req.Timestamp != nil {
		timestamp = *req.Timestamp
	}

	resp, err := s.registerUC.Execute(c.Request.Context(), usecase.RegisterAssetRequest{
		Content:     req.Content,
		Publisher:   req.Publisher,
		Creator:     req.Creator,
		Description: req.Description,
		Location:    location,
		Timestamp:   timestamp,
	})
	if err != nil {
		writeFailure(c, err)
		return
	}

	message := "asset registered successfully"
	if !resp.Created {
		message = "asset already registered"
	}
	c.JSON(http.StatusOK, uploadResponse{Success: true, AssetID: resp.AssetID, Message: message})
}

func (s *Server) handleVerify(c *gin.Context) {
	if s.verifyUC == nil {
		writeFailure(c, domain.ErrNotFound)
		return
	}
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failureResponse{Success: false, Message: "invalid json"})
		return
	}

	ucReq := usecase.VerifyAssetRequest{Content: req.Content}
	if req.Publisher != "" || req.Creator != "" || req.Description != "" {
		ucReq.Claimed = &usecase.ClaimedMetadata{
			Publisher:   req.Publisher,
			Creator:     req.Creator,
			Description: req.Description,
		}
	}

	result, err := s.verifyUC.Execute(c.Request.Context(), ucReq)
	if err != nil {
		writeFailure(c, err)
		return
	}

	out := verifyResponse{Success: true, Matched: result.Matched}
	if result.Matched {
		out.AssetID = result.Asset.AssetID
		out.Discrepancies = result.Discrepancies
		out.Message = "content matches registered asset"
		if len(result.Discrepancies) > 0 {
			out.Message = "content matches registered asset with metadata discrepancies"
		}
	} else {
		out.Message = "no registered asset matches content"
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleListAssets(c *gin.Context) {
	if s.assets == nil {
		writeFailure(c, domain.ErrNotFound)
		return
	}
	summaries, err := s.assets.List(c.Request.Context())
	if err != nil {
		writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, assetsListResponse{
		Success: true,
		Assets:  buildSummaries(summaries),
		Message: "assets retrieved successfully",
	})
}

func (s *Server) handleListVerifiedAssets(c *gin.Context) {
	if s.assets == nil {
		writeFailure(c, domain.ErrNotFound)
		return
	}
	summaries, err := s.assets.ListVerified(c.Request.Context())
	if err != nil {
		writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, assetsListResponse{
		Success: true,
		Assets:  buildSummaries(summaries),
		Message: "verified assets retrieved successfully",
	})
}

func (s *Server) handleGetAsset(c *gin.Context) {
	if s.assets == nil {
		writeFailure(c, domain.ErrNotFound)
		return
	}
	asset, err := s.assets.GetByID(c.Request.Context(), c.Param("asset_id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, assetResponse{Success: false, Message: "asset not found"})
			return
		}
		writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, assetResponse{
		Success: true,
		Asset: &assetBody{
			AssetID:         asset.AssetID,
			Description:     asset.Description,
			Content:         asset.Content,
			Location:        locationInput{Latitude: asset.Location.Latitude, Longitude: asset.Location.Longitude},
			Timestamp:       asset.Timestamp,
			Creator:         asset.Creator,
			Publisher:       asset.Publisher,
			LedgerReference: asset.LedgerReference,
		},
		Message: "asset retrieved successfully",
	})
}

func buildSummaries(summaries []domain.AssetSummary) []assetSummary {
	out := make([]assetSummary, 0, len(summaries))
	for _, summary := range summaries {
		out = append(out, assetSummary{AssetID: summary.AssetID, Description: summary.Description})
	}
	return out
}

func writeFailure(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal error"
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, domain.ErrPolicyDenied):
		status = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		message = "not found"
	case errors.Is(err, domain.ErrLedgerRejected):
		status = http.StatusBadGateway
		message = err.Error()
	case errors.Is(err, domain.ErrLedgerTimeout):
		status = http.StatusGatewayTimeout
		message = "ledger confirmation timed out; retry the request"
	}
	c.JSON(status, failureResponse{Success: false, Message: message})
}
