package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	pricingdomain "github.com/smallbiznis/adpricing/internal/pricing/domain"
)

const contextPricingVersionKey = "pricing_version_id"

type publishRequest struct {
	VersionID string `json:"versionId"`
}

func (s *Server) CalculatePrice(c *gin.Context) {
	var req pricingdomain.CampaignInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.quoteSvc.Quote(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set(contextPricingVersionKey, resp.PricingVersionID)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCurrentPricingConfig(c *gin.Context) {
	resp, err := s.quoteSvc.CurrentConfig(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set(contextPricingVersionKey, resp.ID)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SimulatePrice(c *gin.Context) {
	var req pricingdomain.SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.quoteSvc.Simulate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set(contextPricingVersionKey, resp.PricingVersionID)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreatePricingVersion(c *gin.Context) {
	var req pricingdomain.VersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.versionSvc.CreateVersion(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdatePricingVersion(c *gin.Context) {
	var req pricingdomain.VersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.versionSvc.UpdateDraft(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PublishPricingVersion(c *gin.Context) {
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	versionID := strings.TrimSpace(req.VersionID)
	if versionID == "" {
		AbortWithError(c, newValidationError("versionId", "required", "versionId is required"))
		return
	}

	resp, err := s.versionSvc.Publish(c.Request.Context(), versionID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set(contextPricingVersionKey, resp.ID)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PublishPricingVersionNow(c *gin.Context) {
	var req pricingdomain.VersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.versionSvc.PublishNow(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set(contextPricingVersionKey, resp.ID)
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListPricingVersions(c *gin.Context) {
	var req pricingdomain.ListVersionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.versionSvc.ListVersions(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Items, "page_info": resp.PageInfo})
}

func (s *Server) GetPricingVersionByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.versionSvc.GetVersion(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
