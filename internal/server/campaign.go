package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	campaigndomain "github.com/smallbiznis/adpricing/internal/campaign/domain"
)

const contextCampaignKey = "campaign_id"

func (s *Server) CreateCampaign(c *gin.Context) {
	var req campaigndomain.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.campaignSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set(contextCampaignKey, resp.ID)
	c.Set(contextPricingVersionKey, resp.PricingVersionID)
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetCampaignByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	c.Set(contextCampaignKey, id)
	resp, err := s.campaignSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCampaignPricing(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	c.Set(contextCampaignKey, id)
	resp, err := s.campaignSvc.GetPricing(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCampaigns(c *gin.Context) {
	var req campaigndomain.ListCampaignsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.campaignSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Items, "total": resp.Total, "page_info": resp.PageInfo})
}
