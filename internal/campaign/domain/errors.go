package domain

import "errors"

var ErrCampaignNotFound = errors.New("campaign_not_found")
