package brain

import (
	"context"
	"net/http"

	"fundbridge/internal/domain/entity"
)

func (c *Client) GetAdminAnalytics(ctx context.Context) (*entity.AnalyticsSummary, error) {
	var summary entity.AnalyticsSummary
	if err := c.do(ctx, http.MethodGet, "/v1/admin/analytics", nil, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) CheckFeatureAccess(ctx context.Context, userID, feature string) (*entity.FeatureGrant, error) {
	var grant entity.FeatureGrant
	if err := c.do(ctx, http.MethodGet, "/v1/users/"+userID+"/features/"+feature, nil, nil, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}
