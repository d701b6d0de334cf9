package api

import (
	"context"
	"net/http"

	"github.com/Veraticus/expense-flow/internal/model"
)

const referenceDataPath = "/api/reference-data"

// ReferenceData fetches the vocabularies used by selection widgets.
func (c *Client) ReferenceData(ctx context.Context) (model.ReferenceData, error) {
	var ref model.ReferenceData
	if _, err := c.do(ctx, "fetch reference data", http.MethodGet, referenceDataPath, nil, nil, &ref); err != nil {
		return model.ReferenceData{}, err
	}
	if ref.Categories == nil {
		ref.Categories = map[string][]string{}
	}
	if ref.ItemsBySubcategory == nil {
		ref.ItemsBySubcategory = map[string][]string{}
	}
	return ref, nil
}
