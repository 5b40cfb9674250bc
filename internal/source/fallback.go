package source

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gorm.io/datatypes"

	"fundwatch/internal/models"
)

//go:embed fallback_projects.json
var embeddedFallback []byte

type fallbackProject struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Status       string     `json:"status"`
	TargetAmount int64      `json:"targetAmount"`
	RaisedAmount int64      `json:"raisedAmount"`
	CreatedAt    time.Time  `json:"createdAt"`
	SettledAt    *time.Time `json:"settledAt,omitempty"`
	About        string     `json:"about,omitempty"`
}

// FallbackProvider serves the bundled dataset. The dataset is parsed once at
// construction so Fetch cannot fail at resolve time; it is the tier of last
// resort and has to stay infallible.
type FallbackProvider struct {
	records []models.Campaign
}

// NewFallbackProvider loads the dataset from path when set, otherwise the
// embedded copy.
func NewFallbackProvider(path string) (*FallbackProvider, error) {
	raw := embeddedFallback
	if path != "" {
		external, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read fallback dataset: %w", err)
		}
		raw = external
	}
	var doc struct {
		Projects []fallbackProject `json:"projects"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse fallback dataset: %w", err)
	}
	if len(doc.Projects) == 0 {
		return nil, fmt.Errorf("fallback dataset is empty")
	}
	records := make([]models.Campaign, 0, len(doc.Projects))
	for _, proj := range doc.Projects {
		if proj.ID == "" {
			continue
		}
		status := proj.Status
		if status == "" {
			status = models.StatusNew
		}
		item := models.Campaign{
			ID:           proj.ID,
			Title:        proj.Title,
			Status:       status,
			TargetAmount: proj.TargetAmount,
			RaisedAmount: proj.RaisedAmount,
			SourceTag:    models.SourceFallback,
			CreatedAt:    proj.CreatedAt,
			SettledAt:    proj.SettledAt,
		}
		if proj.About != "" {
			if meta, err := json.Marshal(map[string]string{"about": proj.About}); err == nil {
				item.Metadata = datatypes.JSON(meta)
			}
		}
		records = append(records, item)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("fallback dataset has no usable records")
	}
	return &FallbackProvider{records: records}, nil
}

func (p *FallbackProvider) Name() string { return "bundled-dataset" }

func (p *FallbackProvider) Tag() string { return models.SourceFallback }

func (p *FallbackProvider) Fetch(ctx context.Context) ([]models.Campaign, error) {
	// Hand out a copy: downstream enrichment and merging mutate records.
	out := make([]models.Campaign, len(p.records))
	copy(out, p.records)
	return out, nil
}
