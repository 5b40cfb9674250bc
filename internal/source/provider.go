package source

import (
	"context"
	"encoding/json"

	"fundwatch/internal/models"
)

// Provider is one tier of the campaign source chain. Fetch returns the full
// current record set or an error; partial results are a provider-internal
// concern. Tiers are tried in registration order by the Resolver.
type Provider interface {
	Name() string
	Tag() string
	Fetch(ctx context.Context) ([]models.Campaign, error)
}

func metadataString(raw []byte, key string) string {
	if len(raw) == 0 {
		return ""
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	if val, ok := obj[key].(string); ok {
		return val
	}
	return ""
}

func metadataSet(raw []byte, key string, value any) []byte {
	obj := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &obj)
	}
	obj[key] = value
	out, err := json.Marshal(obj)
	if err != nil {
		return raw
	}
	return out
}
