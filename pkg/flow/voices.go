package flow

import (
	"context"
	"fmt"

	"github.com/voxflow/voxflow/pkg/elevenlabs"
)

// ListVoicesParams configures the voice listing node.
type ListVoicesParams struct {
	// Page is the 1-based page of ten voices to return, default 1.
	// Out-of-range pages clamp to the last page.
	Page int `json:"page,omitempty"`

	// Search filters by name, description, or label text.
	Search string `json:"search,omitempty"`

	// Category filters by voice category: premade, cloned, generated,
	// or professional.
	Category string `json:"category,omitempty"`
}

// listFetchLimit caps how many voices the node pulls from the account
// before paging locally.
const listFetchLimit = 100

var listVoicesNode = MustNode("elevenlabs/list-voices",
	"List the voices available to the account.",
	runListVoices)

func runListVoices(ctx context.Context, rt *Runtime, p ListVoicesParams) (*Output, error) {
	if p.Page < 0 {
		return nil, failValidation("page %d: pages are numbered from 1", p.Page)
	}
	client, err := rt.Client(ctx)
	if err != nil {
		return nil, err
	}

	voices := make([]elevenlabs.Voice, 0, listFetchLimit)
	for v, err := range client.Voices.List(ctx, &elevenlabs.ListOptions{
		PageSize: elevenlabs.MaxPageSize,
		Search:   p.Search,
		Category: p.Category,
	}) {
		if err != nil {
			return nil, err
		}
		voices = append(voices, *v)
		if len(voices) == listFetchLimit {
			break
		}
	}

	pageSize := elevenlabs.DefaultPageSize
	totalPages := (len(voices) + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	page := p.Page
	if page == 0 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * pageSize
	end := min(start+pageSize, len(voices))

	return &Output{
		Voices:     voices[start:end],
		Page:       page,
		TotalPages: totalPages,
		Detail:     TextValue(fmt.Sprintf("%d voices available", len(voices))),
	}, nil
}
