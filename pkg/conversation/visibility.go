package conversation

import (
	"bytes"

	"github.com/tendant/simple-helpdesk/pkg/domain"
	"github.com/tendant/simple-helpdesk/pkg/repository"
)

// VisibleMessages filters an already loaded message collection for viewer.
// Viewers that can see internal notes get every message; everyone else gets
// only public ones. The input slice is never modified. It is the in-memory
// counterpart of Service.VisibleMessages, which applies ScopeFor(viewer) to
// the query instead.
func VisibleMessages(viewer domain.Viewer, messages []*domain.Message) []*domain.Message {
	visible := make([]*domain.Message, 0, len(messages))
	if viewer.CanViewInternal() {
		return append(visible, messages...)
	}
	for _, m := range messages {
		if !m.Internal {
			visible = append(visible, m)
		}
	}
	return visible
}

// ScopeFor returns the query restriction matching viewer.
func ScopeFor(viewer domain.Viewer) repository.MessageScope {
	if viewer.CanViewInternal() {
		return repository.ScopeAll
	}
	return repository.ScopePublic
}

// MostRecent returns the message with the latest UpdatedAt, or nil when
// messages is empty. Ties go to the highest ID, matching the ordering
// Service.MostRecentMessage asks the store for.
func MostRecent(messages []*domain.Message) *domain.Message {
	var latest *domain.Message
	for _, m := range messages {
		if latest == nil || newer(m, latest) {
			latest = m
		}
	}
	return latest
}

func newer(a, b *domain.Message) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) > 0
}
