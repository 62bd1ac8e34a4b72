// Package provider defines the uniform contract every third-party adapter
// implements. Capabilities are plain Go interfaces, so "does this provider
// support listing leads" is a type assertion, not a runtime method lookup.
package provider

import (
	"context"

	"unisync/internal/unified"
)

// ListParams is the paging input shared by every list capability. Cursor is
// an opaque token previously issued by the same adapter, or empty for the
// start of a full sync.
type ListParams struct {
	Cursor   string
	PageSize int
}

func (p ListParams) PageSizeOr(def int) int {
	if p.PageSize > 0 {
		return p.PageSize
	}
	return def
}

// Page is one page of mapped records. An empty page with HasNextPage false
// is normal termination, not an error. NextCursor on the final page may
// repeat the incoming cursor so callers can persist a stable tail position.
type Page struct {
	Items       []unified.Record
	HasNextPage bool
	NextCursor  string
}

// Adapter is the base contract; listing capabilities are optional
// per-provider and discovered via the interfaces below.
type Adapter interface {
	Name() string
	Vertical() string
}

type AccountLister interface {
	ListAccounts(ctx context.Context, p ListParams) (Page, error)
}

type ContactLister interface {
	ListContacts(ctx context.Context, p ListParams) (Page, error)
}

type LeadLister interface {
	ListLeads(ctx context.Context, p ListParams) (Page, error)
}

type OpportunityLister interface {
	ListOpportunities(ctx context.Context, p ListParams) (Page, error)
}

type UserLister interface {
	ListUsers(ctx context.Context, p ListParams) (Page, error)
}

type SequenceLister interface {
	ListSequences(ctx context.Context, p ListParams) (Page, error)
}

// EntityCounter is supported where the provider exposes a cheap count.
type EntityCounter interface {
	CountEntity(ctx context.Context, objectType string) (int, error)
}

// FullSyncOnly marks adapters whose provider lacks incremental filtering:
// every sync re-lists from the beginning.
type FullSyncOnly interface {
	FullSyncOnly() bool
}

// IsFullSyncOnly reports whether the adapter re-lists everything on each
// invocation.
func IsFullSyncOnly(a Adapter) bool {
	f, ok := a.(FullSyncOnly)
	return ok && f.FullSyncOnly()
}

// ListObjects dispatches an object type to the matching capability. Unknown
// or unimplemented combinations return NotImplementedError.
func ListObjects(ctx context.Context, a Adapter, objectType string, p ListParams) (Page, error) {
	switch objectType {
	case "account":
		if l, ok := a.(AccountLister); ok {
			return l.ListAccounts(ctx, p)
		}
	case "contact":
		if l, ok := a.(ContactLister); ok {
			return l.ListContacts(ctx, p)
		}
	case "lead":
		if l, ok := a.(LeadLister); ok {
			return l.ListLeads(ctx, p)
		}
	case "opportunity":
		if l, ok := a.(OpportunityLister); ok {
			return l.ListOpportunities(ctx, p)
		}
	case "user":
		if l, ok := a.(UserLister); ok {
			return l.ListUsers(ctx, p)
		}
	case "sequence":
		if l, ok := a.(SequenceLister); ok {
			return l.ListSequences(ctx, p)
		}
	}
	return Page{}, &NotImplementedError{Provider: a.Name(), Operation: "list_" + objectType}
}
