// Package session resolves the anonymous learner id that keys every plan,
// progress row and mistake.
package session

import (
	"context"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/abhisek/mathtutor/internal/logger"
)

// QueryParam is the URL parameter that carries a session id.
const QueryParam = "session"

// Source says where a resolved id came from.
type Source string

const (
	SourceDurable   Source = "durable"
	SourceEphemeral Source = "ephemeral"
	SourceQuery     Source = "query"
	SourceFragment  Source = "fragment"
	SourceNew       Source = "new"
)

// Result is a resolved session.
type Result struct {
	ID     string `json:"session_id"`
	Source Source `json:"source"`
}

// Resolver looks a session id up across its sources.
type Resolver struct {
	durable   Store
	ephemeral Store
	newID     func() string
	log       *logger.Logger
}

// NewResolver returns a Resolver over a durable and an ephemeral store.
// Either store may be nil. log may be nil.
func NewResolver(durable, ephemeral Store, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{durable: durable, ephemeral: ephemeral, newID: uuid.NewString, log: log}
}

// WithIDs returns a copy of r that mints ids with newID.
func (r *Resolver) WithIDs(newID func() string) *Resolver {
	c := *r
	c.newID = newID
	return &c
}

// Resolve returns the session id for a request to u. Sources are tried in
// order: durable store, ephemeral store, the ?session= query parameter and
// a #...session= fragment. The first hit is saved into every empty store
// ahead of it. When nothing is found a new id is minted and saved to both
// stores. Store failures are logged and the source is skipped.
func (r *Resolver) Resolve(ctx context.Context, u *url.URL) Result {
	if id := r.load(ctx, r.durable, SourceDurable); id != "" {
		return Result{ID: id, Source: SourceDurable}
	}
	if id := r.load(ctx, r.ephemeral, SourceEphemeral); id != "" {
		r.save(ctx, r.durable, id)
		return Result{ID: id, Source: SourceEphemeral}
	}
	if id := FromQuery(u); id != "" {
		r.save(ctx, r.durable, id)
		r.save(ctx, r.ephemeral, id)
		return Result{ID: id, Source: SourceQuery}
	}
	if id := FromFragment(u); id != "" {
		r.save(ctx, r.durable, id)
		r.save(ctx, r.ephemeral, id)
		return Result{ID: id, Source: SourceFragment}
	}

	id := r.newID()
	r.save(ctx, r.durable, id)
	r.save(ctx, r.ephemeral, id)
	r.log.Info("created session", "session_id", id)
	return Result{ID: id, Source: SourceNew}
}

// Persist saves id to both stores and returns a copy of u carrying it as
// the session query parameter, so the link can be shared or bookmarked.
// The first store error is returned after both saves were attempted.
func (r *Resolver) Persist(ctx context.Context, id string, u *url.URL) (*url.URL, error) {
	var firstErr error
	for _, s := range []Store{r.durable, r.ephemeral} {
		if s == nil {
			continue
		}
		if err := s.Save(ctx, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return ShareURL(u, id), firstErr
}

// ShareURL returns a copy of u with the session query parameter set.
func ShareURL(u *url.URL, id string) *url.URL {
	var out url.URL
	if u != nil {
		out = *u
	}
	q := out.Query()
	q.Set(QueryParam, id)
	out.RawQuery = q.Encode()
	return &out
}

// FromQuery returns the session query parameter of u.
func FromQuery(u *url.URL) string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.Query().Get(QueryParam))
}

// FromFragment returns the value after the first "session=" in the URL
// fragment, up to the next '&'.
func FromFragment(u *url.URL) string {
	if u == nil {
		return ""
	}
	frag := u.Fragment
	if u.RawFragment != "" {
		frag = u.RawFragment
	}
	_, rest, ok := strings.Cut(frag, QueryParam+"=")
	if !ok {
		return ""
	}
	id, _, _ := strings.Cut(rest, "&")
	if v, err := url.QueryUnescape(id); err == nil {
		id = v
	}
	return strings.TrimSpace(id)
}

func (r *Resolver) load(ctx context.Context, s Store, src Source) string {
	if s == nil {
		return ""
	}
	id, err := s.Load(ctx)
	if err != nil {
		r.log.Warn("session store unreadable", "source", string(src), "error", err)
		return ""
	}
	return strings.TrimSpace(id)
}

func (r *Resolver) save(ctx context.Context, s Store, id string) {
	if s == nil {
		return
	}
	if err := s.Save(ctx, id); err != nil {
		r.log.Warn("could not store session", "session_id", id, "error", err)
	}
}
