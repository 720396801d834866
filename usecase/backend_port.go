package usecase

import (
	"context"
	"net/url"
)

// Backend abstracts the HTTP gateway so use cases stay transport-agnostic.
// Paths are relative to the API prefix.
type Backend interface {
	Get(ctx context.Context, path string, query url.Values, out interface{}) error
	Post(ctx context.Context, path string, body, out interface{}) error
	Put(ctx context.Context, path string, body, out interface{}) error
	Delete(ctx context.Context, path string, out interface{}) error
	PostForm(ctx context.Context, path string, form url.Values, out interface{}) error
}

// Query is a small builder over url.Values that skips zero values.
type Query url.Values

func NewQuery() Query {
	return Query{}
}

func (q Query) Int(key string, v int64) Query {
	if v != 0 {
		url.Values(q).Set(key, formatInt(v))
	}
	return q
}

func (q Query) String(key, v string) Query {
	if v != "" {
		url.Values(q).Set(key, v)
	}
	return q
}

func (q Query) Bool(key string, v bool) Query {
	if v {
		url.Values(q).Set(key, "true")
	}
	return q
}

func (q Query) Values() url.Values {
	if len(q) == 0 {
		return nil
	}
	return url.Values(q)
}
