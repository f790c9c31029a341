package uowmock

import (
	"context"

	"nftlend-backend/internal/domain/event"
	"nftlend-backend/internal/domain/uow"
)

// UoW passes the configured Repos straight into fn. It provides no rollback;
// atomicity tests that need real rollback run against the gorm unit of work
// with an in-memory sqlite database.
type UoW struct {
	Repos    uow.Repos
	BeginErr error
}

func (u *UoW) WithinTx(_ context.Context, fn func(r uow.Repos) error) error {
	if u.BeginErr != nil {
		return u.BeginErr
	}
	return fn(u.Repos)
}

// Seq is an in-memory implementation of uow.Counters, handing out ids from 0
// per sequence name.
type Seq struct{ next map[string]uint64 }

func NewSeq() *Seq { return &Seq{next: map[string]uint64{}} }

func (s *Seq) Next(_ context.Context, name string) (uint64, error) {
	id := s.next[name]
	s.next[name] = id + 1
	return id, nil
}

// Recorder captures appended events for assertions.
type Recorder struct {
	Events []*event.Event
	Err    error
}

func (r *Recorder) Append(_ context.Context, e *event.Event) error {
	if r.Err != nil {
		return r.Err
	}
	r.Events = append(r.Events, e)
	return nil
}
