package service

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/jask/hangarledger/internal/database/repository"
)

// NamedStore is the subset of a repository used to reconcile named entities.
type NamedStore[T any] interface {
	Insert(ctx context.Context, v T) error
	FindByName(ctx context.Context, name string) (*T, error)
	List(ctx context.Context) ([]T, error)
}

type AircraftStore interface {
	Insert(ctx context.Context, a repository.Aircraft) error
	FindByTailNumber(ctx context.Context, tail string) (*repository.Aircraft, error)
	List(ctx context.Context) ([]repository.Aircraft, error)
}

type TripStore interface {
	Insert(ctx context.Context, t repository.Trip) error
	List(ctx context.Context) ([]repository.Trip, error)
}

type ExpenseStore interface {
	Insert(ctx context.Context, e repository.Expense) error
}

type LineItemStore interface {
	Insert(ctx context.Context, li repository.LineItem) error
}

type ReceiptStore interface {
	Insert(ctx context.Context, r repository.Receipt) error
}

type SessionStore interface {
	Create(ctx context.Context, s repository.ImportSession) error
	Complete(ctx context.Context, id string, processed, failed int) error
	Fail(ctx context.Context, id, message string) error
	AddLog(ctx context.Context, l repository.ImportLog) error
}

func orDiscard(l *log.Logger) *log.Logger {
	if l != nil {
		return l
	}
	return log.New(io.Discard)
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
