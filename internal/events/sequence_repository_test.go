package events

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

type fakeTxStarter struct {
	beginFn func(ctx context.Context, opts *sql.TxOptions) (txRunner, error)
}

func (f fakeTxStarter) BeginTx(ctx context.Context, opts *sql.TxOptions) (txRunner, error) {
	return f.beginFn(ctx, opts)
}

type fakeTx struct {
	queryRowFn func(ctx context.Context, query string, args ...any) rowScanner
	commitFn   func() error
	rolledBack bool
}

func (f *fakeTx) QueryRowContext(ctx context.Context, query string, args ...any) rowScanner {
	return f.queryRowFn(ctx, query, args...)
}

func (f *fakeTx) Commit() error {
	if f.commitFn != nil {
		return f.commitFn()
	}
	return nil
}

func (f *fakeTx) Rollback() error {
	f.rolledBack = true
	return nil
}

type fakeRow struct {
	scanFn func(dest ...any) error
}

func (f fakeRow) Scan(dest ...any) error {
	return f.scanFn(dest...)
}

func TestNextSequenceReturnsIncrementedValue(t *testing.T) {
	var gotKey string
	tx := &fakeTx{
		queryRowFn: func(ctx context.Context, query string, args ...any) rowScanner {
			gotKey = args[0].(string)
			return fakeRow{scanFn: func(dest ...any) error {
				*(dest[0].(*int64)) = 7
				return nil
			}}
		},
	}
	repo := &sequenceRepository{db: fakeTxStarter{
		beginFn: func(ctx context.Context, opts *sql.TxOptions) (txRunner, error) {
			return tx, nil
		},
	}}

	next, err := repo.NextSequence(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != 7 {
		t.Fatalf("expected sequence 7, got %d", next)
	}
	if gotKey != "sess-1" {
		t.Fatalf("expected partition key sess-1, got %q", gotKey)
	}
	if tx.rolledBack {
		t.Fatal("tx should not have been rolled back")
	}
}

func TestNextSequenceRequiresPartitionKey(t *testing.T) {
	repo := &sequenceRepository{db: fakeTxStarter{
		beginFn: func(ctx context.Context, opts *sql.TxOptions) (txRunner, error) {
			t.Fatal("BeginTx should not be called")
			return nil, nil
		},
	}}

	if _, err := repo.NextSequence(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty partition key")
	}
}

func TestNextSequenceRollsBackOnScanError(t *testing.T) {
	scanErr := errors.New("boom")
	tx := &fakeTx{
		queryRowFn: func(ctx context.Context, query string, args ...any) rowScanner {
			return fakeRow{scanFn: func(dest ...any) error { return scanErr }}
		},
	}
	repo := &sequenceRepository{db: fakeTxStarter{
		beginFn: func(ctx context.Context, opts *sql.TxOptions) (txRunner, error) {
			return tx, nil
		},
	}}

	if _, err := repo.NextSequence(context.Background(), "sess-1"); !errors.Is(err, scanErr) {
		t.Fatalf("expected scan error, got %v", err)
	}
	if !tx.rolledBack {
		t.Fatal("expected rollback after scan failure")
	}
}
