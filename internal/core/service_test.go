package core

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fileconverter/internal/codec"
	"github.com/JonMunkholm/fileconverter/internal/history"
	"github.com/JonMunkholm/fileconverter/internal/pipeline"
	"github.com/JonMunkholm/fileconverter/internal/table"
)

func newTestService(t *testing.T, cfg Config) (*Service, *history.Memory) {
	t.Helper()
	rec := history.NewMemory(10)
	return NewService(cfg, rec), rec
}

func TestService_AddFile(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	ctx := context.Background()

	info, err := svc.AddFile(ctx, `C:\Users\me\sales.csv`, strings.NewReader("region,amount\nnorth,10\nsouth,\n"))
	require.NoError(t, err)

	assert.Equal(t, "sales.csv", info.Name)
	assert.Equal(t, codec.CSV, info.Format)
	assert.Equal(t, 2, info.Rows)
	assert.Equal(t, []ColumnInfo{
		{Name: "region", Kind: "text"},
		{Name: "amount", Kind: "numeric", Missing: 1},
	}, info.Columns)

	got, err := svc.Describe(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, info.ID, got.ID)
}

func TestService_AddFile_Errors(t *testing.T) {
	svc, _ := newTestService(t, Config{MaxFileSize: 16})
	ctx := context.Background()

	tests := []struct {
		name    string
		file    string
		content string
		check   func(t *testing.T, err error)
	}{
		{
			name:    "unsupported extension",
			file:    "notes.txt",
			content: "a",
			check:   func(t *testing.T, err error) { assert.ErrorIs(t, err, codec.ErrUnsupportedFormat) },
		},
		{
			name:    "too large",
			file:    "big.csv",
			content: strings.Repeat("x", 17),
			check:   func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrFileTooLarge) },
		},
		{
			name:    "malformed",
			file:    "bad.csv",
			content: "a\n1,2\n",
			check: func(t *testing.T, err error) {
				var pe *codec.ParseError
				assert.ErrorAs(t, err, &pe)
			},
		},
		{
			name:    "corrupt workbook",
			file:    "bad.xlsx",
			content: "not a zip",
			check: func(t *testing.T, err error) {
				var pe *codec.ParseError
				assert.ErrorAs(t, err, &pe)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddFile(ctx, tt.file, strings.NewReader(tt.content))
			require.Error(t, err)
			tt.check(t, err)
			assert.True(t, IsClientError(err), "IsClientError(%v)", err)
		})
	}

	assert.Empty(t, svc.List(ctx), "failed uploads must not be stored")
}

func TestService_ConvertRecordsHistory(t *testing.T) {
	svc, rec := newTestService(t, Config{})
	ctx := ContextWithIPAddress(context.Background(), "192.0.2.7")

	info, err := svc.AddFile(ctx, "data.csv", strings.NewReader("A,B\n1,10\n1,\n2,30\n"))
	require.NoError(t, err)

	opts := pipeline.Options{RemoveDuplicates: true, FillMissingWithMean: true, OutputFormat: codec.XLSX}
	res, err := svc.Convert(ctx, info.ID, opts)
	require.NoError(t, err)
	assert.Equal(t, "data.xlsx", res.Artifact.Name)
	assert.Equal(t, codec.MIMEXLSX, res.Artifact.MIME)

	out, err := codec.ReadXLSX(bytes.NewReader(res.Artifact.Data))
	require.NoError(t, err)
	b, ok := out.Column("B")
	require.True(t, ok)
	assert.Equal(t, 20.0, b.Values[1].Num)

	entries, err := rec.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "data.csv", e.SourceName)
	assert.Equal(t, "data.xlsx", e.OutputName)
	assert.Equal(t, 3, e.RowsIn)
	assert.Equal(t, 3, e.RowsOut)
	assert.Equal(t, "192.0.2.7", e.ClientIP)
}

func TestService_ProcessDoesNotRecordOrMutate(t *testing.T) {
	svc, rec := newTestService(t, Config{})
	ctx := context.Background()

	info, err := svc.AddFile(ctx, "d.csv", strings.NewReader("A,B\n1,x\n1,x\n"))
	require.NoError(t, err)

	// A first run with cleaning must not affect a second run without it.
	_, err = svc.Process(ctx, info.ID, pipeline.Options{RemoveDuplicates: true, SelectedColumns: []string{"A"}, OutputFormat: codec.CSV})
	require.NoError(t, err)

	res, err := svc.Process(ctx, info.ID, pipeline.Options{OutputFormat: codec.CSV})
	require.NoError(t, err)
	assert.Equal(t, "A,B\n1,x\n1,x\n", string(res.Artifact.Data))

	entries, err := rec.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestService_ProcessErrors(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	ctx := context.Background()
	info, err := svc.AddFile(ctx, "d.csv", strings.NewReader("A\n1\n"))
	require.NoError(t, err)

	_, err = svc.Process(ctx, "missing", pipeline.DefaultOptions())
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = svc.Process(ctx, info.ID, pipeline.Options{SelectedColumns: []string{"Z"}, OutputFormat: codec.CSV})
	assert.ErrorIs(t, err, table.ErrUnknownColumn)

	_, err = svc.Process(ctx, info.ID, pipeline.Options{})
	assert.ErrorIs(t, err, pipeline.ErrInvalidOptions)

	other := ContextWithSession(ctx, "someone-else")
	_, err = svc.Process(other, info.ID, pipeline.DefaultOptions())
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestService_SessionsAreIsolated(t *testing.T) {
	svc, _ := newTestService(t, Config{MaxFilesPerSession: 1})
	alice := ContextWithSession(context.Background(), "alice")
	bob := ContextWithSession(context.Background(), "bob")

	_, err := svc.AddFile(alice, "a.csv", strings.NewReader("a\n1\n"))
	require.NoError(t, err)
	_, err = svc.AddFile(bob, "b.csv", strings.NewReader("b\n1\n"))
	require.NoError(t, err)
	_, err = svc.AddFile(alice, "c.csv", strings.NewReader("c\n1\n"))
	assert.ErrorIs(t, err, ErrSessionFull)

	files := svc.List(alice)
	require.Len(t, files, 1)
	assert.Equal(t, "a.csv", files[0].Name)

	assert.ErrorIs(t, svc.Remove(bob, files[0].ID), ErrFileNotFound)
	assert.NoError(t, svc.Remove(alice, files[0].ID))
}

func TestService_ConcurrentProcess(t *testing.T) {
	svc, _ := newTestService(t, Config{MaxConcurrent: 2, MaxWait: 5 * time.Second})
	ctx := context.Background()
	info, err := svc.AddFile(ctx, "d.csv", strings.NewReader("A,B\n1,\n2,4\n2,4\n"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			opts := pipeline.Options{RemoveDuplicates: i%2 == 0, FillMissingWithMean: true, OutputFormat: codec.CSV}
			res, err := svc.Process(ctx, info.ID, opts)
			if !assert.NoError(t, err, "Process %d", i) {
				return
			}
			want := 3
			if opts.RemoveDuplicates {
				want = 2
			}
			assert.Equal(t, want, res.Report.RowsOut, "run %d", i)
		}(i)
	}
	wg.Wait()

	st := svc.Status()
	assert.Equal(t, 0, st.Limiter.Active)
	assert.Equal(t, 2, st.Limiter.Available)
	assert.Equal(t, 2, st.Limiter.MaxConcurrent)
	assert.Equal(t, 1, st.StoredFiles)
}

func TestService_ConcurrentDescribeAndProcess(t *testing.T) {
	svc, _ := newTestService(t, Config{MaxConcurrent: 4, MaxWait: 5 * time.Second})
	ctx := context.Background()
	info, err := svc.AddFile(ctx, "d.csv", strings.NewReader("A\n1\n2\n"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			got, err := svc.Describe(ctx, info.ID)
			if assert.NoError(t, err) {
				assert.Equal(t, "d.csv", got.Name)
			}
		}()
		go func() {
			defer wg.Done()
			res, err := svc.Process(ctx, info.ID, pipeline.DefaultOptions())
			if assert.NoError(t, err) {
				assert.Equal(t, "d.csv", res.SourceName)
			}
		}()
	}
	wg.Wait()
}

func TestService_SweepAndShutdown(t *testing.T) {
	svc, _ := newTestService(t, Config{FileTTL: time.Minute})
	clock := &fakeClock{t: time.Now()}
	svc.store.now = clock.now

	_, err := svc.AddFile(context.Background(), "a.csv", strings.NewReader("a\n1\n"))
	require.NoError(t, err)
	clock.advance(2 * time.Minute)

	assert.Equal(t, 1, svc.Sweep())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, svc.Shutdown(ctx))
}

func TestService_StartSweeperStops(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.StartSweeper(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("sweeper did not stop after cancel")
	}
}
