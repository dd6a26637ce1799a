package service_test

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fleetdocs/internal/domain"
	"fleetdocs/internal/port"
	"fleetdocs/internal/service"
	"fleetdocs/mocks"
)

func startWorker(t *testing.T, w *service.UploadWorker) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	return func() {
		cancel()
		<-done
	}
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for upload worker")
	}
}

func TestUploadWorker_UploadsAndMarksRecord(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	repo := new(mocks.MockAnalysisRecordRepo)
	id := uuid.New()
	finished := make(chan struct{})

	storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		body, err := io.ReadAll(in.Body)
		return err == nil && string(body) == "%PDF-1.4 data" && in.Size == 13 &&
			in.Key == "ships/s/cert.pdf" && in.ContentType == domain.PDFContentType
	})).Return(&port.UploadOutput{Location: "s3://bucket/ships/s/cert.pdf"}, nil).Once()
	repo.On("UpdateUpload", mock.Anything, id, domain.UploadStatusUploaded, "ships/s/cert.pdf", "").
		Return(nil).Run(func(mock.Arguments) { close(finished) }).Once()

	w := service.NewUploadWorker(storage, repo, service.UploadWorkerConfig{Concurrency: 2, Buffer: 4, MaxAttempts: 3})
	stop := startWorker(t, w)

	require.NoError(t, w.Enqueue(service.UploadTask{
		RecordID:    id,
		Key:         "ships/s/cert.pdf",
		ContentType: domain.PDFContentType,
		Payload:     base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 data")),
	}))
	waitFor(t, finished)
	stop()

	storage.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestUploadWorker_RetriesThenRecordsFailure(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	repo := new(mocks.MockAnalysisRecordRepo)
	id := uuid.New()
	finished := make(chan struct{})

	storage.On("Upload", mock.Anything, mock.Anything).Return(nil, errors.New("503 slow down"))
	repo.On("UpdateUpload", mock.Anything, id, domain.UploadStatusFailed, "", mock.AnythingOfType("string")).
		Return(nil).Run(func(mock.Arguments) { close(finished) }).Once()

	w := service.NewUploadWorker(storage, repo, service.UploadWorkerConfig{
		Concurrency: 1, Buffer: 1, MaxAttempts: 3, RetryDelay: time.Millisecond,
	})
	stop := startWorker(t, w)

	require.NoError(t, w.Enqueue(service.UploadTask{RecordID: id, Key: "k", Payload: base64.StdEncoding.EncodeToString([]byte("x"))}))
	waitFor(t, finished)
	stop()

	storage.AssertNumberOfCalls(t, "Upload", 3)
	msg := repo.Calls[0].Arguments.String(4)
	assert.Contains(t, msg, domain.ErrUploadFailed.Error())
	assert.Contains(t, msg, "503 slow down")
}

func TestUploadWorker_BadPayload(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	repo := new(mocks.MockAnalysisRecordRepo)
	id := uuid.New()
	finished := make(chan struct{})

	repo.On("UpdateUpload", mock.Anything, id, domain.UploadStatusFailed, "", mock.AnythingOfType("string")).
		Return(nil).Run(func(mock.Arguments) { close(finished) }).Once()

	w := service.NewUploadWorker(storage, repo, service.UploadWorkerConfig{})
	stop := startWorker(t, w)

	require.NoError(t, w.Enqueue(service.UploadTask{RecordID: id, Key: "k", Payload: "%%% not base64"}))
	waitFor(t, finished)
	stop()

	storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestUploadWorker_EnqueueFullQueue(t *testing.T) {
	w := service.NewUploadWorker(new(mocks.MockObjectStorage), new(mocks.MockAnalysisRecordRepo),
		service.UploadWorkerConfig{Buffer: 1})

	require.NoError(t, w.Enqueue(service.UploadTask{RecordID: uuid.New()}))
	err := w.Enqueue(service.UploadTask{RecordID: uuid.New()})

	assert.True(t, errors.Is(err, domain.ErrUploadQueueFull))
}

func TestUploadWorker_DrainsQueueOnStop(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	repo := new(mocks.MockAnalysisRecordRepo)
	first, second := uuid.New(), uuid.New()

	storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{}, nil)
	repo.On("UpdateUpload", mock.Anything, first, domain.UploadStatusUploaded, "k1", "").Return(nil).Once()
	repo.On("UpdateUpload", mock.Anything, second, domain.UploadStatusUploaded, "k2", "").Return(nil).Once()

	w := service.NewUploadWorker(storage, repo, service.UploadWorkerConfig{Concurrency: 1, Buffer: 4})
	payload := base64.StdEncoding.EncodeToString([]byte("%PDF"))
	require.NoError(t, w.Enqueue(service.UploadTask{RecordID: first, Key: "k1", Payload: payload}))
	require.NoError(t, w.Enqueue(service.UploadTask{RecordID: second, Key: "k2", Payload: payload}))

	// Already canceled: Start must still upload what was buffered before returning.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Start(ctx)

	storage.AssertNumberOfCalls(t, "Upload", 2)
	repo.AssertExpectations(t)
}

func TestUploadWorker_EnqueueAfterStop(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	repo := new(mocks.MockAnalysisRecordRepo)

	w := service.NewUploadWorker(storage, repo, service.UploadWorkerConfig{Buffer: 4})
	stop := startWorker(t, w)
	stop()

	err := w.Enqueue(service.UploadTask{RecordID: uuid.New(), Key: "k", Payload: base64.StdEncoding.EncodeToString([]byte("x"))})

	assert.ErrorIs(t, err, domain.ErrUploadQueueClosed)
	storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpdateUpload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadWorker_RemovesObjectWhenRecordUpdateFails(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	repo := new(mocks.MockAnalysisRecordRepo)
	id := uuid.New()
	finished := make(chan struct{})

	storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{}, nil).Once()
	repo.On("UpdateUpload", mock.Anything, id, domain.UploadStatusUploaded, "ships/s/cert.pdf", "").
		Return(errors.New("connection reset")).Once()
	storage.On("Delete", mock.Anything, "ships/s/cert.pdf").
		Return(nil).Run(func(mock.Arguments) { close(finished) }).Once()

	w := service.NewUploadWorker(storage, repo, service.UploadWorkerConfig{})
	stop := startWorker(t, w)

	require.NoError(t, w.Enqueue(service.UploadTask{
		RecordID: id,
		Key:      "ships/s/cert.pdf",
		Payload:  base64.StdEncoding.EncodeToString([]byte("%PDF")),
	}))
	waitFor(t, finished)
	stop()

	storage.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestUploadWorker_KeepsObjectWhenRecordUpdated(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	repo := new(mocks.MockAnalysisRecordRepo)
	id := uuid.New()

	storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{}, nil).Once()
	repo.On("UpdateUpload", mock.Anything, id, domain.UploadStatusUploaded, "k", "").Return(nil).Once()

	w := service.NewUploadWorker(storage, repo, service.UploadWorkerConfig{})
	require.NoError(t, w.Enqueue(service.UploadTask{RecordID: id, Key: "k", Payload: base64.StdEncoding.EncodeToString([]byte("x"))}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Start(ctx)

	storage.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}
