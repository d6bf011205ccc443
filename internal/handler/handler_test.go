package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/ingest"
	"pdfchat/internal/pkg/errs"
	"pdfchat/internal/service"
)

type fakeIngestor struct {
	result   *ingest.Result
	err      error
	filename string
}

func (f *fakeIngestor) IngestPDF(ctx context.Context, filename string, r io.Reader) (*ingest.Result, error) {
	f.filename = filename
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeAsker struct {
	answer    *service.Answer
	err       error
	sessionID string
	question  string
}

func (f *fakeAsker) Ask(ctx context.Context, sessionID string, question string) (*service.Answer, error) {
	f.sessionID = sessionID
	f.question = question
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

func newTestRouter(t *testing.T, ingestor Ingestor, asker Asker, history *service.ChatHistory) (*gin.Engine, *ChatHandler) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if history == nil {
		history = service.NewChatHistory()
	}
	chat := NewChatHandler(asker, history)
	return NewRouter(RouterDeps{
		Documents: NewDocumentHandler(ingestor, 32*1024*1024),
		Chat:      chat,
	}), chat
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUpload_Success(t *testing.T) {
	ingestor := &fakeIngestor{result: &ingest.Result{Source: "doc.pdf", Pages: 3, ChunkIDs: []string{"a", "b"}}}
	router, _ := newTestRouter(t, ingestor, &fakeAsker{}, nil)

	body, contentType := multipartBody(t, "file", "doc.pdf", "%PDF-1.4 fake")
	req := httptest.NewRequest("POST", "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "doc.pdf", ingestor.filename)

	var resp struct {
		Data ingest.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 3, resp.Data.Pages)
	require.Len(t, resp.Data.ChunkIDs, 2)
}

func TestUpload_RejectsNonPDF(t *testing.T) {
	ingestor := &fakeIngestor{}
	router, _ := newTestRouter(t, ingestor, &fakeAsker{}, nil)

	body, contentType := multipartBody(t, "file", "notes.txt", "plain text")
	req := httptest.NewRequest("POST", "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, ingestor.filename)
}

func TestUpload_MissingFile(t *testing.T) {
	router, _ := newTestRouter(t, &fakeIngestor{}, &fakeAsker{}, nil)

	body, contentType := multipartBody(t, "other", "doc.pdf", "%PDF-1.4")
	req := httptest.NewRequest("POST", "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAsk_Success(t *testing.T) {
	asker := &fakeAsker{answer: &service.Answer{SessionID: "s1", Question: "q", Text: "**bold** answer"}}
	router, _ := newTestRouter(t, &fakeIngestor{}, asker, nil)

	req := httptest.NewRequest("POST", "/api/v1/chat/ask", strings.NewReader(`{"question":"q","session_id":"s1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "s1", asker.sessionID)

	var resp struct {
		Data struct {
			Answer     string `json:"answer"`
			AnswerHTML string `json:"answer_html"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "**bold** answer", resp.Data.Answer)
	require.Contains(t, resp.Data.AnswerHTML, "<strong>bold</strong>")
}

func TestAsk_DefaultSessionIsStable(t *testing.T) {
	asker := &fakeAsker{answer: &service.Answer{Text: "ok"}}
	router, chat := newTestRouter(t, &fakeIngestor{}, asker, nil)

	req := httptest.NewRequest("POST", "/api/v1/chat/ask", strings.NewReader(`{"question":"q"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	first := asker.sessionID
	require.NotEmpty(t, first)
	require.Equal(t, chat.defaultSession, first)

	req2 := httptest.NewRequest("POST", "/api/v1/chat/ask", strings.NewReader(`{"question":"q2"}`))
	req2.Header.Set("Content-Type", "application/json")
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	require.Equal(t, first, asker.sessionID)
}

func TestAsk_NotIngestedConflict(t *testing.T) {
	asker := &fakeAsker{err: errs.ErrNotIngested}
	router, _ := newTestRouter(t, &fakeIngestor{}, asker, nil)

	req := httptest.NewRequest("POST", "/api/v1/chat/ask", strings.NewReader(`{"question":"q"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "not_ingested")
}

func TestAsk_InvalidBody(t *testing.T) {
	router, _ := newTestRouter(t, &fakeIngestor{}, &fakeAsker{}, nil)

	req := httptest.NewRequest("POST", "/api/v1/chat/ask", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistory_ReturnsSessionTurns(t *testing.T) {
	history := service.NewChatHistory()
	history.Append("s1", "q1", "a1")
	history.Append("s1", "q2", "a2")
	history.Append("other", "x", "y")
	router, _ := newTestRouter(t, &fakeIngestor{}, &fakeAsker{}, history)

	req := httptest.NewRequest("GET", "/api/v1/chat/history?session_id=s1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data struct {
			SessionID string `json:"session_id"`
			Turns     []struct {
				Question string `json:"question"`
				Answer   string `json:"answer"`
			} `json:"turns"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "s1", resp.Data.SessionID)
	require.Len(t, resp.Data.Turns, 2)
	require.Equal(t, "q1", resp.Data.Turns[0].Question)
	require.Equal(t, "a2", resp.Data.Turns[1].Answer)
}

func TestIndexServed(t *testing.T) {
	router, _ := newTestRouter(t, &fakeIngestor{}, &fakeAsker{}, nil)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}
