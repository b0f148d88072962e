package inbound_message

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	processMessage "github.com/m04kA/SMC-ReservationEngine/internal/usecase/process_message"
	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
)

type fakeUseCase struct {
	got  *processMessage.Request
	resp *processMessage.Response
	err  error
}

func (f *fakeUseCase) Execute(_ context.Context, req *processMessage.Request) (*processMessage.Response, error) {
	f.got = req
	return f.resp, f.err
}

type sent struct {
	tenantID int64
	to, text string
}

type fakeSender struct {
	sent []sent
	err  error
}

func (f *fakeSender) SendText(_ context.Context, tenantID int64, to, text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, sent{tenantID: tenantID, to: to, text: text})
	return "out-1", nil
}

func serve(uc *fakeUseCase, sender *fakeSender, body string) (*httptest.ResponseRecorder, InboundMessageResponse) {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/webhooks/messaging/{tenant}", NewHandler(uc, sender, logger.NewNop()).Handle)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/messaging/studio-bella", strings.NewReader(body)))

	var resp InboundMessageResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

const body = `{"messageId":"wamid.1","from":"+55 11 98765-4321","text":"1"}`

func TestHandle_RepliesThroughSender(t *testing.T) {
	uc := &fakeUseCase{resp: &processMessage.Response{
		ShouldReply: true,
		ReplyText:   "Qual serviço você deseja?",
		NextStep:    domain.StepChooseService,
		TenantID:    1,
	}}
	sender := &fakeSender{}

	w, resp := serve(uc, sender, body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, statusReplied, resp.Status)
	assert.Equal(t, "CHOOSE_SERVICE", resp.Step)

	require.NotNil(t, uc.got)
	assert.Equal(t, "studio-bella", uc.got.TenantRef)
	assert.Equal(t, "wamid.1", uc.got.MessageID)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, sent{tenantID: 1, to: "+55 11 98765-4321", text: "Qual serviço você deseja?"}, sender.sent[0])
}

func TestHandle_DuplicateIsNotAnswered(t *testing.T) {
	sender := &fakeSender{}
	w, resp := serve(&fakeUseCase{resp: &processMessage.Response{ShouldReply: false, NextStep: domain.StepChooseService}}, sender, body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, statusIgnored, resp.Status)
	assert.Empty(t, sender.sent)
}

func TestHandle_AlwaysOK(t *testing.T) {
	w, resp := serve(&fakeUseCase{}, &fakeSender{}, `{"messageId":`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, statusIgnored, resp.Status)

	w, resp = serve(&fakeUseCase{err: processMessage.ErrTenantNotFound}, &fakeSender{}, body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, statusFailed, resp.Status)

	uc := &fakeUseCase{resp: &processMessage.Response{ShouldReply: true, ReplyText: "oi", TenantID: 1}}
	w, resp = serve(uc, &fakeSender{err: errors.New("provider down")}, body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, statusFailed, resp.Status)
}

func TestHandle_FailedTurnSendsApology(t *testing.T) {
	turnErr := &processMessage.TurnError{
		TenantID: 1,
		Reply:    "Desculpe, algo deu errado.",
		Err:      processMessage.ErrInternal,
	}
	sender := &fakeSender{}

	w, resp := serve(&fakeUseCase{err: turnErr}, sender, body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, statusFailed, resp.Status)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, sent{tenantID: 1, to: "+55 11 98765-4321", text: "Desculpe, algo deu errado."}, sender.sent[0])
}

func TestHandle_UnknownTenantGetsNoApology(t *testing.T) {
	sender := &fakeSender{}

	w, resp := serve(&fakeUseCase{err: processMessage.ErrTenantNotFound}, sender, body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, statusFailed, resp.Status)
	assert.Empty(t, sender.sent)
}
