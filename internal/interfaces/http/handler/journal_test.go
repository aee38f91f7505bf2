package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/gescom/backend/internal/domain/journal"
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/domain/tax"
)

type fakeJournalService struct {
	generated *journal.SalesJournal
	created   bool
	err       error
	journals  map[uuid.UUID]*journal.SalesJournal
	byDate    *journal.SalesJournal
	listed    []journal.SalesJournal
}

func (f *fakeJournalService) Generate(ctx context.Context, date time.Time) (*journal.SalesJournal, bool, error) {
	return f.generated, f.created, f.err
}

func (f *fakeJournalService) Validate(ctx context.Context, id uuid.UUID) (*journal.SalesJournal, error) {
	if f.err != nil {
		return nil, f.err
	}
	if j, ok := f.journals[id]; ok {
		return j, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeJournalService) GetByID(ctx context.Context, id uuid.UUID) (*journal.SalesJournal, error) {
	if j, ok := f.journals[id]; ok {
		return j, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeJournalService) GetByDate(ctx context.Context, date time.Time) (*journal.SalesJournal, error) {
	if f.byDate == nil {
		return nil, shared.ErrNotFound
	}
	return f.byDate, nil
}

func (f *fakeJournalService) List(ctx context.Context, filter shared.Filter) ([]journal.SalesJournal, error) {
	return f.listed, nil
}

func testJournal() *journal.SalesJournal {
	j := journal.NewSalesJournal(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
	j.Number = "JV-2026-00001"
	j.TotalHT = decimal.RequireFromString("166.66")
	j.TotalTTC = decimal.RequireFromString("200.00")
	j.TaxBreakdown = map[tax.Rate]journal.RateBucket{
		tax.RateStandard: {
			Base: decimal.RequireFromString("166.66"),
			Tax:  decimal.RequireFromString("33.34"),
		},
	}
	return j
}

func newJournalRouter(svc JournalService) *gin.Engine {
	h := NewJournalHandler(svc)
	r := gin.New()
	r.POST("/journals/generate", h.Generate)
	r.POST("/journals/:id/validate", h.Validate)
	r.GET("/journals", h.List)
	r.GET("/journals/:id", h.Get)
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestJournalGenerate_Created(t *testing.T) {
	svc := &fakeJournalService{generated: testJournal(), created: true}
	r := newJournalRouter(svc)

	w := postJSON(r, "/journals/generate", `{"date": "2026-03-14"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "JV-2026-00001")
	assert.Contains(t, body, `"total_ht":"166.66"`)
	assert.Contains(t, body, `"date":"2026-03-14"`)
}

func TestJournalGenerate_Regenerated(t *testing.T) {
	svc := &fakeJournalService{generated: testJournal(), created: false}
	r := newJournalRouter(svc)

	w := postJSON(r, "/journals/generate", `{"date": "2026-03-14"}`)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJournalGenerate_NoOrders(t *testing.T) {
	svc := &fakeJournalService{generated: nil, created: false}
	r := newJournalRouter(svc)

	w := postJSON(r, "/journals/generate", `{"date": "2026-03-14"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestJournalGenerate_BadDate(t *testing.T) {
	r := newJournalRouter(&fakeJournalService{})

	w := postJSON(r, "/journals/generate", `{"date": "14/03/2026"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJournalGenerate_MissingDate(t *testing.T) {
	r := newJournalRouter(&fakeJournalService{})

	w := postJSON(r, "/journals/generate", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJournalValidate_OK(t *testing.T) {
	j := testJournal()
	j.Status = journal.StatusValidated
	svc := &fakeJournalService{journals: map[uuid.UUID]*journal.SalesJournal{j.ID: j}}
	r := newJournalRouter(svc)

	w := postJSON(r, "/journals/"+j.ID.String()+"/validate", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"VALIDATED"`)
}

func TestJournalValidate_WrongState(t *testing.T) {
	svc := &fakeJournalService{err: shared.NewDomainError(shared.CodeValidationFailed, "Journal is not a draft")}
	r := newJournalRouter(svc)

	w := postJSON(r, "/journals/"+uuid.NewString()+"/validate", "")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestJournalValidate_DateConflict(t *testing.T) {
	svc := &fakeJournalService{err: shared.ErrConflict}
	r := newJournalRouter(svc)

	w := postJSON(r, "/journals/"+uuid.NewString()+"/validate", "")

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestJournalGet_NotFound(t *testing.T) {
	r := newJournalRouter(&fakeJournalService{journals: map[uuid.UUID]*journal.SalesJournal{}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/journals/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJournalGet_BadID(t *testing.T) {
	r := newJournalRouter(&fakeJournalService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/journals/not-a-uuid", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJournalList_ByDate(t *testing.T) {
	svc := &fakeJournalService{byDate: testJournal()}
	r := newJournalRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/journals?date=2026-03-14", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "JV-2026-00001")
}

func TestJournalList_ByDateMissing(t *testing.T) {
	r := newJournalRouter(&fakeJournalService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/journals?date=2026-03-15", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJournalList_All(t *testing.T) {
	svc := &fakeJournalService{listed: []journal.SalesJournal{*testJournal(), *testJournal()}}
	r := newJournalRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/journals", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, strings.Count(w.Body.String(), "JV-2026-00001"))
}
