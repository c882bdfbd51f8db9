package triage

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *echo.Echo) {
	h := NewHandler(newTestService())
	e := echo.New()
	return h, e
}

func TestHandler_CreateTreatment(t *testing.T) {
	h, e := newTestHandler()

	body := `{"patient_name":"Jo","arrived_at":"08:00","treatment_type":"MD","complete_by":"08:10"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/treatments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateTreatment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var card map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &card)
	if card["patient_name"] != "Jo" {
		t.Errorf("expected Jo, got %v", card["patient_name"])
	}
	if card["color"] != "#FFC0CB" || card["type_label"] != "Multi Drug" {
		t.Errorf("unexpected styling %v %v", card["color"], card["type_label"])
	}
	if card["show_time_range"] != false {
		t.Errorf("a 10 minute card should hide its time range")
	}
	if card["assigned_to"] != nil {
		t.Errorf("expected null assigned_to, got %v", card["assigned_to"])
	}
}

func TestHandler_CreateTreatment_Form(t *testing.T) {
	h, e := newTestHandler()

	form := url.Values{}
	form.Set("patient_name", "Jo")
	form.Set("arrived_at", "08:00")
	form.Set("treatment_type", "DTU")
	form.Set("complete_by", "09:00")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/treatments", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateTreatment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}

func TestHandler_CreateTreatment_ValidationError(t *testing.T) {
	h, e := newTestHandler()

	body := `{"patient_name":"Jo","arrived_at":"09:00","treatment_type":"QT","complete_by":"08:00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/treatments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateTreatment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}

	var verr ValidationError
	json.Unmarshal(rec.Body.Bytes(), &verr)
	if verr.Field != "complete_by" {
		t.Errorf("expected complete_by, got %s", verr.Field)
	}
	if verr.Message != "Patient's Arrival Time cannot be later than their Completion Time" {
		t.Errorf("unexpected message %q", verr.Message)
	}
}

func TestHandler_CreateTreatment_BadBody(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/treatments", strings.NewReader("{"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateTreatment(c); err == nil {
		t.Error("expected error for malformed body")
	}
}

func TestHandler_GetTreatment(t *testing.T) {
	h, e := newTestHandler()
	tr := mustCreate(t, h.svc, "Jo", "08:00", "09:00")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("0")

	if err := h.GetTreatment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got Treatment
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.ID != tr.ID || got.PatientName != "Jo" {
		t.Errorf("unexpected treatment %+v", got)
	}
}

func TestHandler_GetTreatment_Errors(t *testing.T) {
	h, e := newTestHandler()

	cases := []struct {
		id   string
		code int
	}{
		{"abc", http.StatusBadRequest},
		{"7", http.StatusNotFound},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(tc.id)

		err := h.GetTreatment(c)
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != tc.code {
			t.Errorf("id %s: expected %d, got %v", tc.id, tc.code, err)
		}
	}
}

func TestHandler_ListTreatments(t *testing.T) {
	h, e := newTestHandler()
	for i := 0; i < 3; i++ {
		mustCreate(t, h.svc, "p", "08:00", "09:00")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/treatments?limit=2", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListTreatments(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp struct {
		Data    []Treatment `json:"data"`
		Total   int         `json:"total"`
		HasMore bool        `json:"has_more"`
		Links   []struct {
			Relation string `json:"relation"`
			URL      string `json:"url"`
		} `json:"links"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 3 || len(resp.Data) != 2 || !resp.HasMore {
		t.Errorf("unexpected page: total=%d len=%d has_more=%v", resp.Total, len(resp.Data), resp.HasMore)
	}
	if len(resp.Links) != 2 || resp.Links[1].URL != "/api/v1/treatments?offset=2&limit=2" {
		t.Errorf("unexpected links %+v", resp.Links)
	}
}

func TestHandler_DropAndUnassign(t *testing.T) {
	h, e := newTestHandler()
	mustCreate(t, h.svc, "T1", "08:00", "09:00")
	mustCreate(t, h.svc, "T2", "08:30", "09:30")

	drop := func(body string) transitionResponse {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/drops", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		if err := h.Drop(e.NewContext(req, rec)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp transitionResponse
		json.Unmarshal(rec.Body.Bytes(), &resp)
		return resp
	}

	if resp := drop(`{"treatment_id":0,"target":"0"}`); !resp.Applied {
		t.Error("expected first drop to apply")
	}
	resp := drop(`{"treatment_id":1,"target":"0"}`)
	if !resp.Applied {
		t.Fatal("expected second drop to apply")
	}
	col := resp.Board.Schedules[0].Treatments
	if len(col) != 2 || col[0].Width != 50 || col[1].X != 50 {
		t.Fatalf("expected side by side cards, got %+v", col)
	}
	if resp := drop(`{"treatment_id":1,"target":"pool"}`); resp.Applied {
		t.Error("drop on non-nurse target should not apply")
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("0")
	if err := h.UnassignTreatment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var after transitionResponse
	json.Unmarshal(rec.Body.Bytes(), &after)
	if !after.Applied || len(after.Board.Unassigned) != 1 {
		t.Fatalf("expected treatment back in pool, got %+v", after)
	}
	col = after.Board.Schedules[0].Treatments
	if len(col) != 1 || col[0].Width != 100 || col[0].X != 0 {
		t.Errorf("expected remaining card at full width, got %+v", col)
	}
}

func TestHandler_DeleteTreatment(t *testing.T) {
	h, e := newTestHandler()
	mustCreate(t, h.svc, "Jo", "08:00", "09:00")

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("0")

	if err := h.DeleteTreatment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp transitionResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.Applied || len(resp.Board.Unassigned) != 0 {
		t.Errorf("expected empty pool after delete, got %+v", resp)
	}
}

func TestHandler_DeleteTreatment_InvalidID(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("x")

	if err := h.DeleteTreatment(c); err == nil {
		t.Error("expected error for invalid id")
	}
}

func TestHandler_Lookups(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if err := h.ListTreatmentTypes(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var types []TreatmentTypeOption
	json.Unmarshal(rec.Body.Bytes(), &types)
	if len(types) != 4 || types[0].Code != QuickTreat || types[3].Color != "#7AC2E0" {
		t.Errorf("unexpected types %+v", types)
	}

	rec = httptest.NewRecorder()
	if err := h.ListNurses(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var nurses []Nurse
	json.Unmarshal(rec.Body.Bytes(), &nurses)
	if len(nurses) != 6 || nurses[0].Name != "A" || nurses[5].ID != 5 {
		t.Errorf("unexpected nurses %+v", nurses)
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	h, e := newTestHandler()
	h.RegisterRoutes(e.Group("/api/v1"))

	want := map[string]bool{}
	for _, route := range []string{
		"GET /api/v1/treatment-types",
		"GET /api/v1/nurses",
		"GET /api/v1/board",
		"GET /api/v1/treatments",
		"GET /api/v1/treatments/:id",
		"POST /api/v1/treatments",
		"DELETE /api/v1/treatments/:id",
		"POST /api/v1/treatments/:id/unassign",
		"POST /api/v1/drops",
	} {
		want[route] = false
	}
	for _, r := range e.Routes() {
		key := r.Method + " " + r.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for route, found := range want {
		if !found {
			t.Errorf("route %s not registered", route)
		}
	}
}
