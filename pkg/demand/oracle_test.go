package demand

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zhipai/zhipai/pkg/errors"
)

func TestHTTPOracle_PredictDemand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict/demand" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("start_date") != "2026-01-12" {
			t.Errorf("Missing start_date, got %q", r.URL.Query().Get("start_date"))
		}
		if r.URL.Query().Get("activity_ids") != "act-1,act-2" {
			t.Errorf("Missing activity_ids, got %q", r.URL.Query().Get("activity_ids"))
		}
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"date": "2026-01-12", "activity_id": "act-1", "predicted_hours": 16.0},
		})
	}))
	defer srv.Close()

	oracle := NewHTTPOracle(srv.URL, 5*time.Second)
	blocks, err := oracle.PredictDemand(context.Background(), "2026-01-12", "2026-01-16", []string{"act-1", "act-2"})
	if err != nil {
		t.Fatalf("PredictDemand failed: %v", err)
	}
	if len(blocks) != 1 || blocks[0].PredictedHours != 16.0 {
		t.Errorf("Unexpected blocks: %+v", blocks)
	}
}

func TestHTTPOracle_PredictAbsenceRisk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("date") != "2026-01-12" {
			t.Errorf("Missing date, got %q", r.URL.Query().Get("date"))
		}
		json.NewEncoder(w).Encode(map[string]float64{"w1": 0.25})
	}))
	defer srv.Close()

	oracle := NewHTTPOracle(srv.URL, 5*time.Second)
	risk, err := oracle.PredictAbsenceRisk(context.Background(), "2026-01-12")
	if err != nil {
		t.Fatalf("PredictAbsenceRisk failed: %v", err)
	}
	if risk["w1"] != 0.25 {
		t.Errorf("Expected 0.25, got %f", risk["w1"])
	}
}

func TestHTTPOracle_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "内部错误", http.StatusInternalServerError)
	}))
	defer srv.Close()

	oracle := NewHTTPOracle(srv.URL, 5*time.Second)
	_, err := oracle.PredictDemand(context.Background(), "2026-01-12", "2026-01-16", nil)
	if err == nil {
		t.Fatal("Expected error on 500")
	}
	if !errors.Is(err, errors.CodeOracleError) {
		t.Errorf("Expected ORACLE_ERROR, got %v", errors.GetCode(err))
	}
}
