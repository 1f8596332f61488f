package responseformat

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

type payload struct {
	SignName string `json:"sign_name"`
	Degree   int    `json:"degree"`
}

func TestWriteResponse(t *testing.T) {
	f := NewFormatter()
	data := payload{SignName: "Leo", Degree: 23}

	tests := []struct {
		name        string
		url         string
		contentType string
		decode      func([]byte, any) error
	}{
		{"default json", "/chart/now", ContentTypeJSON, json.Unmarshal},
		{"unknown format is json", "/chart/now?format=xml", ContentTypeJSON, json.Unmarshal},
		{"msgpack", "/chart/now?format=msgpack", ContentTypeMsgPack, func(b []byte, v any) error {
			// decode with the same json tag names
			var m map[string]any
			if err := msgpack.Unmarshal(b, &m); err != nil {
				return err
			}
			raw, _ := json.Marshal(m)
			return json.Unmarshal(raw, v)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)

			if err := f.WriteResponse(rec, req, http.StatusOK, data); err != nil {
				t.Fatalf("WriteResponse() error = %v", err)
			}
			if ct := rec.Header().Get("Content-Type"); ct != tt.contentType {
				t.Errorf("Content-Type = %q, expected %q", ct, tt.contentType)
			}
			if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
				t.Error("missing CORS header")
			}

			var got payload
			if err := tt.decode(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode error = %v", err)
			}
			if got != data {
				t.Errorf("decoded %+v, expected %+v", got, data)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/charts/9", nil)

	if err := NewFormatter().WriteError(rec, req, http.StatusNotFound, errors.New("chart not found")); err != nil {
		t.Fatalf("WriteError() error = %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, expected 404", rec.Code)
	}

	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error != "chart not found" {
		t.Errorf("body = %+v", body)
	}
}
