package dto

import (
	"encoding/json"
	"testing"
)

func TestStatusInputAcceptsNamesAndOrdinals(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"studentId":1,"courseId":2,"status":"Completed"}`, "Completed"},
		{`{"studentId":1,"courseId":2,"status":"2"}`, "2"},
		{`{"studentId":1,"courseId":2,"status":1}`, "1"},
		{`{"studentId":1,"courseId":2,"status":null}`, ""},
		{`{"studentId":1,"courseId":2}`, ""},
	}
	for _, tc := range cases {
		var req CreateEnrollmentRequest
		if err := json.Unmarshal([]byte(tc.body), &req); err != nil {
			t.Fatalf("%s: %v", tc.body, err)
		}
		if got := req.ToDraft().Status; got != tc.want {
			t.Fatalf("%s: expected status %q, got %q", tc.body, tc.want, got)
		}
	}

	var bad CreateEnrollmentRequest
	if err := json.Unmarshal([]byte(`{"status":true}`), &bad); err == nil {
		t.Fatal("a boolean status must be rejected")
	}
}

func TestUpdateRequestStatusPresence(t *testing.T) {
	var absent UpdateEnrollmentRequest
	if err := json.Unmarshal([]byte(`{"progress":50}`), &absent); err != nil {
		t.Fatal(err)
	}
	if absent.ToChanges().Status != nil {
		t.Fatal("absent status must stay nil")
	}

	var ordinal UpdateEnrollmentRequest
	if err := json.Unmarshal([]byte(`{"status":0}`), &ordinal); err != nil {
		t.Fatal(err)
	}
	if st := ordinal.ToChanges().Status; st == nil || *st != "0" {
		t.Fatalf("expected ordinal 0, got %v", st)
	}
}
