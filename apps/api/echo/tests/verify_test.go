package tests

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core/record"
	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core/user"
	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core/verify"
	testutil "github.com/sudarshan-gautam/placement-tracking-app-sub003/tests"
)

type verifyFixture struct {
	admin    user.User
	mentor   user.User
	student1 user.User
	student2 user.User

	qualn1 record.Qualification // student1
	qualn2 record.Qualification // student2
	sess1  record.Session       // student1
}

func seedVerifiable(t *testing.T) verifyFixture {
	t.Helper()
	db.Reset()

	f := verifyFixture{
		admin:    testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true),
		mentor:   testutil.CreateUser(t, usrRepo, "Mentor", "mentor", "mentor@test.cd", "", []string{user.RoleMentor}, true),
		student1: testutil.CreateUser(t, usrRepo, "Student One", "student1", "student1@test.cd", "", []string{user.RoleStudent}, true),
		student2: testutil.CreateUser(t, usrRepo, "Student Two", "student2", "student2@test.cd", "", []string{user.RoleStudent}, true),
	}
	testutil.CreateAssignment(t, usrRepo, f.mentor.ID, f.student1.ID)

	f.qualn1 = testutil.CreateQualification(t, recRepo, f.student1.ID, "PGCE")
	f.qualn2 = testutil.CreateQualification(t, recRepo, f.student2.ID, "BSc Mathematics")
	f.sess1 = testutil.CreateSession(t, recRepo, f.student1.ID, "Algebra intro")
	return f
}

func Test_verifyApi_list(t *testing.T) {
	f := seedVerifiable(t)

	path := func(kind, status, owner string) string {
		v := make(url.Values)
		if kind != "" {
			v.Add("kind", kind)
		}
		if status != "" {
			v.Add("status", status)
		}
		if owner != "" {
			v.Add("owner", owner)
		}
		return "/v1/verifiable?" + v.Encode()
	}

	tests := []httpTest{
		{name: "Auth required", path: "/v1/verifiable", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Admin sees all", path: "/v1/verifiable", token: getToken(t, f.admin), wantCode: http.StatusOK, extra: []string{f.qualn1.ID, f.qualn2.ID}},
		{name: "Mentor sees assigned students", path: "/v1/verifiable", token: getToken(t, f.mentor), wantCode: http.StatusOK, extra: []string{f.qualn1.ID}},
		{name: "Student sees own", path: "/v1/verifiable", token: getToken(t, f.student1), wantCode: http.StatusOK, extra: []string{f.qualn1.ID}},
		{name: "Kind filter", path: path("qualification", "", ""), token: getToken(t, f.admin), wantCode: http.StatusOK, extra: []string{f.qualn1.ID, f.qualn2.ID}},
		{name: "Status filter", path: path("qualification", "verified", ""), token: getToken(t, f.admin), wantCode: http.StatusOK, extra: []string{}},
		{name: "Owner filter", path: path("qualification", "", f.student2.ID), token: getToken(t, f.admin), wantCode: http.StatusOK, extra: []string{f.qualn2.ID}},
		{
			name: "Owner filter outside scope", path: path("", "", f.student2.ID), token: getToken(t, f.mentor),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "Unknown kind", path: path("lol", "", ""), token: getToken(t, f.admin), wantCode: http.StatusBadRequest},
		{name: "Unknown status", path: path("", "lol", ""), token: getToken(t, f.admin), wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			wantIDs, ok := tt.extra.([]string)
			if !ok || rec.Code != http.StatusOK {
				return
			}
			var listing verify.Listing
			if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
				t.Fatalf("unmarshalling Listing: %v", err)
			}
			if len(listing.Qualifications) != len(wantIDs) {
				t.Fatalf("got %d qualifications, want %d", len(listing.Qualifications), len(wantIDs))
			}
			got := make(map[string]bool, len(listing.Qualifications))
			for _, q := range listing.Qualifications {
				got[q.ID] = true
			}
			for _, id := range wantIDs {
				if !got[id] {
					t.Errorf("missing qualification %s", id)
				}
			}
		})
	}
}

func Test_verifyApi_counts(t *testing.T) {
	f := seedVerifiable(t)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Admin counts all", token: getToken(t, f.admin), wantCode: http.StatusOK, extra: 3},
		{name: "Mentor counts assigned students", token: getToken(t, f.mentor), wantCode: http.StatusOK, extra: 2},
		{name: "Student counts own", token: getToken(t, f.student2), wantCode: http.StatusOK, extra: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/verifiable/counts", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
			if rec.Code != http.StatusOK {
				return
			}
			var counts verify.PendingCounts
			if err := json.Unmarshal(rec.Body.Bytes(), &counts); err != nil {
				t.Fatalf("unmarshalling PendingCounts: %v", err)
			}
			if counts.Total != tt.extra.(int) {
				t.Errorf("Total = %d, want %d", counts.Total, tt.extra.(int))
			}
		})
	}
}

func Test_verifyApi_setStatus(t *testing.T) {
	f := seedVerifiable(t)

	path := func(kind record.Kind, id string) string {
		return "/v1/verifiable/" + string(kind) + "/" + id + "/status"
	}
	body := func(t *testing.T, status record.Status, feedback string) []byte {
		return marchallObj(t, verify.StatusChange{Status: status, Feedback: feedback})
	}

	tests := []httpTest{
		{
			name: "Auth required", path: path(record.KindQualification, f.qualn1.ID),
			body: body(t, record.StatusVerified, ""), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Student may not review", path: path(record.KindQualification, f.qualn1.ID), token: getToken(t, f.student1),
			body: body(t, record.StatusVerified, ""), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Unknown record", path: path(record.KindQualification, "6a5c2de7-9e26-4e56-8a33-cf1eaa9c5a6d"), token: getToken(t, f.admin),
			body: body(t, record.StatusVerified, ""), wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "record not found"}),
		},
		{
			name: "Mentor outside scope", path: path(record.KindQualification, f.qualn2.ID), token: getToken(t, f.mentor),
			body: body(t, record.StatusVerified, ""), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Rejection requires feedback", path: path(record.KindSession, f.sess1.ID), token: getToken(t, f.mentor),
			body: body(t, record.StatusRejected, ""), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"feedback": "feedback is required when rejecting"}),
		},
		{
			name: "Mentor verifies", path: path(record.KindQualification, f.qualn1.ID), token: getToken(t, f.mentor),
			body: body(t, record.StatusVerified, ""), wantCode: http.StatusOK, extra: record.StatusVerified,
		},
		{
			name: "Admin rejects with feedback", path: path(record.KindSession, f.sess1.ID), token: getToken(t, f.admin),
			body: body(t, record.StatusRejected, "reflection is missing"), wantCode: http.StatusOK, extra: record.StatusRejected,
		},
		{
			name: "Reviewer reverts to pending", path: path(record.KindSession, f.sess1.ID), token: getToken(t, f.admin),
			body: body(t, record.StatusPending, ""), wantCode: http.StatusOK, extra: record.StatusPending,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			wantStatus, ok := tt.extra.(record.Status)
			if !ok || rec.Code != http.StatusOK {
				return
			}
			var ver record.VerificationState
			if err := json.Unmarshal(rec.Body.Bytes(), &ver); err != nil {
				t.Fatalf("unmarshalling VerificationState: %v", err)
			}
			if ver.Status != wantStatus {
				t.Errorf("Status = %s, want %s", ver.Status, wantStatus)
			}
		})
	}
}
