package tests

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core/user"
	testutil "github.com/sudarshan-gautam/placement-tracking-app-sub003/tests"
)

func Test_userApi_login(t *testing.T) {
	db.Reset()
	student := testutil.CreateUser(t, usrRepo, "Student", "student", "student@test.cd", "s3cr3t", []string{user.RoleStudent}, true)
	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "ndog", "ndog@test.cd", "s3cr3t", []string{user.RoleStudent}, false)

	body := func(t *testing.T, uname, pwd string) []byte {
		return marchallObj(t, map[string]string{"username": uname, "password": pwd})
	}

	tests := []httpTest{
		{name: "Missing fields", body: body(t, "", ""), wantCode: http.StatusBadRequest},
		{name: "Unknown user", body: body(t, "lol", "lol"), wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"})},
		{name: "Wrong password", body: body(t, student.Username, "lol"), wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"})},
		{name: "Deactivated account", body: body(t, naughty.Username, "s3cr3t"), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "Login with username", body: body(t, student.Username, "s3cr3t"), wantCode: http.StatusOK},
		{name: "Login with email", body: body(t, student.Email, "s3cr3t"), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
			if rec.Code != http.StatusOK {
				return
			}
			var resp struct {
				Token string `json:"token"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshalling LoginResponse: %v", err)
			}
			if resp.Token == "" {
				t.Error("no token returned")
			}
		})
	}
}

func Test_userApi_adminGating(t *testing.T) {
	db.Reset()
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	mentor := testutil.CreateUser(t, usrRepo, "Mentor", "mentor", "mentor@test.cd", "", []string{user.RoleMentor}, true)
	student := testutil.CreateUser(t, usrRepo, "Student", "student", "student@test.cd", "", []string{user.RoleStudent}, true)

	forbidden := marchallObj(t, httpErr{Error: "permission denied"})

	tests := []httpTest{
		{name: "User list needs auth", method: http.MethodGet, path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "User list needs admin", method: http.MethodGet, path: "/v1/users", token: getToken(t, student), wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "Mentor is not admin", method: http.MethodGet, path: "/v1/users", token: getToken(t, mentor), wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "Admin lists users", method: http.MethodGet, path: "/v1/users", token: getToken(t, admin), wantCode: http.StatusOK},
		{name: "Roles need admin", method: http.MethodGet, path: "/v1/users/roles", token: getToken(t, student), wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "Assignments need admin", method: http.MethodGet, path: "/v1/assignments", token: getToken(t, mentor), wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "Student reads own profile", method: http.MethodGet, path: "/v1/users/" + student.ID, token: getToken(t, student), wantCode: http.StatusOK},
		{name: "Student cannot read another profile", method: http.MethodGet, path: "/v1/users/" + mentor.ID, token: getToken(t, student), wantCode: http.StatusNotFound},
		{name: "Admin reads any profile", method: http.MethodGet, path: "/v1/users/" + student.ID, token: getToken(t, admin), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_assignments(t *testing.T) {
	db.Reset()
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	mentor := testutil.CreateUser(t, usrRepo, "Mentor", "mentor", "mentor@test.cd", "", []string{user.RoleMentor}, true)
	student := testutil.CreateUser(t, usrRepo, "Student", "student", "student@test.cd", "", []string{user.RoleStudent}, true)

	adminToken := getToken(t, admin)

	// assign
	req, rec := newAuthRequest(http.MethodPost, "/v1/assignments", adminToken,
		marchallObj(t, user.NewAssignment{MentorID: mentor.ID, StudentID: student.ID}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("assign code = %d, body = %s", rec.Code, rec.Body.String())
	}
	var asg user.Assignment
	if err := json.Unmarshal(rec.Body.Bytes(), &asg); err != nil {
		t.Fatalf("unmarshalling Assignment: %v", err)
	}

	// a student cannot be the mentor half of an assignment
	req, rec = newAuthRequest(http.MethodPost, "/v1/assignments", adminToken,
		marchallObj(t, user.NewAssignment{MentorID: student.ID, StudentID: mentor.ID}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad assign code = %d, body = %s", rec.Code, rec.Body.String())
	}

	// query by mentor
	req, rec = newAuthRequest(http.MethodGet, "/v1/assignments?mentor="+mentor.ID, adminToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("query code = %d, body = %s", rec.Code, rec.Body.String())
	}
	var asgs []user.Assignment
	if err := json.Unmarshal(rec.Body.Bytes(), &asgs); err != nil {
		t.Fatalf("unmarshalling assignments: %v", err)
	}
	if len(asgs) != 1 || asgs[0].ID != asg.ID {
		t.Fatalf("assignments = %v", asgs)
	}

	// unassign
	v := make(url.Values)
	v.Add("id", asg.ID)
	req, rec = newAuthRequest(http.MethodDelete, "/v1/assignments?"+v.Encode(), adminToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("unassign code = %d, body = %s", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/assignments?mentor="+mentor.ID, adminToken)
	app.ServeHTTP(rec, req)
	if err := json.Unmarshal(rec.Body.Bytes(), &asgs); err != nil {
		t.Fatalf("unmarshalling assignments: %v", err)
	}
	if len(asgs) != 0 {
		t.Fatalf("assignments after unassign = %v", asgs)
	}
}
