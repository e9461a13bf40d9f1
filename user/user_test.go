package user

import (
	"testing"

	"github.com/Abraxas-365/bastion/pkg/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCreateRequest() CreateUserRequest {
	return CreateUserRequest{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "s3cret-pass",
		Age:      30,
		UserType: "admin",
	}
}

func businessCode(t *testing.T, err error) string {
	t.Helper()
	var be *result.Error
	require.ErrorAs(t, err, &be)
	return be.Code
}

func TestCreateRequestValid(t *testing.T) {
	req := validCreateRequest()
	assert.NoError(t, req.Validate())
}

func TestCreateRequestFirstFailureWins(t *testing.T) {
	// both name and email missing: the earlier field is reported
	req := validCreateRequest()
	req.Name = ""
	req.Email = ""

	err := req.Validate()
	assert.Equal(t, result.CodeParamMissing, businessCode(t, err))
	assert.Contains(t, err.Error(), "name")
}

func TestCreateRequestFieldChecks(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*CreateUserRequest)
		wantCode string
	}{
		{"missing email", func(r *CreateUserRequest) { r.Email = "" }, result.CodeParamMissing},
		{"bad email", func(r *CreateUserRequest) { r.Email = "nope" }, result.CodeValidation},
		{"short password", func(r *CreateUserRequest) { r.Password = "abc" }, result.CodeValidation},
		{"zero age", func(r *CreateUserRequest) { r.Age = 0 }, result.CodeParamType},
		{"absurd age", func(r *CreateUserRequest) { r.Age = 200 }, result.CodeParamType},
		{"bad user type", func(r *CreateUserRequest) { r.UserType = "root" }, result.CodeValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validCreateRequest()
			tc.mutate(&req)
			assert.Equal(t, tc.wantCode, businessCode(t, req.Validate()))
		})
	}
}

func TestCreateRequestCrossFieldCheck(t *testing.T) {
	// each field is valid on its own; the combination is not
	req := validCreateRequest()
	req.UserType = "admin"
	req.Age = 16

	err := req.Validate()
	assert.Equal(t, result.CodeValidation, businessCode(t, err))
	assert.Contains(t, err.Error(), "admin")
}

func TestUpdateRequestIgnoresAbsentFields(t *testing.T) {
	req := UpdateUserRequest{}
	assert.NoError(t, req.Validate())
}

func TestUpdateRequestChecksPresentFields(t *testing.T) {
	blank := ""
	req := UpdateUserRequest{Name: &blank}
	assert.Equal(t, result.CodeValidation, businessCode(t, req.Validate()))

	bad := -1
	req = UpdateUserRequest{Age: &bad}
	assert.Equal(t, result.CodeParamType, businessCode(t, req.Validate()))
}

func TestListFilterNormalize(t *testing.T) {
	f := ListFilter{Page: 0, PageSize: 1000}
	f.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 20, f.PageSize)
	assert.Equal(t, 0, f.Offset())

	f = ListFilter{Page: 3, PageSize: 10}
	f.Normalize()
	assert.Equal(t, 20, f.Offset())
}
