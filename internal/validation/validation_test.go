package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/employee_directory/internal/domain"
)

func validFields() domain.EmployeeFields {
	return domain.EmployeeFields{
		FirstName:  "Amy",
		LastName:   "O'Neil-Smith",
		Email:      "amy@example.com",
		Department: domain.DepartmentEngineering,
		Role:       "Engineer",
	}
}

func TestFields(t *testing.T) {
	v := New()

	tests := []struct {
		name   string
		mutate func(f *domain.EmployeeFields)
		want   map[string]string
	}{
		{
			name:   "valid",
			mutate: func(f *domain.EmployeeFields) {},
			want:   map[string]string{},
		},
		{
			name:   "required first name",
			mutate: func(f *domain.EmployeeFields) { f.FirstName = "" },
			want:   map[string]string{"firstName": "First Name is required"},
		},
		{
			name:   "short last name",
			mutate: func(f *domain.EmployeeFields) { f.LastName = "X" },
			want:   map[string]string{"lastName": "Last Name must be at least 2 characters long"},
		},
		{
			name:   "name with digits",
			mutate: func(f *domain.EmployeeFields) { f.FirstName = "Amy2" },
			want:   map[string]string{"firstName": "First Name can only contain letters, spaces, hyphens, and apostrophes"},
		},
		{
			name:   "bad email",
			mutate: func(f *domain.EmployeeFields) { f.Email = "amy@example" },
			want:   map[string]string{"email": "Please enter a valid email address"},
		},
		{
			name:   "unknown department",
			mutate: func(f *domain.EmployeeFields) { f.Department = "Legal" },
			want: map[string]string{
				"department": "Department must be one of: Engineering, Marketing, Sales, HR, Finance, Operations, Design, Support",
			},
		},
		{
			name:   "short role",
			mutate: func(f *domain.EmployeeFields) { f.Role = "Q" },
			want:   map[string]string{"role": "Role must be at least 2 characters long"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFields()
			tt.mutate(&f)
			assert.Equal(t, tt.want, v.Fields(f))
		})
	}
}

func TestFieldsCollectsEveryField(t *testing.T) {
	errs := New().Fields(domain.EmployeeFields{})

	require.Len(t, errs, 5)
	assert.Equal(t, "First Name is required", errs["firstName"])
	assert.Equal(t, "Last Name is required", errs["lastName"])
	assert.Equal(t, "Email Address is required", errs["email"])
	assert.Equal(t, "Department is required", errs["department"])
	assert.Equal(t, "Role is required", errs["role"])
}

func TestEmailUnique(t *testing.T) {
	collection := []domain.Employee{
		{ID: 1, Email: "A@X.com"},
		{ID: 2, Email: "b@x.com"},
	}

	assert.False(t, EmailUnique(collection, "a@x.com", 0))
	assert.False(t, EmailUnique(collection, " B@X.COM ", 1))
	assert.True(t, EmailUnique(collection, "a@x.com", 1), "own email is excluded")
	assert.True(t, EmailUnique(collection, "c@x.com", 0))
}

func TestValidateDuplicateEmail(t *testing.T) {
	v := New()
	collection := []domain.Employee{{ID: 7, Email: "A@X.com"}}
	f := validFields()
	f.Email = "a@x.com"

	err := v.Validate(collection, f, 0)
	require.Error(t, err)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, MsgEmailInUse, verr.Fields["email"])

	assert.NoError(t, v.Validate(collection, f, 7))
}

func TestValidateShapeErrorWinsOverUniqueness(t *testing.T) {
	v := New()
	collection := []domain.Employee{{ID: 1, Email: "bad"}}
	f := validFields()
	f.Email = "bad"

	var verr *domain.ValidationError
	require.ErrorAs(t, v.Validate(collection, f, 0), &verr)
	assert.Equal(t, "Please enter a valid email address", verr.Fields["email"])
}
