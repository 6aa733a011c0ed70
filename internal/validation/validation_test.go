package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequired(t *testing.T) {
	assert.False(t, Required(""))
	assert.False(t, Required("   \t"))
	assert.True(t, Required(" x "))
	assert.False(t, Required("\u00a0\ufeff\v"))
}

func TestEmail(t *testing.T) {
	valid := []string{"jane@x.com", "a@b.c", "a@b.c.d", "first.last+tag@sub.example.org"}
	for _, v := range valid {
		assert.True(t, Email(v), "expected %q valid", v)
	}
	invalid := []string{
		"a@b",
		"@b.com",
		"a@@b.com",
		"a b@c.com",
		"a@.com",
		"",
		"plain",
		"x@y.z ",
		"jane\u00a0doe@x.com",
		"jane\vdoe@x.com",
		"jane\u2028doe@x.com",
		"jane\ufeffdoe@x.com",
		"jane@x\u3000y.com",
	}
	for _, v := range invalid {
		assert.False(t, Email(v), "expected %q invalid", v)
	}
}

func TestPhone(t *testing.T) {
	valid := []string{"+1 (555) 123-4567", "0123456789", "555 555 5555", "(02) 9999-0000"}
	for _, v := range valid {
		assert.True(t, Phone(v), "expected %q valid", v)
	}
	assert.True(t, Phone("555\u00a0555\u00a05555"), "non-breaking spaces separate digits like spaces")
	invalid := []string{"12345", "+123456789", "555-CALL-NOW", "++1234567890", "", "555\u0085555\u00855555"}
	for _, v := range invalid {
		assert.False(t, Phone(v), "expected %q invalid", v)
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		code  string
	}{
		{name: "required empty", field: Field{Name: "name", Required: true}, code: CodeRequiredFieldMissing},
		{name: "required blank email", field: Field{Name: "email", Kind: KindEmail, Value: "  ", Required: true}, code: CodeRequiredFieldMissing},
		{name: "bad email", field: Field{Name: "email", Kind: KindEmail, Value: "nope"}, code: CodeInvalidEmailShape},
		{name: "bad phone", field: Field{Name: "phone", Kind: KindTel, Value: "123"}, code: CodeInvalidPhoneShape},
		{name: "optional empty phone", field: Field{Name: "phone", Kind: KindTel}},
		{name: "trimmed email", field: Field{Name: "email", Kind: KindEmail, Value: " jane@x.com ", Required: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe, ok := Check(tt.field)
			if tt.code == "" {
				require.True(t, ok)
				return
			}
			require.False(t, ok)
			assert.Equal(t, tt.code, fe.Code)
			assert.Equal(t, tt.field.Name, fe.Field)
			assert.NotEmpty(t, fe.Message)
		})
	}
}

func TestCheckAllKeepsOrder(t *testing.T) {
	errs := CheckAll([]Field{
		{Name: "name", Required: true},
		{Name: "email", Kind: KindEmail, Value: "jane@x.com", Required: true},
		{Name: "phone", Kind: KindTel, Value: "12"},
	})
	require.Len(t, errs, 2)
	assert.Equal(t, "name", errs[0].Field)
	assert.Equal(t, "phone", errs[1].Field)
}
