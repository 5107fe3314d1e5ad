package errors

import (
	stderrs "errors"
	"testing"

	"bonscan/internal/platform/testkit"
)

func TestWrapPreservesCodeAndCause(t *testing.T) {
	cause := stderrs.New("boom")
	err := Wrapf(cause, ErrorCodeConfig, "load %q", "de_DE.yaml")

	if !IsCode(err, ErrorCodeConfig) {
		t.Fatalf("code lost: %v", CodeOf(err))
	}
	if Root(err) != cause {
		t.Fatalf("root cause lost")
	}
	testkit.MustContain(t, err.Error(), "de_DE.yaml")
	testkit.MustContain(t, err.Error(), "boom")
}

func TestCodeOfForeignError(t *testing.T) {
	if CodeOf(stderrs.New("plain")) != ErrorCodeUnknown {
		t.Fatalf("foreign errors must map to unknown")
	}
	if CodeOf(nil) != ErrorCodeUnknown {
		t.Fatalf("nil must map to unknown")
	}
}

func TestSugarCodes(t *testing.T) {
	cases := []struct {
		err  error
		code ErrorCode
	}{
		{NoLocalef("x"), ErrorCodeNoLocale},
		{NoTotalf("x"), ErrorCodeNoTotal},
		{Checksumf("x"), ErrorCodeChecksum},
		{InvalidArgf("x"), ErrorCodeInvalidArgument},
		{Configf("x"), ErrorCodeConfig},
		{NotFoundf("x"), ErrorCodeNotFound},
	}
	for _, c := range cases {
		if !IsCode(c.err, c.code) {
			t.Fatalf("wrong code for %v", c.err)
		}
	}
}

func TestWithFieldAndOp(t *testing.T) {
	err := Validationf("bad separator")
	err = WithField(err, "currency.decimal_separator")
	err = WithOp(err, "localepack.load")

	e, ok := As(err)
	if !ok {
		t.Fatalf("not a structured error")
	}
	if e.Field() != "currency.decimal_separator" || e.Op() != "localepack.load" {
		t.Fatalf("metadata lost: %+v", e)
	}
}

func TestWrapIf(t *testing.T) {
	if WrapIf(nil, ErrorCodeConfig, "x") != nil {
		t.Fatalf("nil must stay nil")
	}
	if !IsCode(WrapIf(stderrs.New("y"), ErrorCodeConfig, "x"), ErrorCodeConfig) {
		t.Fatalf("non-nil must wrap")
	}
}
