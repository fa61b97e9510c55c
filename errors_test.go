package eslintrc

import (
	"errors"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			"missing extend",
			&MissingExtendError{Name: "eslint:stylistic", Importer: "main"},
			`failed to load config "eslint:stylistic" to extend from`,
		},
		{
			"whitespace in name",
			&WhitespaceInNameError{Name: "bad name"},
			"whitespace found in plugin name 'bad name'",
		},
		{
			"dependency load",
			&DependencyLoadError{
				Kind:     DependencyPlugin,
				Name:     "eslint-plugin-ghost",
				Importer: ".eslintrc.json",
				Err:      errors.New("module not found"),
			},
			"failed to load plugin 'eslint-plugin-ghost' declared in '.eslintrc.json': module not found",
		},
		{
			"extends chain",
			&extendsError{err: errors.New("boom"), referrer: "/proj/.eslintrc.json"},
			"boom (referenced from /proj/.eslintrc.json)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDependencyLoadError_Unwrap(t *testing.T) {
	cause := errors.New("module not found")
	err := &DependencyLoadError{Kind: DependencyParser, Name: "x", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the underlying cause")
	}
}

func TestExtendsError_Unwrap(t *testing.T) {
	missing := &MissingExtendError{Name: "ghost"}
	wrapped := &extendsError{err: &extendsError{err: missing, referrer: "b"}, referrer: "a"}

	var got *MissingExtendError
	if !errors.As(wrapped, &got) {
		t.Fatal("errors.As should reach through stacked annotations")
	}
	if got.Name != "ghost" {
		t.Errorf("Name = %q, want %q", got.Name, "ghost")
	}
	want := "failed to load config \"ghost\" to extend from (referenced from b) (referenced from a)"
	if wrapped.Error() != want {
		t.Errorf("Error() = %q, want %q", wrapped.Error(), want)
	}
}
