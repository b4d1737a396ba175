package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type sample struct {
	Repo string        `mapstructure:"repo" validate:"required,repo"`
	TTL  time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

func TestValidateStructAcceptsValidInput(t *testing.T) {
	require.NoError(t, ValidateStruct(sample{Repo: "acme/widgets", TTL: time.Hour}))
}

func TestValidateStructReportsFieldNames(t *testing.T) {
	err := ValidateStruct(sample{Repo: "widgets"})
	require.Error(t, err)

	var failures ValidationErrors
	require.ErrorAs(t, err, &failures)
	require.Len(t, failures, 2)
	require.Equal(t, "sample.repo", failures[0].Field)
	require.Equal(t, "repo", failures[0].Tag)
	require.Equal(t, "sample.ttl", failures[1].Field)
	require.Equal(t, "gt", failures[1].Tag)
	require.Contains(t, err.Error(), "sample.ttl failed on gt=0")
}

func TestIsRepository(t *testing.T) {
	cases := map[string]bool{
		"acme/widgets":        true,
		"octo-org/repo.name_": true,
		"acme":                false,
		"acme/":               false,
		"/widgets":            false,
		"acme/widgets/extra":  false,
		"-acme/widgets":       false,
		"":                    false,
	}
	for input, want := range cases {
		require.Equalf(t, want, IsRepository(input), "input %q", input)
	}
}
