package hostname

import (
	"fmt"
	"testing"

	"github.com/code/app-dub-agpl/internal/apierror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateListNormalizesAndDedupes(t *testing.T) {
	got, err := ValidateList([]string{" GO.Acme.com", "go.acme.com", "app.acme.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"go.acme.com", "app.acme.com"}, got)
}

func TestValidateListAllowsWildcardAndLocalhost(t *testing.T) {
	got, err := ValidateList([]string{"*.acme.com", "localhost", "sub.go.acme.io"})
	require.NoError(t, err)
	assert.Equal(t, []string{"*.acme.com", "localhost", "sub.go.acme.io"}, got)
}

func TestValidateListRejectsInvalidEntries(t *testing.T) {
	cases := [][]string{
		{"good.com", "not a host"},
		{"*.*.double-wildcard.com"},
		{"-leading-hyphen.com"},
		{"nodots"},
		{""},
	}
	for _, hostnames := range cases {
		_, err := ValidateList(hostnames)
		require.Error(t, err, "hostnames %v", hostnames)
		assert.True(t, apierror.IsCode(err, apierror.CodeUnprocessable))
	}
}

func TestValidateListNamesOffendingEntries(t *testing.T) {
	_, err := ValidateList([]string{"good.com", "not a host"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a host")
	assert.NotContains(t, err.Error(), "good.com")
}

func TestValidateListCapsTheList(t *testing.T) {
	hostnames := make([]string, MaxHostnames+1)
	for i := range hostnames {
		hostnames[i] = fmt.Sprintf("host-%d.acme.com", i)
	}

	_, err := ValidateList(hostnames)
	require.Error(t, err)
	assert.True(t, apierror.IsCode(err, apierror.CodeUnprocessable))
}
