package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfanzaky/queuehub/internal/domain"
)

func TestServiceTypeRouter_Route(t *testing.T) {
	r := NewServiceTypeRouter()

	st, managed, err := r.Route("TB_RULE_ENGINE")
	require.NoError(t, err)
	assert.Equal(t, domain.ServiceTypeRuleEngine, st)
	assert.True(t, managed)

	for _, token := range []string{"TB_CORE", "TB_TRANSPORT", "JS_EXECUTOR", "TB_VERSION_CONTROL"} {
		_, managed, err := r.Route(token)
		require.NoError(t, err, token)
		assert.False(t, managed, token)
	}

	for _, token := range []string{"", "  ", "tb_rule_engine", "RULE_ENGINE"} {
		_, _, err := r.Route(token)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument, token)
	}
}
