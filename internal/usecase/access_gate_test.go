package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/alfanzaky/queuehub/internal/domain"
	"github.com/alfanzaky/queuehub/pkg/logger"
)

func TestAccessGate_CheckCall(t *testing.T) {
	logger.SetLogger(zap.NewNop())
	gate := NewAccessGate()

	cases := []struct {
		principal *domain.Principal
		call      RegistryCall
		allowed   bool
	}{
		{tenantAdmin, CallListNames, true},
		{sysAdmin, CallListNames, false},
		{sysAdmin, CallListPage, true},
		{tenantAdmin, CallListPage, true},
		{tenantAdmin, CallSave, false},
		{sysAdmin, CallSave, true},
		{tenantAdmin, CallDelete, true},
		{customer, CallGet, false},
		{nil, CallGet, false},
		{&domain.Principal{Authority: domain.AuthoritySysAdmin}, CallGet, false},
	}
	for _, tc := range cases {
		err := gate.CheckCall(tc.principal, tc.call)
		if tc.allowed {
			assert.NoError(t, err, tc.call)
		} else {
			assert.ErrorIs(t, err, domain.ErrPermissionDenied, tc.call)
		}
	}
}

func TestAccessGate_CheckEntity(t *testing.T) {
	logger.SetLogger(zap.NewNop())
	gate := NewAccessGate()
	own := &domain.Queue{ID: "q1", TenantID: tenantA}
	foreign := &domain.Queue{ID: "q2", TenantID: tenantB}

	assert.NoError(t, gate.CheckEntity(tenantAdmin, OperationRead, own))
	assert.ErrorIs(t, gate.CheckEntity(tenantAdmin, OperationRead, foreign), domain.ErrPermissionDenied)
	assert.ErrorIs(t, gate.CheckEntity(tenantAdmin, OperationWrite, own), domain.ErrPermissionDenied)
	assert.NoError(t, gate.CheckEntity(tenantAdmin, OperationDelete, own))

	assert.NoError(t, gate.CheckEntity(sysAdmin, OperationRead, foreign))
	assert.ErrorIs(t, gate.CheckEntity(sysAdmin, OperationWrite, foreign), domain.ErrPermissionDenied)
	assert.NoError(t, gate.CheckEntity(sysAdminA, OperationWrite, own))

	assert.ErrorIs(t, gate.CheckEntity(customer, OperationRead, own), domain.ErrPermissionDenied)
	assert.ErrorIs(t, gate.CheckEntity(tenantAdmin, OperationRead, nil), domain.ErrPermissionDenied)
}
