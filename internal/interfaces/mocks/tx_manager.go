package mocks

import (
	"context"

	"story-server/internal/interfaces"

	"github.com/stretchr/testify/mock"
)

// Mock TxManager. Если возвращаемая ошибка не задана, fn выполняется с nil querier.
type TxManager struct {
	mock.Mock
}

func (m *TxManager) WithTx(ctx context.Context, fn func(tx interfaces.DBTX) error) error {
	args := m.Called(ctx, fn)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(nil)
}
