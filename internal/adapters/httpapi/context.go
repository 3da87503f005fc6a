package httpapi

import (
	"context"

	"github.com/mfc-unidade/treasury-api/internal/domain"
)

type operatorKey struct{}

func WithOperator(ctx context.Context, id domain.OperatorID) context.Context {
	return context.WithValue(ctx, operatorKey{}, id)
}

func OperatorFromContext(ctx context.Context) (domain.OperatorID, bool) {
	v, ok := ctx.Value(operatorKey{}).(domain.OperatorID)
	return v, ok && v != ""
}
